package aggregates

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorFormattingAndCodes(t *testing.T) {
	err := NewError(CodeAlreadyEnrolled, "Enrollment.Initiate", "user already enrolled", nil)
	if got := err.Error(); got != "Enrollment.Initiate: user already enrolled (already_enrolled)" {
		t.Fatalf("unexpected message: %q", got)
	}
	wrapped := fmt.Errorf("checkout: %w", err)
	if !IsCode(wrapped, CodeAlreadyEnrolled) {
		t.Fatalf("expected code to survive wrapping")
	}
	if MessageOf(wrapped) != "user already enrolled" {
		t.Fatalf("unexpected MessageOf: %q", MessageOf(wrapped))
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(CodeRetryable, "store.write", cause)
	if !errors.Is(err, cause) {
		t.Fatal("cause should be reachable with errors.Is")
	}
	if CodeOf(err) != CodeRetryable {
		t.Fatalf("unexpected code: %s", CodeOf(err))
	}
	if Wrap(CodeInternal, "x", nil) != nil {
		t.Fatal("wrapping nil should return nil")
	}
}

func TestContractsCoverTheirTables(t *testing.T) {
	for _, table := range []string{"purchase", "user_course", "course_student"} {
		if !PurchaseSettlementAggregateContract.Covers(table) {
			t.Fatalf("settlement should cover %s", table)
		}
	}
	if PurchaseSettlementAggregateContract.Covers("course_progress") {
		t.Fatal("settlement does not write progress")
	}
	if !LectureProgressAggregateContract.Covers("course_progress_lecture") {
		t.Fatal("progress should cover completed lectures")
	}
}
