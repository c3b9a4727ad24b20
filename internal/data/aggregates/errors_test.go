package aggregates

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domainagg "github.com/yungbote/coursemarket-backend/internal/domain/aggregates"
)

func TestMapErrorCodes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want domainagg.ErrorCode
	}{
		{"validation", ValidationError("bad input"), domainagg.CodeValidation},
		{"conflict", ConflictError("stale"), domainagg.CodeConflict},
		{"not found", fmt.Errorf("load: %w", gorm.ErrRecordNotFound), domainagg.CodeNotFound},
		{"canceled", context.Canceled, domainagg.CodeRetryable},
		{"pg unique", &pgconn.PgError{Code: "23505"}, domainagg.CodeConflict},
		{"pg fk", &pgconn.PgError{Code: "23503"}, domainagg.CodePreconditionFailed},
		{"pg connection", &pgconn.PgError{Code: "08006"}, domainagg.CodeRetryable},
		{"sqlite unique", errors.New("UNIQUE constraint failed: purchase.session_id"), domainagg.CodeConflict},
		{"sqlite locked", errors.New("database is locked"), domainagg.CodeRetryable},
		{"unknown", errors.New("something odd"), domainagg.CodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := domainagg.CodeOf(MapError("op", tc.err)); got != tc.want {
				t.Fatalf("want %s, got %s", tc.want, got)
			}
		})
	}
}

func TestMapErrorKeepsExistingCode(t *testing.T) {
	in := domainagg.NewError(domainagg.CodeAlreadyEnrolled, "op", "enrolled", nil)
	if out := MapError("other", in); out != in {
		t.Fatalf("expected the coded error back, got %v", out)
	}
	if MapError("op", nil) != nil {
		t.Fatal("nil maps to nil")
	}
}
