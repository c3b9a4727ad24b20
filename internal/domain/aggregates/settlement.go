package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var PurchaseSettlementAggregateContract = Contract{
	Name:   "billing.purchase_settlement",
	Writes: []string{"purchase", "user_course", "course_student"},
	Notes: "Owns the pending->terminal purchase transition and the mirrored user/course " +
		"enrollment grant in one write boundary. First terminal outcome wins.",
}

// PurchaseSettlementAggregate settles purchases exactly once.
//
// A purchase that is already terminal is not an error: the result reports
// Transitioned=false and the current status so callers can acknowledge.
type PurchaseSettlementAggregate interface {
	Aggregate

	// Complete moves pending->completed and adds the user/course pair to both
	// enrollment sets. Both effects commit together or not at all.
	Complete(ctx context.Context, in SettlePurchaseInput) (SettlePurchaseResult, error)

	// Fail moves pending->failed. Enrollment is untouched.
	Fail(ctx context.Context, in SettlePurchaseInput) (SettlePurchaseResult, error)
}

type SettlePurchaseInput struct {
	PurchaseID  uuid.UUID
	SessionID   string
	ExternalRef string
	Reason      string
	SettledAt   time.Time
	// GrossAmount, when set on Complete, must equal the purchase amount or
	// the settlement is refused with CodeInvariantViolation.
	GrossAmount *decimal.Decimal
}

type SettlePurchaseResult struct {
	PurchaseID   uuid.UUID
	UserID       string
	CourseID     uuid.UUID
	Status       string
	Transitioned bool
	// Set-add outcomes; false means the membership already existed.
	UserCourseAdded    bool
	CourseStudentAdded bool
}
