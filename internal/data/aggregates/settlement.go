package aggregates

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/coursemarket-backend/internal/data/repos"
	types "github.com/yungbote/coursemarket-backend/internal/domain"
	domainagg "github.com/yungbote/coursemarket-backend/internal/domain/aggregates"
	"github.com/yungbote/coursemarket-backend/internal/platform/dbctx"
)

type PurchaseSettlementAggregateDeps struct {
	Base        BaseDeps
	Purchases   repos.PurchaseRepo
	Enrollments repos.EnrollmentRepo
}

type purchaseSettlementAggregate struct {
	deps PurchaseSettlementAggregateDeps
}

func NewPurchaseSettlementAggregate(deps PurchaseSettlementAggregateDeps) domainagg.PurchaseSettlementAggregate {
	deps.Base = deps.Base.filled()
	return &purchaseSettlementAggregate{deps: deps}
}

func (a *purchaseSettlementAggregate) Contract() domainagg.Contract {
	return domainagg.PurchaseSettlementAggregateContract
}

func (a *purchaseSettlementAggregate) Complete(ctx context.Context, in SettlePurchaseInput) (SettlePurchaseResult, error) {
	const op = "Billing.PurchaseSettlement.Complete"
	return a.settle(ctx, op, in, types.PurchaseStatusCompleted)
}

func (a *purchaseSettlementAggregate) Fail(ctx context.Context, in SettlePurchaseInput) (SettlePurchaseResult, error) {
	const op = "Billing.PurchaseSettlement.Fail"
	return a.settle(ctx, op, in, types.PurchaseStatusFailed)
}

type (
	SettlePurchaseInput  = domainagg.SettlePurchaseInput
	SettlePurchaseResult = domainagg.SettlePurchaseResult
)

func (a *purchaseSettlementAggregate) settle(ctx context.Context, op string, in SettlePurchaseInput, target string) (SettlePurchaseResult, error) {
	out := SettlePurchaseResult{PurchaseID: in.PurchaseID}
	if in.PurchaseID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "purchase id is required", nil)
	}
	if a.deps.Purchases == nil || a.deps.Enrollments == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "settlement aggregate not configured", nil)
	}
	at := in.SettledAt.UTC()
	if in.SettledAt.IsZero() {
		at = time.Now().UTC()
	}
	sessionID := strings.TrimSpace(in.SessionID)

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		out = SettlePurchaseResult{PurchaseID: in.PurchaseID}
		p, err := a.deps.Purchases.GetByID(dbc, in.PurchaseID)
		if err != nil {
			return err
		}
		if p == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, "purchase not found", nil)
		}
		if sessionID != "" && p.Session() != sessionID {
			return domainagg.NewError(domainagg.CodeNotFound, op, "session does not belong to purchase", nil)
		}
		out.UserID = p.UserID
		out.CourseID = p.CourseID
		out.Status = p.Status
		if p.IsTerminal() {
			return nil
		}
		if target == types.PurchaseStatusCompleted && in.GrossAmount != nil && !in.GrossAmount.Equal(p.Amount) {
			return InvariantError("gross amount " + in.GrossAmount.String() + " does not match purchase amount " + p.Amount.String())
		}

		updates := map[string]any{"status": target, "updated_at": at}
		switch target {
		case types.PurchaseStatusCompleted:
			updates["completed_at"] = at
			if ref := strings.TrimSpace(in.ExternalRef); ref != "" {
				updates["external_ref"] = ref
			}
		case types.PurchaseStatusFailed:
			updates["failed_at"] = at
			updates["failure_reason"] = strings.TrimSpace(in.Reason)
		}
		won, err := a.deps.Base.CASGuard.TransitionFrom(dbc, "purchase", p.ID, []string{types.PurchaseStatusPending}, updates)
		if err != nil {
			return err
		}
		if !won {
			// A concurrent delivery settled it first.
			cur, err := a.deps.Purchases.GetByID(dbc, p.ID)
			if err != nil {
				return err
			}
			if cur != nil {
				out.Status = cur.Status
			}
			return nil
		}
		out.Status = target
		out.Transitioned = true
		if target != types.PurchaseStatusCompleted {
			return nil
		}

		if out.UserCourseAdded, err = a.deps.Enrollments.AddUserCourse(dbc, p.UserID, p.CourseID, at); err != nil {
			return err
		}
		if out.CourseStudentAdded, err = a.deps.Enrollments.AddCourseStudent(dbc, p.CourseID, p.UserID, at); err != nil {
			return err
		}
		if out.UserCourseAdded != out.CourseStudentAdded {
			a.deps.Base.Log.Warn("enrollment mirror was out of sync; repaired",
				"purchase_id", p.ID.String(),
				"course_id", p.CourseID.String(),
				"user_course_added", out.UserCourseAdded,
				"course_student_added", out.CourseStudentAdded,
			)
		}
		return nil
	})
	if err != nil {
		return SettlePurchaseResult{PurchaseID: in.PurchaseID}, err
	}
	return out, nil
}
