package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/yungbote/coursemarket-backend/internal/clients/midtrans"
	"github.com/yungbote/coursemarket-backend/internal/clients/redis"
	"github.com/yungbote/coursemarket-backend/internal/data/repos"
	types "github.com/yungbote/coursemarket-backend/internal/domain"
	domainagg "github.com/yungbote/coursemarket-backend/internal/domain/aggregates"
	"github.com/yungbote/coursemarket-backend/internal/observability"
	"github.com/yungbote/coursemarket-backend/internal/platform/dbctx"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
)

type PaymentReconciliationService interface {
	// HandleNotification verifies and applies one processor notification.
	HandleNotification(ctx context.Context, body []byte) (*WebhookResult, error)
	// ReconcilePending re-checks stale pending purchases at the processor.
	ReconcilePending(ctx context.Context, olderThan time.Duration, limit int) (*SweepReport, error)
}

type SweepReport struct {
	Scanned      int `json:"scanned"`
	Completed    int `json:"completed"`
	Failed       int `json:"failed"`
	StillPending int `json:"still_pending"`
	Errors       int `json:"errors"`
}

type paymentReconciliationService struct {
	db         *gorm.DB
	log        *logger.Logger
	gateway    midtrans.Client
	purchases  repos.PurchaseRepo
	events     repos.WebhookEventRepo
	settlement domainagg.PurchaseSettlementAggregate
	notifier   EnrollmentNotifier
	replay     redis.ReplayGuard
	now        func() time.Time
}

func NewPaymentReconciliationService(
	db *gorm.DB,
	log *logger.Logger,
	gateway midtrans.Client,
	purchases repos.PurchaseRepo,
	events repos.WebhookEventRepo,
	settlement domainagg.PurchaseSettlementAggregate,
	notifier EnrollmentNotifier,
	replay redis.ReplayGuard,
) PaymentReconciliationService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if replay == nil {
		replay = redis.NewMemoryReplayGuard(0)
	}
	return &paymentReconciliationService{
		db:         db,
		log:        log.With("service", "PaymentReconciliationService"),
		gateway:    gateway,
		purchases:  purchases,
		events:     events,
		settlement: settlement,
		notifier:   notifier,
		replay:     replay,
		now:        time.Now,
	}
}

func (s *paymentReconciliationService) HandleNotification(ctx context.Context, body []byte) (*WebhookResult, error) {
	const op = "PaymentReconciliation.HandleNotification"
	start := s.now()
	ctx, span := observability.Tracer("coursemarket/reconciliation").Start(ctx, "payment.notification")
	defer span.End()

	res, err := s.handle(ctx, op, body)
	outcome := "failed"
	switch {
	case err == nil:
		outcome = res.Outcome
		span.SetAttributes(attribute.String("webhook.outcome", res.Outcome))
	case domainagg.IsCode(err, domainagg.CodeAuthentication):
		outcome = "rejected"
		span.SetStatus(codes.Error, "rejected")
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, string(domainagg.CodeOf(err)))
	}
	observability.Current().ObserveWebhook(types.WebhookProviderPayment, outcome, time.Since(start))
	return res, err
}

func (s *paymentReconciliationService) handle(ctx context.Context, op string, body []byte) (*WebhookResult, error) {
	if s.gateway == nil {
		return nil, errAuthentication(op, errors.New("payment gateway not configured"))
	}
	n, err := midtrans.ParseNotification(body)
	if err != nil {
		return nil, errAuthentication(op, err)
	}
	if err := s.gateway.VerifyNotification(n); err != nil {
		s.log.Warn("payment notification rejected", "session_id", n.OrderID, "error", err)
		return nil, errAuthentication(op, err)
	}

	status := strings.ToLower(strings.TrimSpace(n.TransactionStatus))
	res := &WebhookResult{EventType: status, DeliveryID: n.OrderID}
	replayKey := strings.Join([]string{types.WebhookProviderPayment, n.OrderID, status, n.StatusCode}, ":")
	if seen, err := s.replay.Seen(ctx, replayKey); err != nil {
		s.log.Warn("replay guard lookup failed; processing anyway", "error", err)
	} else if seen {
		res.Outcome = WebhookDuplicate
		return res, nil
	}

	dbc := dbctx.Context{Ctx: ctx}
	key := repos.WebhookEventKey{Provider: types.WebhookProviderPayment, DeliveryID: n.OrderID, EventType: status}
	if _, err := s.events.Record(dbc, key, n.OrderID, s.now()); err != nil {
		return nil, errStore(op, err)
	}

	// transaction_status is outside the signature, so the body only decides
	// whether the processor is worth asking.
	if n.Outcome() == midtrans.OutcomeOther {
		return s.ackIgnored(dbc, key, res, "non-terminal status")
	}

	purchaseID, rec, err := s.resolvePurchase(ctx, n.OrderID)
	if err != nil {
		if domainagg.IsCode(err, domainagg.CodeNotFound) {
			return s.ackUnresolved(dbc, key, res, err)
		}
		_ = s.events.MarkStatus(dbc, key, types.WebhookStatusFailed, err.Error(), s.now())
		return nil, err
	}
	outcome := rec.Outcome()
	if outcome == midtrans.OutcomeOther {
		s.log.Warn("notification status not confirmed by processor",
			"session_id", n.OrderID,
			"notified", status,
			"processor", rec.TransactionStatus,
		)
		return s.ackIgnored(dbc, key, res, "processor reports "+strings.ToLower(rec.TransactionStatus))
	}

	settled, err := s.apply(ctx, purchaseID, *rec, outcome)
	if err != nil {
		switch {
		case domainagg.IsCode(err, domainagg.CodeNotFound):
			return s.ackUnresolved(dbc, key, res, err)
		case domainagg.IsCode(err, domainagg.CodeInvariantViolation):
			// Redelivery cannot fix an amount mismatch; leave the purchase
			// pending for an operator.
			s.log.Error("payment notification refused", "session_id", n.OrderID, "error", err)
			res.Outcome = WebhookIgnored
			res.Reason = "amount mismatch"
			if merr := s.events.MarkStatus(dbc, key, types.WebhookStatusFailed, err.Error(), s.now()); merr != nil {
				return nil, errStore(op, merr)
			}
			return res, nil
		}
		_ = s.events.MarkStatus(dbc, key, types.WebhookStatusFailed, err.Error(), s.now())
		return nil, err
	}

	res.Outcome = WebhookProcessed
	if !settled.Transitioned {
		res.Reason = "purchase already " + settled.Status
	}
	if err := s.events.MarkStatus(dbc, key, types.WebhookStatusProcessed, res.Reason, s.now()); err != nil {
		return nil, errStore(op, err)
	}
	if err := s.replay.Mark(ctx, replayKey); err != nil {
		s.log.Warn("replay guard mark failed", "error", err)
	}
	return res, nil
}

// resolvePurchase reads the purchase id from the processor's own session
// record rather than trusting anything in the notification body.
func (s *paymentReconciliationService) resolvePurchase(ctx context.Context, sessionID string) (uuid.UUID, *midtrans.Notification, error) {
	const op = "PaymentReconciliation.resolvePurchase"
	rec, err := s.gateway.LookupStatus(ctx, sessionID)
	if errors.Is(err, midtrans.ErrSessionNotFound) {
		return uuid.Nil, nil, errNotFound(op, "session unknown to processor")
	}
	if err != nil {
		return uuid.Nil, nil, errUpstream(op, err)
	}
	id, err := uuid.Parse(strings.TrimSpace(rec.CustomField1))
	if err != nil {
		return uuid.Nil, nil, errNotFound(op, "session carries no purchase reference")
	}
	if rec.OrderID == "" {
		rec.OrderID = sessionID
	}
	return id, rec, nil
}

// apply settles from the processor's own record of the session.
func (s *paymentReconciliationService) apply(ctx context.Context, purchaseID uuid.UUID, n midtrans.Notification, outcome midtrans.Outcome) (domainagg.SettlePurchaseResult, error) {
	in := domainagg.SettlePurchaseInput{
		PurchaseID:  purchaseID,
		SessionID:   n.OrderID,
		ExternalRef: n.TransactionID,
		Reason:      strings.ToLower(strings.TrimSpace(n.TransactionStatus)),
		SettledAt:   s.now(),
	}
	if outcome == midtrans.OutcomeSucceeded {
		gross, err := decimal.NewFromString(strings.TrimSpace(n.GrossAmount))
		if err != nil {
			return domainagg.SettlePurchaseResult{}, domainagg.NewError(domainagg.CodeInvariantViolation,
				"PaymentReconciliation.apply", "processor gross_amount is not a number", err)
		}
		in.GrossAmount = &gross
	}
	var (
		res domainagg.SettlePurchaseResult
		err error
	)
	if outcome == midtrans.OutcomeSucceeded {
		res, err = s.settlement.Complete(ctx, in)
	} else {
		res, err = s.settlement.Fail(ctx, in)
	}
	if err != nil {
		return res, err
	}
	observability.Current().IncSettlement(res.Status, res.Transitioned)
	s.log.Info("purchase settled",
		"purchase_id", purchaseID.String(),
		"session_id", n.OrderID,
		"status", res.Status,
		"transitioned", res.Transitioned,
	)
	if res.Transitioned && res.Status == types.PurchaseStatusCompleted {
		notifyAfterCommit(ctx, s.log, s.notifier, res.UserID, res.CourseID, res.PurchaseID)
	}
	return res, nil
}

func (s *paymentReconciliationService) ackIgnored(dbc dbctx.Context, key repos.WebhookEventKey, res *WebhookResult, reason string) (*WebhookResult, error) {
	res.Outcome = WebhookIgnored
	res.Reason = reason
	if err := s.events.MarkStatus(dbc, key, types.WebhookStatusIgnored, reason, s.now()); err != nil {
		return nil, errStore("PaymentReconciliation.ackIgnored", err)
	}
	return res, nil
}

func (s *paymentReconciliationService) ackUnresolved(dbc dbctx.Context, key repos.WebhookEventKey, res *WebhookResult, cause error) (*WebhookResult, error) {
	s.log.Warn("payment notification did not resolve to a purchase", "session_id", key.DeliveryID, "error", cause)
	res.Outcome = WebhookIgnored
	res.Reason = "purchase not found"
	if err := s.events.MarkStatus(dbc, key, types.WebhookStatusIgnored, cause.Error(), s.now()); err != nil {
		return nil, errStore("PaymentReconciliation.ackUnresolved", err)
	}
	return res, nil
}

func (s *paymentReconciliationService) ReconcilePending(ctx context.Context, olderThan time.Duration, limit int) (*SweepReport, error) {
	const op = "PaymentReconciliation.ReconcilePending"
	if s.gateway == nil {
		return nil, errUpstream(op, errors.New("payment gateway not configured"))
	}
	if limit <= 0 {
		limit = 100
	}
	cutoff := s.now().Add(-olderThan)
	pending, err := s.purchases.ListPendingWithSession(dbctx.Context{Ctx: ctx}, cutoff, limit)
	if err != nil {
		return nil, errStore(op, err)
	}
	report := &SweepReport{}
	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Scanned++
		sessionID := p.Session()
		rec, err := s.gateway.LookupStatus(ctx, sessionID)
		if errors.Is(err, midtrans.ErrSessionNotFound) {
			report.StillPending++
			continue
		}
		if err != nil {
			report.Errors++
			s.log.Warn("sweep status lookup failed", "purchase_id", p.ID.String(), "error", err)
			continue
		}
		if rec.OrderID == "" {
			rec.OrderID = sessionID
		}
		outcome := rec.Outcome()
		if outcome == midtrans.OutcomeOther {
			report.StillPending++
			continue
		}
		res, err := s.apply(ctx, p.ID, *rec, outcome)
		if err != nil {
			report.Errors++
			s.log.Warn("sweep settlement failed", "purchase_id", p.ID.String(), "error", err)
			continue
		}
		switch res.Status {
		case types.PurchaseStatusCompleted:
			report.Completed++
		case types.PurchaseStatusFailed:
			report.Failed++
		}
	}
	s.log.Info("pending purchase sweep finished",
		"scanned", report.Scanned,
		"completed", report.Completed,
		"failed", report.Failed,
		"still_pending", report.StillPending,
		"errors", report.Errors,
	)
	return report, nil
}
