package services

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yungbote/coursemarket-backend/internal/clients/midtrans"
	"github.com/yungbote/coursemarket-backend/internal/data/repos"
	types "github.com/yungbote/coursemarket-backend/internal/domain"
	domainagg "github.com/yungbote/coursemarket-backend/internal/domain/aggregates"
	"github.com/yungbote/coursemarket-backend/internal/observability"
	"github.com/yungbote/coursemarket-backend/internal/platform/dbctx"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
)

type CheckoutConfig struct {
	Currency   string
	MinorUnits int32
	// FinishURL is where buyers land after paying and where free
	// enrollments redirect straight away.
	FinishURL string
	// SessionTTL bounds how long an open checkout is handed back instead of
	// starting a new one. Keep it under the processor's session expiry.
	SessionTTL time.Duration
}

type Checkout struct {
	PurchaseID     uuid.UUID       `json:"purchase_id"`
	RedirectTarget string          `json:"redirect_target"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Status         string          `json:"status"`
}

type EnrollmentService interface {
	// InitiateEnrollment creates a pending purchase and a payment session, or
	// hands back the buyer's open checkout for the same course and price.
	// Access is granted only once the processor confirms payment.
	InitiateEnrollment(ctx context.Context, userID string, courseID uuid.UUID) (*Checkout, error)
	GetPurchase(ctx context.Context, userID string, purchaseID uuid.UUID) (*types.Purchase, error)
}

type enrollmentService struct {
	db          *gorm.DB
	log         *logger.Logger
	users       repos.UserRepo
	courses     repos.CourseRepo
	enrollments repos.EnrollmentRepo
	purchases   repos.PurchaseRepo
	gateway     midtrans.Client
	settlement  domainagg.PurchaseSettlementAggregate
	cfg         CheckoutConfig
}

func NewEnrollmentService(
	db *gorm.DB,
	log *logger.Logger,
	users repos.UserRepo,
	courses repos.CourseRepo,
	enrollments repos.EnrollmentRepo,
	purchases repos.PurchaseRepo,
	gateway midtrans.Client,
	settlement domainagg.PurchaseSettlementAggregate,
	cfg CheckoutConfig,
) EnrollmentService {
	if strings.TrimSpace(cfg.Currency) == "" {
		cfg.Currency = "IDR"
	}
	// The stored amount must be what the processor collects.
	if cfg.MinorUnits > midtrans.MinorUnits {
		cfg.MinorUnits = midtrans.MinorUnits
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 23 * time.Hour
	}
	return &enrollmentService{
		db:          db,
		log:         log.With("service", "EnrollmentService"),
		users:       users,
		courses:     courses,
		enrollments: enrollments,
		purchases:   purchases,
		gateway:     gateway,
		settlement:  settlement,
		cfg:         cfg,
	}
}

func (s *enrollmentService) InitiateEnrollment(ctx context.Context, userID string, courseID uuid.UUID) (*Checkout, error) {
	const op = "Enrollment.InitiateEnrollment"
	userID = strings.TrimSpace(userID)
	if userID == "" || courseID == uuid.Nil {
		return nil, errValidation(op, "user_id and course_id are required")
	}
	dbc := dbctx.Context{Ctx: ctx}

	user, err := s.users.GetByID(dbc, userID)
	if err != nil {
		return nil, errStore(op, err)
	}
	if user == nil {
		return nil, errNotFound(op, "user not found")
	}
	course, err := s.courses.GetByID(dbc, courseID)
	if err != nil {
		return nil, errStore(op, err)
	}
	if course == nil {
		return nil, errNotFound(op, "course not found")
	}
	if !course.IsPublished {
		return nil, domainagg.NewError(domainagg.CodeCourseUnpublished, op, "course is not published", nil)
	}
	enrolled, err := s.enrollments.IsStudent(dbc, course.ID, user.ID)
	if err != nil {
		return nil, errStore(op, err)
	}
	if enrolled {
		observability.Current().IncCheckout("already_enrolled")
		return nil, domainagg.NewError(domainagg.CodeAlreadyEnrolled, op, "user is already enrolled in this course", nil)
	}

	amount, err := ChargeAmount(course.Price, course.DiscountPercent, s.cfg.MinorUnits)
	if err != nil {
		return nil, domainagg.NewError(domainagg.CodeInvariantViolation, op, "course pricing is invalid", err)
	}

	if !amount.IsZero() {
		open, err := s.purchases.FindOpenCheckout(dbc, user.ID, course.ID, time.Now().Add(-s.cfg.SessionTTL))
		if err != nil {
			return nil, errStore(op, err)
		}
		// A price change since then means a new session.
		if open != nil && open.RedirectURL != "" && open.Amount.Equal(amount) {
			observability.Current().IncCheckout("reused")
			s.log.Info("checkout reused", "purchase_id", open.ID.String(), "session_id", open.Session())
			return &Checkout{
				PurchaseID:     open.ID,
				RedirectTarget: open.RedirectURL,
				Amount:         open.Amount,
				Currency:       open.Currency,
				Status:         open.Status,
			}, nil
		}
	}

	purchase := &types.Purchase{
		UserID:   user.ID,
		CourseID: course.ID,
		Amount:   amount,
		Currency: s.cfg.Currency,
		Status:   types.PurchaseStatusPending,
	}
	if err := s.purchases.Create(dbc, purchase); err != nil {
		return nil, errStore(op, err)
	}
	out := &Checkout{
		PurchaseID: purchase.ID,
		Amount:     amount,
		Currency:   purchase.Currency,
		Status:     purchase.Status,
	}

	if amount.IsZero() {
		// Nothing to collect; settle through the same path a paid
		// confirmation takes.
		res, err := s.settlement.Complete(ctx, domainagg.SettlePurchaseInput{
			PurchaseID:  purchase.ID,
			ExternalRef: "free",
			SettledAt:   time.Now(),
		})
		if err != nil {
			return nil, err
		}
		out.Status = res.Status
		out.RedirectTarget = s.finishURL(purchase.ID, course.ID)
		observability.Current().IncCheckout("free")
		return out, nil
	}

	if s.gateway == nil {
		return nil, errUpstream(op, nil)
	}
	sessionID := "cm-" + uuid.NewString()
	first, last := splitName(user.Name)
	session, err := s.gateway.CreateSession(ctx, midtrans.SessionRequest{
		OrderID:    sessionID,
		PurchaseID: purchase.ID.String(),
		Amount:     GatewayAmount(amount),
		Customer:   midtrans.Customer{FirstName: first, LastName: last, Email: user.Email},
		Item:       midtrans.Item{ID: course.ID.String(), Name: course.Title, Category: "course"},
	})
	if err != nil {
		// The purchase stays pending with no session; it is never settled
		// and the buyer may start a new checkout.
		s.log.Warn("payment session creation failed",
			"purchase_id", purchase.ID.String(),
			"course_id", course.ID.String(),
			"error", err,
		)
		observability.Current().IncCheckout("session_failed")
		return nil, errUpstream(op, err)
	}
	attached, err := s.purchases.AttachSession(dbc, purchase.ID, session.OrderID, session.RedirectURL)
	if err != nil {
		return nil, errStore(op, err)
	}
	if !attached {
		return nil, domainagg.NewError(domainagg.CodeConflict, op, "purchase session already attached", nil)
	}

	out.RedirectTarget = session.RedirectURL
	observability.Current().IncCheckout("created")
	s.log.Info("checkout created",
		"purchase_id", purchase.ID.String(),
		"course_id", course.ID.String(),
		"session_id", session.OrderID,
		"amount", amount.String(),
	)
	return out, nil
}

func (s *enrollmentService) GetPurchase(ctx context.Context, userID string, purchaseID uuid.UUID) (*types.Purchase, error) {
	const op = "Enrollment.GetPurchase"
	if purchaseID == uuid.Nil {
		return nil, errValidation(op, "purchase id is required")
	}
	p, err := s.purchases.GetByID(dbctx.Context{Ctx: ctx}, purchaseID)
	if err != nil {
		return nil, errStore(op, err)
	}
	if p == nil || p.UserID != strings.TrimSpace(userID) {
		return nil, errNotFound(op, "purchase not found")
	}
	return p, nil
}

func (s *enrollmentService) finishURL(purchaseID, courseID uuid.UUID) string {
	base := strings.TrimSpace(s.cfg.FinishURL)
	if base == "" {
		return "/courses/" + courseID.String()
	}
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	q.Set("purchase_id", purchaseID.String())
	q.Set("course_id", courseID.String())
	u.RawQuery = q.Encode()
	return u.String()
}

func splitName(name string) (string, string) {
	name = strings.TrimSpace(name)
	first, last, _ := strings.Cut(name, " ")
	return first, strings.TrimSpace(last)
}
