package services

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/coursemarket-backend/internal/clients/identity"
	"github.com/yungbote/coursemarket-backend/internal/clients/midtrans"
	"github.com/yungbote/coursemarket-backend/internal/clients/redis"
	"github.com/yungbote/coursemarket-backend/internal/data/aggregates"
	"github.com/yungbote/coursemarket-backend/internal/data/repos"
	repotest "github.com/yungbote/coursemarket-backend/internal/data/repos/testutil"
	types "github.com/yungbote/coursemarket-backend/internal/domain"
	domainagg "github.com/yungbote/coursemarket-backend/internal/domain/aggregates"
	"github.com/yungbote/coursemarket-backend/internal/platform/dbctx"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
	"github.com/yungbote/coursemarket-backend/internal/platform/sendgrid"
)

const testServerKey = "SB-Mid-server-test"

type fakeGateway struct {
	mu         sync.Mutex
	sessions   []midtrans.SessionRequest
	statuses   map[string]*midtrans.Notification
	createErr  error
	lookupErr  error
	lookupHits int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{statuses: map[string]*midtrans.Notification{}}
}

func (g *fakeGateway) CreateSession(_ context.Context, req midtrans.SessionRequest) (*midtrans.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.sessions = append(g.sessions, req)
	g.statuses[req.OrderID] = &midtrans.Notification{
		OrderID:           req.OrderID,
		TransactionStatus: "pending",
		StatusCode:        "201",
		GrossAmount:       strconv.FormatInt(req.Amount, 10) + ".00",
		CustomField1:      req.PurchaseID,
	}
	return &midtrans.Session{
		OrderID:     req.OrderID,
		Token:       "tok-" + req.OrderID,
		RedirectURL: "https://pay.example.com/snap/" + req.OrderID,
	}, nil
}

func (g *fakeGateway) LookupStatus(_ context.Context, orderID string) (*midtrans.Notification, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lookupHits++
	if g.lookupErr != nil {
		return nil, g.lookupErr
	}
	n, ok := g.statuses[orderID]
	if !ok {
		return nil, midtrans.ErrSessionNotFound
	}
	cp := *n
	return &cp, nil
}

func (g *fakeGateway) VerifyNotification(n midtrans.Notification) error {
	if !midtrans.VerifySignature(n, testServerKey) {
		return midtrans.ErrInvalidSignature
	}
	return nil
}

// setStatus moves the processor-side record, as a real payment would.
func (g *fakeGateway) setStatus(orderID, status, code string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if n, ok := g.statuses[orderID]; ok {
		n.TransactionStatus = status
		n.StatusCode = code
		n.TransactionID = "trx-" + orderID
	}
}

func (g *fakeGateway) setGrossAmount(orderID, gross string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if n, ok := g.statuses[orderID]; ok {
		n.GrossAmount = gross
	}
}

func (g *fakeGateway) lastSession(t *testing.T) midtrans.SessionRequest {
	t.Helper()
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.sessions) == 0 {
		t.Fatal("no payment session was created")
	}
	return g.sessions[len(g.sessions)-1]
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sendgrid.SendEmailRequest
	err  error
}

func (m *fakeMailer) Send(_ context.Context, req sendgrid.SendEmailRequest) (*sendgrid.SendEmailResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.sent = append(m.sent, req)
	return &sendgrid.SendEmailResult{StatusCode: 202, MessageID: "msg-1"}, nil
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type fakeIdentity struct {
	users map[string]*identity.UserPayload
	err   error
}

func (f *fakeIdentity) GetUser(_ context.Context, id string) (*identity.UserPayload, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeIdentity) UpdateRole(_ context.Context, id, role string) (*identity.UserPayload, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	u.PublicMetadata.Role = role
	return u, nil
}

type harness struct {
	ctx context.Context
	db  *gorm.DB
	log *logger.Logger

	users       repos.UserRepo
	courses     repos.CourseRepo
	enrollments repos.EnrollmentRepo
	ratings     repos.RatingRepo
	purchases   repos.PurchaseRepo
	progress    repos.CourseProgressRepo
	events      repos.WebhookEventRepo

	settlement domainagg.PurchaseSettlementAggregate
	gateway    *fakeGateway
	mailer     *fakeMailer
	provider   *fakeIdentity
	replay     redis.ReplayGuard
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := repotest.DB(t)
	log := repotest.Logger(t)
	h := &harness{
		ctx:         context.Background(),
		db:          db,
		log:         log,
		users:       repos.NewUserRepo(db, log),
		courses:     repos.NewCourseRepo(db, log),
		enrollments: repos.NewEnrollmentRepo(db, log),
		ratings:     repos.NewRatingRepo(db, log),
		purchases:   repos.NewPurchaseRepo(db, log),
		progress:    repos.NewCourseProgressRepo(db, log),
		events:      repos.NewWebhookEventRepo(db, log),
		gateway:     newFakeGateway(),
		mailer:      &fakeMailer{},
		provider:    &fakeIdentity{users: map[string]*identity.UserPayload{}},
		replay:      redis.NewMemoryReplayGuard(time.Hour),
	}
	h.settlement = aggregates.NewPurchaseSettlementAggregate(aggregates.PurchaseSettlementAggregateDeps{
		Base:        aggregates.BaseDeps{DB: db, Log: log},
		Purchases:   h.purchases,
		Enrollments: h.enrollments,
	})
	return h
}

func (h *harness) enrollmentService(cfg CheckoutConfig) EnrollmentService {
	return NewEnrollmentService(h.db, h.log, h.users, h.courses, h.enrollments, h.purchases, h.gateway, h.settlement, cfg)
}

func (h *harness) reconciliationService() *paymentReconciliationService {
	notifier := NewMailNotifier(h.log, h.mailer, h.users, h.courses)
	return NewPaymentReconciliationService(h.db, h.log, h.gateway, h.purchases, h.events, h.settlement, notifier, h.replay).(*paymentReconciliationService)
}

func (h *harness) seedUser(t *testing.T, id, role string) *types.User {
	t.Helper()
	return repotest.SeedUser(t, h.ctx, h.db, id, role)
}

func (h *harness) seedCourse(t *testing.T, seed repotest.CourseSeed) *types.Course {
	t.Helper()
	return repotest.SeedCourse(t, h.ctx, h.db, seed)
}

func (h *harness) purchaseCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	if err := h.db.Model(&types.Purchase{}).Count(&n).Error; err != nil {
		t.Fatalf("count purchases: %v", err)
	}
	return n
}

func (h *harness) enrolledBothSides(t *testing.T, userID string, course *types.Course) (bool, bool) {
	t.Helper()
	dbc := dbcFor(h.ctx)
	userSide, err := h.enrollments.HasCourse(dbc, userID, course.ID)
	if err != nil {
		t.Fatalf("HasCourse: %v", err)
	}
	courseSide, err := h.enrollments.IsStudent(dbc, course.ID, userID)
	if err != nil {
		t.Fatalf("IsStudent: %v", err)
	}
	return userSide, courseSide
}

// notification builds a signed processor notification body.
func notification(t *testing.T, orderID, status, code string) []byte {
	t.Helper()
	n := midtrans.Notification{
		OrderID:           orderID,
		StatusCode:        code,
		GrossAmount:       "800.00",
		TransactionStatus: status,
		TransactionID:     "trx-" + orderID,
	}
	n.SignatureKey = midtrans.Signature(n.OrderID, n.StatusCode, n.GrossAmount, testServerKey)
	raw, err := json.Marshal(n)
	if err != nil {
		t.Fatalf("marshal notification: %v", err)
	}
	return raw
}

func requireCode(t *testing.T, err error, code domainagg.ErrorCode) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	if got := domainagg.CodeOf(err); got != code {
		t.Fatalf("expected %s, got %s (%v)", code, got, err)
	}
}

var errBoom = errors.New("boom")

func dbcFor(ctx context.Context) dbctx.Context { return dbctx.Context{Ctx: ctx} }

func courseSeedFor(educatorID string) repotest.CourseSeed {
	return repotest.CourseSeed{EducatorID: educatorID, Published: true}
}
