package services

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	repotest "github.com/yungbote/coursemarket-backend/internal/data/repos/testutil"
	types "github.com/yungbote/coursemarket-backend/internal/domain"
	domainagg "github.com/yungbote/coursemarket-backend/internal/domain/aggregates"
)

func TestInitiateEnrollmentCreatesPendingPurchaseWithoutGrantingAccess(t *testing.T) {
	h := newHarness(t)
	h.seedUser(t, "edu", types.RoleEducator)
	buyer := h.seedUser(t, "buyer", "")
	course := h.seedCourse(t, repotest.CourseSeed{EducatorID: "edu", Price: "1000", Discount: 20, Published: true})

	svc := h.enrollmentService(CheckoutConfig{Currency: "IDR", MinorUnits: 2})
	out, err := svc.InitiateEnrollment(h.ctx, buyer.ID, course.ID)
	if err != nil {
		t.Fatalf("InitiateEnrollment: %v", err)
	}
	if !out.Amount.Equal(decimal.NewFromInt(800)) {
		t.Fatalf("expected charge 800, got %s", out.Amount)
	}
	if out.Status != types.PurchaseStatusPending || out.PurchaseID == uuid.Nil {
		t.Fatalf("unexpected checkout: %+v", out)
	}
	if !strings.HasPrefix(out.RedirectTarget, "https://pay.example.com/snap/") {
		t.Fatalf("unexpected redirect: %q", out.RedirectTarget)
	}

	sess := h.gateway.lastSession(t)
	if sess.Amount != 800 || sess.PurchaseID != out.PurchaseID.String() || !strings.HasPrefix(sess.OrderID, "cm-") {
		t.Fatalf("unexpected session request: %+v", sess)
	}

	p, err := h.purchases.GetByID(dbcFor(h.ctx), out.PurchaseID)
	if err != nil || p == nil {
		t.Fatalf("purchase not stored: %v", err)
	}
	if p.Status != types.PurchaseStatusPending || p.Session() != sess.OrderID {
		t.Fatalf("unexpected purchase: %+v", p)
	}
	userSide, courseSide := h.enrolledBothSides(t, buyer.ID, course)
	if userSide || courseSide {
		t.Fatal("checkout alone must not grant access")
	}
}

func TestInitiateEnrollmentStoresWhatTheProcessorCharges(t *testing.T) {
	h := newHarness(t)
	h.seedUser(t, "edu", types.RoleEducator)
	buyer := h.seedUser(t, "buyer", "")
	course := h.seedCourse(t, repotest.CourseSeed{EducatorID: "edu", Price: "99999", Discount: 15, Published: true})

	// Two decimal places would store 84999.15 while Snap collects 85000.
	out, err := h.enrollmentService(CheckoutConfig{Currency: "IDR", MinorUnits: 2}).InitiateEnrollment(h.ctx, buyer.ID, course.ID)
	if err != nil {
		t.Fatalf("InitiateEnrollment: %v", err)
	}
	sess := h.gateway.lastSession(t)
	if !out.Amount.Equal(decimal.NewFromInt(sess.Amount)) {
		t.Fatalf("stored %s but processor charges %d", out.Amount, sess.Amount)
	}
	p, err := h.purchases.GetByID(dbcFor(h.ctx), out.PurchaseID)
	if err != nil || p == nil {
		t.Fatalf("purchase not stored: %v", err)
	}
	if !p.Amount.Equal(decimal.NewFromInt(84999)) {
		t.Fatalf("unexpected stored amount: %s", p.Amount)
	}
}

func TestInitiateEnrollmentReusesOpenCheckout(t *testing.T) {
	h := newHarness(t)
	h.seedUser(t, "edu", types.RoleEducator)
	buyer := h.seedUser(t, "buyer", "")
	course := h.seedCourse(t, repotest.CourseSeed{EducatorID: "edu", Price: "1000", Published: true})
	svc := h.enrollmentService(CheckoutConfig{})

	first, err := svc.InitiateEnrollment(h.ctx, buyer.ID, course.ID)
	if err != nil {
		t.Fatalf("first checkout: %v", err)
	}
	second, err := svc.InitiateEnrollment(h.ctx, buyer.ID, course.ID)
	if err != nil {
		t.Fatalf("second checkout: %v", err)
	}
	if second.PurchaseID != first.PurchaseID || second.RedirectTarget != first.RedirectTarget {
		t.Fatalf("expected the open checkout back: first=%+v second=%+v", first, second)
	}
	if n := h.purchaseCount(t); n != 1 {
		t.Fatalf("expected one purchase, found %d", n)
	}
	if len(h.gateway.sessions) != 1 {
		t.Fatalf("expected one payment session, got %d", len(h.gateway.sessions))
	}

	// A repriced course gets a fresh checkout.
	if err := h.db.Model(&types.Course{}).Where("id = ?", course.ID).Update("price", decimal.NewFromInt(900)).Error; err != nil {
		t.Fatalf("reprice: %v", err)
	}
	third, err := svc.InitiateEnrollment(h.ctx, buyer.ID, course.ID)
	if err != nil {
		t.Fatalf("third checkout: %v", err)
	}
	if third.PurchaseID == first.PurchaseID || !third.Amount.Equal(decimal.NewFromInt(900)) {
		t.Fatalf("repriced checkout reused: %+v", third)
	}
}

func TestInitiateEnrollmentRejectsEnrolledPairWithoutNewPurchase(t *testing.T) {
	h := newHarness(t)
	h.seedUser(t, "edu", types.RoleEducator)
	buyer := h.seedUser(t, "buyer", "")
	course := h.seedCourse(t, repotest.CourseSeed{EducatorID: "edu", Published: true})
	if _, err := h.enrollments.AddCourseStudent(dbcFor(h.ctx), course.ID, buyer.ID, course.CreatedAt); err != nil {
		t.Fatalf("seed enrollment: %v", err)
	}

	_, err := h.enrollmentService(CheckoutConfig{}).InitiateEnrollment(h.ctx, buyer.ID, course.ID)
	requireCode(t, err, domainagg.CodeAlreadyEnrolled)
	if n := h.purchaseCount(t); n != 0 {
		t.Fatalf("expected no purchase, found %d", n)
	}
	if len(h.gateway.sessions) != 0 {
		t.Fatal("no payment session should be opened")
	}
}

func TestInitiateEnrollmentPreconditions(t *testing.T) {
	h := newHarness(t)
	h.seedUser(t, "edu", types.RoleEducator)
	buyer := h.seedUser(t, "buyer", "")
	draft := h.seedCourse(t, repotest.CourseSeed{EducatorID: "edu", Published: false})
	svc := h.enrollmentService(CheckoutConfig{})

	_, err := svc.InitiateEnrollment(h.ctx, buyer.ID, draft.ID)
	requireCode(t, err, domainagg.CodeCourseUnpublished)

	_, err = svc.InitiateEnrollment(h.ctx, buyer.ID, uuid.New())
	requireCode(t, err, domainagg.CodeNotFound)

	_, err = svc.InitiateEnrollment(h.ctx, "ghost", draft.ID)
	requireCode(t, err, domainagg.CodeNotFound)

	_, err = svc.InitiateEnrollment(h.ctx, "", draft.ID)
	requireCode(t, err, domainagg.CodeValidation)

	if n := h.purchaseCount(t); n != 0 {
		t.Fatalf("expected no purchase, found %d", n)
	}
}

func TestInitiateEnrollmentFreeCourseSettlesImmediately(t *testing.T) {
	h := newHarness(t)
	h.seedUser(t, "edu", types.RoleEducator)
	buyer := h.seedUser(t, "buyer", "")
	course := h.seedCourse(t, repotest.CourseSeed{EducatorID: "edu", Price: "0", Published: true})

	out, err := h.enrollmentService(CheckoutConfig{MinorUnits: 2}).InitiateEnrollment(h.ctx, buyer.ID, course.ID)
	if err != nil {
		t.Fatalf("InitiateEnrollment: %v", err)
	}
	if out.Status != types.PurchaseStatusCompleted || !out.Amount.IsZero() {
		t.Fatalf("unexpected checkout: %+v", out)
	}
	if out.RedirectTarget != "/courses/"+course.ID.String() {
		t.Fatalf("unexpected redirect: %q", out.RedirectTarget)
	}
	if len(h.gateway.sessions) != 0 {
		t.Fatal("free checkout must not open a payment session")
	}
	userSide, courseSide := h.enrolledBothSides(t, buyer.ID, course)
	if !userSide || !courseSide {
		t.Fatalf("expected both enrollment views, got user=%v course=%v", userSide, courseSide)
	}
}

func TestInitiateEnrollmentSessionFailureLeavesUnsessionedPending(t *testing.T) {
	h := newHarness(t)
	h.seedUser(t, "edu", types.RoleEducator)
	buyer := h.seedUser(t, "buyer", "")
	course := h.seedCourse(t, repotest.CourseSeed{EducatorID: "edu", Published: true})
	h.gateway.createErr = errBoom

	_, err := h.enrollmentService(CheckoutConfig{}).InitiateEnrollment(h.ctx, buyer.ID, course.ID)
	requireCode(t, err, domainagg.CodeRetryable)

	var rows []types.Purchase
	if err := h.db.Find(&rows).Error; err != nil {
		t.Fatalf("list purchases: %v", err)
	}
	if len(rows) != 1 || rows[0].Status != types.PurchaseStatusPending || rows[0].SessionID != nil {
		t.Fatalf("unexpected purchases: %+v", rows)
	}
}

func TestGetPurchaseHidesOtherUsersPurchases(t *testing.T) {
	h := newHarness(t)
	h.seedUser(t, "edu", types.RoleEducator)
	buyer := h.seedUser(t, "buyer", "")
	h.seedUser(t, "other", "")
	course := h.seedCourse(t, repotest.CourseSeed{EducatorID: "edu", Published: true})
	svc := h.enrollmentService(CheckoutConfig{})

	out, err := svc.InitiateEnrollment(h.ctx, buyer.ID, course.ID)
	if err != nil {
		t.Fatalf("InitiateEnrollment: %v", err)
	}
	if _, err := svc.GetPurchase(h.ctx, buyer.ID, out.PurchaseID); err != nil {
		t.Fatalf("owner should see purchase: %v", err)
	}
	_, err = svc.GetPurchase(h.ctx, "other", out.PurchaseID)
	requireCode(t, err, domainagg.CodeNotFound)
}
