package billing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yungbote/coursemarket-backend/internal/data/repos/testutil"
	types "github.com/yungbote/coursemarket-backend/internal/domain"
	"github.com/yungbote/coursemarket-backend/internal/platform/dbctx"
)

func TestPurchaseRepoSessionLifecycle(t *testing.T) {
	db := testutil.DB(t)
	repo := NewPurchaseRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}

	p := &types.Purchase{
		UserID:   "u1",
		CourseID: uuid.New(),
		Amount:   decimal.RequireFromString("800.00"),
		Currency: "IDR",
		Status:   types.PurchaseStatusPending,
	}
	if err := repo.Create(dbc, p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.ID == uuid.Nil {
		t.Fatal("Create should assign an id")
	}

	ok, err := repo.AttachSession(dbc, p.ID, "ord-1", "https://pay.example.com/ord-1")
	if err != nil || !ok {
		t.Fatalf("AttachSession: %v %v", ok, err)
	}
	ok, err = repo.AttachSession(dbc, p.ID, "ord-2", "https://pay.example.com/ord-2")
	if err != nil || ok {
		t.Fatalf("AttachSession (second): %v %v", ok, err)
	}

	got, err := repo.GetBySessionID(dbc, "ord-1")
	if err != nil || got == nil || got.ID != p.ID {
		t.Fatalf("GetBySessionID: %+v %v", got, err)
	}
	if !got.Amount.Equal(decimal.NewFromInt(800)) {
		t.Fatalf("amount round trip: %s", got.Amount)
	}

	pending, err := repo.ListPendingWithSession(dbc, time.Now().Add(time.Minute), 10)
	if err != nil || len(pending) != 1 {
		t.Fatalf("ListPendingWithSession: %d %v", len(pending), err)
	}
	pending, err = repo.ListPendingWithSession(dbc, time.Now().Add(-time.Hour), 10)
	if err != nil || len(pending) != 0 {
		t.Fatalf("ListPendingWithSession (old cutoff): %d %v", len(pending), err)
	}
}

func TestPurchaseRepoFindOpenCheckout(t *testing.T) {
	db := testutil.DB(t)
	repo := NewPurchaseRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}
	course := uuid.New()

	create := func(session string, status string) *types.Purchase {
		t.Helper()
		p := &types.Purchase{
			UserID:   "u1",
			CourseID: course,
			Amount:   decimal.NewFromInt(800),
			Currency: "IDR",
			Status:   status,
		}
		if session != "" {
			p.SessionID = &session
			p.RedirectURL = "https://pay.example.com/" + session
		}
		if err := repo.Create(dbc, p); err != nil {
			t.Fatalf("Create: %v", err)
		}
		return p
	}
	create("", types.PurchaseStatusPending)
	create("ord-done", types.PurchaseStatusFailed)

	got, err := repo.FindOpenCheckout(dbc, "u1", course, time.Now().Add(-time.Hour))
	if err != nil || got != nil {
		t.Fatalf("no open checkout expected: %+v %v", got, err)
	}

	open := create("ord-open", types.PurchaseStatusPending)
	got, err = repo.FindOpenCheckout(dbc, "u1", course, time.Now().Add(-time.Hour))
	if err != nil || got == nil || got.ID != open.ID {
		t.Fatalf("FindOpenCheckout: %+v %v", got, err)
	}
	if got, _ := repo.FindOpenCheckout(dbc, "u2", course, time.Now().Add(-time.Hour)); got != nil {
		t.Fatalf("other user matched: %+v", got)
	}
	if got, _ := repo.FindOpenCheckout(dbc, "u1", course, time.Now().Add(time.Minute)); got != nil {
		t.Fatalf("expired checkout matched: %+v", got)
	}
}
