package services

import (
	"encoding/base64"
	"strconv"
	"testing"
	"time"

	"github.com/yungbote/coursemarket-backend/internal/clients/redis"
	types "github.com/yungbote/coursemarket-backend/internal/domain"
	domainagg "github.com/yungbote/coursemarket-backend/internal/domain/aggregates"
	"github.com/yungbote/coursemarket-backend/internal/platform/webhooksig"
)

type identityFixture struct {
	h        *harness
	svc      IdentitySyncService
	verifier *webhooksig.Verifier
}

func newIdentityFixture(t *testing.T) identityFixture {
	t.Helper()
	h := newHarness(t)
	v, err := webhooksig.NewVerifier("whsec_" + base64.StdEncoding.EncodeToString([]byte("identity-secret")))
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	return identityFixture{
		h:        h,
		svc:      NewIdentitySyncService(h.db, h.log, v, h.users, h.events, h.replay),
		verifier: v,
	}
}

func (f identityFixture) signed(id, body string) webhooksig.Headers {
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	return webhooksig.Headers{ID: id, Timestamp: ts, Signature: "v1," + f.verifier.Sign(id, ts, []byte(body))}
}

func (f identityFixture) deliver(t *testing.T, id, body string) (*WebhookResult, error) {
	t.Helper()
	return f.svc.HandleDelivery(f.h.ctx, f.signed(id, body), []byte(body))
}

const updatedUnknownUser = `{"type":"user.updated","data":{
	"id":"user_new","first_name":"Grace","last_name":"Hopper",
	"primary_email_address_id":"em_1",
	"email_addresses":[{"id":"em_1","email_address":"Grace@Example.com"}],
	"image_url":"https://img.example.com/g.png"}}`

func TestIdentityUpdateForUnknownUserCreatesIt(t *testing.T) {
	f := newIdentityFixture(t)
	res, err := f.deliver(t, "msg_1", updatedUnknownUser)
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if res.Outcome != WebhookProcessed {
		t.Fatalf("unexpected outcome: %+v", res)
	}
	u, err := f.h.users.GetByID(dbcFor(f.h.ctx), "user_new")
	if err != nil || u == nil {
		t.Fatalf("user not created: %v", err)
	}
	if u.Name != "Grace Hopper" || u.Email != "grace@example.com" || u.Role != types.RoleLearner {
		t.Fatalf("unexpected user: %+v", u)
	}
}

func TestIdentityRedeliveryIsDuplicate(t *testing.T) {
	f := newIdentityFixture(t)
	if _, err := f.deliver(t, "msg_1", updatedUnknownUser); err != nil {
		t.Fatalf("first: %v", err)
	}
	res, err := f.deliver(t, "msg_1", updatedUnknownUser)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if res.Outcome != WebhookDuplicate {
		t.Fatalf("expected duplicate, got %+v", res)
	}
	var n int64
	if err := f.h.db.Model(&types.User{}).Count(&n).Error; err != nil || n != 1 {
		t.Fatalf("expected one user, got %d (%v)", n, err)
	}
}

func TestIdentityRedeliveryAfterDeleteWithColdReplayCache(t *testing.T) {
	f := newIdentityFixture(t)
	// Each delivery lands on a replica whose replay cache has never seen it.
	deliverCold := func(id, body string) *WebhookResult {
		t.Helper()
		svc := NewIdentitySyncService(f.h.db, f.h.log, f.verifier, f.h.users, f.h.events, redis.NewMemoryReplayGuard(time.Hour))
		res, err := svc.HandleDelivery(f.h.ctx, f.signed(id, body), []byte(body))
		if err != nil {
			t.Fatalf("deliver %s: %v", id, err)
		}
		return res
	}
	created := `{"type":"user.created","data":{"id":"user_late","first_name":"Ada",
		"primary_email_address_id":"em_1","email_addresses":[{"id":"em_1","email_address":"ada@example.com"}]}}`

	if res := deliverCold("msg_c", created); res.Outcome != WebhookProcessed {
		t.Fatalf("create: %+v", res)
	}
	if res := deliverCold("msg_d", `{"type":"user.deleted","data":{"id":"user_late","deleted":true}}`); res.Outcome != WebhookProcessed {
		t.Fatalf("delete: %+v", res)
	}
	if res := deliverCold("msg_c", created); res.Outcome != WebhookDuplicate {
		t.Fatalf("late redelivery should be a duplicate: %+v", res)
	}
	if ok, err := f.h.users.Exists(dbcFor(f.h.ctx), "user_late"); err != nil || ok {
		t.Fatalf("deleted user came back: exists=%v err=%v", ok, err)
	}
}

func TestIdentityDeleteKeepsPurchasesAndEnrollment(t *testing.T) {
	f := newIdentityFixture(t)
	f.h.seedUser(t, "user_gone", "")
	course := f.h.seedCourse(t, courseSeedFor("edu"))
	dbc := dbcFor(f.h.ctx)
	if _, err := f.h.enrollments.AddUserCourse(dbc, "user_gone", course.ID, time.Now()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	res, err := f.deliver(t, "msg_del", `{"type":"user.deleted","data":{"id":"user_gone","deleted":true}}`)
	if err != nil || res.Outcome != WebhookProcessed {
		t.Fatalf("delete: %+v %v", res, err)
	}
	if ok, _ := f.h.users.Exists(dbc, "user_gone"); ok {
		t.Fatal("user should be removed")
	}
	if ok, _ := f.h.enrollments.HasCourse(dbc, "user_gone", course.ID); !ok {
		t.Fatal("enrollment rows must survive user deletion")
	}
}

func TestIdentityDeliveryRejections(t *testing.T) {
	f := newIdentityFixture(t)

	h := f.signed("msg_bad", updatedUnknownUser)
	h.Signature = "v1,bm9wZQ=="
	_, err := f.svc.HandleDelivery(f.h.ctx, h, []byte(updatedUnknownUser))
	requireCode(t, err, domainagg.CodeAuthentication)

	_, err = f.svc.HandleDelivery(f.h.ctx, webhooksig.Headers{}, []byte(updatedUnknownUser))
	requireCode(t, err, domainagg.CodeAuthentication)

	_, err = f.deliver(t, "msg_junk", `{"type":`)
	requireCode(t, err, domainagg.CodeValidation)

	_, err = f.deliver(t, "msg_nosub", `{"type":"user.created","data":{}}`)
	requireCode(t, err, domainagg.CodeValidation)

	if ok, _ := f.h.users.Exists(dbcFor(f.h.ctx), "user_new"); ok {
		t.Fatal("rejected deliveries must not write")
	}
}

func TestIdentityUnknownEventTypeIsAcknowledged(t *testing.T) {
	f := newIdentityFixture(t)
	res, err := f.deliver(t, "msg_sess", `{"type":"session.created","data":{"id":"sess_1"}}`)
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if res.Outcome != WebhookIgnored {
		t.Fatalf("expected ignored, got %+v", res)
	}
}
