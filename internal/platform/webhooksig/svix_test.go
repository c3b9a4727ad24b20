package webhooksig

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"
	"testing"
	"time"
)

func testVerifier(t *testing.T, now time.Time) *Verifier {
	t.Helper()
	v, err := NewVerifier("whsec_" + base64.StdEncoding.EncodeToString([]byte("super-secret-key")))
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	return v.WithClock(func() time.Time { return now })
}

func TestVerifyAcceptsAnyMatchingV1Signature(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	v := testVerifier(t, now)
	body := []byte(`{"type":"user.created"}`)
	ts := strconv.FormatInt(now.Unix(), 10)
	sig := v.Sign("msg_1", ts, body)

	h := Headers{ID: "msg_1", Timestamp: ts, Signature: "v1,bm9wZQ== v1," + sig}
	if err := v.Verify(h, body); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestVerifyRejects(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	v := testVerifier(t, now)
	body := []byte(`{"type":"user.created"}`)
	ts := strconv.FormatInt(now.Unix(), 10)
	good := "v1," + v.Sign("msg_1", ts, body)

	cases := []struct {
		name string
		h    Headers
		body []byte
		want error
	}{
		{"missing id", Headers{Timestamp: ts, Signature: good}, body, ErrMissingHeaders},
		{"tampered body", Headers{ID: "msg_1", Timestamp: ts, Signature: good}, []byte(`{}`), ErrNoMatch},
		{"wrong version", Headers{ID: "msg_1", Timestamp: ts, Signature: "v2," + v.Sign("msg_1", ts, body)}, body, ErrNoMatch},
		{"stale", Headers{ID: "msg_1", Timestamp: strconv.FormatInt(now.Add(-6*time.Minute).Unix(), 10), Signature: good}, body, ErrInvalidTimestamp},
		{"garbage timestamp", Headers{ID: "msg_1", Timestamp: "abc", Signature: good}, body, ErrInvalidTimestamp},
	}
	for _, tc := range cases {
		if err := v.Verify(tc.h, tc.body); !errors.Is(err, tc.want) {
			t.Fatalf("%s: want %v got %v", tc.name, tc.want, err)
		}
	}
}

func TestHeadersFromFallsBackToAliases(t *testing.T) {
	h := http.Header{}
	h.Set("webhook-id", "msg_2")
	h.Set("svix-timestamp", "123")
	h.Set("webhook-signature", "v1,abc")
	got := HeadersFrom(h)
	if got.ID != "msg_2" || got.Timestamp != "123" || got.Signature != "v1,abc" {
		t.Fatalf("unexpected headers: %+v", got)
	}
}

func TestNewVerifierRejectsBadSecret(t *testing.T) {
	if _, err := NewVerifier(""); !errors.Is(err, ErrBadSecret) {
		t.Fatalf("empty secret: %v", err)
	}
	if _, err := NewVerifier("whsec_***"); !errors.Is(err, ErrBadSecret) {
		t.Fatalf("bad base64: %v", err)
	}
}
