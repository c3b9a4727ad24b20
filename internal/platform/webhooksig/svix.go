// Package webhooksig verifies Standard Webhooks (svix) signed deliveries.
package webhooksig

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMissingHeaders   = errors.New("webhooksig: missing signature headers")
	ErrInvalidTimestamp = errors.New("webhooksig: timestamp outside tolerance")
	ErrNoMatch          = errors.New("webhooksig: no matching signature")
	ErrBadSecret        = errors.New("webhooksig: malformed secret")
)

const DefaultTolerance = 5 * time.Minute

// Headers are the delivery id, timestamp and signature list of one request.
type Headers struct {
	ID        string
	Timestamp string
	Signature string
}

// HeadersFrom reads svix-* headers, falling back to the webhook-* aliases.
func HeadersFrom(h http.Header) Headers {
	pick := func(primary, alias string) string {
		if v := strings.TrimSpace(h.Get(primary)); v != "" {
			return v
		}
		return strings.TrimSpace(h.Get(alias))
	}
	return Headers{
		ID:        pick("svix-id", "webhook-id"),
		Timestamp: pick("svix-timestamp", "webhook-timestamp"),
		Signature: pick("svix-signature", "webhook-signature"),
	}
}

type Verifier struct {
	key       []byte
	tolerance time.Duration
	now       func() time.Time
}

// NewVerifier accepts the secret as issued ("whsec_<base64>").
func NewVerifier(secret string) (*Verifier, error) {
	secret = strings.TrimSpace(secret)
	secret = strings.TrimPrefix(secret, "whsec_")
	if secret == "" {
		return nil, ErrBadSecret
	}
	key, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSecret, err)
	}
	return &Verifier{key: key, tolerance: DefaultTolerance, now: time.Now}, nil
}

func (v *Verifier) WithClock(now func() time.Time) *Verifier {
	cp := *v
	cp.now = now
	return &cp
}

// Verify checks one delivery; body must be the raw request bytes.
func (v *Verifier) Verify(h Headers, body []byte) error {
	if h.ID == "" || h.Timestamp == "" || h.Signature == "" {
		return ErrMissingHeaders
	}
	sec, err := strconv.ParseInt(h.Timestamp, 10, 64)
	if err != nil {
		return ErrInvalidTimestamp
	}
	ts := time.Unix(sec, 0)
	now := v.now()
	if now.Sub(ts) > v.tolerance || ts.Sub(now) > v.tolerance {
		return ErrInvalidTimestamp
	}

	want := v.Sign(h.ID, h.Timestamp, body)
	for _, part := range strings.Fields(h.Signature) {
		version, sig, ok := strings.Cut(part, ",")
		if !ok || version != "v1" {
			continue
		}
		if subtle.ConstantTimeCompare([]byte(sig), []byte(want)) == 1 {
			return nil
		}
	}
	return ErrNoMatch
}

// Sign returns the base64 v1 signature for id.timestamp.body.
func (v *Verifier) Sign(id, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, v.key)
	_, _ = mac.Write([]byte(id + "." + timestamp + "."))
	_, _ = mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
