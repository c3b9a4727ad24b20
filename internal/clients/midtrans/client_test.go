package midtrans

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
)

func TestLookupStatusDecodesSessionRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/ord-1/status" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		user, _, ok := r.BasicAuth()
		if !ok || user != "SB-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status_code":"200","order_id":"ord-1","transaction_status":"settlement","gross_amount":"800.00","custom_field1":"p-1","transaction_id":"tx-1"}`))
	}))
	defer srv.Close()

	c, err := New(logger.Nop(), Config{ServerKey: "SB-key", APIBaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	n, err := c.LookupStatus(context.Background(), "ord-1")
	if err != nil {
		t.Fatalf("LookupStatus: %v", err)
	}
	if n.CustomField1 != "p-1" || n.Outcome() != OutcomeSucceeded || n.TransactionID != "tx-1" {
		t.Fatalf("unexpected record: %+v", n)
	}
}

func TestLookupStatusNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status_code":"404","status_message":"Transaction doesn't exist."}`))
	}))
	defer srv.Close()

	c, err := New(logger.Nop(), Config{ServerKey: "SB-key", APIBaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = c.LookupStatus(context.Background(), "missing")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestNewRequiresServerKey(t *testing.T) {
	if _, err := New(logger.Nop(), Config{}); err == nil {
		t.Fatal("expected error without server key")
	}
}

func TestUpstreamErrorRetryable(t *testing.T) {
	if !(&UpstreamError{StatusCode: 503}).Retryable() {
		t.Fatal("503 should be retryable")
	}
	if (&UpstreamError{StatusCode: 400}).Retryable() {
		t.Fatal("400 should not be retryable")
	}
}
