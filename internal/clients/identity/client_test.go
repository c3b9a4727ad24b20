package identity

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
)

func TestGetUserDecodesProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk_test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Path != "/v1/users/user_1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id":"user_1",
			"primary_email_address_id":"em_2",
			"email_addresses":[{"id":"em_1","email_address":"old@example.com"},{"id":"em_2","email_address":"ada@example.com"}],
			"first_name":"Ada","last_name":"Lovelace",
			"image_url":"https://img.example.com/ada.png",
			"public_metadata":{"role":"educator"}
		}`))
	}))
	defer srv.Close()

	c, err := New(logger.Nop(), Config{BaseURL: srv.URL, APIKey: "sk_test"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	u, err := c.GetUser(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	p := u.Profile()
	if p.SubjectID != "user_1" || p.Email != "ada@example.com" || p.DisplayName != "Ada Lovelace" || p.Role != "educator" {
		t.Fatalf("unexpected profile: %+v", p)
	}

	_, err = c.GetUser(context.Background(), "user_missing")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestProfileFallsBackToFirstEmail(t *testing.T) {
	p := UserPayload{
		ID:             " user_2 ",
		EmailAddresses: []EmailAddress{{EmailAddress: "a@example.com"}},
		FirstName:      "Solo",
	}.Profile()
	if p.SubjectID != "user_2" || p.Email != "a@example.com" || p.DisplayName != "Solo" {
		t.Fatalf("unexpected profile: %+v", p)
	}
}

func TestUpdateRolePatchesPublicMetadata(t *testing.T) {
	var gotMethod, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"user_1","first_name":"Ada","public_metadata":{"role":"educator"}}`))
	}))
	defer srv.Close()

	c, err := New(logger.Nop(), Config{BaseURL: srv.URL, APIKey: "sk_test"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	u, err := c.UpdateRole(context.Background(), "user_1", "educator")
	if err != nil {
		t.Fatalf("UpdateRole: %v", err)
	}
	if gotMethod != http.MethodPatch {
		t.Fatalf("expected PATCH, got %s", gotMethod)
	}
	if !strings.Contains(gotBody, `"role":"educator"`) {
		t.Fatalf("unexpected body: %s", gotBody)
	}
	if u.Profile().Role != "educator" {
		t.Fatalf("unexpected role: %+v", u.Profile())
	}
}
