package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/coursemarket-backend/internal/domain/aggregates"
	"github.com/yungbote/coursemarket-backend/internal/platform/apierr"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		code    domainagg.ErrorCode
		client  int
		webhook int
	}{
		{domainagg.CodeValidation, 400, 400},
		{domainagg.CodeCourseUnpublished, 400, 500},
		{domainagg.CodeAuthentication, 401, 401},
		{domainagg.CodeForbidden, 403, 500},
		{domainagg.CodeNotEnrolled, 403, 500},
		{domainagg.CodeNotFound, 404, 500},
		{domainagg.CodeAlreadyEnrolled, 409, 500},
		{domainagg.CodeConflict, 409, 500},
		{domainagg.CodeRetryable, 503, 500},
		{domainagg.CodeInternal, 500, 500},
	}
	for _, tc := range cases {
		err := domainagg.NewError(tc.code, "op", "msg", nil)
		if got := StatusFor(err); got != tc.client {
			t.Fatalf("%s: client status %d, want %d", tc.code, got, tc.client)
		}
		if got := WebhookStatusFor(err); got != tc.webhook {
			t.Fatalf("%s: webhook status %d, want %d", tc.code, got, tc.webhook)
		}
	}
	if StatusFor(errors.New("plain")) != http.StatusInternalServerError {
		t.Fatal("uncoded errors are internal")
	}
	if StatusFor(apierr.BadRequest("invalid_body", errors.New("x"))) != http.StatusBadRequest {
		t.Fatal("apierr status should win")
	}
}

func TestFailHidesInternalCauses(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	Fail(c, domainagg.NewError(domainagg.CodeRetryable, "op", "pq: connection refused to 10.0.0.3", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	var env ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Error.Code != "retryable" || env.Error.Message == "pq: connection refused to 10.0.0.3" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}
