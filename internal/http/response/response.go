package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/coursemarket-backend/internal/domain/aggregates"
	"github.com/yungbote/coursemarket-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// StatusFor maps an error code to the status a client caller should see.
// Transient failures answer 503 so clients may retry.
func StatusFor(err error) int {
	var ae *apierr.Error
	if errors.As(err, &ae) && ae.Status != 0 {
		return ae.Status
	}
	switch domainagg.CodeOf(err) {
	case domainagg.CodeValidation, domainagg.CodeCourseUnpublished:
		return http.StatusBadRequest
	case domainagg.CodeAuthentication:
		return http.StatusUnauthorized
	case domainagg.CodeForbidden, domainagg.CodeNotEnrolled:
		return http.StatusForbidden
	case domainagg.CodeNotFound:
		return http.StatusNotFound
	case domainagg.CodeAlreadyEnrolled, domainagg.CodeConflict:
		return http.StatusConflict
	case domainagg.CodePreconditionFailed:
		return http.StatusPreconditionFailed
	case domainagg.CodeRetryable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WebhookStatusFor narrows the mapping for inbound notifications: senders
// only distinguish "don't retry" (4xx) from "retry" (5xx).
func WebhookStatusFor(err error) int {
	switch domainagg.CodeOf(err) {
	case domainagg.CodeAuthentication:
		return http.StatusUnauthorized
	case domainagg.CodeValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func codeFor(err error) string {
	var ae *apierr.Error
	if errors.As(err, &ae) && ae.Code != "" {
		return ae.Code
	}
	if code := domainagg.CodeOf(err); code != "" {
		return string(code)
	}
	return string(domainagg.CodeInternal)
}

// messageFor hides internal causes from callers.
func messageFor(err error, status int) error {
	if status >= http.StatusInternalServerError {
		if status == http.StatusServiceUnavailable {
			return errors.New("temporarily unavailable, retry later")
		}
		return errors.New("internal error")
	}
	return errors.New(domainagg.MessageOf(err))
}

// Fail writes the client error envelope for err.
func Fail(c *gin.Context, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	RespondError(c, status, codeFor(err), messageFor(err, status))
}

// FailWebhook writes the webhook error envelope for err.
func FailWebhook(c *gin.Context, err error) {
	status := WebhookStatusFor(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	RespondError(c, status, codeFor(err), messageFor(err, status))
}
