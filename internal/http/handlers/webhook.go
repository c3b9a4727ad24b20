package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursemarket-backend/internal/http/response"
	"github.com/yungbote/coursemarket-backend/internal/platform/apierr"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
	"github.com/yungbote/coursemarket-backend/internal/platform/webhooksig"
	"github.com/yungbote/coursemarket-backend/internal/services"
)

const maxWebhookBody = 1 << 20

type WebhookHandler struct {
	log      *logger.Logger
	identity services.IdentitySyncService
	payment  services.PaymentReconciliationService
}

func NewWebhookHandler(log *logger.Logger, identity services.IdentitySyncService, payment services.PaymentReconciliationService) *WebhookHandler {
	return &WebhookHandler{log: log.With("handler", "WebhookHandler"), identity: identity, payment: payment}
}

// POST /webhooks/identity
func (h *WebhookHandler) Identity(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	res, err := h.identity.HandleDelivery(c.Request.Context(), webhooksig.HeadersFrom(c.Request.Header), body)
	if err != nil {
		h.log.Warn("identity webhook failed", "error", err)
		response.FailWebhook(c, err)
		return
	}
	response.RespondOK(c, res)
}

// POST /webhooks/payment
func (h *WebhookHandler) Payment(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	res, err := h.payment.HandleNotification(c.Request.Context(), body)
	if err != nil {
		h.log.Warn("payment webhook failed", "error", err)
		response.FailWebhook(c, err)
		return
	}
	response.RespondOK(c, res)
}

// readBody returns the exact bytes signatures were computed over.
func readBody(c *gin.Context) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, apierr.BadRequest("body_too_large", err)
		}
		return nil, err
	}
	return body, nil
}
