package handlers

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/coursemarket-backend/internal/http/response"
	"github.com/yungbote/coursemarket-backend/internal/platform/apierr"
	"github.com/yungbote/coursemarket-backend/internal/services"
)

type CheckoutHandler struct {
	enrollment services.EnrollmentService
}

func NewCheckoutHandler(enrollment services.EnrollmentService) *CheckoutHandler {
	return &CheckoutHandler{enrollment: enrollment}
}

type checkoutRequest struct {
	CourseID string `json:"course_id" binding:"required"`
}

// POST /api/checkout
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	userID, err := callerID(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	var req checkoutRequest
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}
	courseID, err := uuid.Parse(strings.TrimSpace(req.CourseID))
	if err != nil {
		response.Fail(c, apierr.BadRequest("invalid_id", errors.New("course_id must be a uuid")))
		return
	}
	out, err := h.enrollment.InitiateEnrollment(c.Request.Context(), userID, courseID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/purchases/:id
func (h *CheckoutHandler) GetPurchase(c *gin.Context) {
	userID, err := callerID(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		response.Fail(c, err)
		return
	}
	p, err := h.enrollment.GetPurchase(c.Request.Context(), userID, id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"purchase": p})
}
