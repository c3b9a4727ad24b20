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

type ProgressHandler struct {
	progress services.ProgressService
}

func NewProgressHandler(progress services.ProgressService) *ProgressHandler {
	return &ProgressHandler{progress: progress}
}

type markCompleteRequest struct {
	CourseID  string `json:"course_id" binding:"required"`
	LectureID string `json:"lecture_id" binding:"required"`
}

// POST /api/progress
func (h *ProgressHandler) MarkComplete(c *gin.Context) {
	userID, err := callerID(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	var req markCompleteRequest
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}
	courseID, err := uuid.Parse(strings.TrimSpace(req.CourseID))
	if err != nil {
		response.Fail(c, apierr.BadRequest("invalid_id", errors.New("course_id must be a uuid")))
		return
	}
	v, err := h.progress.MarkComplete(c.Request.Context(), userID, courseID, req.LectureID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, v)
}

// GET /api/progress/:courseId
func (h *ProgressHandler) Get(c *gin.Context) {
	userID, err := callerID(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	courseID, err := uuidParam(c, "courseId")
	if err != nil {
		response.Fail(c, err)
		return
	}
	v, err := h.progress.GetProgress(c.Request.Context(), userID, courseID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, v)
}
