package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursemarket-backend/internal/http/response"
	"github.com/yungbote/coursemarket-backend/internal/services"
)

type EducatorHandler struct {
	educator services.EducatorService
}

func NewEducatorHandler(educator services.EducatorService) *EducatorHandler {
	return &EducatorHandler{educator: educator}
}

// POST /api/educator/courses
func (h *EducatorHandler) CreateCourse(c *gin.Context) {
	userID, err := callerID(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	var in services.CourseInput
	if err := bindJSON(c, &in); err != nil {
		response.Fail(c, err)
		return
	}
	course, err := h.educator.CreateCourse(c.Request.Context(), userID, in)
	if err != nil {
		response.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"course": course})
}

// GET /api/educator/courses
func (h *EducatorHandler) ListCourses(c *gin.Context) {
	userID, err := callerID(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	courses, err := h.educator.ListCourses(c.Request.Context(), userID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"courses": courses})
}

type publishRequest struct {
	Published *bool `json:"is_published" binding:"required"`
}

// PATCH /api/educator/courses/:id/publish
func (h *EducatorHandler) SetPublished(c *gin.Context) {
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
	var req publishRequest
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}
	if err := h.educator.SetPublished(c.Request.Context(), userID, id, *req.Published); err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"id": id, "is_published": *req.Published})
}

// GET /api/educator/dashboard
func (h *EducatorHandler) Dashboard(c *gin.Context) {
	userID, err := callerID(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	d, err := h.educator.Dashboard(c.Request.Context(), userID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"dashboard": d})
}

// GET /api/educator/students
func (h *EducatorHandler) Students(c *gin.Context) {
	userID, err := callerID(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	rows, err := h.educator.EnrolledStudents(c.Request.Context(), userID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"enrolled_students": rows})
}
