package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursemarket-backend/internal/http/response"
	"github.com/yungbote/coursemarket-backend/internal/services"
)

type CourseHandler struct {
	catalog services.CatalogService
	ratings services.RatingService
}

func NewCourseHandler(catalog services.CatalogService, ratings services.RatingService) *CourseHandler {
	return &CourseHandler{catalog: catalog, ratings: ratings}
}

// GET /api/courses
func (h *CourseHandler) List(c *gin.Context) {
	courses, err := h.catalog.ListPublished(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"courses": courses})
}

// GET /api/courses/:id
func (h *CourseHandler) Get(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		response.Fail(c, err)
		return
	}
	course, err := h.catalog.GetCourse(c.Request.Context(), viewerID(c), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"course": course})
}

type rateRequest struct {
	Rating int `json:"rating"`
}

// POST /api/courses/:id/rating
func (h *CourseHandler) Rate(c *gin.Context) {
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
	var req rateRequest
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}
	v, err := h.ratings.Rate(c.Request.Context(), userID, id, req.Rating)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, v)
}

// GET /api/courses/:id/rating
func (h *CourseHandler) Rating(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		response.Fail(c, err)
		return
	}
	v, err := h.ratings.Average(c.Request.Context(), viewerID(c), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, v)
}
