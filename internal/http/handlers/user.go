package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursemarket-backend/internal/http/response"
	"github.com/yungbote/coursemarket-backend/internal/services"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GET /api/me
func (uh *UserHandler) GetMe(c *gin.Context) {
	userID, err := callerID(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	me, err := uh.userService.GetMe(c.Request.Context(), userID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"me": me})
}

// GET /api/me/enrollments
func (uh *UserHandler) ListEnrollments(c *gin.Context) {
	userID, err := callerID(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	courses, err := uh.userService.ListEnrolledCourses(c.Request.Context(), userID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"enrollments": courses})
}

// POST /api/me/sync
func (uh *UserHandler) Sync(c *gin.Context) {
	userID, err := callerID(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	me, err := uh.userService.SyncFromProvider(c.Request.Context(), userID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"me": me})
}

// POST /api/me/educator
func (uh *UserHandler) BecomeEducator(c *gin.Context) {
	userID, err := callerID(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	me, err := uh.userService.BecomeEducator(c.Request.Context(), userID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"me": me})
}
