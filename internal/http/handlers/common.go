package handlers

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/coursemarket-backend/internal/platform/apierr"
	"github.com/yungbote/coursemarket-backend/internal/platform/ctxutil"
)

// callerID returns the authenticated user id; the auth middleware
// guarantees one on protected routes.
func callerID(c *gin.Context) (string, error) {
	caller := ctxutil.GetCaller(c.Request.Context())
	if caller == nil || strings.TrimSpace(caller.UserID) == "" {
		return "", apierr.Unauthorized(errors.New("not authenticated"))
	}
	return caller.UserID, nil
}

// viewerID is callerID for routes that also serve anonymous visitors.
func viewerID(c *gin.Context) string {
	if caller := ctxutil.GetCaller(c.Request.Context()); caller != nil {
		return caller.UserID
	}
	return ""
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil {
		return uuid.Nil, apierr.BadRequest("invalid_id", errors.New(name+" must be a uuid"))
	}
	return id, nil
}

func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apierr.BadRequest("invalid_body", err)
	}
	return nil
}
