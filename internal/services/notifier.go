package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/coursemarket-backend/internal/data/repos"
	"github.com/yungbote/coursemarket-backend/internal/platform/dbctx"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
	"github.com/yungbote/coursemarket-backend/internal/platform/sendgrid"
)

// EnrollmentNotifier tells a buyer their enrollment went through. Failures
// are logged by callers and never change a settlement outcome.
type EnrollmentNotifier interface {
	EnrollmentConfirmed(ctx context.Context, userID string, courseID, purchaseID uuid.UUID) error
}

type noopNotifier struct{}

func (noopNotifier) EnrollmentConfirmed(context.Context, string, uuid.UUID, uuid.UUID) error { return nil }

func NewNoopNotifier() EnrollmentNotifier { return noopNotifier{} }

type mailNotifier struct {
	log     *logger.Logger
	mail    sendgrid.Client
	users   repos.UserRepo
	courses repos.CourseRepo
}

func NewMailNotifier(log *logger.Logger, mail sendgrid.Client, users repos.UserRepo, courses repos.CourseRepo) EnrollmentNotifier {
	if mail == nil {
		return noopNotifier{}
	}
	return &mailNotifier{
		log:     log.With("service", "EnrollmentNotifier"),
		mail:    mail,
		users:   users,
		courses: courses,
	}
}

func (n *mailNotifier) EnrollmentConfirmed(ctx context.Context, userID string, courseID, purchaseID uuid.UUID) error {
	dbc := dbctx.Context{Ctx: ctx}
	user, err := n.users.GetByID(dbc, userID)
	if err != nil {
		return err
	}
	if user == nil || strings.TrimSpace(user.Email) == "" {
		return nil
	}
	course, err := n.courses.GetByID(dbc, courseID)
	if err != nil {
		return err
	}
	title := "your course"
	if course != nil {
		title = course.Title
	}
	_, err = n.mail.Send(ctx, sendgrid.SendEmailRequest{
		To:         []sendgrid.EmailAddress{{Email: user.Email, Name: user.Name}},
		Subject:    fmt.Sprintf("You're enrolled in %s", title),
		Text:       fmt.Sprintf("Hi %s,\n\nYour payment was confirmed and %s is now in your library.\n", firstNonEmpty(user.Name, "there"), title),
		Categories: []string{"enrollment"},
		CustomArgs: map[string]string{"purchase_id": purchaseID.String()},
	})
	return err
}

func notifyAfterCommit(ctx context.Context, log *logger.Logger, n EnrollmentNotifier, userID string, courseID, purchaseID uuid.UUID) {
	if n == nil {
		return
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := n.EnrollmentConfirmed(nctx, userID, courseID, purchaseID); err != nil {
		log.Warn("enrollment confirmation email failed", "purchase_id", purchaseID.String(), "error", err)
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
