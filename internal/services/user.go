package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/coursemarket-backend/internal/clients/identity"
	"github.com/yungbote/coursemarket-backend/internal/data/repos"
	types "github.com/yungbote/coursemarket-backend/internal/domain"
	"github.com/yungbote/coursemarket-backend/internal/platform/dbctx"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
)

type EnrolledCourse struct {
	Course     *CourseView `json:"course"`
	EnrolledAt time.Time   `json:"enrolled_at"`
}

type UserService interface {
	GetMe(ctx context.Context, userID string) (*types.User, error)
	// ListEnrolledCourses returns courses in the order they were joined.
	ListEnrolledCourses(ctx context.Context, userID string) ([]EnrolledCourse, error)
	// SyncFromProvider pulls the account from the identity provider and
	// upserts it, for users whose webhook never arrived.
	SyncFromProvider(ctx context.Context, userID string) (*types.User, error)
	BecomeEducator(ctx context.Context, userID string) (*types.User, error)
}

type userService struct {
	db          *gorm.DB
	log         *logger.Logger
	users       repos.UserRepo
	courses     repos.CourseRepo
	enrollments repos.EnrollmentRepo
	provider    identity.Client
	sync        IdentitySyncService
}

func NewUserService(
	db *gorm.DB,
	log *logger.Logger,
	users repos.UserRepo,
	courses repos.CourseRepo,
	enrollments repos.EnrollmentRepo,
	provider identity.Client,
	sync IdentitySyncService,
) UserService {
	return &userService{
		db:          db,
		log:         log.With("service", "UserService"),
		users:       users,
		courses:     courses,
		enrollments: enrollments,
		provider:    provider,
		sync:        sync,
	}
}

func (s *userService) GetMe(ctx context.Context, userID string) (*types.User, error) {
	const op = "User.GetMe"
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, errValidation(op, "user id is required")
	}
	u, err := s.users.GetByID(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, errStore(op, err)
	}
	if u == nil {
		return nil, errNotFound(op, "user not found")
	}
	return u, nil
}

func (s *userService) ListEnrolledCourses(ctx context.Context, userID string) ([]EnrolledCourse, error) {
	const op = "User.ListEnrolledCourses"
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, errValidation(op, "user id is required")
	}
	dbc := dbctx.Context{Ctx: ctx}
	memberships, err := s.enrollments.ListUserCourses(dbc, userID)
	if err != nil {
		return nil, errStore(op, err)
	}
	out := []EnrolledCourse{}
	if len(memberships) == 0 {
		return out, nil
	}
	ids := make([]uuid.UUID, 0, len(memberships))
	for _, m := range memberships {
		ids = append(ids, m.CourseID)
	}
	rows, err := s.courses.GetByIDs(dbc, ids)
	if err != nil {
		return nil, errStore(op, err)
	}
	byID := make(map[uuid.UUID]*types.Course, len(rows))
	for _, c := range rows {
		byID[c.ID] = c
	}
	for _, m := range memberships {
		c := byID[m.CourseID]
		if c == nil {
			continue
		}
		v, err := newCourseView(c, true)
		if err != nil {
			s.log.Warn("skipping enrolled course with unreadable content", "course_id", c.ID.String(), "error", err)
			continue
		}
		out = append(out, EnrolledCourse{Course: v, EnrolledAt: m.EnrolledAt})
	}
	return out, nil
}

func (s *userService) SyncFromProvider(ctx context.Context, userID string) (*types.User, error) {
	const op = "User.SyncFromProvider"
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, errValidation(op, "user id is required")
	}
	if s.provider == nil {
		return nil, errUpstream(op, errors.New("identity provider not configured"))
	}
	payload, err := s.provider.GetUser(ctx, userID)
	if errors.Is(err, identity.ErrUserNotFound) {
		return nil, errNotFound(op, "account not found at identity provider")
	}
	if err != nil {
		return nil, errUpstream(op, err)
	}
	return s.sync.ApplyProfile(ctx, payload.Profile())
}

func (s *userService) BecomeEducator(ctx context.Context, userID string) (*types.User, error) {
	const op = "User.BecomeEducator"
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, errValidation(op, "user id is required")
	}
	if s.provider == nil {
		return nil, errUpstream(op, errors.New("identity provider not configured"))
	}
	payload, err := s.provider.UpdateRole(ctx, userID, types.RoleEducator)
	if errors.Is(err, identity.ErrUserNotFound) {
		return nil, errNotFound(op, "account not found at identity provider")
	}
	if err != nil {
		return nil, errUpstream(op, err)
	}
	// The provider also emits user.updated; applying here avoids waiting on it.
	u, err := s.sync.ApplyProfile(ctx, payload.Profile())
	if err != nil {
		return nil, err
	}
	s.log.Info("user promoted to educator", "user_id", userID)
	return u, nil
}
