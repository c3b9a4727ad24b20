package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/coursemarket-backend/internal/data/repos"
	types "github.com/yungbote/coursemarket-backend/internal/domain"
	domainagg "github.com/yungbote/coursemarket-backend/internal/domain/aggregates"
	"github.com/yungbote/coursemarket-backend/internal/platform/dbctx"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
)

// AccessPolicy decides whether a user may record progress on a course.
type AccessPolicy interface {
	CanAccess(ctx context.Context, userID string, course *types.Course) (bool, error)
}

type enrollmentAccessPolicy struct {
	enrollments repos.EnrollmentRepo
}

// NewEnrollmentAccessPolicy admits enrolled users and the course owner.
func NewEnrollmentAccessPolicy(enrollments repos.EnrollmentRepo) AccessPolicy {
	return &enrollmentAccessPolicy{enrollments: enrollments}
}

func (p *enrollmentAccessPolicy) CanAccess(ctx context.Context, userID string, course *types.Course) (bool, error) {
	if course == nil {
		return false, nil
	}
	if course.EducatorID == userID {
		return true, nil
	}
	return p.enrollments.HasCourse(dbctx.Context{Ctx: ctx}, userID, course.ID)
}

type ProgressView struct {
	CourseID          uuid.UUID  `json:"course_id"`
	CompletedLectures []string   `json:"completed_lectures"`
	LastAccessedAt    *time.Time `json:"last_accessed_at"`
}

type ProgressService interface {
	MarkComplete(ctx context.Context, userID string, courseID uuid.UUID, lectureID string) (*ProgressView, error)
	// GetProgress returns an empty view when nothing has been recorded.
	GetProgress(ctx context.Context, userID string, courseID uuid.UUID) (*ProgressView, error)
}

type progressService struct {
	db       *gorm.DB
	log      *logger.Logger
	courses  repos.CourseRepo
	progress repos.CourseProgressRepo
	agg      domainagg.LectureProgressAggregate
	policy   AccessPolicy
}

func NewProgressService(
	db *gorm.DB,
	log *logger.Logger,
	courses repos.CourseRepo,
	progress repos.CourseProgressRepo,
	agg domainagg.LectureProgressAggregate,
	policy AccessPolicy,
) ProgressService {
	return &progressService{
		db:       db,
		log:      log.With("service", "ProgressService"),
		courses:  courses,
		progress: progress,
		agg:      agg,
		policy:   policy,
	}
}

func (s *progressService) MarkComplete(ctx context.Context, userID string, courseID uuid.UUID, lectureID string) (*ProgressView, error) {
	const op = "Progress.MarkComplete"
	userID = strings.TrimSpace(userID)
	lectureID = strings.TrimSpace(lectureID)
	if userID == "" || courseID == uuid.Nil || lectureID == "" {
		return nil, errValidation(op, "course_id and lecture_id are required")
	}
	dbc := dbctx.Context{Ctx: ctx}
	course, err := s.courses.GetByID(dbc, courseID)
	if err != nil {
		return nil, errStore(op, err)
	}
	if course == nil {
		return nil, errNotFound(op, "course not found")
	}
	if s.policy != nil {
		ok, err := s.policy.CanAccess(ctx, userID, course)
		if err != nil {
			return nil, errStore(op, err)
		}
		if !ok {
			return nil, domainagg.NewError(domainagg.CodeNotEnrolled, op, "user is not enrolled in this course", nil)
		}
	}
	if _, ok := course.Lecture(lectureID); !ok {
		return nil, errValidation(op, "lecture does not belong to this course")
	}

	res, err := s.agg.MarkLectureComplete(ctx, domainagg.MarkLectureCompleteInput{
		UserID:    userID,
		CourseID:  courseID,
		LectureID: lectureID,
		At:        time.Now(),
	})
	if err != nil {
		return nil, err
	}
	if res.LectureAdded {
		s.log.Debug("lecture completed", "user_id", userID, "course_id", courseID.String(), "lecture_id", lectureID)
	}
	return s.GetProgress(ctx, userID, courseID)
}

func (s *progressService) GetProgress(ctx context.Context, userID string, courseID uuid.UUID) (*ProgressView, error) {
	const op = "Progress.GetProgress"
	userID = strings.TrimSpace(userID)
	if userID == "" || courseID == uuid.Nil {
		return nil, errValidation(op, "course_id is required")
	}
	rec, err := s.progress.Get(dbctx.Context{Ctx: ctx}, userID, courseID)
	if err != nil {
		return nil, errStore(op, err)
	}
	out := &ProgressView{CourseID: courseID, CompletedLectures: []string{}}
	if rec == nil {
		return out, nil
	}
	if rec.CompletedLectures != nil {
		out.CompletedLectures = rec.CompletedLectures
	}
	at := rec.LastAccessedAt
	out.LastAccessedAt = &at
	return out, nil
}
