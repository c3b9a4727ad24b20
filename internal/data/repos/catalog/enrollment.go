package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/coursemarket-backend/internal/domain"
	"github.com/yungbote/coursemarket-backend/internal/platform/dbctx"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
)

// EnrollmentRepo owns both mirrored enrollment tables. The Add* methods
// are conditional set-adds: they report whether a row was inserted and
// never fail on an existing membership.
type EnrollmentRepo interface {
	AddUserCourse(dbc dbctx.Context, userID string, courseID uuid.UUID, at time.Time) (bool, error)
	AddCourseStudent(dbc dbctx.Context, courseID uuid.UUID, userID string, at time.Time) (bool, error)
	IsStudent(dbc dbctx.Context, courseID uuid.UUID, userID string) (bool, error)
	HasCourse(dbc dbctx.Context, userID string, courseID uuid.UUID) (bool, error)
	ListUserCourses(dbc dbctx.Context, userID string) ([]*types.UserCourse, error)
	ListCourseStudents(dbc dbctx.Context, courseIDs []uuid.UUID) ([]*types.CourseStudent, error)
}

type enrollmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRepo {
	return &enrollmentRepo{db: db, log: baseLog.With("repo", "EnrollmentRepo")}
}

func (r *enrollmentRepo) AddUserCourse(dbc dbctx.Context, userID string, courseID uuid.UUID, at time.Time) (bool, error) {
	res := dbc.DB(r.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&types.UserCourse{UserID: userID, CourseID: courseID, EnrolledAt: at.UTC()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *enrollmentRepo) AddCourseStudent(dbc dbctx.Context, courseID uuid.UUID, userID string, at time.Time) (bool, error) {
	res := dbc.DB(r.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&types.CourseStudent{CourseID: courseID, UserID: userID, EnrolledAt: at.UTC()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *enrollmentRepo) IsStudent(dbc dbctx.Context, courseID uuid.UUID, userID string) (bool, error) {
	var count int64
	if err := dbc.DB(r.db).
		Model(&types.CourseStudent{}).
		Where("course_id = ? AND user_id = ?", courseID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *enrollmentRepo) HasCourse(dbc dbctx.Context, userID string, courseID uuid.UUID) (bool, error) {
	var count int64
	if err := dbc.DB(r.db).
		Model(&types.UserCourse{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListUserCourses returns memberships in enrollment order.
func (r *enrollmentRepo) ListUserCourses(dbc dbctx.Context, userID string) ([]*types.UserCourse, error) {
	var out []*types.UserCourse
	if err := dbc.DB(r.db).
		Where("user_id = ?", userID).
		Order("enrolled_at ASC, course_id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *enrollmentRepo) ListCourseStudents(dbc dbctx.Context, courseIDs []uuid.UUID) ([]*types.CourseStudent, error) {
	var out []*types.CourseStudent
	if len(courseIDs) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("course_id IN ?", courseIDs).
		Order("enrolled_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
