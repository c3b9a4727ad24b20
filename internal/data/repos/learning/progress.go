package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/coursemarket-backend/internal/domain"
	"github.com/yungbote/coursemarket-backend/internal/platform/dbctx"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
)

type CourseProgressRepo interface {
	// Touch creates the progress record if missing and refreshes last access.
	Touch(dbc dbctx.Context, userID string, courseID uuid.UUID, at time.Time) (bool, error)
	AddCompletedLecture(dbc dbctx.Context, userID string, courseID uuid.UUID, lectureID string, at time.Time) (bool, error)
	// Get returns nil when no record exists; CompletedLectures is populated.
	Get(dbc dbctx.Context, userID string, courseID uuid.UUID) (*types.CourseProgress, error)
}

type courseProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseProgressRepo(db *gorm.DB, baseLog *logger.Logger) CourseProgressRepo {
	return &courseProgressRepo{db: db, log: baseLog.With("repo", "CourseProgressRepo")}
}

func (r *courseProgressRepo) Touch(dbc dbctx.Context, userID string, courseID uuid.UUID, at time.Time) (bool, error) {
	db := dbc.DB(r.db)
	at = at.UTC()
	res := db.
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&types.CourseProgress{UserID: userID, CourseID: courseID, LastAccessedAt: at})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}
	err := db.Model(&types.CourseProgress{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Updates(map[string]any{"last_accessed_at": at, "updated_at": at}).Error
	return false, err
}

func (r *courseProgressRepo) AddCompletedLecture(dbc dbctx.Context, userID string, courseID uuid.UUID, lectureID string, at time.Time) (bool, error) {
	res := dbc.DB(r.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&types.CompletedLecture{
			UserID:      userID,
			CourseID:    courseID,
			LectureID:   lectureID,
			CompletedAt: at.UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *courseProgressRepo) Get(dbc dbctx.Context, userID string, courseID uuid.UUID) (*types.CourseProgress, error) {
	db := dbc.DB(r.db)
	var p types.CourseProgress
	if err := db.Where("user_id = ? AND course_id = ?", userID, courseID).Limit(1).Find(&p).Error; err != nil {
		return nil, err
	}
	if p.ID == uuid.Nil {
		return nil, nil
	}
	var lectures []string
	if err := db.Model(&types.CompletedLecture{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Order("completed_at ASC, lecture_id ASC").
		Pluck("lecture_id", &lectures).Error; err != nil {
		return nil, err
	}
	if lectures == nil {
		lectures = []string{}
	}
	p.CompletedLectures = lectures
	return &p, nil
}
