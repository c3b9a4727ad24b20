package catalog

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/coursemarket-backend/internal/domain"
	"github.com/yungbote/coursemarket-backend/internal/platform/dbctx"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
)

type RatingSummary struct {
	Average float64
	Count   int64
}

type RatingRepo interface {
	// Upsert keeps one rating per (course, user); a second call overwrites.
	Upsert(dbc dbctx.Context, rating *types.CourseRating) error
	Summary(dbc dbctx.Context, courseID uuid.UUID) (RatingSummary, error)
	GetForUser(dbc dbctx.Context, courseID uuid.UUID, userID string) (*types.CourseRating, error)
}

type ratingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRatingRepo(db *gorm.DB, baseLog *logger.Logger) RatingRepo {
	return &ratingRepo{db: db, log: baseLog.With("repo", "RatingRepo")}
}

func (r *ratingRepo) Upsert(dbc dbctx.Context, rating *types.CourseRating) error {
	return dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "course_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"rating", "updated_at"}),
		}).
		Create(rating).Error
}

func (r *ratingRepo) Summary(dbc dbctx.Context, courseID uuid.UUID) (RatingSummary, error) {
	var row struct {
		Total float64
		Count int64
	}
	err := dbc.DB(r.db).
		Model(&types.CourseRating{}).
		Select("COALESCE(SUM(rating), 0) AS total, COUNT(*) AS count").
		Where("course_id = ?", courseID).
		Scan(&row).Error
	if err != nil {
		return RatingSummary{}, err
	}
	if row.Count == 0 {
		return RatingSummary{}, nil
	}
	return RatingSummary{Average: row.Total / float64(row.Count), Count: row.Count}, nil
}

func (r *ratingRepo) GetForUser(dbc dbctx.Context, courseID uuid.UUID, userID string) (*types.CourseRating, error) {
	var out types.CourseRating
	if err := dbc.DB(r.db).
		Where("course_id = ? AND user_id = ?", courseID, userID).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if out.UserID == "" {
		return nil, nil
	}
	return &out, nil
}
