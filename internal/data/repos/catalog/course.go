package catalog

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/coursemarket-backend/internal/domain"
	"github.com/yungbote/coursemarket-backend/internal/platform/dbctx"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
)

type CourseRepo interface {
	Create(dbc dbctx.Context, courses []*types.Course) ([]*types.Course, error)
	// Upsert writes courses keyed on id, replacing catalog fields.
	Upsert(dbc dbctx.Context, courses []*types.Course) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Course, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Course, error)
	ListPublished(dbc dbctx.Context) ([]*types.Course, error)
	ListByEducator(dbc dbctx.Context, educatorID string) ([]*types.Course, error)
	SetPublished(dbc dbctx.Context, id uuid.UUID, educatorID string, published bool) (bool, error)
}

type courseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	return &courseRepo{db: db, log: baseLog.With("repo", "CourseRepo")}
}

func (r *courseRepo) Create(dbc dbctx.Context, courses []*types.Course) ([]*types.Course, error) {
	if len(courses) == 0 {
		return []*types.Course{}, nil
	}
	if err := dbc.DB(r.db).Create(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *courseRepo) Upsert(dbc dbctx.Context, courses []*types.Course) error {
	if len(courses) == 0 {
		return nil
	}
	return dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"title",
				"description",
				"thumbnail_url",
				"price",
				"discount_percent",
				"content",
				"is_published",
				"educator_id",
				"updated_at",
			}),
		}).
		Create(&courses).Error
}

func (r *courseRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Course, error) {
	var c types.Course
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&c).Error; err != nil {
		return nil, err
	}
	if c.ID == uuid.Nil {
		return nil, nil
	}
	return &c, nil
}

func (r *courseRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Course, error) {
	var out []*types.Course
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *courseRepo) ListPublished(dbc dbctx.Context) ([]*types.Course, error) {
	var out []*types.Course
	if err := dbc.DB(r.db).
		Where("is_published = ?", true).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *courseRepo) ListByEducator(dbc dbctx.Context, educatorID string) ([]*types.Course, error) {
	var out []*types.Course
	if err := dbc.DB(r.db).
		Where("educator_id = ?", educatorID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *courseRepo) SetPublished(dbc dbctx.Context, id uuid.UUID, educatorID string, published bool) (bool, error) {
	res := dbc.DB(r.db).
		Model(&types.Course{}).
		Where("id = ? AND educator_id = ?", id, educatorID).
		Update("is_published", published)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
