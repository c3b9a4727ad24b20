package user

import (
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/coursemarket-backend/internal/domain"
	"github.com/yungbote/coursemarket-backend/internal/platform/dbctx"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
)

type UserRepo interface {
	// Upsert inserts or fully replaces the profile fields for u.ID.
	Upsert(dbc dbctx.Context, u *types.User) error
	GetByID(dbc dbctx.Context, id string) (*types.User, error)
	GetByIDs(dbc dbctx.Context, ids []string) ([]*types.User, error)
	Exists(dbc dbctx.Context, id string) (bool, error)
	Delete(dbc dbctx.Context, id string) (bool, error)
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return &userRepo{db: db, log: baseLog.With("repo", "UserRepo")}
}

func (r *userRepo) Upsert(dbc dbctx.Context, u *types.User) error {
	if u == nil || strings.TrimSpace(u.ID) == "" {
		return errors.New("user id required")
	}
	return dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "email", "image_url", "role", "updated_at"}),
		}).
		Create(u).Error
}

func (r *userRepo) GetByID(dbc dbctx.Context, id string) (*types.User, error) {
	var u types.User
	err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&u).Error
	if err != nil {
		return nil, err
	}
	if u.ID == "" {
		return nil, nil
	}
	return &u, nil
}

func (r *userRepo) GetByIDs(dbc dbctx.Context, ids []string) ([]*types.User, error) {
	var out []*types.User
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *userRepo) Exists(dbc dbctx.Context, id string) (bool, error) {
	var count int64
	if err := dbc.DB(r.db).Model(&types.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *userRepo) Delete(dbc dbctx.Context, id string) (bool, error) {
	res := dbc.DB(r.db).Where("id = ?", id).Delete(&types.User{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
