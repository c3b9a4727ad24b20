package billing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/coursemarket-backend/internal/domain"
	"github.com/yungbote/coursemarket-backend/internal/platform/dbctx"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
)

// PurchaseRepo is the table repo for purchases. Status transitions are not
// exposed here; they go through the settlement aggregate's guarded update.
type PurchaseRepo interface {
	Create(dbc dbctx.Context, p *types.Purchase) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Purchase, error)
	GetBySessionID(dbc dbctx.Context, sessionID string) (*types.Purchase, error)
	// AttachSession records the processor session on a pending purchase that
	// has none yet.
	AttachSession(dbc dbctx.Context, id uuid.UUID, sessionID, redirectURL string) (bool, error)
	// FindOpenCheckout returns the newest pending purchase for the pair that
	// has a session and was created after since, or nil.
	FindOpenCheckout(dbc dbctx.Context, userID string, courseID uuid.UUID, since time.Time) (*types.Purchase, error)
	ListPendingWithSession(dbc dbctx.Context, createdBefore time.Time, limit int) ([]*types.Purchase, error)
	ListCompletedForCourses(dbc dbctx.Context, courseIDs []uuid.UUID) ([]*types.Purchase, error)
	ListForUser(dbc dbctx.Context, userID string) ([]*types.Purchase, error)
}

type purchaseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPurchaseRepo(db *gorm.DB, baseLog *logger.Logger) PurchaseRepo {
	return &purchaseRepo{db: db, log: baseLog.With("repo", "PurchaseRepo")}
}

func (r *purchaseRepo) Create(dbc dbctx.Context, p *types.Purchase) error {
	return dbc.DB(r.db).Create(p).Error
}

func (r *purchaseRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Purchase, error) {
	var p types.Purchase
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&p).Error; err != nil {
		return nil, err
	}
	if p.ID == uuid.Nil {
		return nil, nil
	}
	return &p, nil
}

func (r *purchaseRepo) GetBySessionID(dbc dbctx.Context, sessionID string) (*types.Purchase, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, nil
	}
	var p types.Purchase
	if err := dbc.DB(r.db).Where("session_id = ?", sessionID).Limit(1).Find(&p).Error; err != nil {
		return nil, err
	}
	if p.ID == uuid.Nil {
		return nil, nil
	}
	return &p, nil
}

func (r *purchaseRepo) AttachSession(dbc dbctx.Context, id uuid.UUID, sessionID, redirectURL string) (bool, error) {
	res := dbc.DB(r.db).
		Model(&types.Purchase{}).
		Where("id = ? AND session_id IS NULL AND status = ?", id, types.PurchaseStatusPending).
		Updates(map[string]any{
			"session_id":   sessionID,
			"redirect_url": redirectURL,
			"updated_at":   time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *purchaseRepo) FindOpenCheckout(dbc dbctx.Context, userID string, courseID uuid.UUID, since time.Time) (*types.Purchase, error) {
	var p types.Purchase
	if err := dbc.DB(r.db).
		Where("user_id = ? AND course_id = ? AND status = ? AND session_id IS NOT NULL AND created_at > ?",
			userID, courseID, types.PurchaseStatusPending, since.UTC()).
		Order("created_at DESC").
		Limit(1).
		Find(&p).Error; err != nil {
		return nil, err
	}
	if p.ID == uuid.Nil {
		return nil, nil
	}
	return &p, nil
}

func (r *purchaseRepo) ListPendingWithSession(dbc dbctx.Context, createdBefore time.Time, limit int) ([]*types.Purchase, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []*types.Purchase
	if err := dbc.DB(r.db).
		Where("status = ? AND session_id IS NOT NULL AND created_at < ?", types.PurchaseStatusPending, createdBefore.UTC()).
		Order("created_at ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *purchaseRepo) ListCompletedForCourses(dbc dbctx.Context, courseIDs []uuid.UUID) ([]*types.Purchase, error) {
	var out []*types.Purchase
	if len(courseIDs) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("course_id IN ? AND status = ?", courseIDs, types.PurchaseStatusCompleted).
		Order("completed_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *purchaseRepo) ListForUser(dbc dbctx.Context, userID string) ([]*types.Purchase, error) {
	var out []*types.Purchase
	if err := dbc.DB(r.db).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
