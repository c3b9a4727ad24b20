package webhook

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/coursemarket-backend/internal/domain"
	"github.com/yungbote/coursemarket-backend/internal/platform/dbctx"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
)

type EventKey struct {
	Provider   string
	DeliveryID string
	EventType  string
}

type EventRepo interface {
	// Record logs a delivery. Redeliveries bump the attempt counter and
	// return the stored row.
	Record(dbc dbctx.Context, key EventKey, subjectID string, at time.Time) (*types.WebhookEvent, error)
	MarkStatus(dbc dbctx.Context, key EventKey, status, errMsg string, at time.Time) error
	Get(dbc dbctx.Context, key EventKey) (*types.WebhookEvent, error)
}

type eventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEventRepo(db *gorm.DB, baseLog *logger.Logger) EventRepo {
	return &eventRepo{db: db, log: baseLog.With("repo", "WebhookEventRepo")}
}

func (r *eventRepo) scope(db *gorm.DB, key EventKey) *gorm.DB {
	return db.Where("provider = ? AND delivery_id = ? AND event_type = ?", key.Provider, key.DeliveryID, key.EventType)
}

func (r *eventRepo) Record(dbc dbctx.Context, key EventKey, subjectID string, at time.Time) (*types.WebhookEvent, error) {
	db := dbc.DB(r.db)
	row := &types.WebhookEvent{
		Provider:   key.Provider,
		DeliveryID: key.DeliveryID,
		EventType:  key.EventType,
		SubjectID:  subjectID,
		Status:     types.WebhookStatusReceived,
		Attempts:   1,
		ReceivedAt: at.UTC(),
	}
	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected > 0 {
		return row, nil
	}
	if err := r.scope(db.Model(&types.WebhookEvent{}), key).
		Update("attempts", gorm.Expr("attempts + 1")).Error; err != nil {
		return nil, err
	}
	return r.Get(dbc, key)
}

func (r *eventRepo) MarkStatus(dbc dbctx.Context, key EventKey, status, errMsg string, at time.Time) error {
	updates := map[string]any{"status": status, "error": errMsg}
	if status != types.WebhookStatusReceived {
		t := at.UTC()
		updates["processed_at"] = &t
	}
	return r.scope(dbc.DB(r.db).Model(&types.WebhookEvent{}), key).Updates(updates).Error
}

func (r *eventRepo) Get(dbc dbctx.Context, key EventKey) (*types.WebhookEvent, error) {
	var out types.WebhookEvent
	if err := r.scope(dbc.DB(r.db), key).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if out.DeliveryID == "" {
		return nil, nil
	}
	return &out, nil
}
