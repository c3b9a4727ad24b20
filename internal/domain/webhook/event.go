package webhook

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ProviderIdentity = "identity"
	ProviderPayment  = "payment"

	StatusReceived  = "received"
	StatusProcessed = "processed"
	StatusIgnored   = "ignored"
	StatusFailed    = "failed"
)

// Event is the delivery log for verified inbound notifications.
type Event struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Provider    string     `gorm:"column:provider;not null;uniqueIndex:idx_webhook_event_delivery" json:"provider"`
	DeliveryID  string     `gorm:"column:delivery_id;not null;uniqueIndex:idx_webhook_event_delivery" json:"delivery_id"`
	EventType   string     `gorm:"column:event_type;not null;uniqueIndex:idx_webhook_event_delivery" json:"event_type"`
	SubjectID   string     `gorm:"column:subject_id;index" json:"subject_id"`
	Status      string     `gorm:"column:status;not null" json:"status"`
	Error       string     `gorm:"column:error;type:text" json:"error,omitempty"`
	Attempts    int        `gorm:"column:attempts;not null" json:"attempts"`
	ReceivedAt  time.Time  `gorm:"column:received_at;not null" json:"received_at"`
	ProcessedAt *time.Time `gorm:"column:processed_at" json:"processed_at,omitempty"`
}

func (Event) TableName() string { return "webhook_event" }

func (e *Event) BeforeCreate(_ *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
