package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	PurchaseStatusPending   = "pending"
	PurchaseStatusCompleted = "completed"
	PurchaseStatusFailed    = "failed"
)

// AmountScale is the decimal scale of stored money columns.
const AmountScale int32 = 2

// Purchase moves pending -> completed|failed exactly once.
type Purchase struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        string          `gorm:"column:user_id;type:text;not null;index" json:"user_id"`
	CourseID      uuid.UUID       `gorm:"column:course_id;type:uuid;not null;index" json:"course_id"`
	Amount        decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null" json:"amount"`
	Currency      string          `gorm:"column:currency;not null" json:"currency"`
	Status        string          `gorm:"column:status;not null;index" json:"status"`
	SessionID     *string         `gorm:"column:session_id;uniqueIndex" json:"session_id,omitempty"`
	RedirectURL   string          `gorm:"column:redirect_url" json:"redirect_url,omitempty"`
	ExternalRef   string          `gorm:"column:external_ref" json:"external_ref,omitempty"`
	FailureReason string          `gorm:"column:failure_reason" json:"failure_reason,omitempty"`
	CompletedAt   *time.Time      `gorm:"column:completed_at" json:"completed_at,omitempty"`
	FailedAt      *time.Time      `gorm:"column:failed_at" json:"failed_at,omitempty"`
	CreatedAt     time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Purchase) TableName() string { return "purchase" }

func (p *Purchase) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func IsTerminalStatus(status string) bool {
	return status == PurchaseStatusCompleted || status == PurchaseStatusFailed
}

func (p *Purchase) IsTerminal() bool {
	return p != nil && IsTerminalStatus(p.Status)
}

func (p *Purchase) Session() string {
	if p == nil || p.SessionID == nil {
		return ""
	}
	return *p.SessionID
}
