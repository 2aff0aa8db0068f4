package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Subscription represents a row of the subscriptions table, keyed by the
// Stripe subscription id.
type Subscription struct {
	ID                 string            `gorm:"primaryKey;type:text" json:"id"`
	UserID             uuid.UUID         `gorm:"type:uuid;not null;index" json:"user_id"`
	Status             string            `gorm:"type:subscription_status" json:"status"`
	PriceID            string            `gorm:"column:price_id" json:"price_id"`
	Quantity           int64             `json:"quantity"`
	CancelAtPeriodEnd  bool              `json:"cancel_at_period_end"`
	Created            time.Time         `gorm:"not null" json:"created"`
	CurrentPeriodStart time.Time         `gorm:"not null" json:"current_period_start"`
	CurrentPeriodEnd   time.Time         `gorm:"not null" json:"current_period_end"`
	EndedAt            *time.Time        `json:"ended_at,omitempty"`
	CancelAt           *time.Time        `json:"cancel_at,omitempty"`
	CanceledAt         *time.Time        `json:"canceled_at,omitempty"`
	TrialStart         *time.Time        `json:"trial_start,omitempty"`
	TrialEnd           *time.Time        `json:"trial_end,omitempty"`
	Metadata           datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
}

// TableName specifies the table name for GORM
func (Subscription) TableName() string {
	return "subscriptions"
}
