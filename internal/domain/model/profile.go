package model

import (
	"time"

	"github.com/google/uuid"
)

// Profile represents a row of the profiles table
type Profile struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FullName         *string   `gorm:"column:full_name" json:"full_name,omitempty"`
	StripeCustomerID *string   `gorm:"column:stripe_customer_id;unique" json:"stripe_customer_id,omitempty"`
	UpdatedAt        time.Time `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Profile) TableName() string {
	return "profiles"
}
