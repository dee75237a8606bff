// Package domain contains persistence models for the plan service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const (
	IntervalMonthly = "MONTHLY"
	IntervalYearly  = "YEARLY"
)

// Plan is a subscription tier a vendor can be assigned to.
type Plan struct {
	ID           snowflake.ID      `gorm:"primaryKey" json:"id"`
	Code         string            `gorm:"type:text;not null;uniqueIndex:ux_plans_code" json:"code"`
	Name         string            `gorm:"type:text;not null" json:"name"`
	Description  string            `gorm:"type:text" json:"description,omitempty"`
	PriceCents   int64             `gorm:"column:price_cents;not null;default:0" json:"price_cents"`
	Currency     string            `gorm:"type:text;not null;default:'USD'" json:"currency"`
	Interval     string            `gorm:"type:text;not null;default:'MONTHLY'" json:"interval"`
	MessageLimit int64             `gorm:"column:message_limit;not null;default:0" json:"message_limit"`
	IsDefault    bool              `gorm:"column:is_default" json:"is_default"`
	IsActive     bool              `gorm:"column:is_active;not null;default:true" json:"is_active"`
	Metadata     datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Plan) TableName() string { return "subscription_plans" }
