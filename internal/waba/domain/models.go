// Package domain contains persistence models for connected WhatsApp
// Business Accounts.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const (
	StatusPending      = "PENDING"
	StatusConnected    = "CONNECTED"
	StatusDisconnected = "DISCONNECTED"
)

// Account is one vendor's connected WABA. The upsert key is
// (vendor_id, waba_id): repeating the signup flow refreshes the row rather
// than duplicating it.
type Account struct {
	ID            snowflake.ID      `gorm:"primaryKey" json:"id"`
	VendorID      snowflake.ID      `gorm:"not null;index;uniqueIndex:ux_waba_vendor_waba,priority:1" json:"vendor_id"`
	WABAID        string            `gorm:"column:waba_id;type:text;not null;uniqueIndex:ux_waba_vendor_waba,priority:2" json:"waba_id"`
	PhoneNumberID string            `gorm:"column:phone_number_id;type:text" json:"phone_number_id,omitempty"`
	BusinessID    string            `gorm:"column:business_id;type:text" json:"business_id,omitempty"`
	AccessToken   string            `gorm:"column:access_token;type:text" json:"-"`
	GrantedScopes datatypes.JSON    `gorm:"column:granted_scopes;type:jsonb" json:"granted_scopes,omitempty"`
	MissingScopes datatypes.JSON    `gorm:"column:missing_scopes;type:jsonb" json:"missing_scopes,omitempty"`
	HasAllScopes  bool              `gorm:"column:has_all_scopes" json:"has_all_scopes"`
	Status        string            `gorm:"type:text;not null;default:'PENDING'" json:"status"`
	LastEvent     string            `gorm:"column:last_event;type:text" json:"last_event,omitempty"`
	CurrentStep   string            `gorm:"column:current_step;type:text" json:"current_step,omitempty"`
	Metadata      datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt     time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Account) TableName() string { return "waba_accounts" }
