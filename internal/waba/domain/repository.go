package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Upsert(ctx context.Context, db *gorm.DB, account *Account) error
	FindByVendorWABA(ctx context.Context, db *gorm.DB, vendorID snowflake.ID, wabaID string) (*Account, error)
	FindLatestByVendor(ctx context.Context, db *gorm.DB, vendorID snowflake.ID) (*Account, error)
	ListByVendor(ctx context.Context, db *gorm.DB, vendorID snowflake.ID) ([]*Account, error)
	UpdateFields(ctx context.Context, db *gorm.DB, vendorID snowflake.ID, wabaID string, fields map[string]any) error
}
