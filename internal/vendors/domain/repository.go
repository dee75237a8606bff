package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/notifybiz/console/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, vendor *Vendor) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Vendor, error)
	List(ctx context.Context, db *gorm.DB, filter ListVendorFilter, page pagination.Pagination) ([]*Vendor, error)
	ListByOwner(ctx context.Context, db *gorm.DB, ownerUserID snowflake.ID) ([]*Vendor, error)
	UpdateFields(ctx context.Context, db *gorm.DB, id snowflake.ID, fields map[string]any) error
}
