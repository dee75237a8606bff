package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/notifybiz/console/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, contact *Contact) error
	FindByID(ctx context.Context, db *gorm.DB, vendorID, id snowflake.ID) (*Contact, error)
	List(ctx context.Context, db *gorm.DB, vendorID snowflake.ID, filter ListContactFilter, page pagination.Pagination) ([]*Contact, error)
	UpdateFields(ctx context.Context, db *gorm.DB, vendorID, id snowflake.ID, fields map[string]any) error
	Delete(ctx context.Context, db *gorm.DB, vendorID, id snowflake.ID) error
}
