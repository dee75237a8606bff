package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/notifybiz/console/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, template *Template) error
	FindByID(ctx context.Context, db *gorm.DB, vendorID, id snowflake.ID) (*Template, error)
	FindByNameLanguage(ctx context.Context, db *gorm.DB, vendorID snowflake.ID, name, language string) (*Template, error)
	List(ctx context.Context, db *gorm.DB, vendorID snowflake.ID, filter ListTemplateFilter, page pagination.Pagination) ([]*Template, error)
	UpdateFields(ctx context.Context, db *gorm.DB, vendorID, id snowflake.ID, fields map[string]any) error
	Delete(ctx context.Context, db *gorm.DB, vendorID, id snowflake.ID) error
	CountByStatus(ctx context.Context, db *gorm.DB, vendorID snowflake.ID) (map[string]int64, error)
}
