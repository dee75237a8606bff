package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Upsert(ctx context.Context, db *gorm.DB, setting *Setting) error
	FindByKey(ctx context.Context, db *gorm.DB, vendorID snowflake.ID, key string) (*Setting, error)
	List(ctx context.Context, db *gorm.DB, vendorID snowflake.ID) ([]*Setting, error)
	ListPublic(ctx context.Context, db *gorm.DB, vendorID snowflake.ID) ([]*Setting, error)
	Delete(ctx context.Context, db *gorm.DB, vendorID snowflake.ID, key string) error
}
