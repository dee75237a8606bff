package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/notifybiz/console/internal/setting/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, setting *domain.Setting) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "vendor_id"}, {Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"value", "is_sensitive", "is_public", "updated_at",
			}),
		}).
		Create(setting).Error
}

func (r *repo) FindByKey(ctx context.Context, db *gorm.DB, vendorID snowflake.ID, key string) (*domain.Setting, error) {
	var setting domain.Setting
	err := db.WithContext(ctx).
		Model(&domain.Setting{}).
		Where("vendor_id = ? AND key = ?", vendorID, key).
		Take(&setting).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &setting, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, vendorID snowflake.ID) ([]*domain.Setting, error) {
	var settings []*domain.Setting
	err := db.WithContext(ctx).
		Model(&domain.Setting{}).
		Where("vendor_id = ?", vendorID).
		Order("key asc").
		Find(&settings).Error
	if err != nil {
		return nil, err
	}
	return settings, nil
}

func (r *repo) ListPublic(ctx context.Context, db *gorm.DB, vendorID snowflake.ID) ([]*domain.Setting, error) {
	var settings []*domain.Setting
	err := db.WithContext(ctx).
		Model(&domain.Setting{}).
		Where("vendor_id = ? AND is_public = ? AND is_sensitive = ?", vendorID, true, false).
		Order("key asc").
		Find(&settings).Error
	if err != nil {
		return nil, err
	}
	return settings, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, vendorID snowflake.ID, key string) error {
	res := db.WithContext(ctx).
		Where("vendor_id = ? AND key = ?", vendorID, key).
		Delete(&domain.Setting{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
