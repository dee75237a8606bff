package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/notifybiz/console/internal/waba/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, account *domain.Account) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "vendor_id"}, {Name: "waba_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"phone_number_id", "business_id", "status",
				"last_event", "current_step", "updated_at",
			}),
		}).
		Create(account).Error
}

func (r *repo) FindByVendorWABA(ctx context.Context, db *gorm.DB, vendorID snowflake.ID, wabaID string) (*domain.Account, error) {
	var account domain.Account
	err := db.WithContext(ctx).
		Model(&domain.Account{}).
		Where("vendor_id = ? AND waba_id = ?", vendorID, wabaID).
		Take(&account).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *repo) FindLatestByVendor(ctx context.Context, db *gorm.DB, vendorID snowflake.ID) (*domain.Account, error) {
	var account domain.Account
	err := db.WithContext(ctx).
		Model(&domain.Account{}).
		Where("vendor_id = ?", vendorID).
		Order("updated_at desc").
		First(&account).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *repo) ListByVendor(ctx context.Context, db *gorm.DB, vendorID snowflake.ID) ([]*domain.Account, error) {
	var accounts []*domain.Account
	err := db.WithContext(ctx).
		Model(&domain.Account{}).
		Where("vendor_id = ?", vendorID).
		Order("created_at asc").
		Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *repo) UpdateFields(ctx context.Context, db *gorm.DB, vendorID snowflake.ID, wabaID string, fields map[string]any) error {
	res := db.WithContext(ctx).
		Model(&domain.Account{}).
		Where("vendor_id = ? AND waba_id = ?", vendorID, wabaID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
