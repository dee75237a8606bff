package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/notifybiz/console/internal/vendors/domain"
	"github.com/notifybiz/console/pkg/db/option"
	"github.com/notifybiz/console/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, vendor *domain.Vendor) error {
	return db.WithContext(ctx).Create(vendor).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Vendor, error) {
	var vendor domain.Vendor
	err := db.WithContext(ctx).
		Model(&domain.Vendor{}).
		Where("id = ?", id).
		Take(&vendor).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &vendor, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListVendorFilter, page pagination.Pagination) ([]*domain.Vendor, error) {
	var vendors []*domain.Vendor
	stmt := db.WithContext(ctx).
		Model(&domain.Vendor{})
	if filter.Name != "" {
		stmt = stmt.Where("name = ?", filter.Name)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.CreatedFrom != nil {
		stmt = stmt.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		stmt = stmt.Where("created_at <= ?", *filter.CreatedTo)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&vendors).Error
	if err != nil {
		return nil, err
	}
	return vendors, nil
}

func (r *repo) ListByOwner(ctx context.Context, db *gorm.DB, ownerUserID snowflake.ID) ([]*domain.Vendor, error) {
	var vendors []*domain.Vendor
	err := db.WithContext(ctx).
		Model(&domain.Vendor{}).
		Where("owner_user_id = ?", ownerUserID).
		Order("created_at asc").
		Find(&vendors).Error
	if err != nil {
		return nil, err
	}
	return vendors, nil
}

func (r *repo) UpdateFields(ctx context.Context, db *gorm.DB, id snowflake.ID, fields map[string]any) error {
	res := db.WithContext(ctx).
		Model(&domain.Vendor{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
