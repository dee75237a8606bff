package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/notifybiz/console/internal/contact/domain"
	"github.com/notifybiz/console/pkg/db/option"
	"github.com/notifybiz/console/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, contact *domain.Contact) error {
	return db.WithContext(ctx).Create(contact).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, vendorID, id snowflake.ID) (*domain.Contact, error) {
	var contact domain.Contact
	err := db.WithContext(ctx).
		Model(&domain.Contact{}).
		Where("vendor_id = ? AND id = ?", vendorID, id).
		Take(&contact).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &contact, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, vendorID snowflake.ID, filter domain.ListContactFilter, page pagination.Pagination) ([]*domain.Contact, error) {
	var contacts []*domain.Contact
	stmt := db.WithContext(ctx).
		Model(&domain.Contact{}).
		Where("vendor_id = ?", vendorID)
	if filter.Name != "" {
		stmt = stmt.Where("name LIKE ?", "%"+filter.Name+"%")
	}
	if filter.PhoneNumber != "" {
		stmt = stmt.Where("phone_number = ?", filter.PhoneNumber)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&contacts).Error
	if err != nil {
		return nil, err
	}
	return contacts, nil
}

func (r *repo) UpdateFields(ctx context.Context, db *gorm.DB, vendorID, id snowflake.ID, fields map[string]any) error {
	res := db.WithContext(ctx).
		Model(&domain.Contact{}).
		Where("vendor_id = ? AND id = ?", vendorID, id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, vendorID, id snowflake.ID) error {
	res := db.WithContext(ctx).
		Where("vendor_id = ? AND id = ?", vendorID, id).
		Delete(&domain.Contact{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
