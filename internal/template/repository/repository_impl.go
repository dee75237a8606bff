package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/notifybiz/console/internal/template/domain"
	"github.com/notifybiz/console/pkg/db/option"
	"github.com/notifybiz/console/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, template *domain.Template) error {
	return db.WithContext(ctx).Create(template).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, vendorID, id snowflake.ID) (*domain.Template, error) {
	var template domain.Template
	err := db.WithContext(ctx).
		Model(&domain.Template{}).
		Where("vendor_id = ? AND id = ?", vendorID, id).
		Take(&template).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &template, nil
}

func (r *repo) FindByNameLanguage(ctx context.Context, db *gorm.DB, vendorID snowflake.ID, name, language string) (*domain.Template, error) {
	var template domain.Template
	err := db.WithContext(ctx).
		Model(&domain.Template{}).
		Where("vendor_id = ? AND name = ? AND language = ?", vendorID, name, language).
		Take(&template).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &template, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, vendorID snowflake.ID, filter domain.ListTemplateFilter, page pagination.Pagination) ([]*domain.Template, error) {
	var templates []*domain.Template
	stmt := db.WithContext(ctx).
		Model(&domain.Template{}).
		Where("vendor_id = ?", vendorID)
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.Language != "" {
		stmt = stmt.Where("language = ?", filter.Language)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&templates).Error
	if err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *repo) UpdateFields(ctx context.Context, db *gorm.DB, vendorID, id snowflake.ID, fields map[string]any) error {
	res := db.WithContext(ctx).
		Model(&domain.Template{}).
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
		Delete(&domain.Template{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *repo) CountByStatus(ctx context.Context, db *gorm.DB, vendorID snowflake.ID) (map[string]int64, error) {
	type row struct {
		Status string
		Total  int64
	}

	var rows []row
	err := db.WithContext(ctx).
		Model(&domain.Template{}).
		Select("status, count(*) as total").
		Where("vendor_id = ?", vendorID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Total
	}
	return counts, nil
}
