package service

import (
	"context"
	"time"

	"github.com/notifybiz/console/internal/cloudmetrics"
	contactdomain "github.com/notifybiz/console/internal/contact/domain"
	"github.com/notifybiz/console/internal/dashboard/domain"
	plandomain "github.com/notifybiz/console/internal/plan/domain"
	templatedomain "github.com/notifybiz/console/internal/template/domain"
	"github.com/notifybiz/console/internal/tenantctx"
	vendordomain "github.com/notifybiz/console/internal/vendors/domain"
	wabadomain "github.com/notifybiz/console/internal/waba/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

func New(p Params) domain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("dashboard.service"),
	}
}

func (s *Service) GetVendorStats(ctx context.Context) (*domain.VendorStats, error) {
	vendorID, ok := tenantctx.VendorIDFromContext(ctx)
	if !ok || vendorID == 0 {
		return nil, domain.ErrInvalidVendor
	}

	stats := domain.VendorStats{
		TemplatesByState: map[string]int64{},
		GeneratedAt:      time.Now().UTC(),
	}

	if err := s.db.WithContext(ctx).
		Model(&contactdomain.Contact{}).
		Where("vendor_id = ?", vendorID).
		Count(&stats.Contacts).Error; err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).
		Model(&templatedomain.Template{}).
		Where("vendor_id = ?", vendorID).
		Count(&stats.Templates).Error; err != nil {
		return nil, err
	}

	byState, err := s.groupCount(ctx, &templatedomain.Template{}, "status", "vendor_id = ?", vendorID)
	if err != nil {
		return nil, err
	}
	stats.TemplatesByState = byState

	if err := s.db.WithContext(ctx).
		Model(&wabadomain.Account{}).
		Where("vendor_id = ?", vendorID).
		Count(&stats.WABAAccounts).Error; err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).
		Model(&wabadomain.Account{}).
		Where("vendor_id = ? AND status = ?", vendorID, wabadomain.StatusConnected).
		Count(&stats.ConnectedWABAs).Error; err != nil {
		return nil, err
	}

	return &stats, nil
}

func (s *Service) GetAdminStats(ctx context.Context) (*domain.AdminStats, error) {
	stats := domain.AdminStats{
		VendorsByStatus: map[string]int64{},
		GeneratedAt:     time.Now().UTC(),
	}

	if err := s.db.WithContext(ctx).
		Model(&vendordomain.Vendor{}).
		Count(&stats.Vendors).Error; err != nil {
		return nil, err
	}

	byStatus, err := s.groupCount(ctx, &vendordomain.Vendor{}, "status", "")
	if err != nil {
		return nil, err
	}
	stats.VendorsByStatus = byStatus

	if err := s.db.WithContext(ctx).
		Model(&plandomain.Plan{}).
		Count(&stats.Plans).Error; err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).
		Model(&contactdomain.Contact{}).
		Count(&stats.Contacts).Error; err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).
		Model(&templatedomain.Template{}).
		Count(&stats.Templates).Error; err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).
		Model(&wabadomain.Account{}).
		Where("status = ?", wabadomain.StatusConnected).
		Count(&stats.ConnectedWABAs).Error; err != nil {
		return nil, err
	}

	cloudmetrics.SetVendorsTotal(stats.Vendors)
	cloudmetrics.SetConnectedWabas(stats.ConnectedWABAs)

	return &stats, nil
}

type statusRow struct {
	Status string
	Total  int64
}

func (s *Service) groupCount(ctx context.Context, model any, column, where string, args ...any) (map[string]int64, error) {
	query := s.db.WithContext(ctx).
		Model(model).
		Select(column + " as status, count(*) as total").
		Group(column)
	if where != "" {
		query = query.Where(where, args...)
	}

	var rows []statusRow
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Total
	}
	return out, nil
}
