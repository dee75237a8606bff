package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/notifybiz/console/internal/vendors/domain"
	"github.com/notifybiz/console/pkg/db"
	"github.com/notifybiz/console/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const slugRetryLimit = 5

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("vendor.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateVendorRequest) (domain.Vendor, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Vendor{}, domain.ErrInvalidName
	}

	ownerID, err := snowflake.ParseString(strings.TrimSpace(req.OwnerUserID))
	if err != nil || ownerID == 0 {
		return domain.Vendor{}, domain.ErrInvalidOwner
	}

	var planID *snowflake.ID
	if raw := strings.TrimSpace(req.PlanID); raw != "" {
		parsed, err := snowflake.ParseString(raw)
		if err != nil || parsed == 0 {
			return domain.Vendor{}, domain.ErrInvalidPlan
		}
		planID = &parsed
	}

	now := time.Now().UTC()
	vendor := domain.Vendor{
		ID:          s.genID.Generate(),
		Name:        name,
		Slug:        slug.Make(name),
		Status:      domain.StatusActive,
		PlanID:      planID,
		OwnerUserID: ownerID,
		Metadata:    datatypes.JSONMap{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// Slug collides when two vendors share a name; retry with an ID suffix.
	base := vendor.Slug
	for attempt := 0; ; attempt++ {
		err := s.repo.Insert(ctx, s.db, &vendor)
		if err == nil {
			break
		}
		if !db.IsDuplicateKeyErr(err) || attempt >= slugRetryLimit {
			return domain.Vendor{}, err
		}
		vendor.Slug = fmt.Sprintf("%s-%s", base, vendor.ID.String()[len(vendor.ID.String())-4:])
	}

	return vendor, nil
}

func (s *Service) List(ctx context.Context, req domain.ListVendorRequest) (domain.ListVendorResponse, error) {
	status := strings.TrimSpace(req.Status)
	if status != "" && !validStatus(status) {
		return domain.ListVendorResponse{}, domain.ErrInvalidStatus
	}

	filter := domain.ListVendorFilter{
		Name:        strings.TrimSpace(req.Name),
		Status:      status,
		CreatedFrom: req.CreatedFrom,
		CreatedTo:   req.CreatedTo,
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, filter, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListVendorResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(vendor *domain.Vendor) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        vendor.ID.String(),
			CreatedAt: vendor.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	vendors := make([]domain.Vendor, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		vendors = append(vendors, *item)
	}

	resp := domain.ListVendorResponse{Vendors: vendors}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}

	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetVendorRequest) (domain.Vendor, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Vendor{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Vendor{}, err
	}
	if item == nil {
		return domain.Vendor{}, domain.ErrNotFound
	}

	return *item, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateVendorRequest) (domain.Vendor, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Vendor{}, err
	}

	fields := map[string]any{"updated_at": time.Now().UTC()}
	if name := strings.TrimSpace(req.Name); name != "" {
		fields["name"] = name
	}
	if status := strings.TrimSpace(req.Status); status != "" {
		if !validStatus(status) {
			return domain.Vendor{}, domain.ErrInvalidStatus
		}
		fields["status"] = status
	}
	if raw := strings.TrimSpace(req.PlanID); raw != "" {
		planID, err := snowflake.ParseString(raw)
		if err != nil || planID == 0 {
			return domain.Vendor{}, domain.ErrInvalidPlan
		}
		fields["plan_id"] = planID
	}

	if err := s.repo.UpdateFields(ctx, s.db, id, fields); err != nil {
		return domain.Vendor{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Vendor{}, err
	}
	if item == nil {
		return domain.Vendor{}, domain.ErrNotFound
	}

	return *item, nil
}

func (s *Service) ListByOwner(ctx context.Context, ownerUserID string) ([]domain.Vendor, error) {
	ownerID, err := snowflake.ParseString(strings.TrimSpace(ownerUserID))
	if err != nil || ownerID == 0 {
		return nil, domain.ErrInvalidOwner
	}

	items, err := s.repo.ListByOwner(ctx, s.db, ownerID)
	if err != nil {
		return nil, err
	}

	vendors := make([]domain.Vendor, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		vendors = append(vendors, *item)
	}

	return vendors, nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func validStatus(status string) bool {
	switch status {
	case domain.StatusActive, domain.StatusSuspended, domain.StatusClosed:
		return true
	}
	return false
}
