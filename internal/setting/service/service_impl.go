package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/notifybiz/console/internal/setting/domain"
	"github.com/notifybiz/console/internal/tenantctx"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

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
		log:   p.Log.Named("setting.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Upsert(ctx context.Context, req domain.UpsertSettingRequest) (domain.SettingView, error) {
	vendorID, ok := tenantctx.VendorIDFromContext(ctx)
	if !ok || vendorID == 0 {
		return domain.SettingView{}, domain.ErrInvalidVendor
	}

	key := normalizeKey(req.Key)
	if key == "" {
		return domain.SettingView{}, domain.ErrInvalidKey
	}

	now := time.Now().UTC()
	setting := domain.Setting{
		ID:          s.genID.Generate(),
		VendorID:    vendorID,
		Key:         key,
		Value:       req.Value,
		IsSensitive: req.IsSensitive,
		IsPublic:    req.IsPublic,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Upsert(ctx, s.db, &setting); err != nil {
		return domain.SettingView{}, err
	}

	return view(&setting), nil
}

func (s *Service) List(ctx context.Context) ([]domain.SettingView, error) {
	vendorID, ok := tenantctx.VendorIDFromContext(ctx)
	if !ok || vendorID == 0 {
		return nil, domain.ErrInvalidVendor
	}

	items, err := s.repo.List(ctx, s.db, vendorID)
	if err != nil {
		return nil, err
	}

	views := make([]domain.SettingView, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		views = append(views, view(item))
	}

	return views, nil
}

func (s *Service) Get(ctx context.Context, key string) (domain.SettingView, error) {
	item, err := s.find(ctx, key)
	if err != nil {
		return domain.SettingView{}, err
	}
	return view(item), nil
}

func (s *Service) GetRaw(ctx context.Context, key string) (string, error) {
	item, err := s.find(ctx, key)
	if err != nil {
		return "", err
	}
	return item.Value, nil
}

func (s *Service) ListPublic(ctx context.Context) (map[string]string, error) {
	vendorID, ok := tenantctx.VendorIDFromContext(ctx)
	if !ok || vendorID == 0 {
		return nil, domain.ErrInvalidVendor
	}

	items, err := s.repo.ListPublic(ctx, s.db, vendorID)
	if err != nil {
		return nil, err
	}

	public := make(map[string]string, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		public[item.Key] = item.Value
	}

	return public, nil
}

func (s *Service) Delete(ctx context.Context, key string) error {
	vendorID, ok := tenantctx.VendorIDFromContext(ctx)
	if !ok || vendorID == 0 {
		return domain.ErrInvalidVendor
	}

	normalized := normalizeKey(key)
	if normalized == "" {
		return domain.ErrInvalidKey
	}

	return s.repo.Delete(ctx, s.db, vendorID, normalized)
}

func (s *Service) find(ctx context.Context, key string) (*domain.Setting, error) {
	vendorID, ok := tenantctx.VendorIDFromContext(ctx)
	if !ok || vendorID == 0 {
		return nil, domain.ErrInvalidVendor
	}

	normalized := normalizeKey(key)
	if normalized == "" {
		return nil, domain.ErrInvalidKey
	}

	item, err := s.repo.FindByKey(ctx, s.db, vendorID, normalized)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	return item, nil
}

func view(setting *domain.Setting) domain.SettingView {
	value := setting.Value
	if setting.IsSensitive {
		value = domain.MaskedValue
	}
	return domain.SettingView{
		ID:          setting.ID.String(),
		Key:         setting.Key,
		Value:       value,
		IsSensitive: setting.IsSensitive,
		IsPublic:    setting.IsPublic,
	}
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
