package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/notifybiz/console/internal/plan/domain"
	"github.com/notifybiz/console/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
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
		log:   p.Log.Named("plan.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreatePlanRequest) (domain.Plan, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		return domain.Plan{}, domain.ErrInvalidCode
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Plan{}, domain.ErrInvalidName
	}

	if req.PriceCents < 0 {
		return domain.Plan{}, domain.ErrInvalidPrice
	}

	interval := strings.ToUpper(strings.TrimSpace(req.Interval))
	if interval == "" {
		interval = domain.IntervalMonthly
	}
	if interval != domain.IntervalMonthly && interval != domain.IntervalYearly {
		return domain.Plan{}, domain.ErrInvalidInterval
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "USD"
	}

	now := time.Now().UTC()
	plan := domain.Plan{
		ID:           s.genID.Generate(),
		Code:         code,
		Name:         name,
		Description:  strings.TrimSpace(req.Description),
		PriceCents:   req.PriceCents,
		Currency:     currency,
		Interval:     interval,
		MessageLimit: req.MessageLimit,
		IsActive:     true,
		Metadata:     datatypes.JSONMap{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Insert(ctx, s.db, &plan); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Plan{}, domain.ErrCodeExists
		}
		return domain.Plan{}, err
	}

	return plan, nil
}

func (s *Service) List(ctx context.Context, includeInactive bool) ([]domain.Plan, error) {
	items, err := s.repo.List(ctx, s.db, includeInactive)
	if err != nil {
		return nil, err
	}

	plans := make([]domain.Plan, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		plans = append(plans, *item)
	}

	return plans, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetPlanRequest) (domain.Plan, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil || id == 0 {
		return domain.Plan{}, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Plan{}, err
	}
	if item == nil {
		return domain.Plan{}, domain.ErrNotFound
	}

	return *item, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdatePlanRequest) (domain.Plan, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil || id == 0 {
		return domain.Plan{}, domain.ErrInvalidID
	}

	fields := map[string]any{"updated_at": time.Now().UTC()}
	if name := strings.TrimSpace(req.Name); name != "" {
		fields["name"] = name
	}
	if desc := strings.TrimSpace(req.Description); desc != "" {
		fields["description"] = desc
	}
	if req.PriceCents != nil {
		if *req.PriceCents < 0 {
			return domain.Plan{}, domain.ErrInvalidPrice
		}
		fields["price_cents"] = *req.PriceCents
	}
	if req.MessageLimit != nil {
		fields["message_limit"] = *req.MessageLimit
	}
	if req.IsActive != nil {
		fields["is_active"] = *req.IsActive
	}

	if err := s.repo.UpdateFields(ctx, s.db, id, fields); err != nil {
		return domain.Plan{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Plan{}, err
	}
	if item == nil {
		return domain.Plan{}, domain.ErrNotFound
	}

	return *item, nil
}

// EnsureDefaults seeds the built-in tiers on first boot. Existing codes are
// left untouched so operator edits survive restarts.
func (s *Service) EnsureDefaults(ctx context.Context) error {
	defaults := []domain.CreatePlanRequest{
		{Code: "FREE", Name: "Free", Description: "Sandbox tier for evaluation", PriceCents: 0, MessageLimit: 1000},
		{Code: "STARTER", Name: "Starter", Description: "Small teams getting started", PriceCents: 2900, MessageLimit: 10000},
		{Code: "BUSINESS", Name: "Business", Description: "Growing messaging volume", PriceCents: 9900, MessageLimit: 100000},
	}

	for i, def := range defaults {
		existing, err := s.repo.FindByCode(ctx, s.db, def.Code)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}

		plan, err := s.Create(ctx, def)
		if err != nil {
			if err == domain.ErrCodeExists {
				continue
			}
			return err
		}

		if i == 0 {
			if err := s.repo.UpdateFields(ctx, s.db, plan.ID, map[string]any{"is_default": true}); err != nil {
				return err
			}
		}

		s.log.Info("seeded default plan", zap.String("code", plan.Code))
	}

	return nil
}
