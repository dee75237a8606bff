package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/notifybiz/console/internal/template/domain"
	"github.com/notifybiz/console/internal/tenantctx"
	"github.com/notifybiz/console/pkg/db"
	"github.com/notifybiz/console/pkg/db/pagination"
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
		log:   p.Log.Named("template.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateTemplateRequest) (domain.Template, error) {
	vendorID, ok := tenantctx.VendorIDFromContext(ctx)
	if !ok || vendorID == 0 {
		return domain.Template{}, domain.ErrInvalidVendor
	}

	name := normalizeName(req.Name)
	if name == "" {
		return domain.Template{}, domain.ErrInvalidName
	}

	language := strings.TrimSpace(req.Language)
	if language == "" {
		return domain.Template{}, domain.ErrInvalidLanguage
	}

	category := strings.ToUpper(strings.TrimSpace(req.Category))
	if !validCategory(category) {
		return domain.Template{}, domain.ErrInvalidCategory
	}

	now := time.Now().UTC()
	template := domain.Template{
		ID:        s.genID.Generate(),
		VendorID:  vendorID,
		Name:      name,
		Language:  language,
		Category:  category,
		Body:      req.Body,
		Status:    domain.StatusDraft,
		Metadata:  datatypes.JSONMap{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, s.db, &template); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Template{}, domain.ErrTemplateExists
		}
		return domain.Template{}, err
	}

	return template, nil
}

func (s *Service) List(ctx context.Context, req domain.ListTemplateRequest) (domain.ListTemplateResponse, error) {
	vendorID, ok := tenantctx.VendorIDFromContext(ctx)
	if !ok || vendorID == 0 {
		return domain.ListTemplateResponse{}, domain.ErrInvalidVendor
	}

	status := strings.ToUpper(strings.TrimSpace(req.Status))
	if status != "" && !validStatus(status) {
		return domain.ListTemplateResponse{}, domain.ErrInvalidStatus
	}

	filter := domain.ListTemplateFilter{
		Status:   status,
		Language: strings.TrimSpace(req.Language),
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, vendorID, filter, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListTemplateResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(template *domain.Template) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        template.ID.String(),
			CreatedAt: template.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	templates := make([]domain.Template, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		templates = append(templates, *item)
	}

	resp := domain.ListTemplateResponse{Templates: templates}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}

	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Template, error) {
	vendorID, ok := tenantctx.VendorIDFromContext(ctx)
	if !ok || vendorID == 0 {
		return domain.Template{}, domain.ErrInvalidVendor
	}

	parsed, err := s.parseID(id)
	if err != nil {
		return domain.Template{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, vendorID, parsed)
	if err != nil {
		return domain.Template{}, err
	}
	if item == nil {
		return domain.Template{}, domain.ErrNotFound
	}

	return *item, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateTemplateRequest) (domain.Template, error) {
	vendorID, ok := tenantctx.VendorIDFromContext(ctx)
	if !ok || vendorID == 0 {
		return domain.Template{}, domain.ErrInvalidVendor
	}

	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Template{}, err
	}

	current, err := s.repo.FindByID(ctx, s.db, vendorID, id)
	if err != nil {
		return domain.Template{}, err
	}
	if current == nil {
		return domain.Template{}, domain.ErrNotFound
	}
	// Submitted templates are immutable; the provider owns them from there.
	if current.Status != domain.StatusDraft && current.Status != domain.StatusRejected {
		return domain.Template{}, domain.ErrNotEditable
	}

	fields := map[string]any{"updated_at": time.Now().UTC()}
	if category := strings.ToUpper(strings.TrimSpace(req.Category)); category != "" {
		if !validCategory(category) {
			return domain.Template{}, domain.ErrInvalidCategory
		}
		fields["category"] = category
	}
	if req.Body != "" {
		fields["body"] = req.Body
	}
	// Edits to a rejected template reset it to draft for resubmission.
	if current.Status == domain.StatusRejected {
		fields["status"] = domain.StatusDraft
	}

	if err := s.repo.UpdateFields(ctx, s.db, vendorID, id, fields); err != nil {
		return domain.Template{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, vendorID, id)
	if err != nil {
		return domain.Template{}, err
	}
	if item == nil {
		return domain.Template{}, domain.ErrNotFound
	}

	return *item, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	vendorID, ok := tenantctx.VendorIDFromContext(ctx)
	if !ok || vendorID == 0 {
		return domain.ErrInvalidVendor
	}

	parsed, err := s.parseID(id)
	if err != nil {
		return err
	}

	return s.repo.Delete(ctx, s.db, vendorID, parsed)
}

func (s *Service) SubmitForApproval(ctx context.Context, id string) (domain.Template, error) {
	vendorID, ok := tenantctx.VendorIDFromContext(ctx)
	if !ok || vendorID == 0 {
		return domain.Template{}, domain.ErrInvalidVendor
	}

	parsed, err := s.parseID(id)
	if err != nil {
		return domain.Template{}, err
	}

	current, err := s.repo.FindByID(ctx, s.db, vendorID, parsed)
	if err != nil {
		return domain.Template{}, err
	}
	if current == nil {
		return domain.Template{}, domain.ErrNotFound
	}
	if current.Status != domain.StatusDraft {
		return domain.Template{}, domain.ErrNotEditable
	}

	fields := map[string]any{
		"status":     domain.StatusPending,
		"updated_at": time.Now().UTC(),
	}
	if err := s.repo.UpdateFields(ctx, s.db, vendorID, parsed, fields); err != nil {
		return domain.Template{}, err
	}

	current.Status = domain.StatusPending
	return *current, nil
}

// Sync reconciles local rows against the provider-side template list. Remote
// rows win on status; unknown remote templates are imported as approved-side
// records so the console reflects what the provider will actually send.
func (s *Service) Sync(ctx context.Context, remote []domain.RemoteTemplate) (domain.SyncResult, error) {
	vendorID, ok := tenantctx.VendorIDFromContext(ctx)
	if !ok || vendorID == 0 {
		return domain.SyncResult{}, domain.ErrInvalidVendor
	}

	result := domain.SyncResult{}
	now := time.Now().UTC()

	for _, rt := range remote {
		name := normalizeName(rt.Name)
		language := strings.TrimSpace(rt.Language)
		if name == "" || language == "" {
			continue
		}

		status := strings.ToUpper(strings.TrimSpace(rt.Status))
		if !validStatus(status) {
			status = domain.StatusPending
		}

		existing, err := s.repo.FindByNameLanguage(ctx, s.db, vendorID, name, language)
		if err != nil {
			return result, err
		}

		if existing == nil {
			template := domain.Template{
				ID:        s.genID.Generate(),
				VendorID:  vendorID,
				Name:      name,
				Language:  language,
				Category:  strings.ToUpper(strings.TrimSpace(rt.Category)),
				Status:    status,
				RemoteID:  rt.ID,
				Metadata:  datatypes.JSONMap{},
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := s.repo.Insert(ctx, s.db, &template); err != nil {
				return result, err
			}
			result.Created++
			continue
		}

		fields := map[string]any{"updated_at": now}
		changed := false
		if existing.RemoteID == "" && rt.ID != "" {
			fields["remote_id"] = rt.ID
			result.Linked++
			changed = true
		}
		if existing.Status != status {
			fields["status"] = status
			result.Updated++
			changed = true
		}
		if !changed {
			continue
		}
		if err := s.repo.UpdateFields(ctx, s.db, vendorID, existing.ID, fields); err != nil {
			return result, err
		}
	}

	s.log.Info("template sync",
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("linked", result.Linked),
	)

	return result, nil
}

func (s *Service) Analytics(ctx context.Context) (domain.Analytics, error) {
	vendorID, ok := tenantctx.VendorIDFromContext(ctx)
	if !ok || vendorID == 0 {
		return domain.Analytics{}, domain.ErrInvalidVendor
	}

	counts, err := s.repo.CountByStatus(ctx, s.db, vendorID)
	if err != nil {
		return domain.Analytics{}, err
	}

	analytics := domain.Analytics{
		Draft:    counts[domain.StatusDraft],
		Pending:  counts[domain.StatusPending],
		Approved: counts[domain.StatusApproved],
		Rejected: counts[domain.StatusRejected],
	}
	analytics.Total = analytics.Draft + analytics.Pending + analytics.Approved + analytics.Rejected

	return analytics, nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func normalizeName(raw string) string {
	name := strings.ToLower(strings.TrimSpace(raw))
	return strings.ReplaceAll(name, " ", "_")
}

func validCategory(category string) bool {
	switch category {
	case domain.CategoryMarketing, domain.CategoryUtility, domain.CategoryAuthentication:
		return true
	}
	return false
}

func validStatus(status string) bool {
	switch status {
	case domain.StatusDraft, domain.StatusPending, domain.StatusApproved, domain.StatusRejected:
		return true
	}
	return false
}
