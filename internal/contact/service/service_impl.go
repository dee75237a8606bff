package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/lib/pq"
	"github.com/notifybiz/console/internal/contact/domain"
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
		log:   p.Log.Named("contact.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateContactRequest) (domain.Contact, error) {
	vendorID, ok := tenantctx.VendorIDFromContext(ctx)
	if !ok || vendorID == 0 {
		return domain.Contact{}, domain.ErrInvalidVendor
	}

	contact, err := s.build(vendorID, req)
	if err != nil {
		return domain.Contact{}, err
	}

	if err := s.repo.Insert(ctx, s.db, contact); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Contact{}, domain.ErrPhoneExists
		}
		return domain.Contact{}, err
	}

	return *contact, nil
}

func (s *Service) BulkCreate(ctx context.Context, reqs []domain.CreateContactRequest) (domain.BulkCreateResult, error) {
	vendorID, ok := tenantctx.VendorIDFromContext(ctx)
	if !ok || vendorID == 0 {
		return domain.BulkCreateResult{}, domain.ErrInvalidVendor
	}

	result := domain.BulkCreateResult{}
	for i, req := range reqs {
		contact, err := s.build(vendorID, req)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i, err))
			continue
		}

		if err := s.repo.Insert(ctx, s.db, contact); err != nil {
			if db.IsDuplicateKeyErr(err) {
				result.Skipped++
				result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i, domain.ErrPhoneExists))
				continue
			}
			return result, err
		}
		result.Created++
	}

	s.log.Info("bulk contact import",
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
	)

	return result, nil
}

func (s *Service) List(ctx context.Context, req domain.ListContactRequest) (domain.ListContactResponse, error) {
	vendorID, ok := tenantctx.VendorIDFromContext(ctx)
	if !ok || vendorID == 0 {
		return domain.ListContactResponse{}, domain.ErrInvalidVendor
	}

	filter := domain.ListContactFilter{
		Name:        strings.TrimSpace(req.Name),
		PhoneNumber: normalizePhone(req.PhoneNumber),
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
		return domain.ListContactResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(contact *domain.Contact) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        contact.ID.String(),
			CreatedAt: contact.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	contacts := make([]domain.Contact, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		contacts = append(contacts, *item)
	}

	resp := domain.ListContactResponse{Contacts: contacts}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}

	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Contact, error) {
	vendorID, ok := tenantctx.VendorIDFromContext(ctx)
	if !ok || vendorID == 0 {
		return domain.Contact{}, domain.ErrInvalidVendor
	}

	parsed, err := s.parseID(id)
	if err != nil {
		return domain.Contact{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, vendorID, parsed)
	if err != nil {
		return domain.Contact{}, err
	}
	if item == nil {
		return domain.Contact{}, domain.ErrNotFound
	}

	return *item, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateContactRequest) (domain.Contact, error) {
	vendorID, ok := tenantctx.VendorIDFromContext(ctx)
	if !ok || vendorID == 0 {
		return domain.Contact{}, domain.ErrInvalidVendor
	}

	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Contact{}, err
	}

	fields := map[string]any{"updated_at": time.Now().UTC()}
	if name := strings.TrimSpace(req.Name); name != "" {
		fields["name"] = name
	}
	if email := strings.TrimSpace(req.Email); email != "" {
		fields["email"] = email
	}
	if req.Tags != nil {
		fields["tags"] = pq.StringArray(req.Tags)
	}

	if err := s.repo.UpdateFields(ctx, s.db, vendorID, id, fields); err != nil {
		return domain.Contact{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, vendorID, id)
	if err != nil {
		return domain.Contact{}, err
	}
	if item == nil {
		return domain.Contact{}, domain.ErrNotFound
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

func (s *Service) build(vendorID snowflake.ID, req domain.CreateContactRequest) (*domain.Contact, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	phone := normalizePhone(req.PhoneNumber)
	if !validPhone(phone) {
		return nil, domain.ErrInvalidPhone
	}

	now := time.Now().UTC()
	return &domain.Contact{
		ID:          s.genID.Generate(),
		VendorID:    vendorID,
		Name:        name,
		PhoneNumber: phone,
		Email:       strings.TrimSpace(req.Email),
		Tags:        pq.StringArray(req.Tags),
		Metadata:    datatypes.JSONMap{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func normalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && b.Len() == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func validPhone(phone string) bool {
	if !strings.HasPrefix(phone, "+") {
		return false
	}
	digits := len(phone) - 1
	return digits >= 8 && digits <= 15
}
