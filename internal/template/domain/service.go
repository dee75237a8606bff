package domain

import (
	"context"
	"errors"

	"github.com/notifybiz/console/pkg/db/pagination"
)

// Categories accepted by the provider for template submission.
const (
	CategoryMarketing      = "MARKETING"
	CategoryUtility        = "UTILITY"
	CategoryAuthentication = "AUTHENTICATION"
)

type CreateTemplateRequest struct {
	Name     string
	Language string
	Category string
	Body     string
}

type UpdateTemplateRequest struct {
	ID       string
	Category string
	Body     string
}

type ListTemplateRequest struct {
	PageToken string
	PageSize  int32
	Status    string
	Language  string
}

type ListTemplateFilter struct {
	Status   string
	Language string
}

type ListTemplateResponse struct {
	pagination.PageInfo
	Templates []Template `json:"templates"`
}

// RemoteTemplate is a provider-side template snapshot used by Sync.
type RemoteTemplate struct {
	ID       string
	Name     string
	Language string
	Category string
	Status   string
}

type SyncResult struct {
	Linked  int `json:"linked"`
	Updated int `json:"updated"`
	Created int `json:"created"`
}

// Analytics is the per-status template count breakdown.
type Analytics struct {
	Total    int64 `json:"total"`
	Draft    int64 `json:"draft"`
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
}

type Service interface {
	Create(context.Context, CreateTemplateRequest) (Template, error)
	List(context.Context, ListTemplateRequest) (ListTemplateResponse, error)
	GetByID(ctx context.Context, id string) (Template, error)
	Update(context.Context, UpdateTemplateRequest) (Template, error)
	Delete(ctx context.Context, id string) error
	SubmitForApproval(ctx context.Context, id string) (Template, error)
	Sync(ctx context.Context, remote []RemoteTemplate) (SyncResult, error)
	Analytics(ctx context.Context) (Analytics, error)
}

var (
	ErrInvalidVendor   = errors.New("invalid_vendor")
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidLanguage = errors.New("invalid_language")
	ErrInvalidCategory = errors.New("invalid_category")
	ErrInvalidStatus   = errors.New("invalid_status")
	ErrInvalidID       = errors.New("invalid_id")
	ErrTemplateExists  = errors.New("template_exists")
	ErrNotEditable     = errors.New("not_editable")
	ErrNotFound        = errors.New("not_found")
)
