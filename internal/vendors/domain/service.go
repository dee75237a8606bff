package domain

import (
	"context"
	"errors"
	"time"

	"github.com/notifybiz/console/pkg/db/pagination"
)

type CreateVendorRequest struct {
	Name        string
	OwnerUserID string
	PlanID      string
}

type UpdateVendorRequest struct {
	ID     string
	Name   string
	Status string
	PlanID string
}

type ListVendorRequest struct {
	PageToken   string
	PageSize    int32
	Name        string
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

type ListVendorFilter struct {
	Name        string
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

type ListVendorResponse struct {
	pagination.PageInfo
	Vendors []Vendor `json:"vendors"`
}

type GetVendorRequest struct {
	ID string
}

type Service interface {
	Create(context.Context, CreateVendorRequest) (Vendor, error)
	List(context.Context, ListVendorRequest) (ListVendorResponse, error)
	GetByID(context.Context, GetVendorRequest) (Vendor, error)
	Update(context.Context, UpdateVendorRequest) (Vendor, error)
	ListByOwner(ctx context.Context, ownerUserID string) ([]Vendor, error)
}

var (
	ErrInvalidName   = errors.New("invalid_name")
	ErrInvalidOwner  = errors.New("invalid_owner")
	ErrInvalidStatus = errors.New("invalid_status")
	ErrInvalidPlan   = errors.New("invalid_plan")
	ErrInvalidID     = errors.New("invalid_id")
	ErrNotFound      = errors.New("not_found")
)
