package domain

import (
	"context"
	"errors"
)

type CreatePlanRequest struct {
	Code         string
	Name         string
	Description  string
	PriceCents   int64
	Currency     string
	Interval     string
	MessageLimit int64
}

type UpdatePlanRequest struct {
	ID           string
	Name         string
	Description  string
	PriceCents   *int64
	MessageLimit *int64
	IsActive     *bool
}

type GetPlanRequest struct {
	ID string
}

type Service interface {
	Create(context.Context, CreatePlanRequest) (Plan, error)
	List(ctx context.Context, includeInactive bool) ([]Plan, error)
	GetByID(context.Context, GetPlanRequest) (Plan, error)
	Update(context.Context, UpdatePlanRequest) (Plan, error)
	EnsureDefaults(ctx context.Context) error
}

var (
	ErrInvalidCode     = errors.New("invalid_code")
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidInterval = errors.New("invalid_interval")
	ErrInvalidPrice    = errors.New("invalid_price")
	ErrInvalidID       = errors.New("invalid_id")
	ErrCodeExists      = errors.New("code_exists")
	ErrNotFound        = errors.New("not_found")
)
