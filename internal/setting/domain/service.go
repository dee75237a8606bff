package domain

import (
	"context"
	"errors"
)

// MaskedValue replaces sensitive setting values on read.
const MaskedValue = "********"

type UpsertSettingRequest struct {
	Key         string
	Value       string
	IsSensitive bool
	IsPublic    bool
}

type SettingView struct {
	ID          string `json:"id"`
	Key         string `json:"key"`
	Value       string `json:"value"`
	IsSensitive bool   `json:"is_sensitive"`
	IsPublic    bool   `json:"is_public"`
}

type Service interface {
	Upsert(context.Context, UpsertSettingRequest) (SettingView, error)
	List(ctx context.Context) ([]SettingView, error)
	Get(ctx context.Context, key string) (SettingView, error)
	// GetRaw is for internal callers that need the unmasked value.
	GetRaw(ctx context.Context, key string) (string, error)
	ListPublic(ctx context.Context) (map[string]string, error)
	Delete(ctx context.Context, key string) error
}

var (
	ErrInvalidVendor = errors.New("invalid_vendor")
	ErrInvalidKey    = errors.New("invalid_key")
	ErrNotFound      = errors.New("not_found")
)
