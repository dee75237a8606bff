package domain

import (
	"context"
	"errors"
)

// SignupCallbackRequest carries the business data delivered by the popup's
// finish event. UserID arrives in whatever shape the caller sent it and is
// normalized at the service boundary.
type SignupCallbackRequest struct {
	UserID   any
	WABAData WABAData
}

type WABAData struct {
	WABAID        string `json:"waba_id"`
	PhoneNumberID string `json:"phone_number_id"`
	BusinessID    string `json:"business_id,omitempty"`
	CurrentStep   string `json:"current_step,omitempty"`
	Event         string `json:"event,omitempty"`
}

type ExchangeTokenRequest struct {
	UserID any
	Code   string
}

type ExchangeTokenResult struct {
	GrantedScopes []string `json:"permissions"`
}

type PermissionsResult struct {
	CurrentPermissions []string `json:"current_permissions"`
	MissingPermissions []string `json:"missing_permissions"`
	HasAllPermissions  bool     `json:"has_all_permissions"`
}

type BusinessSummary struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	VerificationState string `json:"verification_status,omitempty"`
}

type Service interface {
	// SignupCallback upserts the vendor's WABA row from a finish event.
	SignupCallback(ctx context.Context, req SignupCallbackRequest) (*Account, error)
	// ExchangeToken performs the upstream code exchange and stores the
	// resulting token and scope grants.
	ExchangeToken(ctx context.Context, req ExchangeTokenRequest) (*ExchangeTokenResult, error)
	// GetPermissions re-fetches grants upstream and reconciles them
	// against the required scope set.
	GetPermissions(ctx context.Context, userID any) (*PermissionsResult, error)
	// RequestPermissionsURL builds the incremental-authorization URL.
	RequestPermissionsURL(ctx context.Context, userID any) (string, error)
	ListBusinesses(ctx context.Context, userID any) ([]BusinessSummary, error)
	GetBusiness(ctx context.Context, userID any, businessID string) (*BusinessSummary, error)
	ListAccounts(ctx context.Context, userID any) ([]Account, error)
	Disconnect(ctx context.Context, userID any, wabaID string) error
}

var (
	ErrInvalidTenant  = errors.New("invalid_tenant")
	ErrInvalidWABA    = errors.New("invalid_waba")
	ErrEmptyCode      = errors.New("empty_code")
	ErrCodeInFlight   = errors.New("code_exchange_in_flight")
	ErrNoAccount      = errors.New("no_connected_account")
	ErrNotFound       = errors.New("not_found")
	ErrRateLimited    = errors.New("rate_limited")
	ErrTokenUnusable  = errors.New("token_unusable")
	ErrUpstreamFailed = errors.New("upstream_failed")
)
