package domain

import (
	"context"
	"errors"
	"time"
)

// VendorStats is the per-tenant view shown on the console landing page.
type VendorStats struct {
	Contacts         int64            `json:"contacts"`
	Templates        int64            `json:"templates"`
	TemplatesByState map[string]int64 `json:"templates_by_state"`
	WABAAccounts     int64            `json:"waba_accounts"`
	ConnectedWABAs   int64            `json:"connected_wabas"`
	GeneratedAt      time.Time        `json:"generated_at"`
}

// AdminStats aggregates across every tenant.
type AdminStats struct {
	Vendors         int64            `json:"vendors"`
	VendorsByStatus map[string]int64 `json:"vendors_by_status"`
	Plans           int64            `json:"plans"`
	Contacts        int64            `json:"contacts"`
	Templates       int64            `json:"templates"`
	ConnectedWABAs  int64            `json:"connected_wabas"`
	GeneratedAt     time.Time        `json:"generated_at"`
}

type Service interface {
	GetVendorStats(ctx context.Context) (*VendorStats, error)
	GetAdminStats(ctx context.Context) (*AdminStats, error)
}

var (
	ErrInvalidVendor = errors.New("invalid_vendor")
)
