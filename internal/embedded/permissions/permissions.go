// Package permissions reconciles the scopes the console requires against
// the scopes a tenant's token actually holds.
package permissions

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Required is the fixed scope set a connected account needs.
var Required = []string{
	"business_management",
	"whatsapp_business_management",
	"whatsapp_business_messaging",
}

// State is one reconciliation snapshot. Missing and HasAllRequired are
// always derived wholesale from Required and Granted, never patched.
type State struct {
	Required       []string
	Granted        []string
	Missing        []string
	HasAllRequired bool
	CheckedAt      time.Time
}

// Reconcile computes the scope difference. Granted scopes outside the
// required set are preserved in the state but do not affect Missing.
func Reconcile(required, granted []string) (missing []string, hasAll bool) {
	have := make(map[string]struct{}, len(granted))
	for _, scope := range granted {
		have[scope] = struct{}{}
	}

	missing = make([]string, 0, len(required))
	for _, scope := range required {
		if _, ok := have[scope]; !ok {
			missing = append(missing, scope)
		}
	}
	sort.Strings(missing)

	return missing, len(missing) == 0
}

// Backend supplies fresh grant data and the re-authorization URL.
type Backend interface {
	GetPermissions(ctx context.Context, tenantID string) (granted []string, err error)
	RequestPermissions(ctx context.Context, tenantID string) (redirectURL string, err error)
}

// Engine holds the reconciliation state for one tenant session. A failed
// Check leaves the previous state untouched; stale-but-available beats a
// blanked view.
type Engine struct {
	mu       sync.Mutex
	required []string
	state    *State
	backend  Backend
	log      *zap.Logger
}

func NewEngine(backend Backend, log *zap.Logger) *Engine {
	return &Engine{
		required: Required,
		backend:  backend,
		log:      log.Named("embedded.permissions"),
	}
}

// Check fetches granted scopes and recomputes the full state.
func (e *Engine) Check(ctx context.Context, tenantID string) (State, error) {
	granted, err := e.backend.GetPermissions(ctx, tenantID)
	if err != nil {
		e.log.Warn("permission check failed", zap.Error(err))
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.state != nil {
			return *e.state, err
		}
		return State{}, err
	}

	return e.apply(granted), nil
}

// SetGranted applies scopes already in hand, e.g. from a token exchange
// response, without a round trip.
func (e *Engine) SetGranted(granted []string) State {
	return e.apply(granted)
}

// RequestAdditional returns the provider's incremental-authorization URL.
// The caller must navigate the full page there; control only returns via
// the provider's redirect.
func (e *Engine) RequestAdditional(ctx context.Context, tenantID string) (string, error) {
	return e.backend.RequestPermissions(ctx, tenantID)
}

// State returns the latest snapshot, if any check has completed.
func (e *Engine) State() (State, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return State{}, false
	}
	return *e.state, true
}

func (e *Engine) apply(granted []string) State {
	missing, hasAll := Reconcile(e.required, granted)

	state := State{
		Required:       append([]string(nil), e.required...),
		Granted:        append([]string(nil), granted...),
		Missing:        missing,
		HasAllRequired: hasAll,
		CheckedAt:      time.Now().UTC(),
	}

	e.mu.Lock()
	e.state = &state
	e.mu.Unlock()

	return state
}
