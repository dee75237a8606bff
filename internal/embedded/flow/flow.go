// Package flow orchestrates one embedded-signup session: popup launch,
// authorization-code exchange, business-data receipt and permission
// reconciliation. The exchange result and the business-data message are two
// independent async inputs that may arrive in either order; both funnel
// into the same idempotent SUCCEEDED transition.
package flow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/notifybiz/console/internal/embedded/exchange"
	"github.com/notifybiz/console/internal/embedded/listener"
	"github.com/notifybiz/console/internal/embedded/permissions"
	"github.com/notifybiz/console/internal/tenantctx"
	"go.uber.org/zap"
)

type Status string

const (
	StatusIdle                 Status = "IDLE"
	StatusAwaitingPopup        Status = "AWAITING_POPUP"
	StatusAwaitingCode         Status = "AWAITING_CODE"
	StatusExchanging           Status = "EXCHANGING"
	StatusAwaitingBusinessData Status = "AWAITING_BUSINESS_DATA"
	StatusSucceeded            Status = "SUCCEEDED"
	StatusCancelled            Status = "CANCELLED"
	StatusFailed               Status = "FAILED"
)

// MsgSDKNotReady is surfaced when Connect runs before the SDK handshake.
const MsgSDKNotReady = "Facebook SDK not loaded yet. Please wait."

// MsgLoginCancelled is surfaced when the popup closes without authorizing.
const MsgLoginCancelled = "User cancelled login or error occurred"

var ErrInProgress = errors.New("signup already in progress")

const notifyTimeout = 10 * time.Second

// Readiness reports whether the SDK loader finished its handshake.
// *sdk.Loader satisfies it.
type Readiness interface {
	IsReady() bool
	Err() error
}

// Exchanger performs the code-for-token exchange.
type Exchanger interface {
	Exchange(ctx context.Context, code, tenantID string) (exchange.Result, error)
}

// Notifier delivers the fire-and-forget signup callback.
type Notifier interface {
	NotifySignupCallback(ctx context.Context, tenantID string, wabaData map[string]any) error
}

// Launcher opens the provider's login popup. It must not block; the result
// comes back through HandleLoginResult carrying the same attempt nonce.
type Launcher interface {
	Launch(ctx context.Context, attempt uint64)
}

// LoginResult is the SDK login callback payload.
type LoginResult struct {
	Authorized bool
	Code       string
}

type Deps struct {
	Loader    Readiness
	Exchanger Exchanger
	Engine    *permissions.Engine
	Notifier  Notifier
	Launcher  Launcher
	Log       *zap.Logger
}

// Session is the signup state machine for one tenant. Forward-only except
// Retry, which returns to IDLE and invalidates in-flight responses.
type Session struct {
	mu           sync.Mutex
	status       Status
	code         string
	businessData *listener.BusinessData
	errMsg       string
	attempt      uint64

	tenantID string
	deps     Deps
	log      *zap.Logger

	notifyWG sync.WaitGroup
}

// NewSession normalizes the raw tenant identity exactly once; everything
// downstream sees only the scalar ID.
func NewSession(rawTenant any, deps Deps) (*Session, error) {
	tenantID, err := tenantctx.NormalizeTenantID(rawTenant)
	if err != nil {
		return nil, err
	}

	return &Session{
		status:   StatusIdle,
		tenantID: tenantID,
		deps:     deps,
		log:      deps.Log.Named("embedded.flow").With(zap.String("tenant_id", tenantID)),
	}, nil
}

// Connect starts a signup attempt. Refused while the SDK is not ready; the
// session stays IDLE so the user can retry once loading completes.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()

	if !s.deps.Loader.IsReady() {
		s.errMsg = MsgSDKNotReady
		s.mu.Unlock()
		if loadErr := s.deps.Loader.Err(); loadErr != nil {
			return fmt.Errorf("%s: %w", MsgSDKNotReady, loadErr)
		}
		return errors.New(MsgSDKNotReady)
	}

	switch s.status {
	case StatusIdle, StatusCancelled, StatusFailed:
	default:
		s.mu.Unlock()
		return ErrInProgress
	}

	s.attempt++
	attempt := s.attempt
	s.status = StatusAwaitingPopup
	s.errMsg = ""
	s.mu.Unlock()

	s.log.Info("signup popup launched", zap.Uint64("attempt", attempt))
	s.deps.Launcher.Launch(ctx, attempt)
	return nil
}

// HandleLoginResult processes the SDK login callback. Results carrying a
// stale attempt nonce are discarded; the user has already retried.
func (s *Session) HandleLoginResult(ctx context.Context, attempt uint64, result LoginResult) {
	s.mu.Lock()

	if attempt != s.attempt {
		s.mu.Unlock()
		s.log.Debug("discarded stale login result", zap.Uint64("attempt", attempt))
		return
	}

	if !result.Authorized || result.Code == "" {
		if s.status != StatusSucceeded {
			s.status = StatusFailed
			s.errMsg = MsgLoginCancelled
		}
		s.mu.Unlock()
		return
	}

	// AWAITING_CODE collapses into EXCHANGING here: the callback that
	// proves the code exists is the same one that delivers it.
	s.code = result.Code
	s.status = StatusExchanging
	code := s.code
	s.mu.Unlock()

	go func() {
		result, err := s.deps.Exchanger.Exchange(ctx, code, s.tenantID)
		s.applyExchangeResult(attempt, result, err)
	}()
}

func (s *Session) applyExchangeResult(attempt uint64, result exchange.Result, err error) {
	s.mu.Lock()

	if attempt != s.attempt {
		s.mu.Unlock()
		s.log.Debug("discarded stale exchange result", zap.Uint64("attempt", attempt))
		return
	}

	// The code is single use at the provider either way.
	s.code = ""

	if err != nil {
		if s.status != StatusSucceeded {
			s.status = StatusFailed
			s.errMsg = err.Error()
		}
		s.mu.Unlock()
		s.log.Warn("token exchange failed", zap.Error(err))
		return
	}

	s.markSucceededLocked()
	s.mu.Unlock()

	if s.deps.Engine != nil {
		s.deps.Engine.SetGranted(result.GrantedScopes)
	}
	s.log.Info("token exchange succeeded", zap.Int("granted_scopes", len(result.GrantedScopes)))
}

// HandleBusinessData ingests a finish event. Last write wins across
// repeated messages, and each message triggers exactly one backend
// notification; notification failure never rolls back SUCCEEDED.
func (s *Session) HandleBusinessData(data listener.BusinessData) {
	s.mu.Lock()
	copied := data
	s.businessData = &copied
	s.errMsg = ""
	s.markSucceededLocked()
	s.mu.Unlock()

	s.notifyWG.Add(1)
	go func() {
		defer s.notifyWG.Done()

		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		payload := map[string]any{
			"waba_id":         data.WABAID,
			"phone_number_id": data.PhoneNumberID,
		}
		if data.BusinessID != "" {
			payload["business_id"] = data.BusinessID
		}
		if data.CurrentStep != "" {
			payload["current_step"] = data.CurrentStep
		}

		if err := s.deps.Notifier.NotifySignupCallback(ctx, s.tenantID, payload); err != nil {
			s.log.Warn("signup callback notification failed", zap.Error(err))
		}
	}()
}

// HandleCancel records a user cancellation with the step reached.
func (s *Session) HandleCancel(step string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusSucceeded {
		return
	}
	s.status = StatusCancelled
	s.errMsg = fmt.Sprintf("User cancelled at step: %s", step)
}

// Retry returns the session to IDLE, clearing the code, error and business
// data. Bumping the attempt nonce invalidates any in-flight responses.
func (s *Session) Retry() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attempt++
	s.status = StatusIdle
	s.code = ""
	s.errMsg = ""
	s.businessData = nil
}

func (s *Session) markSucceededLocked() {
	if s.status == StatusSucceeded {
		return
	}
	s.status = StatusSucceeded
	s.errMsg = ""
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) ErrMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

func (s *Session) BusinessData() (listener.BusinessData, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.businessData == nil {
		return listener.BusinessData{}, false
	}
	return *s.businessData, true
}

func (s *Session) TenantID() string { return s.tenantID }

// WaitNotifications blocks until in-flight signup callbacks settle. Test
// hook; production callers never need it.
func (s *Session) WaitNotifications() { s.notifyWG.Wait() }
