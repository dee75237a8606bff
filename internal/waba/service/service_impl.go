package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/notifybiz/console/internal/cloudmetrics"
	"github.com/notifybiz/console/internal/embedded/permissions"
	obsmetrics "github.com/notifybiz/console/internal/observability/metrics"
	"github.com/notifybiz/console/internal/providers/meta"
	"github.com/notifybiz/console/internal/ratelimit"
	"github.com/notifybiz/console/internal/tenantctx"
	"github.com/notifybiz/console/internal/waba/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Graph is the slice of the provider client this service consumes.
type Graph interface {
	ExchangeCode(ctx context.Context, code string) (*meta.TokenResponse, error)
	DebugToken(ctx context.Context, inputToken string) (*meta.TokenDebug, error)
	Businesses(ctx context.Context, accessToken string) ([]meta.Business, error)
	Business(ctx context.Context, businessID, accessToken string) (*meta.Business, error)
	PermissionURL(state string, scopes []string) string
}

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    domain.Repository
	Graph   Graph
	Limiter *ratelimit.SignupLimiter `optional:"true"`
	Metrics *obsmetrics.Metrics      `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	repo    domain.Repository
	graph   Graph
	limiter *ratelimit.SignupLimiter
	metrics *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("waba.service"),
		genID:   p.GenID,
		repo:    p.Repo,
		graph:   p.Graph,
		limiter: p.Limiter,
		metrics: p.Metrics,
	}
}

// SignupCallback persists the business data from a finish event. The upsert
// is idempotent per (vendor, waba): replays refresh the row in place. When
// the token exchange landed first the data attaches to its placeholder row.
func (s *Service) SignupCallback(ctx context.Context, req domain.SignupCallbackRequest) (*domain.Account, error) {
	vendorID, err := s.vendorID(req.UserID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.WABAData.WABAID) == "" {
		return nil, domain.ErrInvalidWABA
	}

	event := req.WABAData.Event
	if event == "" {
		event = "FINISH"
	}

	now := time.Now().UTC()

	latest, err := s.repo.FindLatestByVendor(ctx, s.db, vendorID)
	if err != nil {
		return nil, err
	}

	if latest != nil && latest.WABAID == "" {
		// Placeholder created by an earlier exchange; claim it.
		fields := map[string]any{
			"waba_id":         req.WABAData.WABAID,
			"phone_number_id": req.WABAData.PhoneNumberID,
			"business_id":     req.WABAData.BusinessID,
			"status":          domain.StatusConnected,
			"last_event":      event,
			"current_step":    req.WABAData.CurrentStep,
			"updated_at":      now,
		}
		if err := s.repo.UpdateFields(ctx, s.db, vendorID, "", fields); err != nil {
			return nil, err
		}
		s.recordSignup(ctx, event)
		return s.repo.FindByVendorWABA(ctx, s.db, vendorID, req.WABAData.WABAID)
	}

	account := domain.Account{
		ID:            s.genID.Generate(),
		VendorID:      vendorID,
		WABAID:        req.WABAData.WABAID,
		PhoneNumberID: req.WABAData.PhoneNumberID,
		BusinessID:    req.WABAData.BusinessID,
		Status:        domain.StatusConnected,
		LastEvent:     event,
		CurrentStep:   req.WABAData.CurrentStep,
		Metadata:      datatypes.JSONMap{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Upsert(ctx, s.db, &account); err != nil {
		return nil, err
	}

	s.recordSignup(ctx, event)
	return s.repo.FindByVendorWABA(ctx, s.db, vendorID, req.WABAData.WABAID)
}

// ExchangeToken trades the one-time code upstream and stores the token and
// its scope grants. A redis lock on the code digest rejects concurrent
// replays of the same code; the lock is held after success because the code
// is consumed at the provider regardless.
func (s *Service) ExchangeToken(ctx context.Context, req domain.ExchangeTokenRequest) (*domain.ExchangeTokenResult, error) {
	vendorID, err := s.vendorID(req.UserID)
	if err != nil {
		return nil, err
	}

	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, domain.ErrEmptyCode
	}

	digest := sha256.Sum256([]byte(code))
	codeDigest := hex.EncodeToString(digest[:])

	if s.limiter != nil && s.limiter.Enabled() {
		_, locked, err := s.limiter.TryLockExchange(ctx, codeDigest)
		if err != nil {
			s.log.Warn("exchange lock unavailable", zap.Error(err))
		} else if !locked {
			return nil, domain.ErrCodeInFlight
		}
	}

	token, err := s.graph.ExchangeCode(ctx, code)
	if err != nil {
		s.recordExchange(ctx, "failed")
		cloudmetrics.RecordTokenExchangeFailure("exchange")
		return nil, err
	}

	granted := []string{}
	debug, err := s.graph.DebugToken(ctx, token.AccessToken)
	if err != nil {
		s.recordExchange(ctx, "debug_failed")
		cloudmetrics.RecordTokenExchangeFailure("debug_token")
		s.log.Warn("token introspection failed, storing token without grants", zap.Error(err))
	} else {
		if !debug.IsValid {
			s.recordExchange(ctx, "invalid_token")
			cloudmetrics.RecordTokenExchangeFailure("invalid_token")
			return nil, domain.ErrTokenUnusable
		}
		granted = debug.Scopes
	}

	missing, hasAll := permissions.Reconcile(permissions.Required, granted)

	if err := s.storeGrants(ctx, vendorID, token.AccessToken, granted, missing, hasAll); err != nil {
		return nil, err
	}

	s.recordExchange(ctx, "ok")
	s.log.Info("token exchange stored",
		zap.String("vendor_id", vendorID.String()),
		zap.Int("granted_scopes", len(granted)),
		zap.Bool("has_all_scopes", hasAll),
	)

	return &domain.ExchangeTokenResult{GrantedScopes: granted}, nil
}

// GetPermissions re-fetches grants upstream and reconciles wholesale. On
// upstream failure the stored reconciliation is returned instead; stale
// data beats a blanked response.
func (s *Service) GetPermissions(ctx context.Context, userID any) (*domain.PermissionsResult, error) {
	vendorID, err := s.vendorID(userID)
	if err != nil {
		return nil, err
	}

	account, err := s.connectedAccount(ctx, vendorID)
	if err != nil {
		return nil, err
	}

	debug, err := s.graph.DebugToken(ctx, account.AccessToken)
	if err != nil || !debug.IsValid {
		s.recordPermissionCheck(ctx, "stale")
		s.log.Warn("permission refresh failed, serving stored grants", zap.Error(err))
		return storedResult(account), nil
	}

	missing, hasAll := permissions.Reconcile(permissions.Required, debug.Scopes)

	fields := map[string]any{
		"granted_scopes": mustJSON(debug.Scopes),
		"missing_scopes": mustJSON(missing),
		"has_all_scopes": hasAll,
		"updated_at":     time.Now().UTC(),
	}
	if err := s.repo.UpdateFields(ctx, s.db, vendorID, account.WABAID, fields); err != nil {
		s.log.Warn("failed to persist refreshed grants", zap.Error(err))
	}

	if hasAll {
		s.recordPermissionCheck(ctx, "complete")
	} else {
		s.recordPermissionCheck(ctx, "missing")
	}

	return &domain.PermissionsResult{
		CurrentPermissions: debug.Scopes,
		MissingPermissions: missing,
		HasAllPermissions:  hasAll,
	}, nil
}

func (s *Service) RequestPermissionsURL(ctx context.Context, userID any) (string, error) {
	vendorID, err := s.vendorID(userID)
	if err != nil {
		return "", err
	}

	scopes := permissions.Required
	if account, err := s.repo.FindLatestByVendor(ctx, s.db, vendorID); err == nil && account != nil {
		if stored := decodeScopes(account.MissingScopes); len(stored) > 0 {
			scopes = stored
		}
	}

	return s.graph.PermissionURL(vendorID.String(), scopes), nil
}

func (s *Service) ListBusinesses(ctx context.Context, userID any) ([]domain.BusinessSummary, error) {
	vendorID, err := s.vendorID(userID)
	if err != nil {
		return nil, err
	}

	account, err := s.connectedAccount(ctx, vendorID)
	if err != nil {
		return nil, err
	}

	businesses, err := s.graph.Businesses(ctx, account.AccessToken)
	if err != nil {
		return nil, err
	}

	summaries := make([]domain.BusinessSummary, 0, len(businesses))
	for _, b := range businesses {
		summaries = append(summaries, domain.BusinessSummary{
			ID:                b.ID,
			Name:              b.Name,
			VerificationState: b.VerificationState,
		})
	}
	return summaries, nil
}

func (s *Service) GetBusiness(ctx context.Context, userID any, businessID string) (*domain.BusinessSummary, error) {
	vendorID, err := s.vendorID(userID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(businessID) == "" {
		return nil, domain.ErrNotFound
	}

	account, err := s.connectedAccount(ctx, vendorID)
	if err != nil {
		return nil, err
	}

	business, err := s.graph.Business(ctx, businessID, account.AccessToken)
	if err != nil {
		return nil, err
	}

	return &domain.BusinessSummary{
		ID:                business.ID,
		Name:              business.Name,
		VerificationState: business.VerificationState,
	}, nil
}

func (s *Service) ListAccounts(ctx context.Context, userID any) ([]domain.Account, error) {
	vendorID, err := s.vendorID(userID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.ListByVendor(ctx, s.db, vendorID)
	if err != nil {
		return nil, err
	}

	accounts := make([]domain.Account, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		accounts = append(accounts, *item)
	}
	return accounts, nil
}

func (s *Service) Disconnect(ctx context.Context, userID any, wabaID string) error {
	vendorID, err := s.vendorID(userID)
	if err != nil {
		return err
	}

	return s.repo.UpdateFields(ctx, s.db, vendorID, wabaID, map[string]any{
		"status":       domain.StatusDisconnected,
		"access_token": "",
		"updated_at":   time.Now().UTC(),
	})
}

func (s *Service) storeGrants(ctx context.Context, vendorID snowflake.ID, accessToken string, granted, missing []string, hasAll bool) error {
	now := time.Now().UTC()

	latest, err := s.repo.FindLatestByVendor(ctx, s.db, vendorID)
	if err != nil {
		return err
	}

	if latest != nil {
		fields := map[string]any{
			"access_token":   accessToken,
			"granted_scopes": mustJSON(granted),
			"missing_scopes": mustJSON(missing),
			"has_all_scopes": hasAll,
			"status":         domain.StatusConnected,
			"updated_at":     now,
		}
		return s.repo.UpdateFields(ctx, s.db, vendorID, latest.WABAID, fields)
	}

	// No signup callback yet; park the token on a placeholder row the
	// callback will claim when the business data arrives.
	account := domain.Account{
		ID:            s.genID.Generate(),
		VendorID:      vendorID,
		WABAID:        "",
		AccessToken:   accessToken,
		GrantedScopes: mustJSON(granted),
		MissingScopes: mustJSON(missing),
		HasAllScopes:  hasAll,
		Status:        domain.StatusPending,
		Metadata:      datatypes.JSONMap{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return s.repo.Upsert(ctx, s.db, &account)
}

func (s *Service) connectedAccount(ctx context.Context, vendorID snowflake.ID) (*domain.Account, error) {
	account, err := s.repo.FindLatestByVendor(ctx, s.db, vendorID)
	if err != nil {
		return nil, err
	}
	if account == nil || account.AccessToken == "" {
		return nil, domain.ErrNoAccount
	}
	return account, nil
}

func (s *Service) vendorID(raw any) (snowflake.ID, error) {
	scalar, err := tenantctx.NormalizeTenantID(raw)
	if err != nil {
		return 0, domain.ErrInvalidTenant
	}
	id, err := snowflake.ParseString(scalar)
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidTenant
	}
	return id, nil
}

func (s *Service) recordSignup(ctx context.Context, event string) {
	cloudmetrics.RecordSignupCompletion(event)
	if s.metrics != nil {
		s.metrics.RecordSignupEvent(ctx, event)
	}
}

func (s *Service) recordExchange(ctx context.Context, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordTokenExchange(ctx, outcome)
	}
}

func (s *Service) recordPermissionCheck(ctx context.Context, status string) {
	if s.metrics != nil {
		s.metrics.RecordPermissionCheck(ctx, status)
	}
}

func storedResult(account *domain.Account) *domain.PermissionsResult {
	return &domain.PermissionsResult{
		CurrentPermissions: decodeScopes(account.GrantedScopes),
		MissingPermissions: decodeScopes(account.MissingScopes),
		HasAllPermissions:  account.HasAllScopes,
	}
}

func decodeScopes(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var scopes []string
	if err := json.Unmarshal(raw, &scopes); err != nil {
		return nil
	}
	return scopes
}

func mustJSON(scopes []string) datatypes.JSON {
	if scopes == nil {
		scopes = []string{}
	}
	raw, err := json.Marshal(scopes)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(raw)
}
