// Package meta implements the Graph API client used for WhatsApp Business
// onboarding: code exchange, token introspection, business lookups and
// message template reads.
package meta

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/notifybiz/console/internal/config"
	obsmetrics "github.com/notifybiz/console/internal/observability/metrics"
	obstracing "github.com/notifybiz/console/internal/observability/tracing"
	"go.uber.org/zap"
)

// RequiredScopes are the permissions the console needs on a connected
// WhatsApp Business Account.
var RequiredScopes = []string{
	"business_management",
	"whatsapp_business_management",
	"whatsapp_business_messaging",
}

// GraphError is the error envelope Graph returns on non-2xx responses.
type GraphError struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	Code      int    `json:"code"`
	Subcode   int    `json:"error_subcode,omitempty"`
	FBTraceID string `json:"fbtrace_id,omitempty"`
}

func (e *GraphError) Error() string {
	return fmt.Sprintf("graph: %s (type=%s code=%d)", e.Message, e.Type, e.Code)
}

// TokenResponse is the payload from the oauth/access_token endpoint.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// TokenDebug describes an inspected access token.
type TokenDebug struct {
	AppID     string   `json:"app_id"`
	UserID    string   `json:"user_id"`
	IsValid   bool     `json:"is_valid"`
	Scopes    []string `json:"scopes"`
	ExpiresAt int64    `json:"expires_at"`
}

// Business is a Graph business node.
type Business struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	VerificationState string `json:"verification_status,omitempty"`
}

// MessageTemplate is a WABA message template as Graph reports it.
type MessageTemplate struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Language string `json:"language"`
	Category string `json:"category"`
	Status   string `json:"status"`
}

type Client struct {
	cfg     config.MetaConfig
	http    *http.Client
	log     *zap.Logger
	metrics *obsmetrics.Metrics
}

func NewClient(cfg config.Config, log *zap.Logger, metrics *obsmetrics.Metrics) *Client {
	return &Client{
		cfg:     cfg.Meta,
		http:    obstracing.WrapHTTPClient(&http.Client{Timeout: 15 * time.Second}),
		log:     log.Named("providers.meta"),
		metrics: metrics,
	}
}

// ExchangeCode trades an embedded-signup authorization code for a business
// access token. Codes are single use upstream; callers must not retry on
// upstream rejection.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*TokenResponse, error) {
	if strings.TrimSpace(code) == "" {
		return nil, &GraphError{Message: "empty authorization code", Type: "OAuthException", Code: 100}
	}

	q := url.Values{}
	q.Set("client_id", c.cfg.AppID)
	q.Set("client_secret", c.cfg.AppSecret)
	q.Set("code", code)
	if c.cfg.RedirectURI != "" {
		q.Set("redirect_uri", c.cfg.RedirectURI)
	}

	var token TokenResponse
	if err := c.get(ctx, "oauth/access_token", c.endpoint("oauth/access_token")+"?"+q.Encode(), &token); err != nil {
		return nil, err
	}
	if token.AccessToken == "" {
		return nil, &GraphError{Message: "no access_token in response", Type: "OAuthException", Code: 190}
	}

	return &token, nil
}

// DebugToken inspects an access token and returns its granted scopes.
func (c *Client) DebugToken(ctx context.Context, inputToken string) (*TokenDebug, error) {
	q := url.Values{}
	q.Set("input_token", inputToken)
	q.Set("access_token", c.cfg.AppID+"|"+c.cfg.AppSecret)

	var payload struct {
		Data TokenDebug `json:"data"`
	}
	if err := c.get(ctx, "debug_token", c.cfg.GraphBaseURL+"/debug_token?"+q.Encode(), &payload); err != nil {
		return nil, err
	}

	return &payload.Data, nil
}

// Businesses lists the businesses the token's user can manage.
func (c *Client) Businesses(ctx context.Context, accessToken string) ([]Business, error) {
	q := url.Values{}
	q.Set("access_token", accessToken)
	q.Set("fields", "id,name,verification_status")

	var payload struct {
		Data []Business `json:"data"`
	}
	if err := c.get(ctx, "me/businesses", c.endpoint("me/businesses")+"?"+q.Encode(), &payload); err != nil {
		return nil, err
	}

	return payload.Data, nil
}

// Business fetches a single business node.
func (c *Client) Business(ctx context.Context, businessID, accessToken string) (*Business, error) {
	q := url.Values{}
	q.Set("access_token", accessToken)
	q.Set("fields", "id,name,verification_status")

	var business Business
	if err := c.get(ctx, "business", c.endpoint(businessID)+"?"+q.Encode(), &business); err != nil {
		return nil, err
	}

	return &business, nil
}

// MessageTemplates lists the templates registered on a WABA.
func (c *Client) MessageTemplates(ctx context.Context, wabaID, accessToken string) ([]MessageTemplate, error) {
	q := url.Values{}
	q.Set("access_token", accessToken)
	q.Set("fields", "id,name,language,category,status")

	var payload struct {
		Data []MessageTemplate `json:"data"`
	}
	if err := c.get(ctx, "message_templates", c.endpoint(wabaID+"/message_templates")+"?"+q.Encode(), &payload); err != nil {
		return nil, err
	}

	return payload.Data, nil
}

// PermissionURL builds the incremental-authorization dialog URL. This is a
// full page navigation on the provider, not a popup.
func (c *Client) PermissionURL(state string, scopes []string) string {
	if len(scopes) == 0 {
		scopes = RequiredScopes
	}

	q := url.Values{}
	q.Set("client_id", c.cfg.AppID)
	q.Set("redirect_uri", c.cfg.RedirectURI)
	q.Set("scope", strings.Join(scopes, ","))
	q.Set("auth_type", "rerequest")
	q.Set("response_type", "code")
	if state != "" {
		q.Set("state", state)
	}
	if c.cfg.ConfigID != "" {
		q.Set("config_id", c.cfg.ConfigID)
	}

	return fmt.Sprintf("https://www.facebook.com/%s/dialog/oauth?%s", c.cfg.APIVersion, q.Encode())
}

func (c *Client) endpoint(path string) string {
	return fmt.Sprintf("%s/%s/%s", c.cfg.GraphBaseURL, c.cfg.APIVersion, path)
}

func (c *Client) get(ctx context.Context, name, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.record(ctx, name, "network_error")
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var envelope struct {
			Error GraphError `json:"error"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&envelope); decodeErr != nil || envelope.Error.Message == "" {
			c.record(ctx, name, "upstream_error")
			return &GraphError{Message: fmt.Sprintf("unexpected status %d", resp.StatusCode), Type: "GraphMethodException", Code: resp.StatusCode}
		}
		c.record(ctx, name, "upstream_error")
		c.log.Warn("graph call rejected",
			zap.String("endpoint", name),
			zap.Int("status", resp.StatusCode),
			zap.String("fbtrace_id", envelope.Error.FBTraceID),
		)
		return &envelope.Error
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.record(ctx, name, "decode_error")
		return fmt.Errorf("decode graph response: %w", err)
	}

	c.record(ctx, name, "ok")
	return nil
}

func (c *Client) record(ctx context.Context, endpoint, outcome string) {
	if c.metrics == nil {
		return
	}
	c.metrics.RecordGraphCall(ctx, endpoint, outcome)
}
