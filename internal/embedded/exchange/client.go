// Package exchange is the HTTP client for the console's facebook endpoint:
// authorization-code exchange plus the permission check and re-request
// calls layered on the same action dispatch.
package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	obstracing "github.com/notifybiz/console/internal/observability/tracing"
)

var ErrEmptyCode = errors.New("empty authorization code")

// Result carries the scopes granted by a successful exchange.
type Result struct {
	GrantedScopes []string
}

// PermissionsResult mirrors the get_permissions response body.
type PermissionsResult struct {
	CurrentPermissions []string
	MissingPermissions []string
	HasAllPermissions  bool
}

type Config struct {
	// BaseURL is the console backend root, e.g. https://api.example.com/api.
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	baseURL string
	http    *http.Client
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    obstracing.WrapHTTPClient(&http.Client{Timeout: timeout}),
	}
}

type actionRequest struct {
	Action   string         `json:"action"`
	Code     string         `json:"code,omitempty"`
	UserID   string         `json:"userId"`
	WabaData map[string]any `json:"wabaData,omitempty"`
}

type actionResponse struct {
	Success            bool     `json:"success"`
	Permissions        []string `json:"permissions,omitempty"`
	CurrentPermissions []string `json:"current_permissions,omitempty"`
	MissingPermissions []string `json:"missing_permissions,omitempty"`
	HasAllPermissions  bool     `json:"has_all_permissions,omitempty"`
	PermissionURL      string   `json:"permission_url,omitempty"`
	Error              string   `json:"error,omitempty"`
}

// Exchange trades a one-time authorization code for granted scopes. Codes
// are single use upstream; callers must not retry a code after any terminal
// result. Backend error strings pass through verbatim.
func (c *Client) Exchange(ctx context.Context, code, tenantID string) (Result, error) {
	if strings.TrimSpace(code) == "" {
		return Result{}, ErrEmptyCode
	}

	resp, err := c.post(ctx, "/facebook", actionRequest{
		Action: "exchange_token",
		Code:   code,
		UserID: tenantID,
	})
	if err != nil {
		return Result{}, err
	}

	return Result{GrantedScopes: resp.Permissions}, nil
}

// GetPermissions fetches the authoritative granted/missing scope lists.
func (c *Client) GetPermissions(ctx context.Context, tenantID string) (PermissionsResult, error) {
	resp, err := c.post(ctx, "/facebook", actionRequest{
		Action: "get_permissions",
		UserID: tenantID,
	})
	if err != nil {
		return PermissionsResult{}, err
	}

	return PermissionsResult{
		CurrentPermissions: resp.CurrentPermissions,
		MissingPermissions: resp.MissingPermissions,
		HasAllPermissions:  resp.HasAllPermissions,
	}, nil
}

// RequestPermissions returns the provider URL for the incremental
// authorization flow. The caller navigates the full page there.
func (c *Client) RequestPermissions(ctx context.Context, tenantID string) (string, error) {
	resp, err := c.post(ctx, "/facebook/request-permissions", actionRequest{UserID: tenantID})
	if err != nil {
		return "", err
	}
	if resp.PermissionURL == "" {
		return "", errors.New("no permission_url in response")
	}

	return resp.PermissionURL, nil
}

// NotifySignupCallback forwards business-account data after a finish event.
func (c *Client) NotifySignupCallback(ctx context.Context, tenantID string, wabaData map[string]any) error {
	_, err := c.post(ctx, "/facebook", actionRequest{
		Action:   "signup_callback",
		UserID:   tenantID,
		WabaData: wabaData,
	})
	return err
}

func (c *Client) post(ctx context.Context, path string, body actionRequest) (*actionResponse, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	var resp actionResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if !resp.Success {
		if resp.Error != "" {
			return nil, errors.New(resp.Error)
		}
		return nil, fmt.Errorf("request failed with status %d", httpResp.StatusCode)
	}

	return &resp, nil
}
