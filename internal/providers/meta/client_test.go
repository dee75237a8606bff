package meta

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/notifybiz/console/internal/config"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.Config{
		Meta: config.MetaConfig{
			AppID:        "1234",
			AppSecret:    "secret",
			APIVersion:   "v24.0",
			GraphBaseURL: srv.URL,
			RedirectURI:  "https://console.example.com/facebook/callback",
		},
	}

	return NewClient(cfg, zap.NewNop(), nil)
}

func TestExchangeCode(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v24.0/oauth/access_token", r.URL.Path)
		require.Equal(t, "1234", r.URL.Query().Get("client_id"))
		require.Equal(t, "abc", r.URL.Query().Get("code"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok","token_type":"bearer","expires_in":5183944}`))
	}))

	token, err := client.ExchangeCode(context.Background(), "abc")
	require.NoError(t, err)
	require.Equal(t, "tok", token.AccessToken)
}

func TestExchangeCodeGraphError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"This authorization code has been used.","type":"OAuthException","code":100,"fbtrace_id":"A1b"}}`))
	}))

	_, err := client.ExchangeCode(context.Background(), "used-code")
	require.Error(t, err)

	var graphErr *GraphError
	require.ErrorAs(t, err, &graphErr)
	require.Equal(t, "This authorization code has been used.", graphErr.Message)
	require.Equal(t, 100, graphErr.Code)
}

func TestExchangeCodeRejectsEmpty(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for empty code")
	}))

	_, err := client.ExchangeCode(context.Background(), "  ")
	require.Error(t, err)
}

func TestDebugTokenScopes(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/debug_token", r.URL.Path)
		require.Equal(t, "1234|secret", r.URL.Query().Get("access_token"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"app_id":"1234","user_id":"777","is_valid":true,"scopes":["business_management","whatsapp_business_management"]}}`))
	}))

	debug, err := client.DebugToken(context.Background(), "tok")
	require.NoError(t, err)
	require.True(t, debug.IsValid)
	require.Equal(t, []string{"business_management", "whatsapp_business_management"}, debug.Scopes)
}

func TestPermissionURL(t *testing.T) {
	client := newTestClient(t, http.NotFoundHandler())

	u := client.PermissionURL("state-1", nil)
	require.Contains(t, u, "https://www.facebook.com/v24.0/dialog/oauth?")
	require.Contains(t, u, "auth_type=rerequest")
	require.Contains(t, u, "business_management")
	require.Contains(t, u, "state=state-1")
}
