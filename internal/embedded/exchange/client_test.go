package exchange

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL})
}

func TestExchangeSuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/facebook", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "exchange_token", body["action"])
		require.Equal(t, "abc123", body["code"])
		require.Equal(t, "42", body["userId"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"permissions":["business_management"]}`))
	})

	result, err := client.Exchange(context.Background(), "abc123", "42")
	require.NoError(t, err)
	require.Equal(t, []string{"business_management"}, result.GrantedScopes)
}

func TestExchangeBackendErrorPropagatesVerbatim(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"success":false,"error":"This authorization code has been used."}`))
	})

	_, err := client.Exchange(context.Background(), "stale", "42")
	require.EqualError(t, err, "This authorization code has been used.")
}

func TestExchangeRejectsEmptyCode(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := client.Exchange(context.Background(), "   ", "42")
	require.ErrorIs(t, err, ErrEmptyCode)
}

func TestGetPermissions(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "get_permissions", body["action"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"current_permissions":["business_management"],"missing_permissions":["whatsapp_business_messaging"],"has_all_permissions":false}`))
	})

	result, err := client.GetPermissions(context.Background(), "42")
	require.NoError(t, err)
	require.Equal(t, []string{"business_management"}, result.CurrentPermissions)
	require.Equal(t, []string{"whatsapp_business_messaging"}, result.MissingPermissions)
	require.False(t, result.HasAllPermissions)
}

func TestRequestPermissionsURL(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/facebook/request-permissions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"permission_url":"https://www.facebook.com/v24.0/dialog/oauth?x=1"}`))
	})

	u, err := client.RequestPermissions(context.Background(), "42")
	require.NoError(t, err)
	require.Contains(t, u, "dialog/oauth")
}
