package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/notifybiz/console/internal/providers/meta"
	"github.com/notifybiz/console/internal/waba/domain"
	"github.com/notifybiz/console/internal/waba/repository"
	"github.com/notifybiz/console/pkg/db"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeGraph struct {
	token       *meta.TokenResponse
	tokenErr    error
	debug       *meta.TokenDebug
	debugErr    error
	businesses  []meta.Business
	exchangeGot string
}

func (f *fakeGraph) ExchangeCode(ctx context.Context, code string) (*meta.TokenResponse, error) {
	f.exchangeGot = code
	if f.tokenErr != nil {
		return nil, f.tokenErr
	}
	return f.token, nil
}

func (f *fakeGraph) DebugToken(ctx context.Context, inputToken string) (*meta.TokenDebug, error) {
	if f.debugErr != nil {
		return nil, f.debugErr
	}
	return f.debug, nil
}

func (f *fakeGraph) Businesses(ctx context.Context, accessToken string) ([]meta.Business, error) {
	return f.businesses, nil
}

func (f *fakeGraph) Business(ctx context.Context, businessID, accessToken string) (*meta.Business, error) {
	for _, b := range f.businesses {
		if b.ID == businessID {
			return &b, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeGraph) PermissionURL(state string, scopes []string) string {
	return "https://www.facebook.com/v24.0/dialog/oauth?state=" + state
}

func newTestService(t *testing.T, graph *fakeGraph) (domain.Service, string) {
	t.Helper()

	gdb, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&domain.Account{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:    gdb,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
		Graph: graph,
	})

	return svc, node.Generate().String()
}

func TestSignupCallbackIdempotentUpsert(t *testing.T) {
	svc, vendor := newTestService(t, &fakeGraph{})
	ctx := context.Background()

	first, err := svc.SignupCallback(ctx, domain.SignupCallbackRequest{
		UserID:   vendor,
		WABAData: domain.WABAData{WABAID: "w1", PhoneNumberID: "p1"},
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusConnected, first.Status)

	second, err := svc.SignupCallback(ctx, domain.SignupCallbackRequest{
		UserID:   vendor,
		WABAData: domain.WABAData{WABAID: "w1", PhoneNumberID: "p1-new"},
	})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, "p1-new", second.PhoneNumberID)

	accounts, err := svc.ListAccounts(ctx, vendor)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
}

func TestSignupCallbackUnwrapsCompoundUserID(t *testing.T) {
	svc, vendor := newTestService(t, &fakeGraph{})

	account, err := svc.SignupCallback(context.Background(), domain.SignupCallbackRequest{
		UserID:   map[string]any{"id": vendor, "name": "Acme"},
		WABAData: domain.WABAData{WABAID: "w1", PhoneNumberID: "p1"},
	})
	require.NoError(t, err)
	require.Equal(t, "w1", account.WABAID)
}

func TestExchangeTokenStoresGrants(t *testing.T) {
	graph := &fakeGraph{
		token: &meta.TokenResponse{AccessToken: "tok"},
		debug: &meta.TokenDebug{IsValid: true, Scopes: []string{"business_management"}},
	}
	svc, vendor := newTestService(t, graph)
	ctx := context.Background()

	result, err := svc.ExchangeToken(ctx, domain.ExchangeTokenRequest{UserID: vendor, Code: "abc123"})
	require.NoError(t, err)
	require.Equal(t, "abc123", graph.exchangeGot)
	require.Equal(t, []string{"business_management"}, result.GrantedScopes)

	// The callback later claims the placeholder row.
	account, err := svc.SignupCallback(ctx, domain.SignupCallbackRequest{
		UserID:   vendor,
		WABAData: domain.WABAData{WABAID: "w1", PhoneNumberID: "p1"},
	})
	require.NoError(t, err)
	require.Equal(t, "w1", account.WABAID)
	require.Equal(t, domain.StatusConnected, account.Status)
	require.False(t, account.HasAllScopes)

	accounts, err := svc.ListAccounts(ctx, vendor)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
}

func TestCallbackThenExchangeSharesRow(t *testing.T) {
	graph := &fakeGraph{
		token: &meta.TokenResponse{AccessToken: "tok"},
		debug: &meta.TokenDebug{IsValid: true, Scopes: []string{
			"business_management", "whatsapp_business_management", "whatsapp_business_messaging",
		}},
	}
	svc, vendor := newTestService(t, graph)
	ctx := context.Background()

	_, err := svc.SignupCallback(ctx, domain.SignupCallbackRequest{
		UserID:   vendor,
		WABAData: domain.WABAData{WABAID: "w1", PhoneNumberID: "p1"},
	})
	require.NoError(t, err)

	_, err = svc.ExchangeToken(ctx, domain.ExchangeTokenRequest{UserID: vendor, Code: "abc123"})
	require.NoError(t, err)

	accounts, err := svc.ListAccounts(ctx, vendor)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	require.True(t, accounts[0].HasAllScopes)
}

func TestExchangeTokenRejectsEmptyCode(t *testing.T) {
	svc, vendor := newTestService(t, &fakeGraph{})

	_, err := svc.ExchangeToken(context.Background(), domain.ExchangeTokenRequest{UserID: vendor, Code: " "})
	require.ErrorIs(t, err, domain.ErrEmptyCode)
}

func TestExchangeTokenUpstreamErrorPropagates(t *testing.T) {
	graph := &fakeGraph{tokenErr: &meta.GraphError{Message: "This authorization code has been used.", Type: "OAuthException", Code: 100}}
	svc, vendor := newTestService(t, graph)

	_, err := svc.ExchangeToken(context.Background(), domain.ExchangeTokenRequest{UserID: vendor, Code: "used"})
	require.Error(t, err)

	var graphErr *meta.GraphError
	require.ErrorAs(t, err, &graphErr)
}

func TestGetPermissionsReconcilesFreshGrants(t *testing.T) {
	graph := &fakeGraph{
		token: &meta.TokenResponse{AccessToken: "tok"},
		debug: &meta.TokenDebug{IsValid: true, Scopes: []string{"business_management"}},
	}
	svc, vendor := newTestService(t, graph)
	ctx := context.Background()

	_, err := svc.ExchangeToken(ctx, domain.ExchangeTokenRequest{UserID: vendor, Code: "abc"})
	require.NoError(t, err)

	graph.debug = &meta.TokenDebug{IsValid: true, Scopes: []string{
		"business_management", "whatsapp_business_management", "whatsapp_business_messaging",
	}}

	result, err := svc.GetPermissions(ctx, vendor)
	require.NoError(t, err)
	require.True(t, result.HasAllPermissions)
	require.Empty(t, result.MissingPermissions)
}

func TestGetPermissionsServesStoredGrantsOnUpstreamFailure(t *testing.T) {
	graph := &fakeGraph{
		token: &meta.TokenResponse{AccessToken: "tok"},
		debug: &meta.TokenDebug{IsValid: true, Scopes: []string{"business_management"}},
	}
	svc, vendor := newTestService(t, graph)
	ctx := context.Background()

	_, err := svc.ExchangeToken(ctx, domain.ExchangeTokenRequest{UserID: vendor, Code: "abc"})
	require.NoError(t, err)

	graph.debugErr = errors.New("graph unreachable")

	result, err := svc.GetPermissions(ctx, vendor)
	require.NoError(t, err)
	require.Equal(t, []string{"business_management"}, result.CurrentPermissions)
	require.Len(t, result.MissingPermissions, 2)
	require.False(t, result.HasAllPermissions)
}

func TestGetPermissionsWithoutAccount(t *testing.T) {
	svc, vendor := newTestService(t, &fakeGraph{})

	_, err := svc.GetPermissions(context.Background(), vendor)
	require.ErrorIs(t, err, domain.ErrNoAccount)
}

func TestRequestPermissionsURL(t *testing.T) {
	svc, vendor := newTestService(t, &fakeGraph{})

	u, err := svc.RequestPermissionsURL(context.Background(), vendor)
	require.NoError(t, err)
	require.Contains(t, u, "state="+vendor)
}

func TestDisconnectClearsToken(t *testing.T) {
	graph := &fakeGraph{
		token: &meta.TokenResponse{AccessToken: "tok"},
		debug: &meta.TokenDebug{IsValid: true, Scopes: nil},
	}
	svc, vendor := newTestService(t, graph)
	ctx := context.Background()

	_, err := svc.SignupCallback(ctx, domain.SignupCallbackRequest{
		UserID:   vendor,
		WABAData: domain.WABAData{WABAID: "w1", PhoneNumberID: "p1"},
	})
	require.NoError(t, err)

	_, err = svc.ExchangeToken(ctx, domain.ExchangeTokenRequest{UserID: vendor, Code: "abc"})
	require.NoError(t, err)

	require.NoError(t, svc.Disconnect(ctx, vendor, "w1"))

	_, err = svc.GetPermissions(ctx, vendor)
	require.ErrorIs(t, err, domain.ErrNoAccount)
}
