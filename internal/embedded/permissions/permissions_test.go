package permissions

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeBackend struct {
	granted []string
	url     string
	err     error
	calls   int
}

func (f *fakeBackend) GetPermissions(ctx context.Context, tenantID string) ([]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.granted, nil
}

func (f *fakeBackend) RequestPermissions(ctx context.Context, tenantID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

func TestReconcileDerivation(t *testing.T) {
	missing, hasAll := Reconcile(Required, []string{"business_management"})
	require.Equal(t, []string{"whatsapp_business_management", "whatsapp_business_messaging"}, missing)
	require.False(t, hasAll)

	missing, hasAll = Reconcile(Required, Required)
	require.Empty(t, missing)
	require.True(t, hasAll)

	// Extra granted scopes never create negative missing entries.
	missing, hasAll = Reconcile(Required, append([]string{"email", "public_profile"}, Required...))
	require.Empty(t, missing)
	require.True(t, hasAll)
}

func TestReconcileRandomSubsets(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 200; i++ {
		granted := make([]string, 0, len(Required))
		expectMissing := map[string]bool{}
		for _, scope := range Required {
			if rng.Intn(2) == 0 {
				granted = append(granted, scope)
			} else {
				expectMissing[scope] = true
			}
		}

		missing, hasAll := Reconcile(Required, granted)
		require.Len(t, missing, len(expectMissing))
		for _, scope := range missing {
			require.True(t, expectMissing[scope])
		}
		require.Equal(t, len(expectMissing) == 0, hasAll)
	}
}

func TestCheckRecomputesWholesale(t *testing.T) {
	backend := &fakeBackend{granted: []string{"business_management"}}
	engine := NewEngine(backend, zap.NewNop())

	first, err := engine.Check(context.Background(), "42")
	require.NoError(t, err)
	require.False(t, first.HasAllRequired)
	require.Len(t, first.Missing, 2)

	backend.granted = Required
	second, err := engine.Check(context.Background(), "42")
	require.NoError(t, err)
	require.True(t, second.HasAllRequired)
	require.Empty(t, second.Missing)
}

func TestCheckFailureKeepsPreviousState(t *testing.T) {
	backend := &fakeBackend{granted: []string{"business_management"}}
	engine := NewEngine(backend, zap.NewNop())

	_, err := engine.Check(context.Background(), "42")
	require.NoError(t, err)

	backend.err = errors.New("backend down")
	stale, err := engine.Check(context.Background(), "42")
	require.Error(t, err)
	require.Equal(t, []string{"business_management"}, stale.Granted)

	kept, ok := engine.State()
	require.True(t, ok)
	require.Equal(t, []string{"business_management"}, kept.Granted)
}

func TestSetGrantedFromExchange(t *testing.T) {
	engine := NewEngine(&fakeBackend{}, zap.NewNop())

	state := engine.SetGranted([]string{"business_management"})
	require.Equal(t, []string{"whatsapp_business_management", "whatsapp_business_messaging"}, state.Missing)
	require.False(t, state.HasAllRequired)
}

func TestRequestAdditionalReturnsRedirect(t *testing.T) {
	backend := &fakeBackend{url: "https://www.facebook.com/v24.0/dialog/oauth?auth_type=rerequest"}
	engine := NewEngine(backend, zap.NewNop())

	u, err := engine.RequestAdditional(context.Background(), "42")
	require.NoError(t, err)
	require.Contains(t, u, "auth_type=rerequest")
}
