package flow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/notifybiz/console/internal/embedded/exchange"
	"github.com/notifybiz/console/internal/embedded/listener"
	"github.com/notifybiz/console/internal/embedded/permissions"
	"github.com/notifybiz/console/internal/embedded/sdk"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeLoader struct {
	ready bool
	err   error
}

func (f *fakeLoader) IsReady() bool { return f.ready }
func (f *fakeLoader) Err() error    { return f.err }

type fakeExchanger struct {
	mu      sync.Mutex
	result  exchange.Result
	err     error
	calls   int
	release chan struct{}
}

func (f *fakeExchanger) Exchange(ctx context.Context, code, tenantID string) (exchange.Result, error) {
	f.mu.Lock()
	f.calls++
	release := f.release
	f.mu.Unlock()

	if release != nil {
		<-release
	}
	return f.result, f.err
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []map[string]any
	err   error
}

func (f *fakeNotifier) NotifySignupCallback(ctx context.Context, tenantID string, wabaData map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, wabaData)
	return f.err
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeLauncher struct {
	mu       sync.Mutex
	attempts []uint64
}

func (f *fakeLauncher) Launch(ctx context.Context, attempt uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts = append(f.attempts, attempt)
}

func (f *fakeLauncher) launched() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.attempts)
}

func (f *fakeLauncher) last() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts[len(f.attempts)-1]
}

type harness struct {
	session   *Session
	loader    *fakeLoader
	exchanger *fakeExchanger
	notifier  *fakeNotifier
	launcher  *fakeLauncher
	engine    *permissions.Engine
}

type noopBackend struct{}

func (noopBackend) GetPermissions(ctx context.Context, tenantID string) ([]string, error) {
	return nil, errors.New("not wired")
}

func (noopBackend) RequestPermissions(ctx context.Context, tenantID string) (string, error) {
	return "", errors.New("not wired")
}

func newHarness(t *testing.T, rawTenant any) *harness {
	t.Helper()

	h := &harness{
		loader:    &fakeLoader{ready: true},
		exchanger: &fakeExchanger{},
		notifier:  &fakeNotifier{},
		launcher:  &fakeLauncher{},
		engine:    permissions.NewEngine(noopBackend{}, zap.NewNop()),
	}

	session, err := NewSession(rawTenant, Deps{
		Loader:    h.loader,
		Exchanger: h.exchanger,
		Engine:    h.engine,
		Notifier:  h.notifier,
		Launcher:  h.launcher,
		Log:       zap.NewNop(),
	})
	require.NoError(t, err)
	h.session = session
	return h
}

func waitStatus(t *testing.T, s *Session, want Status) {
	t.Helper()
	require.Eventually(t, func() bool {
		return s.Status() == want
	}, 2*time.Second, 5*time.Millisecond, "status never reached %s (got %s)", want, s.Status())
}

func TestConnectRefusedWhileSDKNotReady(t *testing.T) {
	h := newHarness(t, "42")
	h.loader.ready = false

	err := h.session.Connect(context.Background())
	require.Error(t, err)
	require.Equal(t, MsgSDKNotReady, h.session.ErrMessage())
	require.Equal(t, StatusIdle, h.session.Status())
	require.Equal(t, 0, h.launcher.launched())
}

func TestFullSuccessScenario(t *testing.T) {
	h := newHarness(t, "42")
	h.exchanger.result = exchange.Result{GrantedScopes: []string{"business_management"}}

	require.NoError(t, h.session.Connect(context.Background()))
	require.Equal(t, StatusAwaitingPopup, h.session.Status())

	h.session.HandleLoginResult(context.Background(), h.launcher.last(), LoginResult{Authorized: true, Code: "abc123"})
	waitStatus(t, h.session, StatusSucceeded)

	state, ok := h.engine.State()
	require.True(t, ok)
	require.Equal(t, []string{"business_management"}, state.Granted)
	require.Equal(t, []string{"whatsapp_business_management", "whatsapp_business_messaging"}, state.Missing)
	require.False(t, state.HasAllRequired)
}

func TestPopupDismissalFails(t *testing.T) {
	h := newHarness(t, "42")

	require.NoError(t, h.session.Connect(context.Background()))
	h.session.HandleLoginResult(context.Background(), h.launcher.last(), LoginResult{Authorized: false})

	require.Equal(t, StatusFailed, h.session.Status())
	require.Equal(t, MsgLoginCancelled, h.session.ErrMessage())
	require.Equal(t, 0, h.exchanger.calls)
}

func TestCancelEventRecordsStep(t *testing.T) {
	h := newHarness(t, "42")

	require.NoError(t, h.session.Connect(context.Background()))
	h.session.HandleCancel("business_verification")

	require.Equal(t, StatusCancelled, h.session.Status())
	require.Equal(t, "User cancelled at step: business_verification", h.session.ErrMessage())
}

func TestExchangeFailurePropagatesBackendError(t *testing.T) {
	h := newHarness(t, "42")
	h.exchanger.err = errors.New("This authorization code has been used.")

	require.NoError(t, h.session.Connect(context.Background()))
	h.session.HandleLoginResult(context.Background(), h.launcher.last(), LoginResult{Authorized: true, Code: "stale"})

	waitStatus(t, h.session, StatusFailed)
	require.Equal(t, "This authorization code has been used.", h.session.ErrMessage())
}

func TestBusinessDataLastWriteWinsNotifyPerMessage(t *testing.T) {
	h := newHarness(t, "42")

	h.session.HandleBusinessData(listener.BusinessData{WABAID: "w1", PhoneNumberID: "p1"})
	h.session.HandleBusinessData(listener.BusinessData{WABAID: "w2", PhoneNumberID: "p2"})
	h.session.WaitNotifications()

	data, ok := h.session.BusinessData()
	require.True(t, ok)
	require.Equal(t, "w2", data.WABAID)
	require.Equal(t, StatusSucceeded, h.session.Status())
	// One notification per message received, not deduplicated.
	require.Equal(t, 2, h.notifier.count())
}

func TestNotifyFailureDoesNotRevertSucceeded(t *testing.T) {
	h := newHarness(t, "42")
	h.notifier.err = errors.New("backend down")

	h.session.HandleBusinessData(listener.BusinessData{WABAID: "w1", PhoneNumberID: "p1"})
	h.session.WaitNotifications()

	require.Equal(t, StatusSucceeded, h.session.Status())
	require.Empty(t, h.session.ErrMessage())
}

func TestRacingCompletionsAreIdempotent(t *testing.T) {
	h := newHarness(t, "42")
	h.exchanger.result = exchange.Result{GrantedScopes: []string{"business_management"}}

	require.NoError(t, h.session.Connect(context.Background()))

	// Business data lands before the exchange result.
	h.session.HandleBusinessData(listener.BusinessData{WABAID: "w1", PhoneNumberID: "p1"})
	require.Equal(t, StatusSucceeded, h.session.Status())

	h.session.HandleLoginResult(context.Background(), h.launcher.last(), LoginResult{Authorized: true, Code: "abc123"})
	h.session.WaitNotifications()
	waitStatus(t, h.session, StatusSucceeded)

	require.Equal(t, 1, h.notifier.count())
	require.Equal(t, 1, h.exchanger.calls)
}

func TestStaleExchangeResultDiscardedAfterRetry(t *testing.T) {
	h := newHarness(t, "42")
	h.exchanger.release = make(chan struct{})
	h.exchanger.result = exchange.Result{GrantedScopes: []string{"business_management"}}

	require.NoError(t, h.session.Connect(context.Background()))
	h.session.HandleLoginResult(context.Background(), h.launcher.last(), LoginResult{Authorized: true, Code: "first"})
	require.Equal(t, StatusExchanging, h.session.Status())

	h.session.Retry()
	require.Equal(t, StatusIdle, h.session.Status())

	close(h.exchanger.release)

	// The in-flight result belongs to the abandoned attempt; the session
	// must stay IDLE rather than jump to SUCCEEDED.
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, StatusIdle, h.session.Status())
	_, ok := h.engine.State()
	require.False(t, ok)
}

func TestStaleLoginResultDiscarded(t *testing.T) {
	h := newHarness(t, "42")

	require.NoError(t, h.session.Connect(context.Background()))
	old := h.launcher.last()

	h.session.Retry()
	require.NoError(t, h.session.Connect(context.Background()))

	h.session.HandleLoginResult(context.Background(), old, LoginResult{Authorized: false})
	require.Equal(t, StatusAwaitingPopup, h.session.Status())
}

func TestRetryClearsSessionState(t *testing.T) {
	h := newHarness(t, "42")

	h.session.HandleBusinessData(listener.BusinessData{WABAID: "w1", PhoneNumberID: "p1"})
	h.session.WaitNotifications()
	h.session.Retry()

	require.Equal(t, StatusIdle, h.session.Status())
	require.Empty(t, h.session.ErrMessage())
	_, ok := h.session.BusinessData()
	require.False(t, ok)
}

func TestTenantIdentityNormalizedOnce(t *testing.T) {
	h := newHarness(t, map[string]any{"id": "777", "name": "Acme"})
	require.Equal(t, "777", h.session.TenantID())

	_, err := NewSession(nil, Deps{Log: zap.NewNop()})
	require.Error(t, err)
}

type instantInit struct{}

func (instantInit) Load(ctx context.Context) error                 { return nil }
func (instantInit) Init(ctx context.Context, cfg sdk.Config) error { return nil }

func TestConnectWithRealLoader(t *testing.T) {
	registry := sdk.NewRegistry(zap.NewNop())
	loader := registry.Initialize(context.Background(), sdk.ScriptID, sdk.Config{
		AppID:      "app-1",
		APIVersion: "v24.0",
		Timeout:    time.Second,
	}, instantInit{})

	select {
	case <-loader.Ready():
	case <-time.After(time.Second):
		t.Fatal("loader never became ready")
	}

	h := newHarness(t, "42")
	session, err := NewSession("42", Deps{
		Loader:    loader,
		Exchanger: h.exchanger,
		Engine:    h.engine,
		Notifier:  h.notifier,
		Launcher:  h.launcher,
		Log:       zap.NewNop(),
	})
	require.NoError(t, err)

	require.NoError(t, session.Connect(context.Background()))
	require.Equal(t, StatusAwaitingPopup, session.Status())
}
