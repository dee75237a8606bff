// Package sdk owns loading and initializing the provider's authorization SDK.
// The script is a process-wide singleton: injected once, never removed, and
// reused across every signup attempt.
package sdk

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ScriptID is the reserved element ID for the injected provider script.
// Registration is keyed on it so a second initialization finds the first.
const ScriptID = "facebook-jssdk"

// DefaultTimeout bounds the load plus handshake. The provider gives no
// signal when it is unreachable, so without this the flow waits forever.
const DefaultTimeout = 30 * time.Second

var ErrInitTimeout = errors.New("sdk init timeout")

type Config struct {
	AppID      string
	APIVersion string
	Timeout    time.Duration
}

// Initializer performs the two async stages of SDK startup. Load places the
// script; Init runs the provider's own handshake. Readiness flips only when
// Init returns, never on mere script load.
type Initializer interface {
	Load(ctx context.Context) error
	Init(ctx context.Context, cfg Config) error
}

// Loader exposes the readiness of one registered SDK instance.
type Loader struct {
	mu    sync.Mutex
	ready chan struct{}
	done  bool
	err   error
}

// Ready is closed once the SDK handshake completes. It never closes if
// loading failed; poll Err for the persistent failure.
func (l *Loader) Ready() <-chan struct{} { return l.ready }

func (l *Loader) IsReady() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.done && l.err == nil
}

func (l *Loader) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

func (l *Loader) finish(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done {
		return
	}
	l.done = true
	l.err = err
	if err == nil {
		close(l.ready)
	}
}

// Registry tracks loaders by element ID so initialization happens at most
// once per process regardless of how many views request it.
type Registry struct {
	mu      sync.Mutex
	loaders map[string]*Loader
	log     *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		loaders: make(map[string]*Loader),
		log:     log.Named("embedded.sdk"),
	}
}

// Initialize starts async SDK startup for the given element ID. A repeat
// call with the same ID is a no-op returning the existing loader, whatever
// state it is in.
func (r *Registry) Initialize(ctx context.Context, id string, cfg Config, init Initializer) *Loader {
	r.mu.Lock()
	if existing, ok := r.loaders[id]; ok {
		r.mu.Unlock()
		return existing
	}

	loader := &Loader{ready: make(chan struct{})}
	r.loaders[id] = loader
	r.mu.Unlock()

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	go func() {
		initCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		if err := init.Load(initCtx); err != nil {
			r.log.Warn("sdk script load failed", zap.String("element_id", id), zap.Error(err))
			loader.finish(r.classify(initCtx, err))
			return
		}
		if err := init.Init(initCtx, cfg); err != nil {
			r.log.Warn("sdk init failed", zap.String("element_id", id), zap.Error(err))
			loader.finish(r.classify(initCtx, err))
			return
		}

		r.log.Info("sdk ready", zap.String("element_id", id), zap.String("api_version", cfg.APIVersion))
		loader.finish(nil)
	}()

	return loader
}

// Lookup returns the loader registered for an element ID, if any.
func (r *Registry) Lookup(id string) (*Loader, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	loader, ok := r.loaders[id]
	return loader, ok
}

func (r *Registry) classify(ctx context.Context, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return ErrInitTimeout
	}
	return err
}
