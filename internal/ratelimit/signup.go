package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/notifybiz/console/internal/config"
)

const (
	keySignupVendor   = "signup:callback:vendor:%s"
	keySignupEndpoint = "signup:callback:endpoint"
	keyExchangeLock   = "signup:exchange:lock:%s"
)

// SignupLimiter throttles the embedded signup callback endpoint and
// guards each authorization code against concurrent exchange attempts.
type SignupLimiter struct {
	enabled bool

	bucket *TokenBucket
	locker *Locker

	vendorRate    float64
	vendorBurst   int
	endpointRate  float64
	endpointBurst int
	lockTTL       time.Duration
}

func NewSignupLimiter(cfg config.Config, client *redis.Client) (*SignupLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	if client == nil {
		return nil, errors.New("rate limit redis client is required")
	}
	if limitCfg.SignupVendorRate <= 0 || limitCfg.SignupVendorBurst <= 0 {
		return nil, errors.New("signup vendor rate limit must be positive")
	}
	if limitCfg.SignupEndpointRate <= 0 || limitCfg.SignupEndpointBurst <= 0 {
		return nil, errors.New("signup endpoint rate limit must be positive")
	}

	return &SignupLimiter{
		enabled:       true,
		bucket:        NewTokenBucket(client),
		locker:        NewLocker(client),
		vendorRate:    limitCfg.SignupVendorRate,
		vendorBurst:   limitCfg.SignupVendorBurst,
		endpointRate:  limitCfg.SignupEndpointRate,
		endpointBurst: limitCfg.SignupEndpointBurst,
		lockTTL:       time.Duration(limitCfg.ExchangeLockTTLSeconds) * time.Second,
	}, nil
}

func (l *SignupLimiter) Enabled() bool {
	return l != nil && l.enabled
}

func (l *SignupLimiter) AllowVendor(ctx context.Context, vendorID string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keySignupVendor, strings.TrimSpace(vendorID)), l.vendorRate, l.vendorBurst)
}

func (l *SignupLimiter) AllowEndpoint(ctx context.Context) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, keySignupEndpoint, l.endpointRate, l.endpointBurst)
}

// TryLockExchange takes a short-lived lock keyed by the authorization code
// so a double-submitted code is exchanged at most once.
func (l *SignupLimiter) TryLockExchange(ctx context.Context, codeDigest string) (string, bool, error) {
	if !l.Enabled() {
		return "", true, nil
	}
	key := fmt.Sprintf(keyExchangeLock, strings.TrimSpace(codeDigest))
	return l.locker.TryLock(ctx, key, l.lockTTL)
}

func (l *SignupLimiter) ReleaseExchange(ctx context.Context, codeDigest, token string) error {
	if !l.Enabled() {
		return nil
	}
	key := fmt.Sprintf(keyExchangeLock, strings.TrimSpace(codeDigest))
	return l.locker.Release(ctx, key, token)
}
