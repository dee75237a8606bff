package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// SignupPolicy controls the embedded signup flow: which popup origins are
// trusted, which permission scopes the platform requires, and how long the
// SDK loader may take before it is declared failed.
type SignupPolicy struct {
	TrustedOrigins   []string      `mapstructure:"trustedOrigins"`
	TrustedSuffix    string        `mapstructure:"trustedSuffix"`
	AllowSuffixMatch bool          `mapstructure:"allowSuffixMatch"`
	RequiredScopes   []string      `mapstructure:"requiredScopes"`
	SDKLoadTimeout   time.Duration `mapstructure:"sdkLoadTimeout"`
}

func DefaultSignupPolicy() SignupPolicy {
	return SignupPolicy{
		TrustedOrigins: []string{
			"https://www.facebook.com",
			"https://web.facebook.com",
			"https://business.facebook.com",
		},
		TrustedSuffix:    "facebook.com",
		AllowSuffixMatch: false,
		RequiredScopes: []string{
			"business_management",
			"whatsapp_business_management",
			"whatsapp_business_messaging",
		},
		SDKLoadTimeout: 30 * time.Second,
	}
}

// SignupPolicyHolder exposes the current policy and hot-reloads it when the
// backing file changes.
type SignupPolicyHolder struct {
	current atomic.Value // holds SignupPolicy
}

func NewSignupPolicyHolder() (*SignupPolicyHolder, error) {
	v := viper.New()

	v.SetConfigName("signup")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/console/config")
	v.AddConfigPath("/etc/console")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CONSOLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultSignupPolicy()
		v.SetDefault("signup.trustedOrigins", defaults.TrustedOrigins)
		v.SetDefault("signup.trustedSuffix", defaults.TrustedSuffix)
		v.SetDefault("signup.allowSuffixMatch", defaults.AllowSuffixMatch)
		v.SetDefault("signup.requiredScopes", defaults.RequiredScopes)
		v.SetDefault("signup.sdkLoadTimeout", defaults.SDKLoadTimeout)
	}

	var policy SignupPolicy
	if err := v.UnmarshalKey("signup", &policy); err != nil {
		return nil, err
	}
	if err := validateSignupPolicy(policy); err != nil {
		return nil, err
	}

	holder := &SignupPolicyHolder{}
	holder.current.Store(policy)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated SignupPolicy
		if err := v.UnmarshalKey("signup", &updated); err != nil {
			log.Printf("[signup-policy] reload failed: %v", err)
			return
		}
		if err := validateSignupPolicy(updated); err != nil {
			log.Printf("[signup-policy] invalid policy ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[signup-policy] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *SignupPolicyHolder) Get() SignupPolicy {
	return h.current.Load().(SignupPolicy)
}

func validateSignupPolicy(policy SignupPolicy) error {
	if len(policy.TrustedOrigins) == 0 && !policy.AllowSuffixMatch {
		return errors.New("signup.trustedOrigins cannot be empty")
	}
	if policy.AllowSuffixMatch && strings.TrimSpace(policy.TrustedSuffix) == "" {
		return errors.New("signup.trustedSuffix is required when suffix matching is enabled")
	}
	if len(policy.RequiredScopes) == 0 {
		return errors.New("signup.requiredScopes cannot be empty")
	}
	if policy.SDKLoadTimeout <= 0 {
		return errors.New("signup.sdkLoadTimeout must be positive")
	}
	return nil
}
