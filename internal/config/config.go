package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName          string
	AppVersion       string
	Environment      string
	HTTPAddr         string
	AuthCookieSecure bool

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RateLimit RateLimitConfig

	Meta MetaConfig

	Platform PlatformConfig
}

// RateLimitConfig tunes the Redis-backed limits on the signup callback
// endpoint. Rates are tokens per second.
type RateLimitConfig struct {
	Enabled bool

	SignupVendorRate    float64
	SignupVendorBurst   int
	SignupEndpointRate  float64
	SignupEndpointBurst int

	ExchangeLockTTLSeconds int
}

// MetaConfig carries the Meta (Facebook) application credentials used by the
// embedded signup flow and the Graph API client.
type MetaConfig struct {
	AppID        string
	AppSecret    string
	APIVersion   string
	ConfigID     string
	GraphBaseURL string
	// APIBaseURL is the console backend base URL the embedded clients talk to.
	APIBaseURL string
	// RedirectURI receives the provider's incremental-authorization redirect.
	RedirectURI string
}

// PlatformConfig configures the optional platform metrics push from
// self-hosted installs back to the hosted control plane.
type PlatformConfig struct {
	InstanceID      string
	MetricsEnabled  bool
	MetricsExporter string
	MetricsEndpoint string
	MetricsToken    string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	environment := getenv("ENVIRONMENT", "development")
	authCookieSecure := environment == "production"
	if !authCookieSecure {
		authCookieSecure = getenvBool("AUTH_COOKIE_SECURE", false)
	}

	return Config{
		AppName:          getenv("APP_SERVICE", "console"),
		AppVersion:       getenv("APP_VERSION", "0.1.0"),
		Environment:      environment,
		HTTPAddr:         getenv("HTTP_ADDR", ":8080"),
		AuthCookieSecure: authCookieSecure,
		OTLPEndpoint:     getenv("OTLP_ENDPOINT", "localhost:4317"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "console"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 600),

		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		RedisDB:       getenvInt("REDIS_DB", 0),

		RateLimit: RateLimitConfig{
			Enabled:                getenvBool("RATE_LIMIT_ENABLED", true),
			SignupVendorRate:       getenvFloat("RATE_LIMIT_SIGNUP_VENDOR_RATE", 1),
			SignupVendorBurst:      getenvInt("RATE_LIMIT_SIGNUP_VENDOR_BURST", 5),
			SignupEndpointRate:     getenvFloat("RATE_LIMIT_SIGNUP_ENDPOINT_RATE", 20),
			SignupEndpointBurst:    getenvInt("RATE_LIMIT_SIGNUP_ENDPOINT_BURST", 50),
			ExchangeLockTTLSeconds: getenvInt("RATE_LIMIT_EXCHANGE_LOCK_TTL", 30),
		},

		Meta: MetaConfig{
			AppID:        strings.TrimSpace(getenv("META_APP_ID", "")),
			AppSecret:    strings.TrimSpace(getenv("META_APP_SECRET", "")),
			APIVersion:   getenv("META_API_VERSION", "v24.0"),
			ConfigID:     strings.TrimSpace(getenv("META_CONFIG_ID", "")),
			GraphBaseURL: getenv("META_GRAPH_BASE_URL", "https://graph.facebook.com"),
			APIBaseURL:   getenv("API_BASE_URL", "http://localhost:8080"),
			RedirectURI:  strings.TrimSpace(getenv("META_REDIRECT_URI", "")),
		},

		Platform: PlatformConfig{
			InstanceID:      strings.TrimSpace(getenv("PLATFORM_INSTANCE_ID", "")),
			MetricsEnabled:  getenvBool("PLATFORM_METRICS_ENABLED", false),
			MetricsExporter: strings.ToLower(getenv("PLATFORM_METRICS_EXPORTER", "")),
			MetricsEndpoint: strings.TrimSpace(getenv("PLATFORM_METRICS_ENDPOINT", "")),
			MetricsToken:    strings.TrimSpace(getenv("PLATFORM_METRICS_AUTH_TOKEN", "")),
		},
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}
