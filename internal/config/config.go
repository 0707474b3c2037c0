package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Auth scheme identifiers for the Bazik token exchange. The gateway exposes
// two endpoint generations with different credential handshakes; both remain
// in production use so the scheme is selected by configuration.
const (
	AuthSchemeCredentials = "credentials"
	AuthSchemeBasic       = "basic"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	CORSAllowedOrigins []string

	BazikBaseURL      string
	BazikClientID     string
	BazikClientSecret string
	BazikAuthScheme   string
	// BazikWebhookSecret signs inbound webhook bodies (HMAC-SHA256).
	BazikWebhookSecret string
	// WebhookRequireSignature rejects unsigned webhook deliveries when set.
	// Defaults to false: the gateway's sandbox mode omits the signature
	// header, and unsigned payloads are accepted unverified. Known risk.
	WebhookRequireSignature bool
	TokenExpiryBuffer       time.Duration
	UpstreamTimeout         time.Duration

	CurrencyCode   string
	IdempotencyTTL time.Duration

	RateLimitWindow time.Duration
	RateLimitMax    int

	QueueRedisPrefix       string
	QueueConcurrency       int
	QueueVisibilityTimeout time.Duration
	QueueBackoffBase       time.Duration
	QueueBackoffJitter     float64
	QueueMaxAttempts       int

	NotifyEmailEnabled bool
	NotifyEmailFrom    string
	NotifyEmailTo      string
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		BazikBaseURL:            strings.TrimRight(k.String("BAZIK_BASE_URL"), "/"),
		BazikClientID:           k.String("BAZIK_CLIENT_ID"),
		BazikClientSecret:       k.String("BAZIK_CLIENT_SECRET"),
		BazikAuthScheme:         valueOrDefault(strings.ToLower(strings.TrimSpace(k.String("BAZIK_AUTH_SCHEME"))), AuthSchemeCredentials),
		BazikWebhookSecret:      k.String("BAZIK_WEBHOOK_SECRET"),
		WebhookRequireSignature: parseBool(k.String("BAZIK_WEBHOOK_REQUIRE_SIGNATURE")),
		TokenExpiryBuffer:       parseDuration(k.String("BAZIK_TOKEN_EXPIRY_BUFFER"), "5m"),
		UpstreamTimeout:         parseDuration(k.String("BAZIK_UPSTREAM_TIMEOUT"), "30s"),

		CurrencyCode:   valueOrDefault(k.String("CURRENCY_CODE"), "HTG"),
		IdempotencyTTL: parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),

		RateLimitWindow: parseDuration(k.String("RATE_LIMIT_WINDOW"), "1m"),
		RateLimitMax:    intOrDefault(k.Int("RATE_LIMIT_MAX"), 120),

		QueueRedisPrefix:       valueOrDefault(k.String("QUEUE_REDIS_PREFIX"), "lhpay"),
		QueueConcurrency:       intOrDefault(k.Int("QUEUE_CONCURRENCY"), 4),
		QueueVisibilityTimeout: parseDuration(k.String("QUEUE_VISIBILITY_TIMEOUT"), "30s"),
		QueueBackoffBase:       parseDuration(k.String("QUEUE_BACKOFF_BASE"), "200ms"),
		QueueBackoffJitter:     k.Float64("QUEUE_BACKOFF_JITTER"),
		QueueMaxAttempts:       intOrDefault(k.Int("QUEUE_MAX_ATTEMPTS"), 10),

		NotifyEmailEnabled: parseBool(k.String("NOTIFY_EMAIL_ENABLED")),
		NotifyEmailFrom:    valueOrDefault(k.String("NOTIFY_EMAIL_FROM"), "no-reply@luxuryhaiti.com"),
		NotifyEmailTo:      k.String("NOTIFY_EMAIL_TO"),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.BazikBaseURL == "" {
		return nil, errors.New("BAZIK_BASE_URL is required")
	}
	if cfg.BazikClientID == "" || cfg.BazikClientSecret == "" {
		return nil, errors.New("BAZIK_CLIENT_ID and BAZIK_CLIENT_SECRET are required")
	}
	switch cfg.BazikAuthScheme {
	case AuthSchemeCredentials, AuthSchemeBasic:
	default:
		return nil, fmt.Errorf("unsupported BAZIK_AUTH_SCHEME: %s", cfg.BazikAuthScheme)
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func intOrDefault(value, fallback int) int {
	if value > 0 {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
