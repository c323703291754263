package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/noah-isme/toko-storefront/internal/common"
	"github.com/noah-isme/toko-storefront/internal/pricing"
)

// Config holds storefront configuration loaded from the environment.
type Config struct {
	AppEnv string `validate:"required"`

	LogFormat        string `validate:"oneof=json console text"`
	LogLevel         string
	MetricsNamespace string `validate:"required"`
	EnableTracing    bool
	TracingExporter  string `validate:"oneof=otlp none"`
	OTLPEndpoint     string

	AdminAddr          string
	CORSAllowedOrigins []string
	APIRateLimit       int           `validate:"gte=0"`
	APIRateWindow      time.Duration `validate:"gt=0"`
	APIMaxBodyBytes    int64         `validate:"gte=0"`
	SecurityHeaders    bool
	EnableHSTS         bool
	RedisURL           string        `validate:"omitempty,url"`

	LockTTL          time.Duration `validate:"gt=0"`
	LockRetryBackoff time.Duration `validate:"gt=0"`

	CatalogFile string

	ShippingNotifier       string        `validate:"oneof=console log webhook none"`
	ShippingWebhookURL     string        `validate:"omitempty,url"`
	ShippingWebhookSecret  string
	ShippingWebhookTimeout time.Duration `validate:"gt=0"`
	ShippingWaiveWhenEmpty bool

	CustomerName    string
	CustomerBalance pricing.Money `validate:"gte=0"`
	// CustomerBalanceSet distinguishes an explicit zero balance from an unset one.
	CustomerBalanceSet bool
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:                 valueOrDefault(k.String("APP_ENV"), "development"),
		LogFormat:              strings.ToLower(valueOrDefault(k.String("OBS_LOG_FORMAT"), "console")),
		LogLevel:               valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
		MetricsNamespace:       valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "storefront"),
		EnableTracing:          parseBool(k.String("OBS_ENABLE_TRACING")),
		TracingExporter:        strings.ToLower(valueOrDefault(k.String("OBS_TRACING_EXPORTER"), "otlp")),
		OTLPEndpoint:           strings.TrimSpace(k.String("OBS_OTLP_ENDPOINT")),
		AdminAddr:              strings.TrimSpace(k.String("ADMIN_ADDR")),
		CORSAllowedOrigins:     splitAndTrim(k.String("ADMIN_CORS_ALLOWED_ORIGINS")),
		APIRateLimit:           common.AtoiDefault(k.String("API_RATE_LIMIT"), 60),
		APIRateWindow:          parseDuration(k.String("API_RATE_WINDOW"), "1m"),
		APIMaxBodyBytes:        int64(common.AtoiDefault(k.String("API_MAX_BODY_BYTES"), 64<<10)),
		SecurityHeaders:        parseBoolDefault(k.String("SECURITY_HEADERS"), true),
		EnableHSTS:             parseBool(k.String("SECURITY_ENABLE_HSTS")),
		RedisURL:               strings.TrimSpace(k.String("REDIS_URL")),
		LockTTL:                parseDuration(k.String("LOCK_TTL"), "10s"),
		LockRetryBackoff:       parseDuration(k.String("LOCK_RETRY_BACKOFF"), "50ms"),
		CatalogFile:            strings.TrimSpace(k.String("CATALOG_FILE")),
		ShippingNotifier:       strings.ToLower(valueOrDefault(k.String("SHIPPING_NOTIFIER"), "console")),
		ShippingWebhookURL:     strings.TrimSpace(k.String("SHIPPING_WEBHOOK_URL")),
		ShippingWebhookSecret:  k.String("SHIPPING_WEBHOOK_SECRET"),
		ShippingWebhookTimeout: parseDuration(k.String("SHIPPING_WEBHOOK_TIMEOUT"), "5s"),
		ShippingWaiveWhenEmpty: parseBool(k.String("SHIPPING_WAIVE_WHEN_EMPTY")),
		CustomerName:           strings.TrimSpace(k.String("CUSTOMER_NAME")),
	}

	if raw := strings.TrimSpace(k.String("CUSTOMER_BALANCE")); raw != "" {
		balance, err := pricing.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("CUSTOMER_BALANCE: %w", err)
		}
		cfg.CustomerBalance = balance
		cfg.CustomerBalanceSet = true
	}

	if cfg.ShippingNotifier == "webhook" && cfg.ShippingWebhookURL == "" {
		return nil, errors.New("SHIPPING_WEBHOOK_URL is required when SHIPPING_NOTIFIER=webhook")
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// TracingEnabled reports whether a tracer provider should be installed.
func (c *Config) TracingEnabled() bool {
	return c.EnableTracing && c.TracingExporter != "none"
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
		return strings.TrimSpace(value)
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

func parseBoolDefault(value string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return def
	case "0", "false", "no", "off":
		return false
	default:
		return parseBool(value)
	}
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
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
