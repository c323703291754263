package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-storefront/internal/config"
	"github.com/noah-isme/toko-storefront/internal/pricing"
)

// Tests mutate process environment through LoadForTests and must not run in parallel.

func clearedEnv(overrides map[string]string) map[string]string {
	env := map[string]string{
		"APP_ENV":                    "",
		"OBS_LOG_FORMAT":             "",
		"OBS_LOG_LEVEL":              "",
		"OBS_METRICS_NAMESPACE":      "",
		"OBS_ENABLE_TRACING":         "",
		"OBS_TRACING_EXPORTER":       "",
		"OBS_OTLP_ENDPOINT":          "",
		"ADMIN_ADDR":                 "",
		"ADMIN_CORS_ALLOWED_ORIGINS": "",
		"API_RATE_LIMIT":             "",
		"API_RATE_WINDOW":            "",
		"API_MAX_BODY_BYTES":         "",
		"SECURITY_HEADERS":           "",
		"SECURITY_ENABLE_HSTS":       "",
		"REDIS_URL":                  "",
		"LOCK_TTL":                   "",
		"LOCK_RETRY_BACKOFF":         "",
		"CATALOG_FILE":               "",
		"SHIPPING_NOTIFIER":          "",
		"SHIPPING_WEBHOOK_URL":       "",
		"SHIPPING_WEBHOOK_SECRET":    "",
		"SHIPPING_WEBHOOK_TIMEOUT":   "",
		"SHIPPING_WAIVE_WHEN_EMPTY":  "",
		"CUSTOMER_NAME":              "",
		"CUSTOMER_BALANCE":           "",
	}
	for k, v := range overrides {
		env[k] = v
	}
	return env
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(clearedEnv(nil))
	require.NoError(t, err)

	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, "console", cfg.LogFormat)
	require.Equal(t, "storefront", cfg.MetricsNamespace)
	require.Equal(t, "console", cfg.ShippingNotifier)
	require.Equal(t, 10*time.Second, cfg.LockTTL)
	require.Equal(t, 50*time.Millisecond, cfg.LockRetryBackoff)
	require.Equal(t, 5*time.Second, cfg.ShippingWebhookTimeout)
	require.False(t, cfg.ShippingWaiveWhenEmpty)
	require.False(t, cfg.CustomerBalanceSet)
	require.False(t, cfg.TracingEnabled())
	require.Equal(t, 60, cfg.APIRateLimit)
	require.Equal(t, time.Minute, cfg.APIRateWindow)
	require.Empty(t, cfg.CORSAllowedOrigins)
	require.Equal(t, int64(64<<10), cfg.APIMaxBodyBytes)
	require.True(t, cfg.SecurityHeaders)
	require.False(t, cfg.EnableHSTS)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := config.LoadForTests(clearedEnv(map[string]string{
		"OBS_LOG_FORMAT":             "JSON",
		"OBS_ENABLE_TRACING":         "true",
		"REDIS_URL":                  "redis://localhost:6379/0",
		"LOCK_TTL":                   "2s",
		"SHIPPING_NOTIFIER":          "webhook",
		"SHIPPING_WEBHOOK_URL":       "https://carrier.example.com/manifests",
		"SHIPPING_WAIVE_WHEN_EMPTY":  "yes",
		"CUSTOMER_NAME":              "Alice",
		"CUSTOMER_BALANCE":           "$1,500.25",
		"ADMIN_CORS_ALLOWED_ORIGINS": "http://localhost:3000, https://shop.example.com",
		"API_RATE_LIMIT":             "0",
		"API_MAX_BODY_BYTES":         "1024",
		"SECURITY_HEADERS":           "false",
	}))
	require.NoError(t, err)

	require.Equal(t, "json", cfg.LogFormat)
	require.True(t, cfg.TracingEnabled())
	require.Equal(t, 2*time.Second, cfg.LockTTL)
	require.Equal(t, "webhook", cfg.ShippingNotifier)
	require.True(t, cfg.ShippingWaiveWhenEmpty)
	require.Equal(t, "Alice", cfg.CustomerName)
	require.Equal(t, pricing.Money(150025), cfg.CustomerBalance)
	require.True(t, cfg.CustomerBalanceSet)
	require.Equal(t, []string{"http://localhost:3000", "https://shop.example.com"}, cfg.CORSAllowedOrigins)
	require.Zero(t, cfg.APIRateLimit)
	require.Equal(t, int64(1024), cfg.APIMaxBodyBytes)
	require.False(t, cfg.SecurityHeaders)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown notifier":    {"SHIPPING_NOTIFIER": "pigeon"},
		"webhook without url": {"SHIPPING_NOTIFIER": "webhook"},
		"negative balance":    {"CUSTOMER_BALANCE": "-5"},
		"garbage balance":     {"CUSTOMER_BALANCE": "lots"},
		"unknown exporter":    {"OBS_TRACING_EXPORTER": "zipkin"},
		"unknown log format":  {"OBS_LOG_FORMAT": "xml"},
		"redis url not a url": {"REDIS_URL": "not a url"},
	}
	for name, overrides := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := config.LoadForTests(clearedEnv(overrides))
			require.Error(t, err)
		})
	}
}
