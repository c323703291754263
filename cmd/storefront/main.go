package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-storefront/internal/catalog"
	"github.com/noah-isme/toko-storefront/internal/checkout"
	"github.com/noah-isme/toko-storefront/internal/config"
	"github.com/noah-isme/toko-storefront/internal/customer"
	"github.com/noah-isme/toko-storefront/internal/health"
	"github.com/noah-isme/toko-storefront/internal/lock"
	"github.com/noah-isme/toko-storefront/internal/obs"
	"github.com/noah-isme/toko-storefront/internal/ratelimit"
	"github.com/noah-isme/toko-storefront/internal/resilience"
	"github.com/noah-isme/toko-storefront/internal/security"
	"github.com/noah-isme/toko-storefront/internal/session"
	"github.com/noah-isme/toko-storefront/internal/shipping"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := obs.NewLogger("console", "info", os.Stderr)
		boot.Fatal().Err(err).Msg("load configuration")
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel, os.Stderr).With().Str("env", cfg.AppEnv).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx)

	obs.MustRegisterDomainMetrics(cfg.MetricsNamespace, prometheus.DefaultRegisterer)
	resilience.MustRegisterMetrics(prometheus.DefaultRegisterer)

	tracingEnabled := cfg.TracingEnabled()
	if tracingEnabled {
		shutdown, err := obs.InitTracer(ctx, obs.TracingConfig{
			ServiceName: "toko-storefront",
			Endpoint:    cfg.OTLPEndpoint,
			Exporter:    cfg.TracingExporter,
			Environment: cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(shutdownCtx); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	cat, err := loadCatalog(cfg.CatalogFile, time.Now())
	if err != nil {
		logger.Fatal().Err(err).Str("file", cfg.CatalogFile).Msg("load catalog")
	}
	logger.Info().Int("products", cat.Len()).Msg("catalog loaded")

	var (
		locker  checkout.Locker   = &lock.Local{}
		limiter ratelimit.Allower = ratelimit.NewMemoryLimiter("storefront:ratelimit:")
		checks                    = map[string]health.Checker{}
	)
	if cfg.RedisURL != "" {
		redisClient, err := newRedisClient(ctx, cfg.RedisURL, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect redis")
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error().Err(err).Msg("close redis")
			}
		}()
		locker = lock.Locker{R: redisClient, Prefix: "storefront:lock:", RetryBackoff: cfg.LockRetryBackoff}
		limiter = ratelimit.RedisLimiter{Client: redisClient, Prefix: "storefront:ratelimit:"}
		checks["redis"] = health.CheckerFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	notifier, err := buildNotifier(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("notifier", cfg.ShippingNotifier).Msg("configure shipping notifier")
	}

	engine := &checkout.Engine{
		Notifier: notifier,
		Shipping: shipping.Calculator{WaiveWhenEmpty: cfg.ShippingWaiveWhenEmpty},
		Locker:   locker,
		LockTTL:  cfg.LockTTL,
		Logger:   &logger,
	}

	console := session.NewConsole(os.Stdin, os.Stdout)
	cust, err := resolveCustomer(ctx, console, cfg)
	if err != nil {
		if errors.Is(err, session.ErrInputClosed) || errors.Is(err, context.Canceled) {
			return
		}
		logger.Fatal().Err(err).Msg("create customer")
	}

	sess, err := session.New(cat, cust, engine)
	if err != nil {
		logger.Fatal().Err(err).Msg("create session")
	}

	var srv *http.Server
	if cfg.AdminAddr != "" {
		srv = &http.Server{
			Addr: cfg.AdminAddr,
			Handler: newAdminRouter(routerDeps{
				Logger:         logger,
				Metrics:        obs.NewHTTPMetrics(cfg.MetricsNamespace, prometheus.DefaultRegisterer),
				Tracing:        tracingEnabled,
				AllowedOrigins: cfg.CORSAllowedOrigins,
				Health:         health.Handler{Checks: checks},
				Session:        sess,
				Limiter: ratelimit.Handler{
					Limiter: limiter,
					Config:  ratelimit.Config{Window: cfg.APIRateWindow, Max: cfg.APIRateLimit},
					OnError: func(err error) { logger.Warn().Err(err).Msg("rate limiter unavailable") },
				},
				Headers:      security.Headers{Enable: cfg.SecurityHeaders, EnableHSTS: cfg.EnableHSTS},
				MaxBodyBytes: cfg.APIMaxBodyBytes,
			}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info().Str("addr", srv.Addr).Msg("admin listener starting")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("admin listener exited unexpectedly")
			}
		}()
	}

	runErr := console.Run(ctx, sess)
	health.SetReady(false)
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown admin listener")
		}
		cancel()
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		logger.Error().Err(runErr).Msg("session ended with error")
	}
}

func loadCatalog(path string, today time.Time) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.NewDefault(today), nil
	}
	return catalog.LoadFile(path, today)
}

func newRedisClient(ctx context.Context, url string, logger zerolog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if err := redisotel.InstrumentMetrics(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis metrics")
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func buildNotifier(cfg *config.Config, logger zerolog.Logger) (shipping.Notifier, error) {
	switch cfg.ShippingNotifier {
	case "console":
		return shipping.ConsoleNotifier{Out: os.Stdout}, nil
	case "log":
		return shipping.LogNotifier{Logger: logger}, nil
	case "webhook":
		breaker := resilience.NewBreaker(3, 0.5, 30*time.Second).WithTarget("shipping-carrier").WithLogger(logger)
		webhook, err := shipping.NewWebhookNotifier(cfg.ShippingWebhookURL, cfg.ShippingWebhookSecret, cfg.ShippingWebhookTimeout, breaker)
		if err != nil {
			return nil, err
		}
		return shipping.MultiNotifier{shipping.LogNotifier{Logger: logger}, webhook}, nil
	default:
		return shipping.NopNotifier{}, nil
	}
}

// resolveCustomer uses the configured name and balance and prompts only for
// whichever of the two is missing.
func resolveCustomer(ctx context.Context, console *session.Console, cfg *config.Config) (*customer.Customer, error) {
	name, balance := cfg.CustomerName, cfg.CustomerBalance
	var err error
	if name == "" {
		if name, err = console.PromptName(ctx); err != nil {
			return nil, err
		}
	}
	if !cfg.CustomerBalanceSet {
		if balance, err = console.PromptBalance(ctx); err != nil {
			return nil, err
		}
	}
	return customer.New(name, balance)
}
