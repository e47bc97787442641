// Package main is the entrypoint for the Narratia forms API server.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/narratia/narratia-api/internal/cache"
	"github.com/narratia/narratia-api/internal/config"
	"github.com/narratia/narratia-api/internal/handler"
	"github.com/narratia/narratia-api/internal/mailchimp"
	"github.com/narratia/narratia-api/internal/metrics"
	"github.com/narratia/narratia-api/internal/middleware"
	"github.com/narratia/narratia-api/internal/security"
	"github.com/narratia/narratia-api/internal/sendgrid"
	"github.com/narratia/narratia-api/internal/server"
	"github.com/narratia/narratia-api/internal/service"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	// Redis is optional. Without it the service still runs: rate
	// limiting admits everything and security events go to the log
	// only.
	var cacheClient *cache.Cache
	if cfg.RedisURL != "" {
		cacheClient, err = cache.New(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		logger.Info("connected to Redis")
	} else {
		logger.Warn("REDIS_URL not set, rate limiting disabled")
	}
	// Rate limiting can be switched off while keeping Redis for the
	// security event stream and health checks.
	limiterCache := cacheClient
	if !cfg.RateLimitEnabled {
		limiterCache = nil
	}

	if !cfg.MailConfigured() {
		logger.Warn("SENDGRID_API_KEY not set, mail sends will fail")
	}
	if !cfg.ListConfigured() {
		logger.Warn("Mailchimp credentials not set, signups will fail")
	}

	securityLogger := security.NewLogger(logger, redisClientOf(cacheClient))

	mailClient := sendgrid.NewClient(cfg.SendGridAPIKey, cfg.FromEmail, cfg.FromName)
	listClient := mailchimp.NewClient(cfg.MailchimpAPIKey, cfg.MailchimpServerPrefix)

	metricsRecorder := metrics.NewNoop()
	contactService := service.NewContactService(mailClient, cfg.OwnerEmail, logger, metricsRecorder)
	subscribeService := service.NewSubscriptionService(
		listClient,
		mailClient,
		cfg.MailchimpAudienceID,
		cfg.BaseURL,
		logger,
		metricsRecorder,
	)

	healthHandler := handler.NewHealthHandler(healthCheckerOf(cacheClient), cfg.MailConfigured(), cfg.ListConfigured())
	contactHandler := handler.NewContactHandler(contactService, securityLogger, logger)
	subscribeHandler := handler.NewSubscribeHandler(subscribeService, securityLogger, logger)
	downloadHandler := handler.NewDownloadHandler(cfg.DownloadsDir, securityLogger, metricsRecorder, logger)

	r := setupRouter(healthHandler, contactHandler, subscribeHandler, downloadHandler, limiterCache, securityLogger, metricsRecorder, cfg, logger)

	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	if cacheClient != nil {
		srv.OnShutdown("redis", func(ctx context.Context) error {
			return cacheClient.Close()
		})
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"base_url", cfg.BaseURL,
		"env", cfg.AppEnv,
		"rate_limiting", cfg.RateLimitActive(),
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(
	healthHandler *handler.HealthHandler,
	contactHandler *handler.ContactHandler,
	subscribeHandler *handler.SubscribeHandler,
	downloadHandler *handler.DownloadHandler,
	cacheClient *cache.Cache,
	securityLogger *security.Logger,
	metricsRecorder metrics.Recorder,
	cfg *config.Config,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	secCfg := middleware.DefaultSecurityConfig()
	secCfg.IsDevelopment = cfg.IsDevelopment()
	r.Use(middleware.Security(secCfg))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()
	r.Use(middleware.CORS(corsCfg))

	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))

	// Health endpoints
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)

	// Root info endpoint
	r.Get("/", handler.Hello)

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:   logger,
		Cache:    cacheClient,
		Security: securityLogger,
		Metrics:  metricsRecorder,
	}

	r.Route("/api", func(r chi.Router) {
		r.With(middleware.RateLimit(rateLimitCfg, cache.ContactWindow)).
			Post("/contact", contactHandler.Submit)

		r.Route("/subscribe", func(r chi.Router) {
			r.With(middleware.RateLimit(rateLimitCfg, cache.SubscribeWindow)).
				Post("/", subscribeHandler.Subscribe)
			r.Get("/", subscribeHandler.Status)
		})

		r.With(middleware.RateLimit(rateLimitCfg, cache.DownloadWindow)).
			Get("/download/{filename}", downloadHandler.Serve)
	})

	// 404 and 405 handlers
	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	return r
}

// redisClientOf unwraps the raw client for the security event stream.
func redisClientOf(c *cache.Cache) *redis.Client {
	if c == nil {
		return nil
	}
	return c.Client()
}

// healthCheckerOf avoids handing the health handler a typed nil.
func healthCheckerOf(c *cache.Cache) handler.HealthChecker {
	if c == nil {
		return nil
	}
	return c
}
