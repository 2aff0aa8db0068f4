package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	handlers "github.com/wekeepgrowing/chronam-reader/internal/adapter/handler/http"
	"github.com/wekeepgrowing/chronam-reader/internal/config"
	"github.com/wekeepgrowing/chronam-reader/internal/domain/entity"
	"github.com/wekeepgrowing/chronam-reader/internal/domain/repository"
	"github.com/wekeepgrowing/chronam-reader/internal/infrastructure/cache"
	"github.com/wekeepgrowing/chronam-reader/internal/infrastructure/chronam"
	"github.com/wekeepgrowing/chronam-reader/internal/infrastructure/database"
	httpServer "github.com/wekeepgrowing/chronam-reader/internal/infrastructure/http"
	"github.com/wekeepgrowing/chronam-reader/internal/infrastructure/metrics"
	stripeProvider "github.com/wekeepgrowing/chronam-reader/internal/infrastructure/provider/stripe"
	"github.com/wekeepgrowing/chronam-reader/internal/infrastructure/supabase"
	"github.com/wekeepgrowing/chronam-reader/internal/usecase"
	"github.com/wekeepgrowing/chronam-reader/pkg/logger"
	"go.uber.org/zap"
)

const userAgent = "chronam-reader/1.0"

func main() {
	// Logs startup failures until the configured logger exists
	bootLogger := logger.DefaultZapLogger()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		bootLogger.Fatal("Failed to load config", zap.Error(err))
	}

	// Initialize logger
	zapLogger, err := logger.NewZapLogger(cfg.Log)
	if err != nil {
		bootLogger.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer zapLogger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection
	db, err := database.NewConnection(&cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, zapLogger); err != nil {
			zapLogger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db, zapLogger); err != nil {
			zapLogger.Fatal("Failed to run database migrations", zap.Error(err))
		}
	}

	repos := database.NewRepositories(db, cfg.Database.ScopedRole, zapLogger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	ttl := entity.TTLPolicy{
		Search:  cfg.Cache.TTL.Search,
		Page:    cfg.Cache.TTL.Page,
		Titles:  cfg.Cache.TTL.Titles,
		Default: cfg.Cache.TTL.Default,
	}

	store, closeCache := newCacheStore(ctx, cfg, ttl, zapLogger)
	defer closeCache()

	// Providers
	identity := supabase.NewClient(cfg.Supabase.URL, cfg.Supabase.AnonKey, cfg.Supabase.JWTSecret, cfg.Supabase.Timeout, zapLogger)
	billing := stripeProvider.NewStripeProvider(cfg.Stripe.SecretKey, nil, zapLogger)
	verifier := stripeProvider.NewWebhookVerifier(cfg.Stripe.WebhookSecret)
	archive := chronam.NewClient(cfg.Archive.Timeout, userAgent, zapLogger)

	// Use cases
	authService := usecase.NewAuthService(identity, zapLogger)
	proxy := usecase.NewArchiveProxy(repos.Admin.Subscriptions(), store, archive, usecase.ArchiveProxyConfig{
		BaseURL:        cfg.Archive.BaseURL,
		TTL:            ttl,
		CoalesceMisses: cfg.Cache.CoalesceMisses,
	}, m, zapLogger)
	reconciler := usecase.NewSubscriptionReconciler(verifier, billing, repos.Admin, m, zapLogger)
	billingService := usecase.NewBillingService(billing, repos.Admin, repos.Scoped, cfg.Service.AppURL, m, zapLogger)
	accountService := usecase.NewAccountService(repos.Scoped, zapLogger)

	h := httpServer.Handlers{
		Proxy:   handlers.NewProxyHandler(proxy, zapLogger),
		Billing: handlers.NewBillingHandler(billingService, cfg.Stripe.PublishableKey, zapLogger),
		Webhook: handlers.NewWebhookHandler(reconciler, zapLogger),
		Auth:    handlers.NewAuthHandler(authService, httpServer.SessionConfig(cfg, zapLogger), zapLogger),
		Account: handlers.NewAccountHandler(accountService, zapLogger),
	}
	httpSrv := httpServer.NewServer(cfg, zapLogger, h, httpServer.Dependencies{
		Authenticator: authService,
		Registry:      registry,
	})

	go func() {
		if err := httpSrv.Start(); err != nil {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zapLogger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Failed to shutdown HTTP server", zap.Error(err))
	}

	zapLogger.Info("Server shut down successfully")
}

// newCacheStore builds the configured archive cache. The returned func
// releases its resources.
func newCacheStore(ctx context.Context, cfg *config.Config, ttl entity.TTLPolicy, zapLogger *zap.Logger) (repository.CacheRepository, func()) {
	if cfg.Cache.Backend != config.CacheBackendRedis {
		zapLogger.Info("Using in-memory archive cache")
		return cache.NewMemoryStore(), func() {}
	}

	client, err := cache.NewRedisClient(ctx, cache.RedisOptions{
		Addr:     cfg.Cache.Redis.Addr(),
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
	}, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	return cache.NewRedisStore(client, cfg.Cache.Redis.Prefix, ttl.Max(), zapLogger), func() {
		if err := client.Close(); err != nil {
			zapLogger.Error("Failed to close Redis client", zap.Error(err))
		}
	}
}
