package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"shiftledger/backend/internal/cache"
	"shiftledger/backend/internal/config"
	"shiftledger/backend/internal/httpapi"
	"shiftledger/backend/internal/logger"
	"shiftledger/backend/internal/metrics"
	"shiftledger/backend/internal/secret"
	"shiftledger/backend/internal/service"
	"shiftledger/backend/internal/store"
	"shiftledger/backend/internal/store/memory"
	pgstore "shiftledger/backend/internal/store/postgres"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "shiftledger"})

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	logg = logger.New(logger.Options{
		ServiceName: "shiftledger",
		Level:       logger.ParseLevel(cfg.LogLevel),
		Format:      cfg.LogFormat,
	})

	if err := validateSecurityConfig(cfg); err != nil {
		logg.Error(context.Background(), "invalid security configuration", err)
		os.Exit(1)
	}

	startCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	application, err := newApp(startCtx, cfg, logg)
	cancel()
	if err != nil {
		logg.Error(context.Background(), "failed to start", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           application.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx := logg.WithField(context.Background(), "addr", cfg.Address())
	go func() {
		logg.Info(ctx, "shift ledger listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "server stopped unexpectedly", err)
			os.Exit(1)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "shutdown error", err)
	}
	if err := application.Close(); err != nil {
		logg.Error(ctx, "close error", err)
	}
	logg.Info(ctx, "server stopped")
}

type app struct {
	handler http.Handler
	closers []func() error
}

func (a *app) Close() error {
	var err error
	for i := len(a.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, a.closers[i]())
	}
	return err
}

// newApp wires the repository, summary cache, metrics, service and HTTP API.
// Postgres is used when DATABASE_URL is set, otherwise a seeded in-memory
// store.
func newApp(ctx context.Context, cfg config.Config, logg *logger.Logger) (*app, error) {
	a := &app{}
	fail := func(err error) (*app, error) {
		return nil, multierr.Append(err, a.Close())
	}

	var repo store.Repository
	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fail(fmt.Errorf("postgres unavailable and DATABASE_URL is set, refusing to start with in-memory fallback: %w", err))
		}
		a.closers = append(a.closers, pg.Close)
		if cfg.DBAutoMigrate {
			if err := pg.Migrate(ctx); err != nil {
				return fail(fmt.Errorf("migrate: %w", err))
			}
		}
		repo = pg
		logg.Info(ctx, "repository: postgres")
	} else {
		mem, err := memory.NewSeeded(cfg.DefaultTenantID, memory.SeedOptions{
			AdminPassword:  cfg.SeedAdminPassword,
			SellerPassword: cfg.SeedSellerPassword,
			ClearSalePIN:   cfg.SeedClearSalePIN,
		})
		if err != nil {
			return fail(fmt.Errorf("seed in-memory store: %w", err))
		}
		a.closers = append(a.closers, mem.Close)
		repo = mem
		logg.Warn(ctx, "repository: in-memory, data is lost on restart")
	}

	summaries, closeSummaries := newSummaryCache(ctx, cfg, logg)
	if closeSummaries != nil {
		a.closers = append(a.closers, closeSummaries)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc := service.New(repo,
		service.WithSummaryCache(summaries, cfg.SummaryCacheTTL()),
		service.WithMetrics(metrics.NewLedger(reg)),
		service.WithLogger(logg),
		service.WithFiscalYearStart(cfg.FiscalYearStart()),
	)

	created, err := svc.EnsureAdmin(ctx, cfg.DefaultTenantID, "admin", cfg.SeedAdminPassword)
	if err != nil {
		return fail(fmt.Errorf("ensure admin account: %w", err))
	}
	if created {
		logg.Info(logg.WithTenantID(ctx, cfg.DefaultTenantID), "created admin account")
	}

	auth := httpapi.NewAuthManager(cfg.AuthSecret, cfg.AccessTokenTTL(), cfg.DefaultTenantID, svc)
	api := httpapi.New(svc, auth, cfg.AllowedOrigin,
		httpapi.WithLogger(logg),
		httpapi.WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
	)
	a.handler = api.Handler()
	return a, nil
}

// newSummaryCache prefers Redis when REDIS_ADDR is set and reachable. Otherwise
// summaries are cached in process.
func newSummaryCache(ctx context.Context, cfg config.Config, logg *logger.Logger) (cache.SummaryCache, func() error) {
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisSummaryCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			logg.Warn(ctx, "redis unavailable, falling back to in-process summary cache: "+err.Error())
			_ = redisCache.Close()
		} else {
			logg.Info(ctx, "summary cache: redis")
			return redisCache, redisCache.Close
		}
	}
	logg.Info(ctx, "summary cache: in-process")
	return cache.NewMemorySummaryCache(), nil
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	if cfg.SeedClearSalePIN != "" {
		if err := secret.CheckPINStrength(cfg.SeedClearSalePIN); err != nil {
			return fmt.Errorf("SEED_CLEAR_SALE_PIN is too weak: %w", err)
		}
	}
	if cfg.SeedAdminPassword != "" && len(cfg.SeedAdminPassword) < 8 {
		return fmt.Errorf("SEED_ADMIN_PASSWORD must be at least 8 characters")
	}
	return nil
}
