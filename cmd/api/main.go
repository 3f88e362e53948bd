package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/retailsignals/pricewise-backend/api/controllers"
	"github.com/retailsignals/pricewise-backend/api/routes"
	"github.com/retailsignals/pricewise-backend/internal/approvals"
	"github.com/retailsignals/pricewise-backend/internal/branches"
	"github.com/retailsignals/pricewise-backend/internal/catalog"
	"github.com/retailsignals/pricewise-backend/internal/pricetiers"
	"github.com/retailsignals/pricewise-backend/internal/pricing"
	"github.com/retailsignals/pricewise-backend/internal/tiers"
	"github.com/retailsignals/pricewise-backend/pkg/config"
	"github.com/retailsignals/pricewise-backend/pkg/db"
	"github.com/retailsignals/pricewise-backend/pkg/logger"
	"github.com/retailsignals/pricewise-backend/pkg/metrics"
	"github.com/retailsignals/pricewise-backend/pkg/migrate"
	"github.com/retailsignals/pricewise-backend/pkg/outbox"
	"github.com/retailsignals/pricewise-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if cfg.FeatureFlags.AutoMigrate {
		if err := migrate.AutoRun(context.Background(), dbClient, logg); err != nil {
			logg.Error(context.Background(), "failed to run migrations", err)
			os.Exit(1)
		}
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	outboxSvc := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	pricingRepo := pricing.NewRepository(dbClient.DB())
	resolutionMetrics := metrics.NewResolutionMetrics(prometheus.DefaultRegisterer)
	resolver, err := pricing.NewResolver(pricingRepo, resolutionMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create resolver", err)
		os.Exit(1)
	}

	guard, err := pricing.NewGuard(pricingRepo, dbClient, outboxSvc, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create change guard", err)
		os.Exit(1)
	}

	catalogRepo := catalog.NewRepository(dbClient.DB())
	catalogService, err := catalog.NewService(catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	pricingService, err := pricing.NewService(pricingRepo, resolver, guard, dbClient, outboxSvc, catalogRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create pricing service", err)
		os.Exit(1)
	}

	priceTierRepo := pricetiers.NewRepository(dbClient.DB())
	priceTierService, err := pricetiers.NewService(priceTierRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create price tier service", err)
		os.Exit(1)
	}

	branchService, err := branches.NewService(branches.NewRepository(dbClient.DB()), priceTierRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create branch service", err)
		os.Exit(1)
	}

	tierService, err := tiers.NewService(tiers.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create loyalty tier service", err)
		os.Exit(1)
	}

	approvalsService, err := approvals.NewService(approvals.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create approvals service", err)
		os.Exit(1)
	}

	router := routes.NewRouter(routes.RouterParams{
		Config:           cfg,
		Logger:           logg,
		PricingService:   pricingService,
		CatalogService:   catalogService,
		BranchService:    branchService,
		PriceTierService: priceTierService,
		TierService:      tierService,
		ApprovalsService: approvalsService,
		MetricsGatherer:  prometheus.DefaultGatherer,
		Pingers: map[string]controllers.Pinger{
			"database": dbClient,
			"redis":    redisClient,
		},
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown error", err)
		}
	}

	logg.Info(ctx, "api server shutting down gracefully")
}
