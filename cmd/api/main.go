package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/clipforge/quota-service/api/routes"
	"github.com/clipforge/quota-service/internal/accounts"
	"github.com/clipforge/quota-service/internal/ledger"
	"github.com/clipforge/quota-service/internal/quota"
	"github.com/clipforge/quota-service/pkg/config"
	"github.com/clipforge/quota-service/pkg/db"
	"github.com/clipforge/quota-service/pkg/instance"
	"github.com/clipforge/quota-service/pkg/logger"
	"github.com/clipforge/quota-service/pkg/metrics"
	"github.com/clipforge/quota-service/pkg/migrate"
	pkgredis "github.com/clipforge/quota-service/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "quota-api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "quota-api",
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

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := pkgredis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	promRegistry := prometheus.NewRegistry()
	quotaMetrics := metrics.NewQuotaMetrics(promRegistry)

	accountsRepo := accounts.NewRepository(dbClient.DB(), cfg.Quota)
	ledgerRepo := ledger.NewRepository(dbClient.DB())

	accountsService, err := accounts.NewService(accountsRepo, cfg.Quota, quotaMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create accounts service", err)
		os.Exit(1)
	}

	quotaService, err := quota.NewService(dbClient, accountsRepo, ledgerRepo, cfg.Quota.ChargeMaxAttempts, quotaMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create quota service", err)
		os.Exit(1)
	}

	ledgerService, err := ledger.NewService(ledgerRepo, accountsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting quota api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, accountsService, quotaService, ledgerService, promRegistry),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "quota api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
