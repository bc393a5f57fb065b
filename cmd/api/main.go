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
	"go.uber.org/multierr"

	"github.com/shuddy05/compliancehub-backendd/api/routes"
	"github.com/shuddy05/compliancehub-backendd/internal/billing"
	"github.com/shuddy05/compliancehub-backendd/internal/companies"
	"github.com/shuddy05/compliancehub-backendd/internal/memberships"
	"github.com/shuddy05/compliancehub-backendd/internal/subscriptions"
	paystackwebhook "github.com/shuddy05/compliancehub-backendd/internal/webhooks/paystack"
	"github.com/shuddy05/compliancehub-backendd/pkg/config"
	"github.com/shuddy05/compliancehub-backendd/pkg/db"
	"github.com/shuddy05/compliancehub-backendd/pkg/logger"
	"github.com/shuddy05/compliancehub-backendd/pkg/metrics"
	"github.com/shuddy05/compliancehub-backendd/pkg/migrate"
	"github.com/shuddy05/compliancehub-backendd/pkg/paystack"
	"github.com/shuddy05/compliancehub-backendd/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	promRegistry := prometheus.NewRegistry()
	paymentMetrics := metrics.NewPaymentMetrics(promRegistry)

	var gateway *paystack.Client
	if cfg.Paystack.Configured() {
		gateway, err = paystack.NewClient(cfg.Paystack.SecretKey,
			paystack.WithBaseURL(cfg.Paystack.BaseURL),
			paystack.WithTimeout(cfg.Paystack.Timeout),
		)
		if err != nil {
			logg.Error(context.Background(), "failed to create paystack client", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "paystack credentials missing, gateway initialization disabled")
	}

	billingRepo := billing.NewRepository(dbClient.DB())
	companyRepo := companies.NewRepository(dbClient.DB())
	membershipsRepo := memberships.NewRepository(dbClient.DB())

	subscriptionParams := subscriptions.ServiceParams{
		BillingRepo:       billingRepo,
		CompanyRepo:       companyRepo,
		Memberships:       membershipsRepo,
		TransactionRunner: dbClient,
		Billing:           cfg.Billing,
		FrontendBaseURL:   cfg.App.FrontendBaseURL,
		Logger:            logg,
		Metrics:           paymentMetrics,
	}
	if gateway != nil {
		subscriptionParams.Gateway = gateway
	}
	subscriptionService, err := subscriptions.NewService(subscriptionParams)
	if err != nil {
		logg.Error(context.Background(), "failed to create subscription service", err)
		os.Exit(1)
	}

	webhookService, err := paystackwebhook.NewService(paystackwebhook.ServiceParams{
		BillingRepo:       billingRepo,
		CompanyRepo:       companyRepo,
		TransactionRunner: dbClient,
		Guard:             redisClient,
		GuardTTL:          cfg.Webhooks.IdempotencyTTL,
		Logger:            logg,
		Metrics:           paymentMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, subscriptionService, webhookService, promRegistry),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var closeErr error
		closeErr = multierr.Append(closeErr, server.Shutdown(shutdownCtx))
		closeErr = multierr.Append(closeErr, redisClient.Close())
		closeErr = multierr.Append(closeErr, dbClient.Close())
		if closeErr != nil {
			logg.Error(ctx, "shutdown finished with errors", closeErr)
			os.Exit(1)
		}
		logg.Info(ctx, "shutdown complete")
	}
}
