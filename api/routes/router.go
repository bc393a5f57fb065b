package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shuddy05/compliancehub-backendd/api/controllers"
	subscriptioncontrollers "github.com/shuddy05/compliancehub-backendd/api/controllers/subscriptions"
	webhookcontrollers "github.com/shuddy05/compliancehub-backendd/api/controllers/webhooks"
	"github.com/shuddy05/compliancehub-backendd/api/middleware"
	subscriptionsvc "github.com/shuddy05/compliancehub-backendd/internal/subscriptions"
	"github.com/shuddy05/compliancehub-backendd/pkg/config"
	"github.com/shuddy05/compliancehub-backendd/pkg/db"
	"github.com/shuddy05/compliancehub-backendd/pkg/logger"
	pkgredis "github.com/shuddy05/compliancehub-backendd/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *pkgredis.Client,
	subscriptionsService subscriptionsvc.Service,
	webhookService webhookcontrollers.PaystackWebhookService,
	promRegistry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.FrontendBaseURL),
	)

	var redisP pkgredis.Pinger
	var idempotencyStore pkgredis.IdempotencyStore
	if redisClient != nil {
		redisP = redisClient
		idempotencyStore = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if promRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))
	}

	// public surface: the plan catalog, the gateway webhook, and the
	// reference-keyed status poll used by the payment-success redirect page
	r.Get("/api/v1/subscriptions/plans", subscriptioncontrollers.PlanCatalog(subscriptionsService, logg))
	r.Post("/api/v1/subscriptions/webhook", webhookcontrollers.PaystackWebhook(webhookService, cfg.Paystack.SecretKey, logg))
	r.Get("/api/v1/subscriptions/status", subscriptioncontrollers.PaymentStatus(subscriptionsService, logg))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Post("/api/v1/subscriptions", subscriptioncontrollers.Create(subscriptionsService, logg))
		r.Post("/api/v1/subscriptions/initiate-payment", subscriptioncontrollers.InitiatePayment(subscriptionsService, logg))
		r.Post("/api/v1/subscriptions/cancel", subscriptioncontrollers.Cancel(subscriptionsService, logg))
		r.Post("/api/v1/subscriptions/downgrade", subscriptioncontrollers.Downgrade(subscriptionsService, logg))
		r.Post("/api/v1/subscriptions/upgrade", subscriptioncontrollers.Upgrade(subscriptionsService, logg))
		r.Get("/api/v1/subscriptions/current", subscriptioncontrollers.Current(subscriptionsService, logg))
		r.Get("/api/v1/subscriptions/history", subscriptioncontrollers.History(subscriptionsService, logg))
		r.Get("/api/v1/subscriptions/billing", subscriptioncontrollers.BillingInfo(subscriptionsService, logg))
		r.Get("/api/v1/subscriptions/usage", subscriptioncontrollers.Usage(subscriptionsService, logg))
	})

	return r
}
