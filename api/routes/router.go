package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clipforge/quota-service/api/controllers"
	"github.com/clipforge/quota-service/api/middleware"
	"github.com/clipforge/quota-service/internal/accounts"
	"github.com/clipforge/quota-service/internal/ledger"
	"github.com/clipforge/quota-service/internal/quota"
	"github.com/clipforge/quota-service/pkg/config"
	"github.com/clipforge/quota-service/pkg/db"
	"github.com/clipforge/quota-service/pkg/logger"
	pkgredis "github.com/clipforge/quota-service/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *pkgredis.Client,
	accountsService accounts.Service,
	quotaService quota.Service,
	ledgerService ledger.Service,
	promRegistry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if promRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/accounts", controllers.EnsureAccount(accountsService, logg))

		r.Route("/accounts/{accountId}", func(r chi.Router) {
			r.Use(middleware.AccountContext(logg))

			r.Get("/", controllers.GetAccount(accountsService, logg))
			r.Get("/quota", controllers.QuotaCheck(quotaService, logg))
			r.Get("/ledger", controllers.LedgerList(ledgerService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.ChargeRateLimit(redisClient, cfg.RateLimit.ChargeLimit, cfg.RateLimit.ChargeWindow, logg))
				r.Use(middleware.Idempotency(redisClient, logg))
				r.Post("/charges", controllers.Charge(quotaService, logg))
			})
		})
	})

	return r
}
