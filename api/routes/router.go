package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/humidityzone-backend/api/controllers"
	ordercontrollers "github.com/angelmondragon/humidityzone-backend/api/controllers/orders"
	paymentcontrollers "github.com/angelmondragon/humidityzone-backend/api/controllers/payments"
	"github.com/angelmondragon/humidityzone-backend/api/controllers/storefront"
	webhookcontrollers "github.com/angelmondragon/humidityzone-backend/api/controllers/webhooks"
	"github.com/angelmondragon/humidityzone-backend/api/middleware"
	"github.com/angelmondragon/humidityzone-backend/internal/orders"
	"github.com/angelmondragon/humidityzone-backend/pkg/auth/session"
	"github.com/angelmondragon/humidityzone-backend/pkg/config"
	"github.com/angelmondragon/humidityzone-backend/pkg/enums"
	"github.com/angelmondragon/humidityzone-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/humidityzone-backend/pkg/redis"
)

// RedisStore backs both the idempotency cache and the rate limiter.
type RedisStore interface {
	pkgredis.IdempotencyStore
	IncrWindow(ctx context.Context, scope string, window time.Duration) (int64, error)
}

// Dependencies carries every service the HTTP surface is wired to. Nil
// services produce 500s from their handlers rather than missing routes.
type Dependencies struct {
	DB    controllers.Pinger
	Redis RedisStore
	// RedisPinger is checked by the readiness probe.
	RedisPinger controllers.Pinger

	Sessions session.AccessSessionChecker
	Gatherer prometheus.Gatherer

	IPN          webhookcontrollers.NotificationService
	Orders       orders.Service
	OrdersReader ordercontrollers.Reader
	Sync         ordercontrollers.Syncer
	Catalog      storefront.Catalog
	Tracking     storefront.Tracker
	Discounts    storefront.CouponApplier
	CoinPayments paymentcontrollers.TransactionCreator
	PayPal       paymentcontrollers.PaymentCreator
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	checkoutPolicy := middleware.NewRateLimitPolicy(
		"checkout",
		cfg.RateLimit.PublicWindow,
		cfg.RateLimit.PublicIPLimit,
		cfg.RateLimit.PublicEmailLimit,
	)
	trackPolicy := middleware.NewRateLimitPolicy(
		"track",
		cfg.RateLimit.PublicWindow,
		cfg.RateLimit.PublicIPLimit,
		0,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    deps.DB,
			"redis": deps.RedisPinger,
		}))
	})

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	// The IPN body must reach the handler untouched for signature checks.
	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/coinpayments", webhookcontrollers.CoinPaymentsIPN(deps.IPN, cfg.CoinPayments.IPNSecret, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Get("/products", storefront.Products(deps.Catalog, logg))
		r.Get("/products/featured", storefront.FeaturedProducts(deps.Catalog, logg))
		r.Get("/products/{productId}", storefront.Product(deps.Catalog, logg))
		r.Post("/discounts/apply", storefront.ApplyDiscount(deps.Discounts, logg))
		r.With(middleware.RateLimit(trackPolicy, deps.Redis, logg)).Get("/track", storefront.Track(deps.Tracking, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(checkoutPolicy, deps.Redis, logg))
			r.Post("/orders", ordercontrollers.Create(deps.Orders, logg))
			r.Post("/payments/coinpayments", paymentcontrollers.CoinPayments(deps.CoinPayments, logg))
			r.Post("/payments/paypal", paymentcontrollers.PayPal(deps.PayPal, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(middleware.RequireRole(logg, enums.OperatorRoleAdmin, enums.OperatorRoleViewer))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordercontrollers.List(deps.OrdersReader, logg))
			r.Get("/export", ordercontrollers.Export(deps.OrdersReader, logg))
			r.Post("/export", ordercontrollers.Export(deps.OrdersReader, logg))
			r.With(middleware.RequireRole(logg, enums.OperatorRoleAdmin)).Post("/sync", ordercontrollers.Sync(deps.Sync, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(deps.OrdersReader, logg))
		})
	})

	return r
}
