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
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/humidityzone-backend/api/routes"
	"github.com/angelmondragon/humidityzone-backend/internal/catalog"
	"github.com/angelmondragon/humidityzone-backend/internal/cron"
	"github.com/angelmondragon/humidityzone-backend/internal/discounts"
	"github.com/angelmondragon/humidityzone-backend/internal/fulfillment"
	"github.com/angelmondragon/humidityzone-backend/internal/ipn"
	"github.com/angelmondragon/humidityzone-backend/internal/notifications"
	"github.com/angelmondragon/humidityzone-backend/internal/orders"
	"github.com/angelmondragon/humidityzone-backend/internal/tracking"
	"github.com/angelmondragon/humidityzone-backend/pkg/auth/session"
	"github.com/angelmondragon/humidityzone-backend/pkg/coinpayments"
	"github.com/angelmondragon/humidityzone-backend/pkg/config"
	"github.com/angelmondragon/humidityzone-backend/pkg/db"
	"github.com/angelmondragon/humidityzone-backend/pkg/env"
	"github.com/angelmondragon/humidityzone-backend/pkg/instance"
	"github.com/angelmondragon/humidityzone-backend/pkg/logger"
	"github.com/angelmondragon/humidityzone-backend/pkg/metrics"
	"github.com/angelmondragon/humidityzone-backend/pkg/migrate"
	"github.com/angelmondragon/humidityzone-backend/pkg/paypal"
	"github.com/angelmondragon/humidityzone-backend/pkg/redis"
	"github.com/angelmondragon/humidityzone-backend/pkg/shopify"
)

const shutdownTimeout = 10 * time.Second

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

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
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

	ipnMetrics := metrics.NewIPNMetrics(prometheus.DefaultRegisterer)
	ordersRepo := orders.NewRepository(dbClient.DB())
	ordersService, err := orders.NewService(ordersRepo, dbClient)
	exitOnErr(logg, "failed to create orders service", err)
	sessionManager, err := session.NewManager(redisClient)
	exitOnErr(logg, "failed to create session manager", err)

	deps := routes.Dependencies{
		DB:           dbClient,
		Redis:        redisClient,
		RedisPinger:  redisClient,
		Sessions:     sessionManager,
		Gatherer:     prometheus.DefaultGatherer,
		Orders:       ordersService,
		OrdersReader: ordersRepo,
		CoinPayments: newCoinPaymentsClient(cfg.CoinPayments, logg),
		PayPal:       newPayPalClient(cfg.PayPal, logg),
	}

	shopifyClient := newShopifyClient(cfg.Shopify, logg)
	var orderCreator fulfillment.OrderCreator
	if shopifyClient != nil {
		orderCreator = shopifyClient
	}
	publisher := fulfillment.NewPublisher(orderCreator, ipnMetrics, logg)

	notifier, err := notifications.NewNotifier(notifications.NewMailer(cfg.Sendgrid, logg), logg)
	exitOnErr(logg, "failed to create notifier", err)

	ipnService, err := ipn.NewService(ordersRepo, publisher, notifier, ipnMetrics, logg)
	exitOnErr(logg, "failed to create ipn service", err)
	deps.IPN = ipnService

	syncLock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("fulfillment-sync"), cfg.Cron.LockTTL)
	exitOnErr(logg, "failed to create sync lock", err)
	syncJob, err := cron.NewFulfillmentSyncJob(cron.FulfillmentSyncJobParams{
		Logger:    logg,
		Store:     ordersRepo,
		Publisher: publisher,
		Lock:      syncLock,
		Grace:     cfg.Cron.SyncGrace,
		BatchSize: cfg.Cron.SyncBatchSize,
	})
	exitOnErr(logg, "failed to create fulfillment sync job", err)
	deps.Sync = syncJob

	discountService, err := discounts.NewService(cfg.Discounts.Codes)
	exitOnErr(logg, "failed to parse discount codes", err)
	deps.Discounts = discountService

	if shopifyClient != nil {
		catalogService, err := catalog.NewService(shopifyClient, redisClient, cfg.Catalog, logg)
		exitOnErr(logg, "failed to create catalog service", err)
		deps.Catalog = catalogService

		trackingService, err := tracking.NewService(ordersRepo, shopifyClient)
		exitOnErr(logg, "failed to create tracking service", err)
		deps.Tracking = trackingService
	}

	addr := ":" + env.Get("PORT", cfg.App.Port)
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(sigCtx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server shut down gracefully")
}

func exitOnErr(logg *logger.Logger, msg string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), msg, err)
	os.Exit(1)
}

// newShopifyClient returns nil when credentials are absent; fulfillment then
// reports a configuration error and catalog routes answer 500.
func newShopifyClient(cfg config.ShopifyConfig, logg *logger.Logger) *shopify.Client {
	if !cfg.Configured() {
		logg.Warn(context.Background(), "shopify not configured; fulfillment and catalog disabled")
		return nil
	}
	client, err := shopify.NewClient(cfg.APIBase, cfg.AccessToken, shopify.WithTimeout(cfg.RequestTimeout))
	exitOnErr(logg, "failed to create shopify client", err)
	return client
}

// Payment clients tolerate a nil receiver and answer 503.
func newCoinPaymentsClient(cfg config.CoinPaymentsConfig, logg *logger.Logger) *coinpayments.Client {
	client, err := coinpayments.NewClient(cfg.PublicKey, cfg.PrivateKey,
		coinpayments.WithAPIURL(cfg.APIURL),
		coinpayments.WithIPNURL(cfg.IPNURL),
		coinpayments.WithCurrencies(cfg.Currency1, cfg.Currency2),
	)
	if err != nil {
		logg.WarnErr(context.Background(), "coinpayments checkout disabled", err)
		return nil
	}
	return client
}

func newPayPalClient(cfg config.PayPalConfig, logg *logger.Logger) *paypal.Client {
	client, err := paypal.NewClient(cfg.ClientID, cfg.Secret,
		paypal.WithAPIBase(cfg.APIBase),
		paypal.WithRedirectURLs(cfg.ReturnURL, cfg.CancelURL),
	)
	if err != nil {
		logg.WarnErr(context.Background(), "paypal checkout disabled", err)
		return nil
	}
	return client
}
