package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/humidityzone-backend/internal/cron"
	"github.com/angelmondragon/humidityzone-backend/internal/fulfillment"
	"github.com/angelmondragon/humidityzone-backend/internal/orders"
	"github.com/angelmondragon/humidityzone-backend/pkg/config"
	"github.com/angelmondragon/humidityzone-backend/pkg/db"
	"github.com/angelmondragon/humidityzone-backend/pkg/env"
	"github.com/angelmondragon/humidityzone-backend/pkg/instance"
	"github.com/angelmondragon/humidityzone-backend/pkg/logger"
	"github.com/angelmondragon/humidityzone-backend/pkg/metrics"
	"github.com/angelmondragon/humidityzone-backend/pkg/migrate"
	"github.com/angelmondragon/humidityzone-backend/pkg/redis"
	"github.com/angelmondragon/humidityzone-backend/pkg/shopify"
)

func main() {
	once := flag.Bool("once", false, "run one cycle and exit (for platform schedulers)")
	jobName := flag.String("job", "", "with -once, run only the named job")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if !cfg.Shopify.Configured() {
		logg.Error(context.Background(), "cron worker needs shopify credentials", errors.New("shopify not configured"))
		os.Exit(1)
	}

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

	shopifyClient, err := shopify.NewClient(cfg.Shopify.APIBase, cfg.Shopify.AccessToken, shopify.WithTimeout(cfg.Shopify.RequestTimeout))
	if err != nil {
		logg.Error(context.Background(), "failed to create shopify client", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	ipnMetrics := metrics.NewIPNMetrics(prometheus.DefaultRegisterer)
	publisher := fulfillment.NewPublisher(shopifyClient, ipnMetrics, logg)

	// The job lock is shared with the admin sync route so the two never overlap.
	jobLock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("fulfillment-sync"), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create sync lock", err)
		os.Exit(1)
	}
	syncJob, err := cron.NewFulfillmentSyncJob(cron.FulfillmentSyncJobParams{
		Logger:    logg,
		Store:     orders.NewRepository(dbClient.DB()),
		Publisher: publisher,
		Lock:      jobLock,
		Grace:     cfg.Cron.SyncGrace,
		BatchSize: cfg.Cron.SyncBatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create fulfillment sync job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron-worker:"+cfg.App.Env), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry()
	if err := registry.Register(syncJob); err != nil {
		logg.Error(context.Background(), "failed to register job", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:     logg,
		Registry:   registry,
		Lock:       lock,
		Metrics:    metricsCollector,
		Interval:   cfg.Cron.Interval,
		JobTimeout: cfg.Cron.JobTimeout,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.GetID(),
		"interval":    cfg.Cron.Interval.String(),
	})

	if *once {
		var names []string
		if *jobName != "" {
			names = append(names, *jobName)
		}
		if err := service.RunOnce(ctx, names...); err != nil {
			logg.Error(ctx, "cron run failed", err)
			os.Exit(1)
		}
		logg.Info(ctx, "cron run complete")
		return
	}

	metricsServer := startMetricsServer(ctx, logg, env.Get("PORT", cfg.App.Port))
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func startMetricsServer(ctx context.Context, logg *logger.Logger, port string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: ":" + port, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "metrics server stopped", err)
		}
	}()
	return server
}
