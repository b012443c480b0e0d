package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/api/routes"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/internal/abandonment"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/internal/analytics"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/internal/automations"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/internal/carts"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/internal/cron"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/internal/notify"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/internal/settings"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/internal/shopify"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/config"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/db"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/email"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/logger"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/metrics"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/migrate"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/redis"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/sms"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/whatsapp"
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

	settingsRepo := settings.NewRepository(dbClient.DB())
	cartsRepo := carts.NewRepository(dbClient.DB())
	automationsRepo := automations.NewRepository(dbClient.DB())
	analyticsRepo := analytics.NewRepository(dbClient.DB())

	settingsService, err := settings.NewService(settingsRepo)
	requireService(logg, "settings service", err)

	cartsService, err := carts.NewService(cartsRepo)
	requireService(logg, "carts service", err)

	notifyService, err := notify.NewService(notify.ServiceParams{
		Settings: settingsRepo,
		WhatsApp: whatsapp.NewClient(),
		Email:    email.NewSender(),
		SMS:      sms.NewClient(),
	})
	requireService(logg, "notify service", err)

	automationsService, err := automations.NewService(automations.ServiceParams{
		Repo:   automationsRepo,
		Sender: notifyService,
		Logger: logg,
	})
	requireService(logg, "automations service", err)

	analyticsService, err := analytics.NewService(analytics.ServiceParams{
		Repo:     analyticsRepo,
		Recent:   automationsRepo,
		Settings: settingsRepo,
	})
	requireService(logg, "analytics service", err)

	webhookService, err := shopify.NewService(shopify.ServiceParams{
		Carts:           cartsService,
		CartLedger:      cartsRepo,
		Automations:     automationsService,
		AutomationsRepo: automationsRepo,
		Settings:        settingsRepo,
		Sender:          notifyService,
		Logger:          logg,
	})
	requireService(logg, "webhook service", err)

	webhookGuard, err := shopify.NewIdempotencyGuard(redisClient, cfg.Shopify.WebhookDedupTTL, "shopify-webhook")
	requireService(logg, "webhook guard", err)

	sweepJob, err := abandonment.NewJob(abandonment.JobParams{
		Logger:     logg,
		Settings:   settingsRepo,
		Carts:      cartsRepo,
		Executions: automationsRepo,
		Sender:     notifyService,
	})
	requireService(logg, "abandoned-cart job", err)

	sweepLock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(sweepJob.Name()), cfg.Sweep.LockTTL)
	requireService(logg, "sweep lock", err)

	cronService, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(sweepJob),
		Lock:     sweepLock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Sweep.Interval,
	})
	requireService(logg, "cron service", err)

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
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			settingsService,
			settingsRepo,
			automationsService,
			automationsRepo,
			analyticsService,
			notifyService,
			webhookService,
			webhookGuard,
			cronService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func requireService(logg *logger.Logger, name string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), "failed to create "+name, err)
	os.Exit(1)
}
