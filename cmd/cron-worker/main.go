package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/internal/abandonment"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/internal/automations"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/internal/carts"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/internal/cron"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/internal/notify"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/internal/settings"
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

	notifyService, err := notify.NewService(notify.ServiceParams{
		Settings: settingsRepo,
		WhatsApp: whatsapp.NewClient(),
		Email:    email.NewSender(),
		SMS:      sms.NewClient(),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notify service", err)
		os.Exit(1)
	}

	sweepJob, err := abandonment.NewJob(abandonment.JobParams{
		Logger:     logg,
		Settings:   settingsRepo,
		Carts:      cartsRepo,
		Executions: automationsRepo,
		Sender:     notifyService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create abandoned-cart job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(sweepJob.Name()), cfg.Sweep.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(sweepJob),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Sweep.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}
