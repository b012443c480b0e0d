package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/api/controllers"
	webhookcontrollers "github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/api/controllers/webhooks"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/api/middleware"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/internal/analytics"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/internal/automations"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/internal/cron"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/internal/notify"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/internal/settings"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/internal/shopify"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/config"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/db"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/logger"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	settingsService settings.Service,
	settingsRepo settings.Repository,
	automationsService automations.Service,
	automationsRepo automations.Repository,
	analyticsService analytics.Service,
	notifyService notify.Service,
	webhookService shopify.Service,
	webhookGuard *shopify.IdempotencyGuard,
	cronService *cron.Service,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/shopify", webhookcontrollers.ShopifyWebhook(webhookService, cfg.Shopify, webhookGuard, logg))
	})

	r.Route("/api/v1/settings", func(r chi.Router) {
		r.Get("/whatsapp", controllers.GetWhatsAppSettings(settingsService, logg))
		r.Put("/whatsapp", controllers.UpdateWhatsAppSettings(settingsService, logg))
		r.Get("/cart-abandonment", controllers.GetCartAbandonmentSettings(settingsService, logg))
		r.Put("/cart-abandonment", controllers.UpdateCartAbandonmentSettings(settingsService, logg))
		r.Get("/email", controllers.GetEmailSettings(settingsService, logg))
		r.Put("/email", controllers.UpdateEmailSettings(settingsService, logg))
	})

	r.Route("/api/v1/automations", func(r chi.Router) {
		r.Get("/", controllers.ListAutomations(automationsService, automationsRepo, logg))
		r.Post("/", controllers.CreateAutomation(automationsService, logg))
		r.Patch("/{automationID}", controllers.SetAutomationActive(automationsService, logg))
	})

	r.Get("/api/v1/templates", controllers.ListTemplateLibrary())
	r.Get("/api/v1/dashboard", controllers.Dashboard(analyticsService, logg))
	r.Post("/api/v1/test/whatsapp", controllers.TestWhatsAppSend(settingsRepo, notifyService, logg))
	r.Post("/api/v1/cron/abandoned-carts", controllers.RunAbandonedCarts(cronService, logg))

	return r
}
