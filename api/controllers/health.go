package controllers

import (
	"net/http"

	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/api/responses"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/config"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/db"
	pkgerrors "github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/errors"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/logger"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-WaNotify-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		w.Header().Set("X-WaNotify-Env", cfg.App.Env)

		if dbP != nil {
			if err := dbP.Ping(ctx); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unreachable"))
				return
			}
		}
		if redisP != nil {
			if err := redisP.Ping(ctx); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unreachable"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
