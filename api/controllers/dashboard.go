package controllers

import (
	"net/http"

	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/api/responses"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/internal/analytics"
	pkgerrors "github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/errors"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/logger"
)

// Dashboard returns the shop's notification activity summary.
func Dashboard(svc analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "analytics service unavailable"))
			return
		}

		shop := shopFromRequest(r)
		if shop == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "shop domain header missing"))
			return
		}

		dash, err := svc.Dashboard(ctx, shop)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dash)
	}
}
