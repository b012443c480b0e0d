package controllers

import (
	"context"
	"net/http"

	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/api/responses"
	pkgerrors "github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/errors"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/logger"
)

type cronRunner interface {
	RunCycle(ctx context.Context) error
}

// RunAbandonedCarts lets an external scheduler trigger the sweep over HTTP.
// The cycle runs behind the same Redis lock as the worker's ticker, so a
// concurrent worker pass makes this a no-op.
func RunAbandonedCarts(runner cronRunner, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if runner == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cron service unavailable"))
			return
		}

		if err := runner.RunCycle(ctx); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "abandoned cart sweep failed"))
			return
		}

		responses.WriteSuccess(w, map[string]string{"message": "Abandoned carts processed"})
	}
}
