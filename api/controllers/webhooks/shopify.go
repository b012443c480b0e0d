package webhooks

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/api/responses"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/internal/shopify"
	pkgerrors "github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/errors"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/logger"
)

const (
	topicHeader     = "X-Shopify-Topic"
	shopHeader      = "X-Shopify-Shop-Domain"
	signatureHeader = "X-Shopify-Hmac-Sha256"
	webhookIDHeader = "X-Shopify-Webhook-Id"
)

type shopifyWebhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

type secretProvider interface {
	WebhookSecret() string
}

// ShopifyWebhook verifies, deduplicates and routes Shopify webhook
// deliveries. The guard key is released on handler failure so Shopify's
// redelivery can retry the event.
func ShopifyWebhook(svc shopify.Service, secrets secretProvider, guard shopifyWebhookGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		if secrets == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook secret unavailable"))
			return
		}
		if guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard unavailable"))
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		if !shopify.VerifyWebhookSignature(secrets.WebhookSecret(), body, r.Header.Get(signatureHeader)) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "webhook signature invalid"))
			return
		}

		topic := r.Header.Get(topicHeader)
		shop := r.Header.Get(shopHeader)
		if topic == "" || shop == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "webhook topic or shop header missing"))
			return
		}

		eventID := ""
		if webhookID := r.Header.Get(webhookIDHeader); webhookID != "" {
			eventID = topic + ":" + webhookID
			alreadyProcessed, err := guard.CheckAndMark(ctx, eventID)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
				return
			}
			if alreadyProcessed {
				responses.WriteSuccess(w, nil)
				return
			}
		}

		if err := svc.HandleWebhook(ctx, topic, shop, body); err != nil {
			if eventID != "" {
				_ = guard.Delete(ctx, eventID)
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(ctx, fmt.Sprintf("shopify webhook %s processed", topic))
		}
		responses.WriteSuccess(w, nil)
	}
}
