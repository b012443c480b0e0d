package controllers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/api/responses"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/internal/shopify"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/db/models"
	pkgerrors "github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/errors"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/logger"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/whatsapp"
)

type settingsReader interface {
	GetByShop(ctx context.Context, shop string) (*models.ShopSettings, error)
}

type testTemplateSender interface {
	SendWhatsAppTemplate(ctx context.Context, shop, phone string, ttype whatsapp.TemplateType, vars whatsapp.TemplateVars) (*whatsapp.SendResult, error)
}

// TestWhatsAppSend verifies the shop's WhatsApp credentials by sending the
// welcome template to a merchant-supplied number.
func TestWhatsAppSend(reader settingsReader, sender testTemplateSender, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		shop := shopFromRequest(r)
		if shop == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "shop domain header missing"))
			return
		}

		var input struct {
			Phone string `json:"phone"`
		}
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body"))
			return
		}
		if input.Phone == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "phone is required"))
			return
		}

		row, err := reader.GetByShop(ctx, shop)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeConfiguration, err, "whatsapp settings not found"))
			return
		}
		if row.PhoneID == "" || row.AccessToken == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeConfiguration, "whatsapp credentials are not configured"))
			return
		}

		result, err := sender.SendWhatsAppTemplate(ctx, shop, shopify.FormatPhone(input.Phone), whatsapp.TemplateWelcome, whatsapp.TemplateVars{
			FirstName: "there",
			OrderID:   "https://" + shop,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{
			"status":    "sent",
			"messageId": result.MessageID,
		})
	}
}
