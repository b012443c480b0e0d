package notify

import (
	"context"
	"strings"

	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/internal/automations"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/internal/settings"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/db/models"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/email"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/enums"
	pkgerrors "github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/errors"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/sms"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/whatsapp"
)

const defaultGraphBaseURL = "https://graph.facebook.com/v18.0/"

// WhatsAppSender is the templated-message slice of the WhatsApp client.
type WhatsAppSender interface {
	SendTemplate(ctx context.Context, cfg whatsapp.Config, to string, ttype whatsapp.TemplateType, vars whatsapp.TemplateVars) (*whatsapp.SendResult, error)
	SendText(ctx context.Context, cfg whatsapp.Config, to, body string) (*whatsapp.SendResult, error)
}

// EmailSender delivers plain-text mail.
type EmailSender interface {
	Send(ctx context.Context, cfg email.Config, to, subject, body string) error
}

// SMSSender delivers plain-text SMS.
type SMSSender interface {
	Send(ctx context.Context, cfg sms.Config, to, body string) (*sms.SendResult, error)
}

// Service resolves a shop's stored credentials and routes a message to the
// right channel client. It is the single outbound path for every component.
type Service interface {
	automations.Sender
	SendWhatsAppTemplate(ctx context.Context, shop, phone string, ttype whatsapp.TemplateType, vars whatsapp.TemplateVars) (*whatsapp.SendResult, error)
}

type service struct {
	settings settings.Repository
	wa       WhatsAppSender
	mail     EmailSender
	texts    SMSSender
}

// ServiceParams wires the notify service dependencies.
type ServiceParams struct {
	Settings settings.Repository
	WhatsApp WhatsAppSender
	Email    EmailSender
	SMS      SMSSender
}

// NewService validates dependencies and builds the notify service.
func NewService(params ServiceParams) (Service, error) {
	if params.Settings == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "settings repository required")
	}
	if params.WhatsApp == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "whatsapp client required")
	}
	if params.Email == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "email sender required")
	}
	if params.SMS == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "sms client required")
	}
	return &service{
		settings: params.Settings,
		wa:       params.WhatsApp,
		mail:     params.Email,
		texts:    params.SMS,
	}, nil
}

// Send routes a rendered message over the requested channel using the shop's
// stored credentials.
func (s *service) Send(ctx context.Context, shop string, channel enums.Channel, msg automations.OutboundMessage) error {
	row, err := s.settings.GetByShop(ctx, shop)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeConfiguration, err, "shop settings not found")
	}

	switch channel {
	case enums.ChannelWhatsApp:
		if msg.ToPhone == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "no phone number for whatsapp message")
		}
		_, err := s.wa.SendText(ctx, whatsappConfig(row, ""), msg.ToPhone, msg.Body)
		return err
	case enums.ChannelEmail:
		if msg.ToEmail == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "no address for email message")
		}
		return s.mail.Send(ctx, email.Config{
			Host:     row.SMTPHost,
			Port:     row.SMTPPort,
			User:     row.SMTPUser,
			Password: row.SMTPPassword,
			From:     row.FromEmail,
		}, msg.ToEmail, msg.Subject, msg.Body)
	case enums.ChannelSMS:
		if msg.ToPhone == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "no phone number for sms message")
		}
		_, err := s.texts.Send(ctx, sms.Config{
			AccountSID: row.SMSAccountSID,
			AuthToken:  row.SMSAuthToken,
			From:       row.SMSFromNumber,
		}, msg.ToPhone, msg.Body)
		return err
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown channel")
	}
}

// SendWhatsAppTemplate dispatches a templated message, picking the template
// name configured for the given type.
func (s *service) SendWhatsAppTemplate(ctx context.Context, shop, phone string, ttype whatsapp.TemplateType, vars whatsapp.TemplateVars) (*whatsapp.SendResult, error) {
	row, err := s.settings.GetByShop(ctx, shop)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeConfiguration, err, "shop settings not found")
	}
	name := templateNameFor(row, ttype)
	return s.wa.SendTemplate(ctx, whatsappConfig(row, name), phone, ttype, vars)
}

func whatsappConfig(row *models.ShopSettings, templateName string) whatsapp.Config {
	base := row.FacebookURL
	if base == "" {
		base = defaultGraphBaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return whatsapp.Config{
		BaseURL:      base,
		PhoneID:      row.PhoneID,
		AccessToken:  row.AccessToken,
		TemplateName: templateName,
		Language:     row.TemplateLanguage,
	}
}

func templateNameFor(row *models.ShopSettings, ttype whatsapp.TemplateType) string {
	switch ttype {
	case whatsapp.TemplateOrder:
		return row.OrderTemplateName
	case whatsapp.TemplateFulfillment:
		return row.FulfillmentTemplateName
	case whatsapp.TemplateAbandonedCart:
		return row.AbandonedTemplateName
	case whatsapp.TemplateWelcome:
		return row.WelcomeTemplateName
	default:
		return ""
	}
}
