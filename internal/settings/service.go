package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/db/models"
	pkgerrors "github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/errors"
)

var validate = validator.New()

// Service exposes the settings-form operations. Forms are the only writers of
// shop settings; the sweep and the senders read fresh rows each time.
type Service interface {
	GetWhatsApp(ctx context.Context, shop string) (*WhatsAppSettingsDTO, error)
	UpdateWhatsApp(ctx context.Context, shop string, input WhatsAppSettingsInput) (*WhatsAppSettingsDTO, error)
	GetCartAbandonment(ctx context.Context, shop string) (*CartAbandonmentSettingsDTO, error)
	UpdateCartAbandonment(ctx context.Context, shop string, input CartAbandonmentSettingsInput) (*CartAbandonmentSettingsDTO, error)
	GetEmail(ctx context.Context, shop string) (*EmailSettingsDTO, error)
	UpdateEmail(ctx context.Context, shop string, input EmailSettingsInput) (*EmailSettingsDTO, error)
}

type service struct {
	repo Repository
}

// NewService builds a settings service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	return &service{repo: repo}, nil
}

type WhatsAppSettingsDTO struct {
	FacebookURL             string `json:"facebookUrl"`
	PhoneID                 string `json:"phoneId"`
	AccessToken             string `json:"accessToken"`
	OrderTemplateName       string `json:"orderTemplateName"`
	FulfillmentTemplateName string `json:"fulfillmentTemplateName"`
	AbandonedTemplateName   string `json:"abandonedTemplateName"`
	WelcomeTemplateName     string `json:"welcomeTemplateName"`
	TemplateLanguage        string `json:"templateLanguage"`
}

type WhatsAppSettingsInput struct {
	FacebookURL             string `json:"facebookUrl" validate:"omitempty,url"`
	PhoneID                 string `json:"phoneId"`
	AccessToken             string `json:"accessToken"`
	OrderTemplateName       string `json:"orderTemplateName"`
	FulfillmentTemplateName string `json:"fulfillmentTemplateName"`
	AbandonedTemplateName   string `json:"abandonedTemplateName"`
	WelcomeTemplateName     string `json:"welcomeTemplateName"`
	TemplateLanguage        string `json:"templateLanguage"`
}

type CartAbandonmentSettingsDTO struct {
	EnableAbandonmentReminders bool `json:"enableAbandonmentReminders"`
	AbandonmentDelayHours      int  `json:"abandonmentDelayHours"`
	MaxReminders               int  `json:"maxReminders"`
	ReminderIntervalHours      int  `json:"reminderIntervalHours"`
}

type CartAbandonmentSettingsInput struct {
	EnableAbandonmentReminders bool `json:"enableAbandonmentReminders"`
	AbandonmentDelayHours      int  `json:"abandonmentDelayHours" validate:"min=1,max=168"`
	MaxReminders               int  `json:"maxReminders" validate:"min=1,max=10"`
	ReminderIntervalHours      int  `json:"reminderIntervalHours" validate:"min=1,max=720"`
}

type EmailSettingsDTO struct {
	SMTPHost  string `json:"smtpHost"`
	SMTPPort  int    `json:"smtpPort"`
	SMTPUser  string `json:"smtpUser"`
	FromEmail string `json:"fromEmail"`
}

type EmailSettingsInput struct {
	SMTPHost     string `json:"smtpHost"`
	SMTPPort     int    `json:"smtpPort" validate:"omitempty,min=1,max=65535"`
	SMTPUser     string `json:"smtpUser"`
	SMTPPassword string `json:"smtpPassword"`
	FromEmail    string `json:"fromEmail" validate:"omitempty,email"`
}

func (s *service) GetWhatsApp(ctx context.Context, shop string) (*WhatsAppSettingsDTO, error) {
	row, err := s.loadOrEmpty(ctx, shop)
	if err != nil {
		return nil, err
	}
	return &WhatsAppSettingsDTO{
		FacebookURL:             row.FacebookURL,
		PhoneID:                 row.PhoneID,
		AccessToken:             row.AccessToken,
		OrderTemplateName:       row.OrderTemplateName,
		FulfillmentTemplateName: row.FulfillmentTemplateName,
		AbandonedTemplateName:   row.AbandonedTemplateName,
		WelcomeTemplateName:     row.WelcomeTemplateName,
		TemplateLanguage:        row.TemplateLanguage,
	}, nil
}

func (s *service) UpdateWhatsApp(ctx context.Context, shop string, input WhatsAppSettingsInput) (*WhatsAppSettingsDTO, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	row, err := s.loadOrEmpty(ctx, shop)
	if err != nil {
		return nil, err
	}
	row.FacebookURL = input.FacebookURL
	row.PhoneID = input.PhoneID
	row.AccessToken = input.AccessToken
	row.OrderTemplateName = input.OrderTemplateName
	row.FulfillmentTemplateName = input.FulfillmentTemplateName
	row.AbandonedTemplateName = input.AbandonedTemplateName
	row.WelcomeTemplateName = input.WelcomeTemplateName
	if input.TemplateLanguage != "" {
		row.TemplateLanguage = input.TemplateLanguage
	}
	if err := s.repo.Upsert(ctx, row); err != nil {
		return nil, err
	}
	return s.GetWhatsApp(ctx, shop)
}

func (s *service) GetCartAbandonment(ctx context.Context, shop string) (*CartAbandonmentSettingsDTO, error) {
	row, err := s.loadOrEmpty(ctx, shop)
	if err != nil {
		return nil, err
	}
	policy := ResolvePolicy(*row)
	return &CartAbandonmentSettingsDTO{
		EnableAbandonmentReminders: row.EnableAbandonmentReminders,
		AbandonmentDelayHours:      policy.DelayHours,
		MaxReminders:               policy.MaxReminders,
		ReminderIntervalHours:      policy.IntervalHours,
	}, nil
}

func (s *service) UpdateCartAbandonment(ctx context.Context, shop string, input CartAbandonmentSettingsInput) (*CartAbandonmentSettingsDTO, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	row, err := s.loadOrEmpty(ctx, shop)
	if err != nil {
		return nil, err
	}
	row.EnableAbandonmentReminders = input.EnableAbandonmentReminders
	row.AbandonmentDelayHours = &input.AbandonmentDelayHours
	row.MaxReminders = &input.MaxReminders
	row.ReminderIntervalHours = &input.ReminderIntervalHours
	if err := s.repo.Upsert(ctx, row); err != nil {
		return nil, err
	}
	return s.GetCartAbandonment(ctx, shop)
}

func (s *service) GetEmail(ctx context.Context, shop string) (*EmailSettingsDTO, error) {
	row, err := s.loadOrEmpty(ctx, shop)
	if err != nil {
		return nil, err
	}
	return &EmailSettingsDTO{
		SMTPHost:  row.SMTPHost,
		SMTPPort:  row.SMTPPort,
		SMTPUser:  row.SMTPUser,
		FromEmail: row.FromEmail,
	}, nil
}

func (s *service) UpdateEmail(ctx context.Context, shop string, input EmailSettingsInput) (*EmailSettingsDTO, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	row, err := s.loadOrEmpty(ctx, shop)
	if err != nil {
		return nil, err
	}
	row.SMTPHost = input.SMTPHost
	if input.SMTPPort > 0 {
		row.SMTPPort = input.SMTPPort
	}
	row.SMTPUser = input.SMTPUser
	if input.SMTPPassword != "" {
		row.SMTPPassword = input.SMTPPassword
	}
	row.FromEmail = input.FromEmail
	if err := s.repo.Upsert(ctx, row); err != nil {
		return nil, err
	}
	return s.GetEmail(ctx, shop)
}

func (s *service) loadOrEmpty(ctx context.Context, shop string) (*models.ShopSettings, error) {
	if shop == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop is required")
	}
	row, err := s.repo.GetByShop(ctx, shop)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.ShopSettings{
				Shop:                       shop,
				TemplateLanguage:           "en_US",
				SMTPPort:                   587,
				EnableAbandonmentReminders: true,
			}, nil
		}
		return nil, err
	}
	return row, nil
}

func validateInput(input any) error {
	if err := validate.Struct(input); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid settings input")
	}
	return nil
}
