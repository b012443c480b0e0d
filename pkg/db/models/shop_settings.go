package models

import (
	"time"
)

// ShopSettings holds a merchant's channel credentials and reminder cadence.
// One row per shop. The abandonment columns are nullable on purpose: the sweep
// resolves them to defaults once per shop per cycle (see settings.ResolvePolicy).
type ShopSettings struct {
	ID   uint   `gorm:"column:id;primaryKey;autoIncrement"`
	Shop string `gorm:"column:shop;not null;uniqueIndex"`

	// WhatsApp Cloud API
	FacebookURL             string `gorm:"column:facebook_url;not null;default:''"`
	PhoneID                 string `gorm:"column:phone_id;not null;default:''"`
	AccessToken             string `gorm:"column:access_token;not null;default:''"`
	OrderTemplateName       string `gorm:"column:order_template_name;not null;default:''"`
	FulfillmentTemplateName string `gorm:"column:fulfillment_template_name;not null;default:''"`
	AbandonedTemplateName   string `gorm:"column:abandoned_template_name;not null;default:''"`
	WelcomeTemplateName     string `gorm:"column:welcome_template_name;not null;default:''"`
	TemplateLanguage        string `gorm:"column:template_language;not null;default:'en_US'"`

	// Email (SMTP)
	SMTPHost     string `gorm:"column:smtp_host;not null;default:''"`
	SMTPPort     int    `gorm:"column:smtp_port;not null;default:587"`
	SMTPUser     string `gorm:"column:smtp_user;not null;default:''"`
	SMTPPassword string `gorm:"column:smtp_password;not null;default:''"`
	FromEmail    string `gorm:"column:from_email;not null;default:''"`

	// SMS
	SMSAccountSID string `gorm:"column:sms_account_sid;not null;default:''"`
	SMSAuthToken  string `gorm:"column:sms_auth_token;not null;default:''"`
	SMSFromNumber string `gorm:"column:sms_from_number;not null;default:''"`

	// Abandoned-cart reminders
	EnableAbandonmentReminders bool `gorm:"column:enable_abandonment_reminders;not null;default:true"`
	AbandonmentDelayHours      *int `gorm:"column:abandonment_delay_hours"`
	MaxReminders               *int `gorm:"column:max_reminders"`
	ReminderIntervalHours      *int `gorm:"column:reminder_interval_hours"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
