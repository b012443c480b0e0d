package settings

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/db/models"
	pkgerrors "github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/errors"
)

type fakeRepo struct {
	rows map[string]*models.ShopSettings
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: make(map[string]*models.ShopSettings)}
}

func (f *fakeRepo) GetByShop(_ context.Context, shop string) (*models.ShopSettings, error) {
	row, ok := f.rows[shop]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *row
	return &copied, nil
}

func (f *fakeRepo) Upsert(_ context.Context, row *models.ShopSettings) error {
	copied := *row
	f.rows[row.Shop] = &copied
	return nil
}

func (f *fakeRepo) ListAbandonmentEnabled(_ context.Context) ([]models.ShopSettings, error) {
	var out []models.ShopSettings
	for _, row := range f.rows {
		if row.EnableAbandonmentReminders {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (f *fakeRepo) DeleteByShop(_ context.Context, shop string) error {
	delete(f.rows, shop)
	return nil
}

const testShop = "teastore.myshopify.com"

func TestGetCartAbandonmentDefaultsForNewShop(t *testing.T) {
	svc, err := NewService(newFakeRepo())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	dto, err := svc.GetCartAbandonment(context.Background(), testShop)
	if err != nil {
		t.Fatalf("GetCartAbandonment: %v", err)
	}
	if !dto.EnableAbandonmentReminders {
		t.Error("reminders should default to enabled")
	}
	if dto.AbandonmentDelayHours != 1 || dto.MaxReminders != 3 || dto.ReminderIntervalHours != 24 {
		t.Errorf("defaults = %d/%d/%d, want 1/3/24", dto.AbandonmentDelayHours, dto.MaxReminders, dto.ReminderIntervalHours)
	}
}

func TestUpdateCartAbandonmentPersistsAndEchoes(t *testing.T) {
	repo := newFakeRepo()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	dto, err := svc.UpdateCartAbandonment(context.Background(), testShop, CartAbandonmentSettingsInput{
		EnableAbandonmentReminders: true,
		AbandonmentDelayHours:      2,
		MaxReminders:               5,
		ReminderIntervalHours:      12,
	})
	if err != nil {
		t.Fatalf("UpdateCartAbandonment: %v", err)
	}
	if dto.AbandonmentDelayHours != 2 || dto.MaxReminders != 5 || dto.ReminderIntervalHours != 12 {
		t.Errorf("dto = %+v", dto)
	}

	row := repo.rows[testShop]
	if row == nil || row.AbandonmentDelayHours == nil || *row.AbandonmentDelayHours != 2 {
		t.Fatalf("row not persisted: %+v", row)
	}
}

func TestUpdateCartAbandonmentRejectsOutOfRange(t *testing.T) {
	svc, err := NewService(newFakeRepo())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	_, err = svc.UpdateCartAbandonment(context.Background(), testShop, CartAbandonmentSettingsInput{
		AbandonmentDelayHours: 500,
		MaxReminders:          3,
		ReminderIntervalHours: 24,
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
}

func TestUpdateEmailKeepsPasswordWhenBlank(t *testing.T) {
	repo := newFakeRepo()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	if _, err := svc.UpdateEmail(context.Background(), testShop, EmailSettingsInput{
		SMTPHost:     "smtp.example.com",
		SMTPUser:     "mailer",
		SMTPPassword: "secret",
		FromEmail:    "store@example.com",
	}); err != nil {
		t.Fatalf("UpdateEmail: %v", err)
	}

	// A blank password on a later save must not wipe the stored one.
	if _, err := svc.UpdateEmail(context.Background(), testShop, EmailSettingsInput{
		SMTPHost:  "smtp.example.com",
		SMTPUser:  "mailer2",
		FromEmail: "store@example.com",
	}); err != nil {
		t.Fatalf("UpdateEmail second save: %v", err)
	}

	row := repo.rows[testShop]
	if row.SMTPPassword != "secret" {
		t.Errorf("password = %q, want preserved", row.SMTPPassword)
	}
	if row.SMTPUser != "mailer2" {
		t.Errorf("user = %q", row.SMTPUser)
	}
}

func TestUpdateWhatsAppRoundTrip(t *testing.T) {
	svc, err := NewService(newFakeRepo())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	dto, err := svc.UpdateWhatsApp(context.Background(), testShop, WhatsAppSettingsInput{
		PhoneID:           "12345",
		AccessToken:       "token",
		OrderTemplateName: "order_update",
	})
	if err != nil {
		t.Fatalf("UpdateWhatsApp: %v", err)
	}
	if dto.PhoneID != "12345" || dto.OrderTemplateName != "order_update" {
		t.Errorf("dto = %+v", dto)
	}
	if dto.TemplateLanguage != "en_US" {
		t.Errorf("language = %q, want default en_US", dto.TemplateLanguage)
	}
}
