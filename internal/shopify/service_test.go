package shopify

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/internal/automations"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/internal/carts"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/db/models"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/enums"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/logger"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/whatsapp"
)

type fakeCartTracker struct {
	tracked   []carts.CartInput
	converted []string
	convertOK bool
}

func (f *fakeCartTracker) Track(_ context.Context, _ string, input carts.CartInput) error {
	f.tracked = append(f.tracked, input)
	return nil
}

func (f *fakeCartTracker) Convert(_ context.Context, _ string, cartID string) (bool, error) {
	f.converted = append(f.converted, cartID)
	return f.convertOK, nil
}

type fakeCartScrubber struct {
	scrubbedEmail string
	scrubbedPhone string
	deletedShops  []string
}

func (f *fakeCartScrubber) ScrubCustomer(_ context.Context, _ string, email, phone string) error {
	f.scrubbedEmail = email
	f.scrubbedPhone = phone
	return nil
}

func (f *fakeCartScrubber) DeleteByShop(_ context.Context, shop string) error {
	f.deletedShops = append(f.deletedShops, shop)
	return nil
}

type recordedOutcome struct {
	automationID uuid.UUID
	customerID   string
	orderID      string
	sendErr      error
}

type recordedDispatch struct {
	trigger enums.Trigger
	data    automations.EventData
}

type fakeAutomationRunner struct {
	defID      uuid.UUID
	ensured    []string
	outcomes   []recordedOutcome
	dispatched []recordedDispatch
}

func (f *fakeAutomationRunner) Dispatch(_ context.Context, _ string, trigger enums.Trigger, data automations.EventData) (*automations.DispatchSummary, error) {
	f.dispatched = append(f.dispatched, recordedDispatch{trigger: trigger, data: data})
	return &automations.DispatchSummary{}, nil
}

func (f *fakeAutomationRunner) EnsureDefinition(_ context.Context, shop, name string, trigger enums.Trigger, channel enums.Channel) (*models.Automation, error) {
	f.ensured = append(f.ensured, name)
	return &models.Automation{ID: f.defID, Shop: shop, Name: name, Trigger: trigger, Channel: channel}, nil
}

func (f *fakeAutomationRunner) RecordOutcome(_ context.Context, automationID uuid.UUID, customerID, orderID string, sendErr error) error {
	f.outcomes = append(f.outcomes, recordedOutcome{
		automationID: automationID,
		customerID:   customerID,
		orderID:      orderID,
		sendErr:      sendErr,
	})
	return nil
}

type fakeScrubStore struct {
	deleted          []string
	deletedCustomers []string
}

func (f *fakeScrubStore) DeleteByShop(_ context.Context, shop string) error {
	f.deleted = append(f.deleted, shop)
	return nil
}

func (f *fakeScrubStore) DeleteExecutionsByCustomer(_ context.Context, _ string, customerID string) error {
	f.deletedCustomers = append(f.deletedCustomers, customerID)
	return nil
}

type sentTemplate struct {
	shop  string
	phone string
	ttype whatsapp.TemplateType
	vars  whatsapp.TemplateVars
}

type fakeTemplateSender struct {
	sent []sentTemplate
	err  error
}

func (f *fakeTemplateSender) SendWhatsAppTemplate(_ context.Context, shop, phone string, ttype whatsapp.TemplateType, vars whatsapp.TemplateVars) (*whatsapp.SendResult, error) {
	f.sent = append(f.sent, sentTemplate{shop: shop, phone: phone, ttype: ttype, vars: vars})
	if f.err != nil {
		return nil, f.err
	}
	return &whatsapp.SendResult{MessageID: "wamid.test"}, nil
}

type fixture struct {
	svc    Service
	carts  *fakeCartTracker
	ledger *fakeCartScrubber
	autos  *fakeAutomationRunner
	aRepo  *fakeScrubStore
	sRepo  *fakeScrubStore
	sender *fakeTemplateSender
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		carts:  &fakeCartTracker{convertOK: true},
		ledger: &fakeCartScrubber{},
		autos:  &fakeAutomationRunner{defID: uuid.New()},
		aRepo:  &fakeScrubStore{},
		sRepo:  &fakeScrubStore{},
		sender: &fakeTemplateSender{},
	}
	svc, err := NewService(ServiceParams{
		Carts:           f.carts,
		CartLedger:      f.ledger,
		Automations:     f.autos,
		AutomationsRepo: f.aRepo,
		Settings:        f.sRepo,
		Sender:          f.sender,
		Logger:          logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Now:             func() time.Time { return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	f.svc = svc
	return f
}

const testShop = "teastore.myshopify.com"

func TestHandleCartTracksActivity(t *testing.T) {
	f := newFixture(t)

	body := []byte(`{
		"id": "cart-token-1",
		"currency": "INR",
		"line_items": [
			{"title": "Green Tea", "quantity": 2, "price": "199.50"},
			{"title": "Honey", "quantity": 1, "price": "100.00"}
		],
		"customer": {
			"email": "asha@example.com",
			"default_address": {"phone": "9876543210"}
		}
	}`)

	if err := f.svc.HandleWebhook(context.Background(), TopicCartsCreate, testShop, body); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}

	if len(f.carts.tracked) != 1 {
		t.Fatalf("expected 1 tracked cart, got %d", len(f.carts.tracked))
	}
	got := f.carts.tracked[0]
	if got.CartID != "cart-token-1" {
		t.Errorf("cart id = %q", got.CartID)
	}
	if got.CustomerEmail != "asha@example.com" {
		t.Errorf("email = %q", got.CustomerEmail)
	}
	if got.CustomerPhone != "9876543210" {
		t.Errorf("phone = %q", got.CustomerPhone)
	}
	if got.TotalPrice != "499.00" {
		t.Errorf("summed total = %q, want 499.00", got.TotalPrice)
	}
	if got.Currency != "INR" {
		t.Errorf("currency = %q", got.Currency)
	}
}

func TestHandleCartWithoutIDRejected(t *testing.T) {
	f := newFixture(t)

	err := f.svc.HandleWebhook(context.Background(), TopicCartsUpdate, testShop, []byte(`{}`))
	if err == nil {
		t.Fatal("expected error for cart payload with no id")
	}
	if len(f.carts.tracked) != 0 {
		t.Fatalf("no cart should be tracked, got %d", len(f.carts.tracked))
	}
}

func TestHandleOrderPaidConvertsAndNotifies(t *testing.T) {
	f := newFixture(t)

	body := []byte(`{
		"id": 5001,
		"order_number": 1042,
		"cart_token": "cart-token-1",
		"currency": "INR",
		"total_price": "499.00",
		"customer": {"id": 77, "first_name": "Asha", "last_name": "Rao", "email": "asha@example.com", "phone": "9876543210"},
		"line_items": [
			{"title": "Green Tea", "quantity": 2, "price": "199.50"},
			{"title": "Honey", "quantity": 1, "price": "100.00"}
		]
	}`)

	if err := f.svc.HandleWebhook(context.Background(), TopicOrdersPaid, testShop, body); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}

	if len(f.carts.converted) != 1 || f.carts.converted[0] != "cart-token-1" {
		t.Fatalf("converted = %v", f.carts.converted)
	}

	if len(f.sender.sent) != 1 {
		t.Fatalf("expected 1 template send, got %d", len(f.sender.sent))
	}
	sent := f.sender.sent[0]
	if sent.ttype != whatsapp.TemplateOrder {
		t.Errorf("template type = %q", sent.ttype)
	}
	if sent.phone != "919876543210" {
		t.Errorf("phone = %q", sent.phone)
	}
	if sent.vars.FirstName != "Asha" {
		t.Errorf("first name = %q", sent.vars.FirstName)
	}
	if sent.vars.OrderID != "1042" {
		t.Errorf("order id = %q", sent.vars.OrderID)
	}
	if sent.vars.ProductName != "Green Tea, Honey" {
		t.Errorf("products = %q", sent.vars.ProductName)
	}
	if sent.vars.Price != "₹499.00" {
		t.Errorf("price = %q", sent.vars.Price)
	}

	if len(f.autos.outcomes) != 1 {
		t.Fatalf("expected 1 recorded outcome, got %d", len(f.autos.outcomes))
	}
	outcome := f.autos.outcomes[0]
	if outcome.sendErr != nil {
		t.Errorf("outcome sendErr = %v", outcome.sendErr)
	}
	if outcome.customerID != "77" || outcome.orderID != "1042" {
		t.Errorf("outcome ids = %q/%q", outcome.customerID, outcome.orderID)
	}

	if len(f.autos.dispatched) != 1 || f.autos.dispatched[0].trigger != enums.TriggerOrderPaid {
		t.Fatalf("dispatched = %+v", f.autos.dispatched)
	}
	if f.autos.dispatched[0].data.ShopName != "teastore" {
		t.Errorf("shop name = %q", f.autos.dispatched[0].data.ShopName)
	}
}

func TestHandleOrderPaidWithoutPhoneStillDispatches(t *testing.T) {
	f := newFixture(t)

	body := []byte(`{
		"id": 5002,
		"order_number": 1043,
		"total_price": "20.00",
		"currency": "USD",
		"customer": {"id": 78, "first_name": "Sam", "email": "sam@example.com"}
	}`)

	if err := f.svc.HandleWebhook(context.Background(), TopicOrdersPaid, testShop, body); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}
	if len(f.sender.sent) != 0 {
		t.Fatalf("no template send expected, got %d", len(f.sender.sent))
	}
	if len(f.autos.outcomes) != 0 {
		t.Fatalf("no outcome expected, got %d", len(f.autos.outcomes))
	}
	if len(f.autos.dispatched) != 1 {
		t.Fatalf("trigger dispatch still expected, got %d", len(f.autos.dispatched))
	}
}

func TestHandleOrderPaidSendFailureAcknowledged(t *testing.T) {
	f := newFixture(t)
	f.sender.err = errors.New("whatsapp api error: 401")

	body := []byte(`{
		"order_number": 1044,
		"total_price": "10.00",
		"phone": "9876543210"
	}`)

	if err := f.svc.HandleWebhook(context.Background(), TopicOrdersPaid, testShop, body); err != nil {
		t.Fatalf("send failure should not fail the webhook: %v", err)
	}
	if len(f.autos.outcomes) != 1 {
		t.Fatalf("expected 1 outcome, got %d", len(f.autos.outcomes))
	}
	if f.autos.outcomes[0].sendErr == nil {
		t.Fatal("outcome should carry the send error")
	}
}

func TestHandleOrderFulfilledSendsTracking(t *testing.T) {
	f := newFixture(t)

	body := []byte(`{
		"order_number": 1042,
		"updated_at": "2026-08-01T12:00:00Z",
		"phone": "9876543210",
		"customer": {"id": 77, "first_name": "Asha"},
		"fulfillments": [{
			"created_at": "2026-08-01T11:58:00Z",
			"tracking_number": "TRK123",
			"tracking_url": "https://courier.example/TRK123"
		}]
	}`)

	if err := f.svc.HandleWebhook(context.Background(), TopicOrdersFulfilled, testShop, body); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}

	if len(f.sender.sent) != 1 {
		t.Fatalf("expected 1 send, got %d", len(f.sender.sent))
	}
	sent := f.sender.sent[0]
	if sent.ttype != whatsapp.TemplateFulfillment {
		t.Errorf("template type = %q", sent.ttype)
	}
	if sent.vars.TrackingID != "TRK123" {
		t.Errorf("tracking id = %q", sent.vars.TrackingID)
	}
	if sent.vars.TrackingURL != "https://courier.example/TRK123" {
		t.Errorf("tracking url = %q", sent.vars.TrackingURL)
	}
	if len(f.autos.dispatched) != 1 || f.autos.dispatched[0].trigger != enums.TriggerOrderFulfilled {
		t.Fatalf("dispatched = %+v", f.autos.dispatched)
	}
}

func TestHandleOrderFulfilledStaleSkipped(t *testing.T) {
	f := newFixture(t)

	body := []byte(`{
		"order_number": 1042,
		"updated_at": "2026-08-01T12:00:00Z",
		"phone": "9876543210",
		"fulfillments": [{"created_at": "2026-08-01T11:00:00Z", "tracking_number": "TRK123"}]
	}`)

	if err := f.svc.HandleWebhook(context.Background(), TopicOrdersFulfilled, testShop, body); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}
	if len(f.sender.sent) != 0 {
		t.Fatalf("stale fulfillment should not send, got %d", len(f.sender.sent))
	}
	if len(f.autos.dispatched) != 0 {
		t.Fatalf("stale fulfillment should not dispatch, got %d", len(f.autos.dispatched))
	}
}

func TestHandleOrderFulfilledTrackingFallbacks(t *testing.T) {
	f := newFixture(t)

	body := []byte(`{
		"order_number": 1042,
		"updated_at": "2026-08-01T12:00:00Z",
		"phone": "9876543210",
		"fulfillments": [{"created_at": "2026-08-01T12:00:00Z"}]
	}`)

	if err := f.svc.HandleWebhook(context.Background(), TopicOrdersFulfilled, testShop, body); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}
	if len(f.sender.sent) != 1 {
		t.Fatalf("expected 1 send, got %d", len(f.sender.sent))
	}
	sent := f.sender.sent[0]
	if sent.vars.TrackingID != "N/A" {
		t.Errorf("tracking id fallback = %q", sent.vars.TrackingID)
	}
	if sent.vars.TrackingURL != "https://track.shopify.com/1042" {
		t.Errorf("tracking url fallback = %q", sent.vars.TrackingURL)
	}
}

func TestHandleCustomerCreateSendsWelcome(t *testing.T) {
	f := newFixture(t)

	body := []byte(`{
		"id": 9001,
		"first_name": "Asha",
		"email": "asha@example.com",
		"phone": "+91 98765 43210"
	}`)

	if err := f.svc.HandleWebhook(context.Background(), TopicCustomersCreate, testShop, body); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}
	if len(f.sender.sent) != 1 {
		t.Fatalf("expected 1 send, got %d", len(f.sender.sent))
	}
	sent := f.sender.sent[0]
	if sent.ttype != whatsapp.TemplateWelcome {
		t.Errorf("template type = %q", sent.ttype)
	}
	if sent.phone != "919876543210" {
		t.Errorf("phone = %q", sent.phone)
	}
	if len(f.autos.ensured) != 1 || f.autos.ensured[0] != WelcomeSeriesName {
		t.Errorf("ensured = %v", f.autos.ensured)
	}
	if len(f.autos.outcomes) != 1 || f.autos.outcomes[0].customerID != "9001" {
		t.Fatalf("outcomes = %+v", f.autos.outcomes)
	}
	if len(f.autos.dispatched) != 1 || f.autos.dispatched[0].trigger != enums.TriggerCustomerCreated {
		t.Fatalf("dispatched = %+v", f.autos.dispatched)
	}
}

func TestHandleCustomerRedactScrubsCarts(t *testing.T) {
	f := newFixture(t)

	body := []byte(`{"shop_domain": "teastore.myshopify.com", "customer": {"id": 77, "email": "asha@example.com", "phone": "919876543210"}}`)

	if err := f.svc.HandleWebhook(context.Background(), TopicCustomersRedact, testShop, body); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}
	if f.ledger.scrubbedEmail != "asha@example.com" || f.ledger.scrubbedPhone != "919876543210" {
		t.Errorf("scrubbed = %q/%q", f.ledger.scrubbedEmail, f.ledger.scrubbedPhone)
	}
	if len(f.aRepo.deletedCustomers) != 1 || f.aRepo.deletedCustomers[0] != "77" {
		t.Errorf("execution deletes = %v", f.aRepo.deletedCustomers)
	}
}

func TestHandleShopRedactDeletesShopData(t *testing.T) {
	f := newFixture(t)

	if err := f.svc.HandleWebhook(context.Background(), TopicShopRedact, testShop, []byte(`{}`)); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}
	if len(f.ledger.deletedShops) != 1 || f.ledger.deletedShops[0] != testShop {
		t.Errorf("cart deletes = %v", f.ledger.deletedShops)
	}
	if len(f.aRepo.deleted) != 1 || len(f.sRepo.deleted) != 1 {
		t.Errorf("automation deletes = %v, settings deletes = %v", f.aRepo.deleted, f.sRepo.deleted)
	}
}

func TestHandleUnknownTopicAcknowledged(t *testing.T) {
	f := newFixture(t)

	if err := f.svc.HandleWebhook(context.Background(), "themes/publish", testShop, []byte(`{}`)); err != nil {
		t.Fatalf("unknown topics must be acknowledged: %v", err)
	}
}
