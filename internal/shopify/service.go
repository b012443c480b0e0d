package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/internal/automations"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/internal/carts"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/db/models"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/enums"
	pkgerrors "github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/errors"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/logger"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/whatsapp"
)

// Webhook topics the app subscribes to.
const (
	TopicCartsCreate      = "carts/create"
	TopicCartsUpdate      = "carts/update"
	TopicOrdersPaid       = "orders/paid"
	TopicOrdersFulfilled  = "orders/fulfilled"
	TopicCustomersCreate  = "customers/create"
	TopicCustomersDataReq = "customers/data_request"
	TopicCustomersRedact  = "customers/redact"
	TopicShopRedact       = "shop/redact"
)

// Automation definitions the webhook handlers record executions under.
const (
	OrderConfirmationName = "Order Confirmation Webhook"
	OrderFulfilledName    = "Order Fulfilled Webhook"
	WelcomeSeriesName     = "Welcome Series Webhook"
)

const (
	fallbackFirstName    = "Customer"
	fallbackProductName  = "items"
	fallbackTrackingID   = "N/A"
	fulfillmentFreshness = 5 * time.Minute
)

type cartTracker interface {
	Track(ctx context.Context, shop string, input carts.CartInput) error
	Convert(ctx context.Context, shop, cartID string) (bool, error)
}

type cartScrubber interface {
	ScrubCustomer(ctx context.Context, shop, email, phone string) error
	DeleteByShop(ctx context.Context, shop string) error
}

type automationRunner interface {
	Dispatch(ctx context.Context, shop string, trigger enums.Trigger, data automations.EventData) (*automations.DispatchSummary, error)
	EnsureDefinition(ctx context.Context, shop, name string, trigger enums.Trigger, channel enums.Channel) (*models.Automation, error)
	RecordOutcome(ctx context.Context, automationID uuid.UUID, customerID, orderID string, sendErr error) error
}

type automationScrubber interface {
	DeleteByShop(ctx context.Context, shop string) error
	DeleteExecutionsByCustomer(ctx context.Context, shop, customerID string) error
}

type settingsScrubber interface {
	DeleteByShop(ctx context.Context, shop string) error
}

type templateSender interface {
	SendWhatsAppTemplate(ctx context.Context, shop, phone string, ttype whatsapp.TemplateType, vars whatsapp.TemplateVars) (*whatsapp.SendResult, error)
}

// Service routes verified webhook deliveries to their topic handlers.
type Service interface {
	HandleWebhook(ctx context.Context, topic, shop string, body []byte) error
}

type service struct {
	carts       cartTracker
	cartLedger  cartScrubber
	automations automationRunner
	autoLedger  automationScrubber
	settings    settingsScrubber
	sender      templateSender
	logg        *logger.Logger
	now         func() time.Time
}

// ServiceParams wires the webhook service dependencies.
type ServiceParams struct {
	Carts           cartTracker
	CartLedger      cartScrubber
	Automations     automationRunner
	AutomationsRepo automationScrubber
	Settings        settingsScrubber
	Sender          templateSender
	Logger          *logger.Logger
	Now             func() time.Time
}

// NewService validates dependencies and builds the webhook service.
func NewService(params ServiceParams) (Service, error) {
	if params.Carts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "carts service required")
	}
	if params.CartLedger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "carts repository required")
	}
	if params.Automations == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "automations service required")
	}
	if params.AutomationsRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "automations repository required")
	}
	if params.Settings == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "settings repository required")
	}
	if params.Sender == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "template sender required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		carts:       params.Carts,
		cartLedger:  params.CartLedger,
		automations: params.Automations,
		autoLedger:  params.AutomationsRepo,
		settings:    params.Settings,
		sender:      params.Sender,
		logg:        params.Logger,
		now:         now,
	}, nil
}

// HandleWebhook dispatches a verified delivery by topic. Unknown topics are
// acknowledged without action so Shopify does not retry them.
func (s *service) HandleWebhook(ctx context.Context, topic, shop string, body []byte) error {
	if shop == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "shop domain is required")
	}
	ctx = s.logg.WithShop(ctx, shop)
	ctx = s.logg.WithWebhookTopic(ctx, topic)

	switch topic {
	case TopicCartsCreate, TopicCartsUpdate:
		return s.handleCart(ctx, shop, body)
	case TopicOrdersPaid:
		return s.handleOrderPaid(ctx, shop, body)
	case TopicOrdersFulfilled:
		return s.handleOrderFulfilled(ctx, shop, body)
	case TopicCustomersCreate:
		return s.handleCustomerCreate(ctx, shop, body)
	case TopicCustomersDataReq:
		s.logg.Info(ctx, "customer data request acknowledged")
		return nil
	case TopicCustomersRedact:
		return s.handleCustomerRedact(ctx, shop, body)
	case TopicShopRedact:
		return s.handleShopRedact(ctx, shop)
	default:
		s.logg.Warn(ctx, "unhandled webhook topic")
		return nil
	}
}

func (s *service) handleCart(ctx context.Context, shop string, body []byte) error {
	var payload CartPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode cart payload")
	}

	cartID := payload.ID
	if cartID == "" {
		cartID = payload.Token
	}
	if cartID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart payload has no id")
	}

	input := carts.CartInput{
		CartID:        cartID,
		CustomerEmail: ExtractCartEmail(&payload),
		CustomerPhone: ExtractCartPhone(&payload),
		LineItems:     string(payload.LineItems),
		TotalPrice:    payload.TotalPrice,
		Currency:      payload.Currency,
	}
	if input.TotalPrice == "" {
		input.TotalPrice = sumLineItems(payload.LineItems)
	}
	if err := s.carts.Track(ctx, shop, input); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "track cart")
	}

	s.logg.Info(s.logg.WithField(ctx, "cart_id", cartID), "cart activity recorded")
	return nil
}

func (s *service) handleOrderPaid(ctx context.Context, shop string, body []byte) error {
	var order OrderPayload
	if err := json.Unmarshal(body, &order); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode order payload")
	}

	orderNumber := strconv.FormatInt(order.OrderNumber, 10)
	ctx = s.logg.WithField(ctx, "order_number", orderNumber)

	if order.CartToken != "" {
		converted, err := s.carts.Convert(ctx, shop, order.CartToken)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "convert cart")
		}
		if converted {
			s.logg.Info(ctx, "cart converted by paid order")
		}
	}

	phone := FormatPhone(ExtractOrderPhone(&order))
	if phone != "" {
		def, err := s.automations.EnsureDefinition(ctx, shop, OrderConfirmationName, enums.TriggerOrderPaid, enums.ChannelWhatsApp)
		if err != nil {
			return err
		}
		vars := whatsapp.TemplateVars{
			FirstName:   orderFirstName(&order),
			OrderID:     orderNumber,
			ProductName: orderProducts(order.LineItems),
			Price:       currencySymbol(order.Currency) + order.TotalPrice,
		}
		_, sendErr := s.sender.SendWhatsAppTemplate(ctx, shop, phone, whatsapp.TemplateOrder, vars)
		if err := s.automations.RecordOutcome(ctx, def.ID, customerIDOf(order.Customer), orderNumber, sendErr); err != nil {
			return err
		}
		if sendErr != nil {
			s.logg.Error(ctx, "order confirmation send failed", sendErr)
		} else {
			s.logg.Info(ctx, "order confirmation sent")
		}
	}

	_, err := s.automations.Dispatch(ctx, shop, enums.TriggerOrderPaid, orderEventData(shop, &order))
	return err
}

func (s *service) handleOrderFulfilled(ctx context.Context, shop string, body []byte) error {
	var order OrderPayload
	if err := json.Unmarshal(body, &order); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode order payload")
	}
	if len(order.Fulfillments) == 0 {
		s.logg.Warn(ctx, "fulfillment webhook without fulfillments")
		return nil
	}

	orderNumber := strconv.FormatInt(order.OrderNumber, 10)
	ctx = s.logg.WithField(ctx, "order_number", orderNumber)

	// Shopify redelivers orders/fulfilled on unrelated order edits; only a
	// fulfillment created close to the webhook's own timestamp is news.
	if !fulfillmentIsFresh(&order.Fulfillments[0], order.UpdatedAt) {
		s.logg.Info(ctx, "stale fulfillment skipped")
		return nil
	}

	phone := FormatPhone(ExtractOrderPhone(&order))
	if phone != "" {
		def, err := s.automations.EnsureDefinition(ctx, shop, OrderFulfilledName, enums.TriggerOrderFulfilled, enums.ChannelWhatsApp)
		if err != nil {
			return err
		}
		vars := whatsapp.TemplateVars{
			FirstName:   orderFirstName(&order),
			OrderID:     orderNumber,
			TrackingID:  trackingNumber(&order.Fulfillments[0]),
			TrackingURL: trackingURL(&order.Fulfillments[0], orderNumber),
		}
		_, sendErr := s.sender.SendWhatsAppTemplate(ctx, shop, phone, whatsapp.TemplateFulfillment, vars)
		if err := s.automations.RecordOutcome(ctx, def.ID, customerIDOf(order.Customer), orderNumber, sendErr); err != nil {
			return err
		}
		if sendErr != nil {
			s.logg.Error(ctx, "fulfillment notification send failed", sendErr)
		} else {
			s.logg.Info(ctx, "fulfillment notification sent")
		}
	}

	_, err := s.automations.Dispatch(ctx, shop, enums.TriggerOrderFulfilled, orderEventData(shop, &order))
	return err
}

func (s *service) handleCustomerCreate(ctx context.Context, shop string, body []byte) error {
	var customer CustomerPayload
	if err := json.Unmarshal(body, &customer); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode customer payload")
	}

	customerID := strconv.FormatInt(customer.ID, 10)
	ctx = s.logg.WithField(ctx, "customer_id", customerID)

	rawPhone := customer.Phone
	if rawPhone == "" && customer.DefaultAddress != nil {
		rawPhone = customer.DefaultAddress.Phone
	}
	phone := FormatPhone(rawPhone)
	if phone != "" {
		def, err := s.automations.EnsureDefinition(ctx, shop, WelcomeSeriesName, enums.TriggerCustomerCreated, enums.ChannelWhatsApp)
		if err != nil {
			return err
		}
		vars := whatsapp.TemplateVars{
			FirstName: firstNameOr(customer.FirstName),
			OrderID:   "https://" + shop,
		}
		_, sendErr := s.sender.SendWhatsAppTemplate(ctx, shop, phone, whatsapp.TemplateWelcome, vars)
		if err := s.automations.RecordOutcome(ctx, def.ID, customerID, "", sendErr); err != nil {
			return err
		}
		if sendErr != nil {
			s.logg.Error(ctx, "welcome message send failed", sendErr)
		} else {
			s.logg.Info(ctx, "welcome message sent")
		}
	}

	_, err := s.automations.Dispatch(ctx, shop, enums.TriggerCustomerCreated, automations.EventData{
		CustomerID: customerID,
		FirstName:  firstNameOr(customer.FirstName),
		LastName:   customer.LastName,
		Email:      customer.Email,
		Phone:      phone,
		ShopName:   ShopName(shop),
	})
	return err
}

func (s *service) handleCustomerRedact(ctx context.Context, shop string, body []byte) error {
	var payload RedactPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode redact payload")
	}
	if payload.Customer == nil || (payload.Customer.Email == "" && payload.Customer.Phone == "") {
		s.logg.Info(ctx, "customer redact with no contact info, nothing to scrub")
		return nil
	}
	if err := s.cartLedger.ScrubCustomer(ctx, shop, payload.Customer.Email, payload.Customer.Phone); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "scrub customer carts")
	}
	if payload.Customer.ID != 0 {
		customerID := strconv.FormatInt(payload.Customer.ID, 10)
		if err := s.autoLedger.DeleteExecutionsByCustomer(ctx, shop, customerID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete customer executions")
		}
	}
	s.logg.Info(ctx, "customer contact info scrubbed")
	return nil
}

func (s *service) handleShopRedact(ctx context.Context, shop string) error {
	if err := s.cartLedger.DeleteByShop(ctx, shop); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete shop carts")
	}
	if err := s.autoLedger.DeleteByShop(ctx, shop); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete shop automations")
	}
	if err := s.settings.DeleteByShop(ctx, shop); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete shop settings")
	}
	s.logg.Info(ctx, "shop data redacted")
	return nil
}

func orderEventData(shop string, order *OrderPayload) automations.EventData {
	data := automations.EventData{
		FirstName:   orderFirstName(order),
		Email:       order.Email,
		Phone:       FormatPhone(ExtractOrderPhone(order)),
		OrderID:     strconv.FormatInt(order.ID, 10),
		OrderNumber: strconv.FormatInt(order.OrderNumber, 10),
		TotalPrice:  order.TotalPrice,
		ShopName:    ShopName(shop),
	}
	if order.Customer != nil {
		data.CustomerID = strconv.FormatInt(order.Customer.ID, 10)
		data.LastName = order.Customer.LastName
		if order.Email == "" {
			data.Email = order.Customer.Email
		}
	}
	return data
}

func orderFirstName(order *OrderPayload) string {
	if order.Customer != nil && order.Customer.FirstName != "" {
		return order.Customer.FirstName
	}
	if order.BillingAddress != nil && order.BillingAddress.FirstName != "" {
		return order.BillingAddress.FirstName
	}
	if order.ShippingAddress != nil && order.ShippingAddress.FirstName != "" {
		return order.ShippingAddress.FirstName
	}
	return fallbackFirstName
}

func firstNameOr(name string) string {
	if name == "" {
		return fallbackFirstName
	}
	return name
}

func customerIDOf(customer *Customer) string {
	if customer == nil {
		return ""
	}
	return strconv.FormatInt(customer.ID, 10)
}

func orderProducts(items []LineItem) string {
	names := make([]string, 0, len(items))
	for _, item := range items {
		if item.Title != "" {
			names = append(names, item.Title)
		}
	}
	if len(names) == 0 {
		return fallbackProductName
	}
	return strings.Join(names, ", ")
}

// sumLineItems totals price*quantity across the raw line items. Cart webhooks
// occasionally omit total_price; malformed entries are skipped.
func sumLineItems(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var items []LineItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return ""
	}
	total := decimal.Zero
	for _, item := range items {
		price, err := decimal.NewFromString(item.Price)
		if err != nil {
			continue
		}
		qty := item.Quantity
		if qty == 0 {
			qty = 1
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(qty))))
	}
	if total.IsZero() {
		return ""
	}
	return total.StringFixed(2)
}

func fulfillmentIsFresh(fulfillment *Fulfillment, orderUpdatedAt string) bool {
	created, err := time.Parse(time.RFC3339, fulfillment.CreatedAt)
	if err != nil {
		return true
	}
	updated, err := time.Parse(time.RFC3339, orderUpdatedAt)
	if err != nil {
		return true
	}
	return updated.Sub(created) <= fulfillmentFreshness
}

func trackingNumber(fulfillment *Fulfillment) string {
	if fulfillment.TrackingNumber != "" {
		return fulfillment.TrackingNumber
	}
	if len(fulfillment.TrackingNumbers) > 0 && fulfillment.TrackingNumbers[0] != "" {
		return fulfillment.TrackingNumbers[0]
	}
	return fallbackTrackingID
}

func trackingURL(fulfillment *Fulfillment, orderNumber string) string {
	if fulfillment.TrackingURL != "" {
		return fulfillment.TrackingURL
	}
	if len(fulfillment.TrackingURLs) > 0 && fulfillment.TrackingURLs[0] != "" {
		return fulfillment.TrackingURLs[0]
	}
	return fmt.Sprintf("https://track.shopify.com/%s", orderNumber)
}

func currencySymbol(currency string) string {
	if currency == "INR" {
		return "₹"
	}
	return "$"
}
