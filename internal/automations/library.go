package automations

import "github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/enums"

// LibraryTemplate is a ready-made message a merchant can start an
// automation from.
type LibraryTemplate struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	Trigger enums.Trigger `json:"trigger"`
	Channel enums.Channel `json:"channel"`
	Subject string        `json:"subject,omitempty"`
	Message string        `json:"message"`
}

var libraryTemplates = []LibraryTemplate{
	{
		ID:      "order-confirmation-whatsapp",
		Name:    "Order Confirmation",
		Trigger: enums.TriggerOrderPaid,
		Channel: enums.ChannelWhatsApp,
		Message: "Hi {{customer.first_name}}, thanks for your order #{{order.order_number}} at {{shop.name}}! We'll let you know as soon as it ships.",
	},
	{
		ID:      "order-confirmation-email",
		Name:    "Order Confirmation Email",
		Trigger: enums.TriggerOrderPaid,
		Channel: enums.ChannelEmail,
		Subject: "Your {{shop.name}} order #{{order.order_number}}",
		Message: "Hi {{customer.first_name}} {{customer.last_name}},\n\nWe've received your order #{{order.order_number}} for {{order.total_price}}. You'll get another email when it ships.\n\nThanks for shopping with {{shop.name}}!",
	},
	{
		ID:      "shipping-update-whatsapp",
		Name:    "Shipping Update",
		Trigger: enums.TriggerOrderFulfilled,
		Channel: enums.ChannelWhatsApp,
		Message: "Good news {{customer.first_name}}, your {{shop.name}} order #{{order.order_number}} is on its way!",
	},
	{
		ID:      "welcome-whatsapp",
		Name:    "Welcome Message",
		Trigger: enums.TriggerCustomerCreated,
		Channel: enums.ChannelWhatsApp,
		Message: "Welcome to {{shop.name}}, {{customer.first_name}}! Reply here any time if you have questions about your order.",
	},
	{
		ID:      "welcome-email",
		Name:    "Welcome Email",
		Trigger: enums.TriggerCustomerCreated,
		Channel: enums.ChannelEmail,
		Subject: "Welcome to {{shop.name}}",
		Message: "Hi {{customer.first_name}},\n\nThanks for creating an account at {{shop.name}}. Keep an eye on your inbox for order updates and offers.",
	},
	{
		ID:      "cart-reminder-sms",
		Name:    "Cart Reminder SMS",
		Trigger: enums.TriggerCartAbandoned,
		Channel: enums.ChannelSMS,
		Message: "{{customer.first_name}}, you left something behind at {{shop.name}}. Your cart is saved and waiting!",
	},
}

// Library returns the built-in template catalogue.
func Library() []LibraryTemplate {
	out := make([]LibraryTemplate, len(libraryTemplates))
	copy(out, libraryTemplates)
	return out
}
