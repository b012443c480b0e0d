package shopify

import "strings"

// ExtractCartPhone walks the cart payload's possible phone locations in
// first-match-wins order: top level, billing, shipping, customer, customer's
// default address, then cart/note attributes.
func ExtractCartPhone(cart *CartPayload) string {
	if cart == nil {
		return ""
	}
	if cart.Phone != "" {
		return cart.Phone
	}
	if cart.BillingAddress != nil && cart.BillingAddress.Phone != "" {
		return cart.BillingAddress.Phone
	}
	if cart.ShippingAddress != nil && cart.ShippingAddress.Phone != "" {
		return cart.ShippingAddress.Phone
	}
	if cart.Customer != nil {
		if cart.Customer.Phone != "" {
			return cart.Customer.Phone
		}
		if cart.Customer.DefaultAddress != nil && cart.Customer.DefaultAddress.Phone != "" {
			return cart.Customer.DefaultAddress.Phone
		}
	}
	for _, attr := range cart.Attributes {
		if attr.Key == "phone" && attr.Value != "" {
			return attr.Value
		}
	}
	for _, attr := range cart.NoteAttributes {
		if attr.Name == "phone" && attr.Value != "" {
			return attr.Value
		}
	}
	return ""
}

// ExtractCartEmail mirrors ExtractCartPhone for email addresses.
func ExtractCartEmail(cart *CartPayload) string {
	if cart == nil {
		return ""
	}
	if cart.Email != "" {
		return cart.Email
	}
	if cart.Customer != nil && cart.Customer.Email != "" {
		return cart.Customer.Email
	}
	if cart.BillingAddress != nil && cart.BillingAddress.Email != "" {
		return cart.BillingAddress.Email
	}
	if cart.ShippingAddress != nil && cart.ShippingAddress.Email != "" {
		return cart.ShippingAddress.Email
	}
	for _, attr := range cart.Attributes {
		if attr.Key == "email" && attr.Value != "" {
			return attr.Value
		}
	}
	for _, attr := range cart.NoteAttributes {
		if attr.Name == "email" && attr.Value != "" {
			return attr.Value
		}
	}
	return ""
}

// ExtractOrderPhone checks the order's phone locations in first-match-wins
// order: top level, billing address, shipping address, customer.
func ExtractOrderPhone(order *OrderPayload) string {
	if order == nil {
		return ""
	}
	if order.Phone != "" {
		return order.Phone
	}
	if order.BillingAddress != nil && order.BillingAddress.Phone != "" {
		return order.BillingAddress.Phone
	}
	if order.ShippingAddress != nil && order.ShippingAddress.Phone != "" {
		return order.ShippingAddress.Phone
	}
	if order.Customer != nil {
		if order.Customer.Phone != "" {
			return order.Customer.Phone
		}
		if order.Customer.DefaultAddress != nil && order.Customer.DefaultAddress.Phone != "" {
			return order.Customer.DefaultAddress.Phone
		}
	}
	return ""
}

// FormatPhone normalizes a raw phone string for the messaging provider.
// Tailored to Indian numbers: a bare 10-digit number gets the 91 country
// code, a 13-digit number starting 918 drops the stray leading digit, and
// anything else passes through digits-only.
func FormatPhone(raw string) string {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	clean := digits.String()

	switch {
	case len(clean) == 12 && strings.HasPrefix(clean, "91"):
		return clean
	case len(clean) == 10:
		return "91" + clean
	case len(clean) == 13 && strings.HasPrefix(clean, "918"):
		return clean[1:]
	default:
		return clean
	}
}

// ShopName strips the .myshopify.com suffix for display in messages.
func ShopName(shopDomain string) string {
	return strings.TrimSuffix(shopDomain, ".myshopify.com")
}
