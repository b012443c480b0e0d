package automations

import "strings"

// EventData carries the values a store event contributes to message
// rendering. Absent values render as empty strings.
type EventData struct {
	CustomerID  string
	FirstName   string
	LastName    string
	Email       string
	Phone       string
	OrderID     string
	OrderNumber string
	TotalPrice  string
	ShopName    string
}

// RenderMessage substitutes the supported placeholders into a message
// template. Unknown placeholders pass through untouched.
func RenderMessage(template string, data EventData) string {
	if template == "" {
		return ""
	}
	return strings.NewReplacer(
		"{{customer.first_name}}", data.FirstName,
		"{{customer.last_name}}", data.LastName,
		"{{customer.email}}", data.Email,
		"{{order.total_price}}", data.TotalPrice,
		"{{order.order_number}}", data.OrderNumber,
		"{{shop.name}}", data.ShopName,
	).Replace(template)
}
