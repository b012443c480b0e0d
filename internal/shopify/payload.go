package shopify

import "encoding/json"

// Address is the slice of a Shopify address block the app reads.
type Address struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
}

// Customer is the slice of a Shopify customer record the app reads.
type Customer struct {
	ID             int64    `json:"id"`
	Email          string   `json:"email"`
	Phone          string   `json:"phone"`
	FirstName      string   `json:"first_name"`
	LastName       string   `json:"last_name"`
	DefaultAddress *Address `json:"default_address"`
}

// Attribute is a cart attribute key/value pair.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// NoteAttribute is an order/cart note attribute name/value pair.
type NoteAttribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// LineItem is the slice of a cart or order line the app reads.
type LineItem struct {
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
}

// CartPayload is the carts/create and carts/update webhook body. The id field
// is the cart token string.
type CartPayload struct {
	ID              string          `json:"id"`
	Token           string          `json:"token"`
	Email           string          `json:"email"`
	Phone           string          `json:"phone"`
	Currency        string          `json:"currency"`
	TotalPrice      string          `json:"total_price"`
	LineItems       json.RawMessage `json:"line_items"`
	Customer        *Customer       `json:"customer"`
	BillingAddress  *Address        `json:"billing_address"`
	ShippingAddress *Address        `json:"shipping_address"`
	Attributes      []Attribute     `json:"attributes"`
	NoteAttributes  []NoteAttribute `json:"note_attributes"`
}

// Fulfillment is the slice of a fulfillment record the app reads.
type Fulfillment struct {
	ID              int64    `json:"id"`
	CreatedAt       string   `json:"created_at"`
	TrackingNumber  string   `json:"tracking_number"`
	TrackingNumbers []string `json:"tracking_numbers"`
	TrackingURL     string   `json:"tracking_url"`
	TrackingURLs    []string `json:"tracking_urls"`
	TrackingCompany string   `json:"tracking_company"`
}

// OrderPayload is the orders/paid and orders/fulfilled webhook body.
type OrderPayload struct {
	ID              int64           `json:"id"`
	OrderNumber     int64           `json:"order_number"`
	CartToken       string          `json:"cart_token"`
	Email           string          `json:"email"`
	Phone           string          `json:"phone"`
	Currency        string          `json:"currency"`
	TotalPrice      string          `json:"total_price"`
	UpdatedAt       string          `json:"updated_at"`
	Customer        *Customer       `json:"customer"`
	BillingAddress  *Address        `json:"billing_address"`
	ShippingAddress *Address        `json:"shipping_address"`
	LineItems       []LineItem      `json:"line_items"`
	Fulfillments    []Fulfillment   `json:"fulfillments"`
	NoteAttributes  []NoteAttribute `json:"note_attributes"`
}

// CustomerPayload is the customers/create webhook body.
type CustomerPayload struct {
	ID             int64    `json:"id"`
	Email          string   `json:"email"`
	Phone          string   `json:"phone"`
	FirstName      string   `json:"first_name"`
	LastName       string   `json:"last_name"`
	DefaultAddress *Address `json:"default_address"`
}

// RedactPayload covers the GDPR customers/redact and customers/data_request
// webhook bodies.
type RedactPayload struct {
	ShopDomain string `json:"shop_domain"`
	Customer   *struct {
		ID    int64  `json:"id"`
		Email string `json:"email"`
		Phone string `json:"phone"`
	} `json:"customer"`
}
