package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/enums"
)

// Cart is one tracked storefront cart, keyed by (shop, cart_id).
// UpdatedAt doubles as the abandonment clock: every webhook upsert resets it,
// which restarts the delay window for the reminder sweep.
type Cart struct {
	ID            uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Shop          string           `gorm:"column:shop;not null;uniqueIndex:idx_carts_shop_cart_id,priority:1"`
	CartID        string           `gorm:"column:cart_id;not null;uniqueIndex:idx_carts_shop_cart_id,priority:2"`
	CustomerEmail *string          `gorm:"column:customer_email"`
	CustomerPhone *string          `gorm:"column:customer_phone"`
	LineItems     string           `gorm:"column:line_items;type:text;not null;default:'[]'"`
	TotalPrice    string           `gorm:"column:total_price;not null;default:'0'"`
	Currency      string           `gorm:"column:currency;not null;default:'USD'"`
	Status        enums.CartStatus `gorm:"column:status;not null;default:'active'"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
