package carts

import (
	"context"
	"fmt"

	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/db/models"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/enums"
	pkgerrors "github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/errors"
)

// CartInput carries the fields a cart webhook contributes to tracking.
type CartInput struct {
	CartID        string
	CustomerEmail string
	CustomerPhone string
	LineItems     string
	TotalPrice    string
	Currency      string
}

// Service tracks carts from webhook traffic and retires them on checkout.
type Service interface {
	Track(ctx context.Context, shop string, input CartInput) error
	Convert(ctx context.Context, shop, cartID string) (bool, error)
}

type service struct {
	repo Repository
}

// NewService builds a carts service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("carts repository required")
	}
	return &service{repo: repo}, nil
}

// Track records cart activity. Every call resets the abandonment clock and
// flips the status back to active, so an abandoned cart a shopper returns to
// re-enters the normal flow. Converted carts are unaffected: checkout is
// final no matter how webhook deliveries are ordered.
func (s *service) Track(ctx context.Context, shop string, input CartInput) error {
	if shop == "" || input.CartID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "shop and cart id are required")
	}
	cart := &models.Cart{
		Shop:       shop,
		CartID:     input.CartID,
		LineItems:  input.LineItems,
		TotalPrice: input.TotalPrice,
		Currency:   input.Currency,
		Status:     enums.CartStatusActive,
	}
	if cart.LineItems == "" {
		cart.LineItems = "[]"
	}
	if cart.TotalPrice == "" {
		cart.TotalPrice = "0"
	}
	if cart.Currency == "" {
		cart.Currency = "USD"
	}
	if input.CustomerEmail != "" {
		cart.CustomerEmail = &input.CustomerEmail
	}
	if input.CustomerPhone != "" {
		cart.CustomerPhone = &input.CustomerPhone
	}
	return s.repo.Upsert(ctx, cart)
}

// Convert marks the cart as checked out. Unknown cart tokens are a no-op:
// orders without a tracked cart are common and not an error.
func (s *service) Convert(ctx context.Context, shop, cartID string) (bool, error) {
	if shop == "" || cartID == "" {
		return false, nil
	}
	return s.repo.MarkConverted(ctx, shop, cartID)
}
