package carts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/db/models"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/enums"
)

// Repository is the persistence surface for tracked carts.
type Repository interface {
	Upsert(ctx context.Context, cart *models.Cart) error
	GetByShopAndCartID(ctx context.Context, shop, cartID string) (*models.Cart, error)
	FindEligible(ctx context.Context, shop string, cutoff time.Time) ([]models.Cart, error)
	MarkAbandoned(ctx context.Context, shop, cartID string) error
	MarkConverted(ctx context.Context, shop, cartID string) (bool, error)
	ScrubCustomer(ctx context.Context, shop, email, phone string) error
	DeleteByShop(ctx context.Context, shop string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a carts repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Upsert inserts the cart or refreshes the existing row for (shop, cart_id).
// Every hit resets updated_at, which restarts the abandonment clock.
// Converted carts are terminal: the conflict branch skips them entirely, so a
// late cart webhook cannot resurrect a cart that already checked out.
func (r *repository) Upsert(ctx context.Context, cart *models.Cart) error {
	if cart.ID == uuid.Nil {
		cart.ID = uuid.New()
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "shop"}, {Name: "cart_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"customer_email", "customer_phone", "line_items",
				"total_price", "currency", "status", "updated_at",
			}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Neq{
					Column: clause.Column{Table: "carts", Name: "status"},
					Value:  enums.CartStatusConverted,
				},
			}},
		}).
		Create(cart).Error
}

func (r *repository) GetByShopAndCartID(ctx context.Context, shop, cartID string) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Where("shop = ? AND cart_id = ?", shop, cartID).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// FindEligible lists carts for a shop that went quiet before the cutoff and
// have not converted. Abandoned carts stay in the pool so follow-up reminders
// can go out; converted carts never come back.
func (r *repository) FindEligible(ctx context.Context, shop string, cutoff time.Time) ([]models.Cart, error) {
	var carts []models.Cart
	err := r.db.WithContext(ctx).
		Where("shop = ? AND status IN ? AND updated_at < ?",
			shop,
			[]enums.CartStatus{enums.CartStatusActive, enums.CartStatusAbandoned},
			cutoff).
		Order("updated_at DESC").
		Find(&carts).Error
	if err != nil {
		return nil, err
	}
	return carts, nil
}

// MarkAbandoned flips an active cart to abandoned. UpdateColumn keeps
// updated_at untouched: only shopper activity resets the abandonment clock.
func (r *repository) MarkAbandoned(ctx context.Context, shop, cartID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("shop = ? AND cart_id = ? AND status = ?", shop, cartID, enums.CartStatusActive).
		UpdateColumn("status", enums.CartStatusAbandoned).Error
}

// MarkConverted flips a cart to converted and reports whether a row changed.
// Converted is terminal, so the update skips carts that already converted.
func (r *repository) MarkConverted(ctx context.Context, shop, cartID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("shop = ? AND cart_id = ? AND status IN ?",
			shop, cartID,
			[]enums.CartStatus{enums.CartStatusActive, enums.CartStatusAbandoned}).
		UpdateColumn("status", enums.CartStatusConverted)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ScrubCustomer blanks contact details for a customer across a shop's carts,
// used by the GDPR redaction webhooks.
func (r *repository) ScrubCustomer(ctx context.Context, shop, email, phone string) error {
	q := r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("shop = ?", shop)
	switch {
	case email != "" && phone != "":
		q = q.Where("customer_email = ? OR customer_phone = ?", email, phone)
	case email != "":
		q = q.Where("customer_email = ?", email)
	case phone != "":
		q = q.Where("customer_phone = ?", phone)
	default:
		return nil
	}
	return q.Updates(map[string]any{
		"customer_email": nil,
		"customer_phone": nil,
	}).Error
}

func (r *repository) DeleteByShop(ctx context.Context, shop string) error {
	return r.db.WithContext(ctx).
		Where("shop = ?", shop).
		Delete(&models.Cart{}).Error
}
