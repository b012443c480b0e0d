package settings

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/db/models"
)

// Repository exposes persistence helpers for per-shop settings.
type Repository interface {
	GetByShop(ctx context.Context, shop string) (*models.ShopSettings, error)
	Upsert(ctx context.Context, settings *models.ShopSettings) error
	ListAbandonmentEnabled(ctx context.Context) ([]models.ShopSettings, error)
	DeleteByShop(ctx context.Context, shop string) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a settings repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) GetByShop(ctx context.Context, shop string) (*models.ShopSettings, error) {
	var settings models.ShopSettings
	if err := r.db.WithContext(ctx).Where("shop = ?", shop).First(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *repositoryImpl) Upsert(ctx context.Context, settings *models.ShopSettings) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "shop"}},
			UpdateAll: true,
		}).
		Create(settings).Error
}

func (r *repositoryImpl) ListAbandonmentEnabled(ctx context.Context) ([]models.ShopSettings, error) {
	var rows []models.ShopSettings
	err := r.db.WithContext(ctx).
		Where("enable_abandonment_reminders = ?", true).
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) DeleteByShop(ctx context.Context, shop string) error {
	return r.db.WithContext(ctx).Where("shop = ?", shop).Delete(&models.ShopSettings{}).Error
}
