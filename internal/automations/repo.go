package automations

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/db/models"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/enums"
)

// Repository is the persistence surface for automation definitions and
// their execution history.
type Repository interface {
	FindOrCreate(ctx context.Context, def *models.Automation) (*models.Automation, error)
	ListByShop(ctx context.Context, shop string) ([]models.Automation, error)
	ListActiveByTrigger(ctx context.Context, shop string, trigger enums.Trigger) ([]models.Automation, error)
	Create(ctx context.Context, def *models.Automation) (*models.Automation, error)
	SetActive(ctx context.Context, shop string, id uuid.UUID, active bool) error
	DeleteByShop(ctx context.Context, shop string) error
	DeleteExecutionsByCustomer(ctx context.Context, shop, customerID string) error

	CreateExecution(ctx context.Context, exec *models.AutomationExecution) (*models.AutomationExecution, error)
	UpdateExecution(ctx context.Context, exec *models.AutomationExecution) error
	CountExecutionsByOrder(ctx context.Context, automationID uuid.UUID, orderID string) (int64, error)
	LatestExecutionByOrder(ctx context.Context, automationID uuid.UUID, orderID string) (*models.AutomationExecution, error)
	RecentExecutions(ctx context.Context, shop string, limit int) ([]ExecutionWithAutomation, error)
}

// ExecutionWithAutomation joins an execution with its owning definition for
// dashboard listings.
type ExecutionWithAutomation struct {
	models.AutomationExecution
	AutomationName string        `gorm:"column:automation_name"`
	Channel        enums.Channel `gorm:"column:channel"`
	Trigger        enums.Trigger `gorm:"column:trigger"`
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an automations repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// FindOrCreate returns the definition matching (shop, name, trigger),
// inserting it first when absent. Lookups race under concurrent webhooks;
// the unique index makes the losing insert fall through to a re-read.
func (r *repository) FindOrCreate(ctx context.Context, def *models.Automation) (*models.Automation, error) {
	existing, err := r.findByKey(ctx, def.Shop, def.Name, def.Trigger)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if def.ID == uuid.Nil {
		def.ID = uuid.New()
	}
	if createErr := r.db.WithContext(ctx).Create(def).Error; createErr != nil {
		if existing, err = r.findByKey(ctx, def.Shop, def.Name, def.Trigger); err == nil {
			return existing, nil
		}
		return nil, createErr
	}
	return def, nil
}

func (r *repository) findByKey(ctx context.Context, shop, name string, trigger enums.Trigger) (*models.Automation, error) {
	var def models.Automation
	err := r.db.WithContext(ctx).
		Where(`shop = ? AND name = ? AND "trigger" = ?`, shop, name, trigger).
		First(&def).Error
	if err != nil {
		return nil, err
	}
	return &def, nil
}

func (r *repository) ListByShop(ctx context.Context, shop string) ([]models.Automation, error) {
	var defs []models.Automation
	err := r.db.WithContext(ctx).
		Where("shop = ?", shop).
		Order("created_at DESC").
		Find(&defs).Error
	if err != nil {
		return nil, err
	}
	return defs, nil
}

func (r *repository) ListActiveByTrigger(ctx context.Context, shop string, trigger enums.Trigger) ([]models.Automation, error) {
	var defs []models.Automation
	err := r.db.WithContext(ctx).
		Where(`shop = ? AND "trigger" = ? AND is_active = ?`, shop, trigger, true).
		Order("created_at ASC").
		Find(&defs).Error
	if err != nil {
		return nil, err
	}
	return defs, nil
}

func (r *repository) Create(ctx context.Context, def *models.Automation) (*models.Automation, error) {
	if def.ID == uuid.Nil {
		def.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(def).Error; err != nil {
		return nil, err
	}
	return def, nil
}

func (r *repository) SetActive(ctx context.Context, shop string, id uuid.UUID, active bool) error {
	res := r.db.WithContext(ctx).
		Model(&models.Automation{}).
		Where("shop = ? AND id = ?", shop, id).
		Update("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) DeleteByShop(ctx context.Context, shop string) error {
	return r.db.WithContext(ctx).
		Where("shop = ?", shop).
		Delete(&models.Automation{}).Error
}

// DeleteExecutionsByCustomer removes the execution history tied to a single
// customer across a shop's automations.
func (r *repository) DeleteExecutionsByCustomer(ctx context.Context, shop, customerID string) error {
	sub := r.db.WithContext(ctx).
		Model(&models.Automation{}).
		Select("id").
		Where("shop = ?", shop)
	return r.db.WithContext(ctx).
		Where("automation_id IN (?) AND customer_id = ?", sub, customerID).
		Delete(&models.AutomationExecution{}).Error
}

func (r *repository) CreateExecution(ctx context.Context, exec *models.AutomationExecution) (*models.AutomationExecution, error) {
	if exec.ID == uuid.Nil {
		exec.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(exec).Error; err != nil {
		return nil, err
	}
	return exec, nil
}

func (r *repository) UpdateExecution(ctx context.Context, exec *models.AutomationExecution) error {
	return r.db.WithContext(ctx).
		Model(&models.AutomationExecution{}).
		Where("id = ?", exec.ID).
		Updates(map[string]any{
			"status":        exec.Status,
			"sent_at":       exec.SentAt,
			"error_message": exec.ErrorMessage,
		}).Error
}

func (r *repository) CountExecutionsByOrder(ctx context.Context, automationID uuid.UUID, orderID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AutomationExecution{}).
		Where("automation_id = ? AND order_id = ?", automationID, orderID).
		Count(&count).Error
	return count, err
}

func (r *repository) LatestExecutionByOrder(ctx context.Context, automationID uuid.UUID, orderID string) (*models.AutomationExecution, error) {
	var exec models.AutomationExecution
	err := r.db.WithContext(ctx).
		Where("automation_id = ? AND order_id = ?", automationID, orderID).
		Order("created_at DESC").
		First(&exec).Error
	if err != nil {
		return nil, err
	}
	return &exec, nil
}

func (r *repository) RecentExecutions(ctx context.Context, shop string, limit int) ([]ExecutionWithAutomation, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []ExecutionWithAutomation
	err := r.db.WithContext(ctx).
		Model(&models.AutomationExecution{}).
		Select(`automation_executions.*, automations.name AS automation_name, automations.channel AS channel, automations."trigger" AS "trigger"`).
		Joins("JOIN automations ON automations.id = automation_executions.automation_id").
		Where("automations.shop = ?", shop).
		Order("automation_executions.created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
