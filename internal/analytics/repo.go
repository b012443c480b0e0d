package analytics

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/db/models"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/enums"
)

// AutomationCounts summarizes a shop's automation registry.
type AutomationCounts struct {
	Total  int64
	Active int64
}

// ExecutionStats summarizes a shop's execution history.
type ExecutionStats struct {
	Total int64
	Sent  int64
}

// CampaignStats is one automation's execution tally for the dashboard's
// top-campaigns widget.
type CampaignStats struct {
	Name  string `gorm:"column:name"`
	Total int64  `gorm:"column:total"`
	Sent  int64  `gorm:"column:sent"`
}

// Repository runs the dashboard's aggregate queries.
type Repository interface {
	CountAutomations(ctx context.Context, shop string) (AutomationCounts, error)
	ExecutionStats(ctx context.Context, shop string) (ExecutionStats, error)
	CountExecutionsSince(ctx context.Context, shop string, since time.Time) (int64, error)
	TopCampaigns(ctx context.Context, shop string, limit int) ([]CampaignStats, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an analytics repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CountAutomations(ctx context.Context, shop string) (AutomationCounts, error) {
	var counts AutomationCounts
	err := r.db.WithContext(ctx).
		Model(&models.Automation{}).
		Where("shop = ?", shop).
		Count(&counts.Total).Error
	if err != nil {
		return counts, err
	}
	err = r.db.WithContext(ctx).
		Model(&models.Automation{}).
		Where("shop = ? AND is_active = ?", shop, true).
		Count(&counts.Active).Error
	return counts, err
}

func (r *repository) ExecutionStats(ctx context.Context, shop string) (ExecutionStats, error) {
	var stats ExecutionStats
	base := r.db.WithContext(ctx).
		Model(&models.AutomationExecution{}).
		Joins("JOIN automations ON automations.id = automation_executions.automation_id").
		Where("automations.shop = ?", shop)
	if err := base.Count(&stats.Total).Error; err != nil {
		return stats, err
	}
	err := r.db.WithContext(ctx).
		Model(&models.AutomationExecution{}).
		Joins("JOIN automations ON automations.id = automation_executions.automation_id").
		Where("automations.shop = ? AND automation_executions.status = ?", shop, enums.ExecutionStatusSent).
		Count(&stats.Sent).Error
	return stats, err
}

func (r *repository) CountExecutionsSince(ctx context.Context, shop string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AutomationExecution{}).
		Joins("JOIN automations ON automations.id = automation_executions.automation_id").
		Where("automations.shop = ? AND automation_executions.created_at >= ?", shop, since).
		Count(&count).Error
	return count, err
}

func (r *repository) TopCampaigns(ctx context.Context, shop string, limit int) ([]CampaignStats, error) {
	if limit <= 0 {
		limit = 3
	}
	var rows []CampaignStats
	err := r.db.WithContext(ctx).
		Model(&models.AutomationExecution{}).
		Select("automations.name AS name, COUNT(*) AS total, SUM(CASE WHEN automation_executions.status = ? THEN 1 ELSE 0 END) AS sent", enums.ExecutionStatusSent).
		Joins("JOIN automations ON automations.id = automation_executions.automation_id").
		Where("automations.shop = ?", shop).
		Group("automations.name").
		Order("total DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
