package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/enums"
)

// Automation is a merchant-defined or system-synthesized notification rule
// keyed by (shop, name, trigger). The core creates rows on first use and
// never deletes them; deletion is a merchant UI concern.
type Automation struct {
	ID         uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Shop       string                `gorm:"column:shop;not null;uniqueIndex:idx_automations_shop_name_trigger,priority:1"`
	Name       string                `gorm:"column:name;not null;uniqueIndex:idx_automations_shop_name_trigger,priority:2"`
	Trigger    enums.Trigger         `gorm:"column:trigger;not null;uniqueIndex:idx_automations_shop_name_trigger,priority:3"`
	Channel    enums.Channel         `gorm:"column:channel;not null"`
	Subject    string                `gorm:"column:subject;not null;default:''"`
	Message    string                `gorm:"column:message;not null;default:''"`
	IsActive   bool                  `gorm:"column:is_active;not null"`
	Executions []AutomationExecution `gorm:"foreignKey:AutomationID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// AutomationExecution is one append-only audit record of an attempted
// notification dispatch. Cart reminders store the cart id in OrderID; the
// count of executions for a shop's abandoned-cart automation and a given
// cart id is the reminder counter.
type AutomationExecution struct {
	ID           uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AutomationID uuid.UUID             `gorm:"column:automation_id;type:uuid;not null;index"`
	CustomerID   *string               `gorm:"column:customer_id"`
	OrderID      *string               `gorm:"column:order_id;index"`
	Status       enums.ExecutionStatus `gorm:"column:status;not null;default:'pending'"`
	SentAt       *time.Time            `gorm:"column:sent_at"`
	ErrorMessage *string               `gorm:"column:error_message"`
	CreatedAt    time.Time             `gorm:"column:created_at;autoCreateTime"`
}
