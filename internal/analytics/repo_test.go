package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/db/models"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/enums"
)

func setupAnalyticsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	automations := `
CREATE TABLE IF NOT EXISTS automations (
  id TEXT PRIMARY KEY,
  shop TEXT NOT NULL,
  name TEXT NOT NULL,
  "trigger" TEXT NOT NULL,
  channel TEXT NOT NULL,
  subject TEXT NOT NULL DEFAULT '',
  message TEXT NOT NULL DEFAULT '',
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	executions := `
CREATE TABLE IF NOT EXISTS automation_executions (
  id TEXT PRIMARY KEY,
  automation_id TEXT NOT NULL,
  customer_id TEXT,
  order_id TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  sent_at DATETIME,
  error_message TEXT,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(automations).Error)
	require.NoError(t, db.Exec(executions).Error)
	return db
}

func seedAutomation(t *testing.T, db *gorm.DB, shop, name string, active bool) *models.Automation {
	t.Helper()

	def := &models.Automation{
		ID:       uuid.New(),
		Shop:     shop,
		Name:     name,
		Trigger:  enums.TriggerOrderPaid,
		Channel:  enums.ChannelWhatsApp,
		IsActive: active,
	}
	require.NoError(t, db.Create(def).Error)
	return def
}

func seedExec(t *testing.T, db *gorm.DB, automationID uuid.UUID, status enums.ExecutionStatus, createdAt time.Time) {
	t.Helper()

	exec := &models.AutomationExecution{
		ID:           uuid.New(),
		AutomationID: automationID,
		Status:       status,
		CreatedAt:    createdAt,
	}
	require.NoError(t, db.Create(exec).Error)
}

func TestRepositoryCountAutomations(t *testing.T) {
	db := setupAnalyticsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seedAutomation(t, db, "tea.myshopify.com", "A", true)
	seedAutomation(t, db, "tea.myshopify.com", "B", false)
	seedAutomation(t, db, "other.myshopify.com", "C", true)

	counts, err := repo.CountAutomations(ctx, "tea.myshopify.com")
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts.Total)
	assert.Equal(t, int64(1), counts.Active)
}

func TestRepositoryExecutionStats(t *testing.T) {
	db := setupAnalyticsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	def := seedAutomation(t, db, "tea.myshopify.com", "A", true)
	other := seedAutomation(t, db, "other.myshopify.com", "B", true)

	now := time.Now().UTC()
	seedExec(t, db, def.ID, enums.ExecutionStatusSent, now.Add(-2*time.Hour))
	seedExec(t, db, def.ID, enums.ExecutionStatusFailed, now.Add(-time.Hour))
	seedExec(t, db, def.ID, enums.ExecutionStatusSent, now)
	seedExec(t, db, other.ID, enums.ExecutionStatusSent, now)

	stats, err := repo.ExecutionStats(ctx, "tea.myshopify.com")
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(2), stats.Sent)
}

func TestRepositoryCountExecutionsSince(t *testing.T) {
	db := setupAnalyticsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	def := seedAutomation(t, db, "tea.myshopify.com", "A", true)
	now := time.Now().UTC()
	seedExec(t, db, def.ID, enums.ExecutionStatusSent, now.Add(-30*time.Hour))
	seedExec(t, db, def.ID, enums.ExecutionStatusSent, now.Add(-time.Hour))

	count, err := repo.CountExecutionsSince(ctx, "tea.myshopify.com", now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRepositoryTopCampaigns(t *testing.T) {
	db := setupAnalyticsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	busy := seedAutomation(t, db, "tea.myshopify.com", "Busy", true)
	quiet := seedAutomation(t, db, "tea.myshopify.com", "Quiet", true)

	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		seedExec(t, db, busy.ID, enums.ExecutionStatusSent, now.Add(time.Duration(-i)*time.Hour))
	}
	seedExec(t, db, busy.ID, enums.ExecutionStatusFailed, now)
	seedExec(t, db, quiet.ID, enums.ExecutionStatusSent, now)

	top, err := repo.TopCampaigns(ctx, "tea.myshopify.com", 3)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "Busy", top[0].Name)
	assert.Equal(t, int64(4), top[0].Total)
	assert.Equal(t, int64(3), top[0].Sent)
	assert.Equal(t, "Quiet", top[1].Name)
}
