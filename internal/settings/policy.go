package settings

import (
	"time"

	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/db/models"
)

const (
	defaultDelayHours    = 1
	defaultMaxReminders  = 3
	defaultIntervalHours = 24
)

// ReminderPolicy is a shop's fully-resolved abandonment cadence. The nullable
// settings columns are collapsed into concrete values exactly once per shop
// per sweep; nothing downstream re-applies defaults.
type ReminderPolicy struct {
	DelayHours    int
	MaxReminders  int
	IntervalHours int
}

// ResolvePolicy applies the documented defaults (1h delay, 3 reminders, 24h
// interval) to the shop's stored cadence.
func ResolvePolicy(s models.ShopSettings) ReminderPolicy {
	policy := ReminderPolicy{
		DelayHours:    defaultDelayHours,
		MaxReminders:  defaultMaxReminders,
		IntervalHours: defaultIntervalHours,
	}
	if s.AbandonmentDelayHours != nil && *s.AbandonmentDelayHours > 0 {
		policy.DelayHours = *s.AbandonmentDelayHours
	}
	if s.MaxReminders != nil && *s.MaxReminders > 0 {
		policy.MaxReminders = *s.MaxReminders
	}
	if s.ReminderIntervalHours != nil && *s.ReminderIntervalHours > 0 {
		policy.IntervalHours = *s.ReminderIntervalHours
	}
	return policy
}

// Cutoff returns the newest updated_at a cart may have and still count as
// inactive past the delay window.
func (p ReminderPolicy) Cutoff(now time.Time) time.Time {
	return now.Add(-time.Duration(p.DelayHours) * time.Hour)
}

// Interval returns the minimum spacing between consecutive reminders.
func (p ReminderPolicy) Interval() time.Duration {
	return time.Duration(p.IntervalHours) * time.Hour
}
