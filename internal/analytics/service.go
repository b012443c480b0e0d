package analytics

import (
	"context"
	"errors"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/internal/automations"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/internal/settings"
	pkgerrors "github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/errors"
)

const (
	topCampaignLimit    = 3
	recentActivityLimit = 10
)

// Campaign is one automation's dashboard row.
type Campaign struct {
	Name        string `json:"name"`
	Executions  int64  `json:"executions"`
	SuccessRate int    `json:"successRate"`
}

// Activity is one recent execution rendered for the dashboard feed.
type Activity struct {
	AutomationName string     `json:"automationName"`
	Channel        string     `json:"channel"`
	Trigger        string     `json:"trigger"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"createdAt"`
	SentAt         *time.Time `json:"sentAt,omitempty"`
	ErrorMessage   *string    `json:"errorMessage,omitempty"`
}

// Dashboard aggregates a shop's notification activity.
type Dashboard struct {
	Configured        bool       `json:"configured"`
	TotalAutomations  int64      `json:"totalAutomations"`
	ActiveAutomations int64      `json:"activeAutomations"`
	TotalExecutions   int64      `json:"totalExecutions"`
	SuccessRate       int        `json:"successRate"`
	TodayExecutions   int64      `json:"todayExecutions"`
	TopCampaigns      []Campaign `json:"topCampaigns"`
	RecentActivity    []Activity `json:"recentActivity"`
}

type recentReader interface {
	RecentExecutions(ctx context.Context, shop string, limit int) ([]automations.ExecutionWithAutomation, error)
}

// Service builds dashboard aggregates for a shop.
type Service interface {
	Dashboard(ctx context.Context, shop string) (*Dashboard, error)
}

type service struct {
	repo     Repository
	recent   recentReader
	settings settings.Repository
	now      func() time.Time
}

// ServiceParams wires the analytics service dependencies.
type ServiceParams struct {
	Repo     Repository
	Recent   recentReader
	Settings settings.Repository
	Now      func() time.Time
}

// NewService validates dependencies and builds the analytics service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "analytics repository required")
	}
	if params.Recent == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "recent executions reader required")
	}
	if params.Settings == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "settings repository required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		repo:     params.Repo,
		recent:   params.Recent,
		settings: params.Settings,
		now:      now,
	}, nil
}

func (s *service) Dashboard(ctx context.Context, shop string) (*Dashboard, error) {
	if shop == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop is required")
	}

	dash := &Dashboard{}

	row, err := s.settings.GetByShop(ctx, shop)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load settings")
	}
	if row != nil {
		dash.Configured = row.PhoneID != "" && row.AccessToken != "" && row.OrderTemplateName != ""
	}

	counts, err := s.repo.CountAutomations(ctx, shop)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count automations")
	}
	dash.TotalAutomations = counts.Total
	dash.ActiveAutomations = counts.Active

	stats, err := s.repo.ExecutionStats(ctx, shop)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execution stats")
	}
	dash.TotalExecutions = stats.Total
	dash.SuccessRate = ratePercent(stats.Sent, stats.Total)

	midnight := s.midnight()
	today, err := s.repo.CountExecutionsSince(ctx, shop, midnight)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count today's executions")
	}
	dash.TodayExecutions = today

	top, err := s.repo.TopCampaigns(ctx, shop, topCampaignLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "top campaigns")
	}
	dash.TopCampaigns = make([]Campaign, 0, len(top))
	for _, c := range top {
		dash.TopCampaigns = append(dash.TopCampaigns, Campaign{
			Name:        c.Name,
			Executions:  c.Total,
			SuccessRate: ratePercent(c.Sent, c.Total),
		})
	}

	recent, err := s.recent.RecentExecutions(ctx, shop, recentActivityLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recent executions")
	}
	dash.RecentActivity = make([]Activity, 0, len(recent))
	for _, e := range recent {
		dash.RecentActivity = append(dash.RecentActivity, Activity{
			AutomationName: e.AutomationName,
			Channel:        string(e.Channel),
			Trigger:        string(e.Trigger),
			Status:         string(e.Status),
			CreatedAt:      e.CreatedAt,
			SentAt:         e.SentAt,
			ErrorMessage:   e.ErrorMessage,
		})
	}

	return dash, nil
}

func (s *service) midnight() time.Time {
	now := s.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func ratePercent(sent, total int64) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(sent) / float64(total) * 100))
}
