package abandonment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/internal/settings"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/internal/shopify"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/db/models"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/enums"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/logger"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/whatsapp"
)

// AutomationName identifies the synthesized definition that owns every
// abandoned-cart reminder execution. The execution count per (definition,
// cart id) is the reminder counter.
const AutomationName = "Abandoned Cart Webhook"

const (
	fallbackProductName = "items"
	fallbackFirstName   = "Customer"
)

type settingsReader interface {
	ListAbandonmentEnabled(ctx context.Context) ([]models.ShopSettings, error)
}

type cartLedger interface {
	FindEligible(ctx context.Context, shop string, cutoff time.Time) ([]models.Cart, error)
	MarkAbandoned(ctx context.Context, shop, cartID string) error
}

type executionLedger interface {
	FindOrCreate(ctx context.Context, def *models.Automation) (*models.Automation, error)
	CountExecutionsByOrder(ctx context.Context, automationID uuid.UUID, orderID string) (int64, error)
	LatestExecutionByOrder(ctx context.Context, automationID uuid.UUID, orderID string) (*models.AutomationExecution, error)
	CreateExecution(ctx context.Context, exec *models.AutomationExecution) (*models.AutomationExecution, error)
}

type templateSender interface {
	SendWhatsAppTemplate(ctx context.Context, shop, phone string, ttype whatsapp.TemplateType, vars whatsapp.TemplateVars) (*whatsapp.SendResult, error)
}

// JobParams configure the abandoned-cart sweep.
type JobParams struct {
	Logger     *logger.Logger
	Settings   settingsReader
	Carts      cartLedger
	Executions executionLedger
	Sender     templateSender
	Now        func() time.Time
}

// NewJob builds the sweep that reminds shoppers about inactive carts.
func NewJob(params JobParams) (*Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Settings == nil {
		return nil, fmt.Errorf("settings reader required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart ledger required")
	}
	if params.Executions == nil {
		return nil, fmt.Errorf("execution ledger required")
	}
	if params.Sender == nil {
		return nil, fmt.Errorf("template sender required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Job{
		logg:       params.Logger,
		settings:   params.Settings,
		carts:      params.Carts,
		executions: params.Executions,
		sender:     params.Sender,
		now:        now,
	}, nil
}

// Job is the periodic abandoned-cart sweep. One invocation processes every
// shop with reminders enabled; shops are isolated from each other's failures.
type Job struct {
	logg       *logger.Logger
	settings   settingsReader
	carts      cartLedger
	executions executionLedger
	sender     templateSender
	now        func() time.Time
}

func (j *Job) Name() string { return "abandoned-carts" }

func (j *Job) Run(ctx context.Context) error {
	shops, err := j.settings.ListAbandonmentEnabled(ctx)
	if err != nil {
		return fmt.Errorf("list shops with reminders enabled: %w", err)
	}

	var errs error
	for i := range shops {
		if err := j.processShop(ctx, shops[i]); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("shop %s: %w", shops[i].Shop, err))
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{"shops": len(shops)})
	j.logg.Info(logCtx, "abandoned cart sweep complete")
	return errs
}

// processShop never lets one shop's panic or error reach the others.
func (j *Job) processShop(ctx context.Context, row models.ShopSettings) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while processing shop: %v", r)
		}
	}()

	shopCtx := j.logg.WithShop(ctx, row.Shop)
	policy := settings.ResolvePolicy(row)
	cutoff := policy.Cutoff(j.now().UTC())

	carts, err := j.carts.FindEligible(shopCtx, row.Shop, cutoff)
	if err != nil {
		return fmt.Errorf("find eligible carts: %w", err)
	}
	if len(carts) == 0 {
		return nil
	}

	def, err := j.executions.FindOrCreate(shopCtx, &models.Automation{
		Shop:     row.Shop,
		Name:     AutomationName,
		Trigger:  enums.TriggerCartAbandoned,
		Channel:  enums.ChannelWhatsApp,
		Message:  "Abandoned cart reminder sent via WhatsApp",
		IsActive: true,
	})
	if err != nil {
		return fmt.Errorf("resolve abandoned cart automation: %w", err)
	}

	reminded := 0
	for i := range carts {
		sent, cartErr := j.processCart(shopCtx, row.Shop, policy, def, &carts[i])
		if cartErr != nil {
			j.logg.Error(j.logg.WithField(shopCtx, "cart_id", carts[i].CartID), "abandoned cart reminder failed", cartErr)
			continue
		}
		if sent {
			reminded++
		}
	}

	logCtx := j.logg.WithFields(shopCtx, map[string]any{
		"eligible": len(carts),
		"reminded": reminded,
	})
	j.logg.Info(logCtx, "shop sweep complete")
	return nil
}

// processCart applies the reminder policy to one cart and reports whether a
// reminder went out. Policy skips are not errors.
func (j *Job) processCart(ctx context.Context, shop string, policy settings.ReminderPolicy, def *models.Automation, cart *models.Cart) (bool, error) {
	existing, err := j.executions.CountExecutionsByOrder(ctx, def.ID, cart.CartID)
	if err != nil {
		return false, fmt.Errorf("count reminders: %w", err)
	}

	// Terminal until new cart activity resets the clock.
	if existing >= int64(policy.MaxReminders) {
		return false, nil
	}

	if existing > 0 {
		last, err := j.executions.LatestExecutionByOrder(ctx, def.ID, cart.CartID)
		if err != nil {
			return false, fmt.Errorf("load last reminder: %w", err)
		}
		if j.now().UTC().Sub(last.CreatedAt) < policy.Interval() {
			return false, nil
		}
	}

	if existing == 0 {
		if err := j.carts.MarkAbandoned(ctx, shop, cart.CartID); err != nil {
			return false, fmt.Errorf("mark cart abandoned: %w", err)
		}
	}

	// No phone means no reminder, but the cart keeps its abandoned status
	// and stays a silent no-op on every future sweep.
	if cart.CustomerPhone == nil || *cart.CustomerPhone == "" {
		return false, nil
	}

	sequence := int(existing) + 1
	vars, itemCount := buildReminderVars(shop, cart)
	phone := shopify.FormatPhone(*cart.CustomerPhone)
	_, sendErr := j.sender.SendWhatsAppTemplate(ctx, shop, phone, whatsapp.TemplateAbandonedCart, vars)

	if err := j.recordOutcome(ctx, def.ID, cart.CartID, sendErr); err != nil {
		return false, err
	}
	if sendErr != nil {
		// Recorded as a failed execution; it still counts toward the
		// reminder limit and interval on the next sweep.
		return false, sendErr
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cart_id":         cart.CartID,
		"reminder_number": sequence,
		"item_count":      itemCount,
	})
	j.logg.Info(logCtx, "abandoned cart reminder sent")
	return true, nil
}

func (j *Job) recordOutcome(ctx context.Context, automationID uuid.UUID, cartID string, sendErr error) error {
	exec := &models.AutomationExecution{
		AutomationID: automationID,
		OrderID:      &cartID,
	}
	if sendErr != nil {
		msg := sendErr.Error()
		exec.Status = enums.ExecutionStatusFailed
		exec.ErrorMessage = &msg
	} else {
		sentAt := j.now().UTC()
		exec.Status = enums.ExecutionStatusSent
		exec.SentAt = &sentAt
	}
	if _, err := j.executions.CreateExecution(ctx, exec); err != nil {
		return fmt.Errorf("record reminder execution: %w", err)
	}
	return nil
}

func buildReminderVars(shop string, cart *models.Cart) (whatsapp.TemplateVars, int) {
	var items []shopify.LineItem
	// Malformed stored JSON degrades to an empty list, never an error.
	if err := json.Unmarshal([]byte(cart.LineItems), &items); err != nil {
		items = nil
	}

	names := ""
	for _, item := range items {
		if item.Title == "" {
			continue
		}
		if names != "" {
			names += ", "
		}
		names += item.Title
	}
	if names == "" {
		names = fallbackProductName
	}

	symbol := "$"
	if cart.Currency == "INR" {
		symbol = "₹"
	}

	return whatsapp.TemplateVars{
		FirstName:   fallbackFirstName,
		OrderID:     fmt.Sprintf("https://%s/cart", shop),
		ProductName: names,
		Price:       symbol + cart.TotalPrice,
	}, len(items)
}
