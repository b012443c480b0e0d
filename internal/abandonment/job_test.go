package abandonment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/db/models"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/enums"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/logger"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/whatsapp"
)

type fakeSettings struct {
	shops []models.ShopSettings
	err   error
}

func (f *fakeSettings) ListAbandonmentEnabled(ctx context.Context) ([]models.ShopSettings, error) {
	return f.shops, f.err
}

type fakeCarts struct {
	eligible   map[string][]models.Cart
	eligibleFn func(shop string, cutoff time.Time) ([]models.Cart, error)
	cutoffs    []time.Time
	abandoned  []string
}

func (f *fakeCarts) FindEligible(ctx context.Context, shop string, cutoff time.Time) ([]models.Cart, error) {
	f.cutoffs = append(f.cutoffs, cutoff)
	if f.eligibleFn != nil {
		return f.eligibleFn(shop, cutoff)
	}
	return f.eligible[shop], nil
}

func (f *fakeCarts) MarkAbandoned(ctx context.Context, shop, cartID string) error {
	f.abandoned = append(f.abandoned, shop+"/"+cartID)
	return nil
}

type fakeExecutions struct {
	defs  map[string]*models.Automation
	execs []models.AutomationExecution
	clock func() time.Time
}

func newFakeExecutions(clock func() time.Time) *fakeExecutions {
	return &fakeExecutions{defs: map[string]*models.Automation{}, clock: clock}
}

func (f *fakeExecutions) FindOrCreate(ctx context.Context, def *models.Automation) (*models.Automation, error) {
	key := def.Shop + "/" + def.Name
	if existing, ok := f.defs[key]; ok {
		return existing, nil
	}
	def.ID = uuid.New()
	f.defs[key] = def
	return def, nil
}

func (f *fakeExecutions) CountExecutionsByOrder(ctx context.Context, automationID uuid.UUID, orderID string) (int64, error) {
	var count int64
	for _, e := range f.execs {
		if e.AutomationID == automationID && e.OrderID != nil && *e.OrderID == orderID {
			count++
		}
	}
	return count, nil
}

func (f *fakeExecutions) LatestExecutionByOrder(ctx context.Context, automationID uuid.UUID, orderID string) (*models.AutomationExecution, error) {
	var latest *models.AutomationExecution
	for i := range f.execs {
		e := &f.execs[i]
		if e.AutomationID != automationID || e.OrderID == nil || *e.OrderID != orderID {
			continue
		}
		if latest == nil || e.CreatedAt.After(latest.CreatedAt) {
			latest = e
		}
	}
	if latest == nil {
		return nil, errors.New("record not found")
	}
	return latest, nil
}

func (f *fakeExecutions) CreateExecution(ctx context.Context, exec *models.AutomationExecution) (*models.AutomationExecution, error) {
	exec.ID = uuid.New()
	exec.CreatedAt = f.clock()
	f.execs = append(f.execs, *exec)
	return exec, nil
}

type fakeTemplateSender struct {
	sendFn func(shop, phone string) error
	sends  []sentTemplate
}

type sentTemplate struct {
	Shop  string
	Phone string
	Type  whatsapp.TemplateType
	Vars  whatsapp.TemplateVars
}

func (f *fakeTemplateSender) SendWhatsAppTemplate(ctx context.Context, shop, phone string, ttype whatsapp.TemplateType, vars whatsapp.TemplateVars) (*whatsapp.SendResult, error) {
	f.sends = append(f.sends, sentTemplate{Shop: shop, Phone: phone, Type: ttype, Vars: vars})
	if f.sendFn != nil {
		if err := f.sendFn(shop, phone); err != nil {
			return nil, err
		}
	}
	return &whatsapp.SendResult{MessageID: "wamid.test"}, nil
}

type fixture struct {
	job        *Job
	settings   *fakeSettings
	carts      *fakeCarts
	executions *fakeExecutions
	sender     *fakeTemplateSender
	clock      *time.Time
}

func newFixture(t *testing.T, shops ...models.ShopSettings) *fixture {
	t.Helper()

	start := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	clock := &start
	now := func() time.Time { return *clock }

	settingsFake := &fakeSettings{shops: shops}
	cartsFake := &fakeCarts{eligible: map[string][]models.Cart{}}
	execFake := newFakeExecutions(now)
	senderFake := &fakeTemplateSender{}

	job, err := NewJob(JobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Settings:   settingsFake,
		Carts:      cartsFake,
		Executions: execFake,
		Sender:     senderFake,
		Now:        now,
	})
	if err != nil {
		t.Fatalf("unexpected job error: %v", err)
	}
	return &fixture{
		job:        job,
		settings:   settingsFake,
		carts:      cartsFake,
		executions: execFake,
		sender:     senderFake,
		clock:      clock,
	}
}

func intPtr(v int) *int { return &v }

func shopRow(shop string) models.ShopSettings {
	return models.ShopSettings{
		Shop:                       shop,
		EnableAbandonmentReminders: true,
		AbandonmentDelayHours:      intPtr(1),
		MaxReminders:               intPtr(3),
		ReminderIntervalHours:      intPtr(24),
	}
}

func staleCart(shop, cartID, phone string, age time.Duration, base time.Time) models.Cart {
	cart := models.Cart{
		ID:         uuid.New(),
		Shop:       shop,
		CartID:     cartID,
		LineItems:  `[{"title":"Green Tea","quantity":2},{"title":"Honey","quantity":1}]`,
		TotalPrice: "499.00",
		Currency:   "INR",
		Status:     enums.CartStatusActive,
		UpdatedAt:  base.Add(-age),
	}
	if phone != "" {
		cart.CustomerPhone = &phone
	}
	return cart
}

func TestJobFirstReminder(t *testing.T) {
	f := newFixture(t, shopRow("tea.myshopify.com"))
	f.carts.eligible["tea.myshopify.com"] = []models.Cart{
		staleCart("tea.myshopify.com", "cart-1", "9876543210", 2*time.Hour, *f.clock),
	}

	if err := f.job.Run(context.Background()); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}

	if len(f.carts.cutoffs) != 1 || !f.carts.cutoffs[0].Equal(f.clock.Add(-time.Hour)) {
		t.Fatalf("expected cutoff one hour before now, got %v", f.carts.cutoffs)
	}
	if len(f.carts.abandoned) != 1 || f.carts.abandoned[0] != "tea.myshopify.com/cart-1" {
		t.Fatalf("expected cart marked abandoned, got %v", f.carts.abandoned)
	}
	if len(f.sender.sends) != 1 {
		t.Fatalf("expected one send, got %d", len(f.sender.sends))
	}

	send := f.sender.sends[0]
	if send.Phone != "919876543210" {
		t.Fatalf("expected normalized phone, got %q", send.Phone)
	}
	if send.Type != whatsapp.TemplateAbandonedCart {
		t.Fatalf("unexpected template type %s", send.Type)
	}
	if send.Vars.ProductName != "Green Tea, Honey" {
		t.Fatalf("unexpected product names %q", send.Vars.ProductName)
	}
	if send.Vars.Price != "₹499.00" {
		t.Fatalf("expected rupee-prefixed total, got %q", send.Vars.Price)
	}
	if send.Vars.OrderID != "https://tea.myshopify.com/cart" {
		t.Fatalf("unexpected cart url %q", send.Vars.OrderID)
	}

	if len(f.executions.execs) != 1 {
		t.Fatalf("expected one execution, got %d", len(f.executions.execs))
	}
	exec := f.executions.execs[0]
	if exec.Status != enums.ExecutionStatusSent || exec.SentAt == nil {
		t.Fatalf("expected sent execution, got %+v", exec)
	}
	if exec.OrderID == nil || *exec.OrderID != "cart-1" {
		t.Fatalf("expected cart id recorded as order id, got %+v", exec.OrderID)
	}
}

func TestJobIntervalGate(t *testing.T) {
	f := newFixture(t, shopRow("tea.myshopify.com"))
	cart := staleCart("tea.myshopify.com", "cart-1", "9876543210", 2*time.Hour, *f.clock)
	f.carts.eligible["tea.myshopify.com"] = []models.Cart{cart}

	if err := f.job.Run(context.Background()); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}
	if len(f.executions.execs) != 1 {
		t.Fatalf("expected one execution after first run, got %d", len(f.executions.execs))
	}

	// One hour later the 24h interval is unmet: no new execution.
	*f.clock = f.clock.Add(time.Hour)
	cart.Status = enums.CartStatusAbandoned
	f.carts.eligible["tea.myshopify.com"] = []models.Cart{cart}

	if err := f.job.Run(context.Background()); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}
	if len(f.executions.execs) != 1 {
		t.Fatalf("expected no new execution within interval, got %d", len(f.executions.execs))
	}
	if len(f.sender.sends) != 1 {
		t.Fatalf("expected no new send within interval, got %d", len(f.sender.sends))
	}

	// Past the interval the second reminder goes out.
	*f.clock = f.clock.Add(24 * time.Hour)
	if err := f.job.Run(context.Background()); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}
	if len(f.executions.execs) != 2 {
		t.Fatalf("expected second reminder after interval, got %d executions", len(f.executions.execs))
	}
	if len(f.carts.abandoned) != 1 {
		t.Fatalf("expected abandoned transition only once, got %v", f.carts.abandoned)
	}
}

func TestJobImmediateRerunIsIdempotent(t *testing.T) {
	f := newFixture(t, shopRow("tea.myshopify.com"))
	cart := staleCart("tea.myshopify.com", "cart-1", "9876543210", 2*time.Hour, *f.clock)
	f.carts.eligible["tea.myshopify.com"] = []models.Cart{cart}

	if err := f.job.Run(context.Background()); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}
	if err := f.job.Run(context.Background()); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}

	if len(f.executions.execs) != 1 {
		t.Fatalf("expected a single execution across back-to-back runs, got %d", len(f.executions.execs))
	}
}

func TestJobMaxRemindersTerminal(t *testing.T) {
	f := newFixture(t, shopRow("tea.myshopify.com"))
	cart := staleCart("tea.myshopify.com", "cart-1", "9876543210", 48*time.Hour, *f.clock)
	cart.Status = enums.CartStatusAbandoned
	f.carts.eligible["tea.myshopify.com"] = []models.Cart{cart}

	def, err := f.executions.FindOrCreate(context.Background(), &models.Automation{
		Shop: "tea.myshopify.com", Name: AutomationName, Trigger: enums.TriggerCartAbandoned,
	})
	if err != nil {
		t.Fatalf("unexpected seed error: %v", err)
	}
	cartID := "cart-1"
	for i, status := range []enums.ExecutionStatus{enums.ExecutionStatusSent, enums.ExecutionStatusSent, enums.ExecutionStatusFailed} {
		f.executions.execs = append(f.executions.execs, models.AutomationExecution{
			ID:           uuid.New(),
			AutomationID: def.ID,
			OrderID:      &cartID,
			Status:       status,
			CreatedAt:    f.clock.Add(time.Duration(-72+i*24) * time.Hour),
		})
	}

	if err := f.job.Run(context.Background()); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}

	if len(f.sender.sends) != 0 {
		t.Fatalf("expected no sends at max reminders, got %d", len(f.sender.sends))
	}
	if len(f.executions.execs) != 3 {
		t.Fatalf("expected no new executions at max reminders, got %d", len(f.executions.execs))
	}
	if len(f.carts.abandoned) != 0 {
		t.Fatalf("expected no status transition at max reminders, got %v", f.carts.abandoned)
	}
}

func TestJobNoPhoneMarksButNeverMessages(t *testing.T) {
	f := newFixture(t, shopRow("tea.myshopify.com"))
	cart := staleCart("tea.myshopify.com", "cart-1", "", 2*time.Hour, *f.clock)
	f.carts.eligible["tea.myshopify.com"] = []models.Cart{cart}

	for i := 0; i < 3; i++ {
		if err := f.job.Run(context.Background()); err != nil {
			t.Fatalf("unexpected run error: %v", err)
		}
		*f.clock = f.clock.Add(25 * time.Hour)
	}

	if len(f.carts.abandoned) == 0 {
		t.Fatal("expected cart marked abandoned on first pass")
	}
	if len(f.sender.sends) != 0 {
		t.Fatalf("expected no sends for phone-less cart, got %d", len(f.sender.sends))
	}
	if len(f.executions.execs) != 0 {
		t.Fatalf("expected no executions for phone-less cart, got %d", len(f.executions.execs))
	}
}

func TestJobFailedSendRecordedAndCounted(t *testing.T) {
	f := newFixture(t, shopRow("tea.myshopify.com"))
	cart := staleCart("tea.myshopify.com", "cart-1", "9876543210", 2*time.Hour, *f.clock)
	f.carts.eligible["tea.myshopify.com"] = []models.Cart{cart}
	f.sender.sendFn = func(shop, phone string) error {
		return errors.New("whatsapp api error: 500")
	}

	if err := f.job.Run(context.Background()); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}

	if len(f.executions.execs) != 1 {
		t.Fatalf("expected one failed execution, got %d", len(f.executions.execs))
	}
	exec := f.executions.execs[0]
	if exec.Status != enums.ExecutionStatusFailed {
		t.Fatalf("expected failed status, got %s", exec.Status)
	}
	if exec.ErrorMessage == nil || !strings.Contains(*exec.ErrorMessage, "whatsapp api error") {
		t.Fatalf("expected provider error recorded, got %+v", exec.ErrorMessage)
	}

	// The failed attempt counts toward the interval: an immediate rerun
	// does not retry.
	f.sender.sendFn = nil
	cart.Status = enums.CartStatusAbandoned
	f.carts.eligible["tea.myshopify.com"] = []models.Cart{cart}
	if err := f.job.Run(context.Background()); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}
	if len(f.executions.execs) != 1 {
		t.Fatalf("expected failed attempt to gate retry, got %d executions", len(f.executions.execs))
	}
}

func TestJobMalformedLineItems(t *testing.T) {
	f := newFixture(t, shopRow("tea.myshopify.com"))
	cart := staleCart("tea.myshopify.com", "cart-1", "9876543210", 2*time.Hour, *f.clock)
	cart.LineItems = `{"not":"a list"`
	cart.Currency = "USD"
	f.carts.eligible["tea.myshopify.com"] = []models.Cart{cart}

	if err := f.job.Run(context.Background()); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}

	if len(f.sender.sends) != 1 {
		t.Fatalf("expected send despite malformed items, got %d", len(f.sender.sends))
	}
	if f.sender.sends[0].Vars.ProductName != "items" {
		t.Fatalf("expected fallback product name, got %q", f.sender.sends[0].Vars.ProductName)
	}
	if f.sender.sends[0].Vars.Price != "$499.00" {
		t.Fatalf("expected dollar-prefixed total, got %q", f.sender.sends[0].Vars.Price)
	}
}

func TestJobShopIsolation(t *testing.T) {
	f := newFixture(t, shopRow("broken.myshopify.com"), shopRow("tea.myshopify.com"))
	f.carts.eligibleFn = func(shop string, cutoff time.Time) ([]models.Cart, error) {
		if shop == "broken.myshopify.com" {
			return nil, fmt.Errorf("connection reset")
		}
		return []models.Cart{staleCart(shop, "cart-1", "9876543210", 2*time.Hour, *f.clock)}, nil
	}

	err := f.job.Run(context.Background())
	if err == nil {
		t.Fatal("expected aggregated error from broken shop")
	}
	if !strings.Contains(err.Error(), "broken.myshopify.com") {
		t.Fatalf("expected error to name the failing shop, got %v", err)
	}

	if len(f.sender.sends) != 1 || f.sender.sends[0].Shop != "tea.myshopify.com" {
		t.Fatalf("expected healthy shop still processed, got %+v", f.sender.sends)
	}
}

func TestJobRecoversFromShopPanic(t *testing.T) {
	f := newFixture(t, shopRow("panicky.myshopify.com"), shopRow("tea.myshopify.com"))
	f.carts.eligibleFn = func(shop string, cutoff time.Time) ([]models.Cart, error) {
		if shop == "panicky.myshopify.com" {
			panic("boom")
		}
		return []models.Cart{staleCart(shop, "cart-1", "9876543210", 2*time.Hour, *f.clock)}, nil
	}

	err := f.job.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "panic") {
		t.Fatalf("expected recovered panic in error, got %v", err)
	}
	if len(f.sender.sends) != 1 {
		t.Fatalf("expected second shop processed after panic, got %d sends", len(f.sender.sends))
	}
}

func TestJobDefaultsWhenPolicyUnset(t *testing.T) {
	row := models.ShopSettings{Shop: "tea.myshopify.com", EnableAbandonmentReminders: true}
	f := newFixture(t, row)

	if err := f.job.Run(context.Background()); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}
	if len(f.carts.cutoffs) != 1 || !f.carts.cutoffs[0].Equal(f.clock.Add(-time.Hour)) {
		t.Fatalf("expected default one hour delay, got %v", f.carts.cutoffs)
	}
}
