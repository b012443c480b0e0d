package automations

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/db/models"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/enums"
	pkgerrors "github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/errors"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/logger"
)

// OutboundMessage is rendered content handed to a channel sender.
type OutboundMessage struct {
	ToEmail string
	ToPhone string
	Subject string
	Body    string
}

// Sender delivers a rendered message over one channel for a shop, using that
// shop's stored credentials.
type Sender interface {
	Send(ctx context.Context, shop string, channel enums.Channel, msg OutboundMessage) error
}

// DispatchSummary reports the outcome of one trigger dispatch.
type DispatchSummary struct {
	Matched int
	Sent    int
	Failed  int
}

// Service drives trigger automations and their admin surface.
type Service interface {
	Dispatch(ctx context.Context, shop string, trigger enums.Trigger, data EventData) (*DispatchSummary, error)
	EnsureDefinition(ctx context.Context, shop, name string, trigger enums.Trigger, channel enums.Channel) (*models.Automation, error)
	RecordOutcome(ctx context.Context, automationID uuid.UUID, customerID, orderID string, sendErr error) error
	List(ctx context.Context, shop string) ([]models.Automation, error)
	Create(ctx context.Context, shop string, input CreateInput) (*models.Automation, error)
	SetActive(ctx context.Context, shop string, id uuid.UUID, active bool) error
}

// CreateInput is a merchant-authored automation definition.
type CreateInput struct {
	Name    string        `json:"name" validate:"required"`
	Trigger enums.Trigger `json:"trigger" validate:"required"`
	Channel enums.Channel `json:"channel" validate:"required"`
	Subject string        `json:"subject"`
	Message string        `json:"message" validate:"required"`
}

type service struct {
	repo   Repository
	sender Sender
	logg   *logger.Logger
	now    func() time.Time
}

// ServiceParams wires the automations service dependencies.
type ServiceParams struct {
	Repo   Repository
	Sender Sender
	Logger *logger.Logger
	Now    func() time.Time
}

// NewService validates dependencies and builds the automations service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "automations repository required")
	}
	if params.Sender == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "automations sender required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "automations logger required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		repo:   params.Repo,
		sender: params.Sender,
		logg:   params.Logger,
		now:    now,
	}, nil
}

// Dispatch runs every active automation for (shop, trigger). Each automation
// is independent: a failing send records a failed execution and the loop
// moves on.
func (s *service) Dispatch(ctx context.Context, shop string, trigger enums.Trigger, data EventData) (*DispatchSummary, error) {
	if shop == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop is required")
	}
	defs, err := s.repo.ListActiveByTrigger(ctx, shop, trigger)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list automations")
	}

	summary := &DispatchSummary{Matched: len(defs)}
	var errs error
	for i := range defs {
		if err := s.dispatchOne(ctx, shop, &defs[i], data); err != nil {
			summary.Failed++
			errs = multierr.Append(errs, err)
			continue
		}
		summary.Sent++
	}
	if errs != nil {
		s.logg.Error(s.logg.WithShop(ctx, shop), "some automations failed to dispatch", errs)
	}
	return summary, nil
}

func (s *service) dispatchOne(ctx context.Context, shop string, def *models.Automation, data EventData) error {
	exec := &models.AutomationExecution{
		AutomationID: def.ID,
		Status:       enums.ExecutionStatusPending,
	}
	if data.CustomerID != "" {
		exec.CustomerID = &data.CustomerID
	}
	if data.OrderID != "" {
		exec.OrderID = &data.OrderID
	}
	if _, err := s.repo.CreateExecution(ctx, exec); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create execution")
	}

	msg := OutboundMessage{
		ToEmail: data.Email,
		ToPhone: data.Phone,
		Subject: RenderMessage(def.Subject, data),
		Body:    RenderMessage(def.Message, data),
	}
	sendErr := s.sender.Send(ctx, shop, def.Channel, msg)

	if sendErr != nil {
		errMsg := sendErr.Error()
		exec.Status = enums.ExecutionStatusFailed
		exec.ErrorMessage = &errMsg
	} else {
		sentAt := s.now()
		exec.Status = enums.ExecutionStatusSent
		exec.SentAt = &sentAt
	}
	if err := s.repo.UpdateExecution(ctx, exec); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update execution")
	}
	return sendErr
}

func (s *service) EnsureDefinition(ctx context.Context, shop, name string, trigger enums.Trigger, channel enums.Channel) (*models.Automation, error) {
	if shop == "" || name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop and name are required")
	}
	def, err := s.repo.FindOrCreate(ctx, &models.Automation{
		Shop:     shop,
		Name:     name,
		Trigger:  trigger,
		Channel:  channel,
		IsActive: true,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ensure automation definition")
	}
	return def, nil
}

// RecordOutcome appends a sent or failed execution in one step, for callers
// that performed the send themselves.
func (s *service) RecordOutcome(ctx context.Context, automationID uuid.UUID, customerID, orderID string, sendErr error) error {
	exec := &models.AutomationExecution{
		AutomationID: automationID,
	}
	if customerID != "" {
		exec.CustomerID = &customerID
	}
	if orderID != "" {
		exec.OrderID = &orderID
	}
	if sendErr != nil {
		errMsg := sendErr.Error()
		exec.Status = enums.ExecutionStatusFailed
		exec.ErrorMessage = &errMsg
	} else {
		sentAt := s.now()
		exec.Status = enums.ExecutionStatusSent
		exec.SentAt = &sentAt
	}
	if _, err := s.repo.CreateExecution(ctx, exec); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record execution")
	}
	return nil
}

func (s *service) List(ctx context.Context, shop string) ([]models.Automation, error) {
	if shop == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop is required")
	}
	defs, err := s.repo.ListByShop(ctx, shop)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list automations")
	}
	return defs, nil
}

func (s *service) Create(ctx context.Context, shop string, input CreateInput) (*models.Automation, error) {
	if shop == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop is required")
	}
	if !input.Trigger.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown trigger")
	}
	if !input.Channel.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown channel")
	}
	if input.Name == "" || input.Message == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name and message are required")
	}
	def, err := s.repo.Create(ctx, &models.Automation{
		Shop:     shop,
		Name:     input.Name,
		Trigger:  input.Trigger,
		Channel:  input.Channel,
		Subject:  input.Subject,
		Message:  input.Message,
		IsActive: true,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create automation")
	}
	return def, nil
}

func (s *service) SetActive(ctx context.Context, shop string, id uuid.UUID, active bool) error {
	if shop == "" || id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "shop and automation id are required")
	}
	if err := s.repo.SetActive(ctx, shop, id, active); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "automation not found")
	}
	return nil
}
