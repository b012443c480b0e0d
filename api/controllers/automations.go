package controllers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/api/responses"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/internal/automations"
	pkgerrors "github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/errors"
	"github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/logger"
)

type recentExecutionLister interface {
	RecentExecutions(ctx context.Context, shop string, limit int) ([]automations.ExecutionWithAutomation, error)
}

// ListAutomations returns the shop's automation definitions together with
// their latest executions, matching the active-automations admin page.
func ListAutomations(svc automations.Service, recent recentExecutionLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		shop := shopFromRequest(r)
		if shop == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "shop domain header missing"))
			return
		}

		defs, err := svc.List(ctx, shop)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		payload := map[string]any{"automations": defs}
		if recent != nil {
			executions, err := recent.RecentExecutions(ctx, shop, 0)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list recent executions"))
				return
			}
			payload["recentExecutions"] = executions
		}
		responses.WriteSuccess(w, payload)
	}
}

func CreateAutomation(svc automations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		shop := shopFromRequest(r)
		if shop == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "shop domain header missing"))
			return
		}

		var input automations.CreateInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body"))
			return
		}

		def, err := svc.Create(ctx, shop, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, def)
	}
}

// SetAutomationActive toggles a definition on or off.
func SetAutomationActive(svc automations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		shop := shopFromRequest(r)
		if shop == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "shop domain header missing"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "automationID"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid automation id"))
			return
		}

		var input struct {
			IsActive bool `json:"isActive"`
		}
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body"))
			return
		}

		if err := svc.SetActive(ctx, shop, id, input.IsActive); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"id": id, "isActive": input.IsActive})
	}
}

// ListTemplateLibrary returns the static starter templates.
func ListTemplateLibrary() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, automations.Library())
	}
}
