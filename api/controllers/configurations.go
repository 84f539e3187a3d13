package controllers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/backoffice-backend/api/middleware"
	"github.com/angelmondragon/backoffice-backend/api/responses"
	"github.com/angelmondragon/backoffice-backend/api/validators"
	"github.com/angelmondragon/backoffice-backend/internal/configurations"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/backoffice-backend/pkg/errors"
	"github.com/angelmondragon/backoffice-backend/pkg/logger"
)

// upsertConfigurationRequest accepts the value either as a JSON string or as
// a raw JSON literal (true, 42, {"a":1}); both are stored as text.
type upsertConfigurationRequest struct {
	Key         string          `json:"key" validate:"required,max=100"`
	Value       json.RawMessage `json:"value" validate:"required"`
	Type        string          `json:"type,omitempty"`
	Description *string         `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`
}

func (r upsertConfigurationRequest) toInput() configurations.UpsertInput {
	value := strings.TrimSpace(string(r.Value))
	var text string
	if err := json.Unmarshal(r.Value, &text); err == nil {
		value = text
	}
	return configurations.UpsertInput{
		Key:         r.Key,
		Value:       value,
		Type:        enums.ConfigType(strings.ToLower(strings.TrimSpace(r.Type))),
		Description: r.Description,
		Category:    enums.ConfigCategory(strings.ToLower(strings.TrimSpace(r.Category))),
	}
}

// ConfigurationList returns settings grouped by category. Admin only.
func ConfigurationList(svc *configurations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "configuration service unavailable"))
			return
		}

		var category *enums.ConfigCategory
		if raw := validators.ParseQueryString(r, "category", 20); raw != "" {
			parsed, err := enums.ParseConfigCategory(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category filter").
					WithDetails(map[string]string{"category": "must be general, company, system or features"}))
				return
			}
			category = &parsed
		}

		grouped, err := svc.List(r.Context(), middleware.ActorFromContext(r.Context()), category)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, grouped)
	}
}

func ConfigurationDetail(svc *configurations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "configuration service unavailable"))
			return
		}

		cfg, err := svc.Get(r.Context(), middleware.ActorFromContext(r.Context()), chi.URLParam(r, "key"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cfg)
	}
}

// ConfigurationUpsert creates or replaces a setting and drops its cached value.
func ConfigurationUpsert(svc *configurations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "configuration service unavailable"))
			return
		}

		var payload upsertConfigurationRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cfg, err := svc.Upsert(r.Context(), middleware.ActorFromContext(r.Context()), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cfg)
	}
}

func ConfigurationDelete(svc *configurations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "configuration service unavailable"))
			return
		}

		if err := svc.Delete(r.Context(), middleware.ActorFromContext(r.Context()), chi.URLParam(r, "key")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteNoContent(w)
	}
}
