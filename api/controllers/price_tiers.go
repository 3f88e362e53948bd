package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/retailsignals/pricewise-backend/api/middleware"
	"github.com/retailsignals/pricewise-backend/api/responses"
	"github.com/retailsignals/pricewise-backend/api/validators"
	"github.com/retailsignals/pricewise-backend/internal/pricetiers"
	pkgerrors "github.com/retailsignals/pricewise-backend/pkg/errors"
	"github.com/retailsignals/pricewise-backend/pkg/logger"
)

// CreatePriceTier handles regional price tier creation.
func CreatePriceTier(svc pricetiers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.ClaimsFromContext(r.Context())
		if claims == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor context missing"))
			return
		}

		var payload priceTierRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tier, err := svc.CreatePriceTier(r.Context(), claims.TenantID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, tier)
	}
}

// UpdatePriceTier handles partial price tier mutation.
func UpdatePriceTier(svc pricetiers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.ClaimsFromContext(r.Context())
		if claims == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor context missing"))
			return
		}

		tierID, err := validators.ParsePathUUID(chi.URLParam(r, "priceTierID"), "priceTierID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload priceTierUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toUpdate()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tier, err := svc.UpdatePriceTier(r.Context(), claims.TenantID, tierID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, tier)
	}
}

// GetPriceTier returns a single price tier by id.
func GetPriceTier(svc pricetiers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.ClaimsFromContext(r.Context())
		if claims == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor context missing"))
			return
		}

		tierID, err := validators.ParsePathUUID(chi.URLParam(r, "priceTierID"), "priceTierID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tier, err := svc.GetPriceTier(r.Context(), claims.TenantID, tierID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, tier)
	}
}

// ListPriceTiers returns every price tier belonging to the tenant.
func ListPriceTiers(svc pricetiers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.ClaimsFromContext(r.Context())
		if claims == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor context missing"))
			return
		}

		result, err := svc.ListPriceTiers(r.Context(), claims.TenantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

type priceTierRequest struct {
	Code             string  `json:"code" validate:"required"`
	Name             string  `json:"name" validate:"required"`
	Multiplier       string  `json:"multiplier" validate:"required"`
	MarkupAmount     *string `json:"markup_amount,omitempty"`
	MarkupPercentage *string `json:"markup_percentage,omitempty"`
	IsActive         *bool   `json:"is_active,omitempty"`
}

func (r priceTierRequest) toInput() (pricetiers.PriceTierInput, error) {
	multiplier, err := decimal.NewFromString(strings.TrimSpace(r.Multiplier))
	if err != nil {
		return pricetiers.PriceTierInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multiplier")
	}

	markupAmount, err := parseDecimalPtr(r.MarkupAmount, "markup_amount")
	if err != nil {
		return pricetiers.PriceTierInput{}, err
	}
	markupPercentage, err := parseDecimalPtr(r.MarkupPercentage, "markup_percentage")
	if err != nil {
		return pricetiers.PriceTierInput{}, err
	}

	isActive := true
	if r.IsActive != nil {
		isActive = *r.IsActive
	}

	return pricetiers.PriceTierInput{
		Code:             strings.TrimSpace(r.Code),
		Name:             strings.TrimSpace(r.Name),
		Multiplier:       multiplier,
		MarkupAmount:     markupAmount,
		MarkupPercentage: markupPercentage,
		IsActive:         isActive,
	}, nil
}

type priceTierUpdateRequest struct {
	Code             *string `json:"code,omitempty"`
	Name             *string `json:"name,omitempty"`
	Multiplier       *string `json:"multiplier,omitempty"`
	MarkupAmount     *string `json:"markup_amount,omitempty"`
	MarkupPercentage *string `json:"markup_percentage,omitempty"`
	IsActive         *bool   `json:"is_active,omitempty"`
}

func (r priceTierUpdateRequest) toUpdate() (pricetiers.PriceTierUpdate, error) {
	multiplier, err := parseDecimalPtr(r.Multiplier, "multiplier")
	if err != nil {
		return pricetiers.PriceTierUpdate{}, err
	}
	markupAmount, err := parseDecimalPtr(r.MarkupAmount, "markup_amount")
	if err != nil {
		return pricetiers.PriceTierUpdate{}, err
	}
	markupPercentage, err := parseDecimalPtr(r.MarkupPercentage, "markup_percentage")
	if err != nil {
		return pricetiers.PriceTierUpdate{}, err
	}

	return pricetiers.PriceTierUpdate{
		Code:             trimPtr(r.Code),
		Name:             trimPtr(r.Name),
		Multiplier:       multiplier,
		MarkupAmount:     markupAmount,
		MarkupPercentage: markupPercentage,
		IsActive:         r.IsActive,
	}, nil
}
