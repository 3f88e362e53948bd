package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/retailsignals/pricewise-backend/api/middleware"
	"github.com/retailsignals/pricewise-backend/api/responses"
	"github.com/retailsignals/pricewise-backend/api/validators"
	"github.com/retailsignals/pricewise-backend/internal/tiers"
	"github.com/retailsignals/pricewise-backend/pkg/enums"
	pkgerrors "github.com/retailsignals/pricewise-backend/pkg/errors"
	"github.com/retailsignals/pricewise-backend/pkg/logger"
)

// CreateLoyaltyTier handles loyalty tier creation.
func CreateLoyaltyTier(svc tiers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.ClaimsFromContext(r.Context())
		if claims == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor context missing"))
			return
		}

		var payload loyaltyTierRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tier, err := svc.CreateTier(r.Context(), claims.TenantID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, tier)
	}
}

// UpdateLoyaltyTier handles partial loyalty tier mutation.
func UpdateLoyaltyTier(svc tiers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.ClaimsFromContext(r.Context())
		if claims == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor context missing"))
			return
		}

		tierID, err := validators.ParsePathUUID(chi.URLParam(r, "tierID"), "tierID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload loyaltyTierUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toUpdate()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tier, err := svc.UpdateTier(r.Context(), claims.TenantID, tierID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, tier)
	}
}

// GetLoyaltyTier returns a single loyalty tier by id.
func GetLoyaltyTier(svc tiers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.ClaimsFromContext(r.Context())
		if claims == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor context missing"))
			return
		}

		tierID, err := validators.ParsePathUUID(chi.URLParam(r, "tierID"), "tierID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tier, err := svc.GetTier(r.Context(), claims.TenantID, tierID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, tier)
	}
}

// ListLoyaltyTiers returns every loyalty tier belonging to the tenant.
func ListLoyaltyTiers(svc tiers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.ClaimsFromContext(r.Context())
		if claims == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor context missing"))
			return
		}

		result, err := svc.ListTiers(r.Context(), claims.TenantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

type loyaltyTierRequest struct {
	Code       string `json:"code" validate:"required"`
	Name       string `json:"name" validate:"required"`
	PriceClass string `json:"price_class" validate:"required"`
	IsActive   *bool  `json:"is_active,omitempty"`
}

func (r loyaltyTierRequest) toInput() (tiers.TierInput, error) {
	priceClass, err := enums.ParsePriceType(strings.TrimSpace(r.PriceClass))
	if err != nil {
		return tiers.TierInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price class")
	}

	isActive := true
	if r.IsActive != nil {
		isActive = *r.IsActive
	}

	return tiers.TierInput{
		Code:       strings.TrimSpace(r.Code),
		Name:       strings.TrimSpace(r.Name),
		PriceClass: priceClass,
		IsActive:   isActive,
	}, nil
}

type loyaltyTierUpdateRequest struct {
	Code       *string `json:"code,omitempty"`
	Name       *string `json:"name,omitempty"`
	PriceClass *string `json:"price_class,omitempty"`
	IsActive   *bool   `json:"is_active,omitempty"`
}

func (r loyaltyTierUpdateRequest) toUpdate() (tiers.TierUpdate, error) {
	input := tiers.TierUpdate{
		Code:     trimPtr(r.Code),
		Name:     trimPtr(r.Name),
		IsActive: r.IsActive,
	}

	if r.PriceClass != nil && strings.TrimSpace(*r.PriceClass) != "" {
		priceClass, err := enums.ParsePriceType(strings.TrimSpace(*r.PriceClass))
		if err != nil {
			return tiers.TierUpdate{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price class")
		}
		input.PriceClass = &priceClass
	}

	return input, nil
}
