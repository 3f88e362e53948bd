package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/retailsignals/pricewise-backend/api/middleware"
	"github.com/retailsignals/pricewise-backend/api/responses"
	"github.com/retailsignals/pricewise-backend/api/validators"
	"github.com/retailsignals/pricewise-backend/internal/pricing"
	"github.com/retailsignals/pricewise-backend/pkg/enums"
	pkgerrors "github.com/retailsignals/pricewise-backend/pkg/errors"
	"github.com/retailsignals/pricewise-backend/pkg/logger"
)

// Quote resolves the effective unit price for a product under the caller's
// pricing context.
func Quote(svc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.ClaimsFromContext(r.Context())
		if claims == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor context missing"))
			return
		}

		var payload quoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rc, err := payload.toResolutionContext(claims.TenantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if rc.BranchID == nil {
			rc.BranchID = claims.BranchID
		}

		quote, err := svc.Quote(r.Context(), rc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, quote)
	}
}

type quoteRequest struct {
	ProductID     string  `json:"product_id" validate:"required,uuid"`
	Quantity      int     `json:"quantity" validate:"required,min=1"`
	CustomerClass *string `json:"customer_class,omitempty"`
	LoyaltyTierID *string `json:"loyalty_tier_id,omitempty" validate:"omitempty,uuid"`
	BranchID      *string `json:"branch_id,omitempty" validate:"omitempty,uuid"`
	PriceTierID   *string `json:"price_tier_id,omitempty" validate:"omitempty,uuid"`
	At            *string `json:"at,omitempty"`
}

func (r quoteRequest) toResolutionContext(tenantID uuid.UUID) (pricing.ResolutionContext, error) {
	productID, err := uuid.Parse(r.ProductID)
	if err != nil {
		return pricing.ResolutionContext{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
	}

	rc := pricing.ResolutionContext{
		TenantID:  tenantID,
		ProductID: productID,
		Quantity:  r.Quantity,
	}

	if r.CustomerClass != nil && strings.TrimSpace(*r.CustomerClass) != "" {
		class, err := enums.ParsePriceType(strings.TrimSpace(*r.CustomerClass))
		if err != nil {
			return pricing.ResolutionContext{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer class")
		}
		rc.CustomerClass = class
	}

	if rc.LoyaltyTierID, err = parseUUIDPtr(r.LoyaltyTierID, "loyalty_tier_id"); err != nil {
		return pricing.ResolutionContext{}, err
	}
	if rc.BranchID, err = parseUUIDPtr(r.BranchID, "branch_id"); err != nil {
		return pricing.ResolutionContext{}, err
	}
	if rc.PriceTierID, err = parseUUIDPtr(r.PriceTierID, "price_tier_id"); err != nil {
		return pricing.ResolutionContext{}, err
	}

	if r.At != nil && strings.TrimSpace(*r.At) != "" {
		at, err := time.Parse(time.RFC3339, strings.TrimSpace(*r.At))
		if err != nil {
			return pricing.ResolutionContext{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid at timestamp")
		}
		rc.At = at
	}

	return rc, nil
}
