package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailsignals/pricewise-backend/api/middleware"
	"github.com/retailsignals/pricewise-backend/api/responses"
	"github.com/retailsignals/pricewise-backend/api/validators"
	"github.com/retailsignals/pricewise-backend/internal/pricing"
	"github.com/retailsignals/pricewise-backend/pkg/enums"
	pkgerrors "github.com/retailsignals/pricewise-backend/pkg/errors"
	"github.com/retailsignals/pricewise-backend/pkg/logger"
)

// CreateRule handles pricing rule creation.
func CreateRule(svc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.ClaimsFromContext(r.Context())
		if claims == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor context missing"))
			return
		}

		var payload createRuleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toCreateInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rule, err := svc.CreateRule(r.Context(), claims.TenantID, input, claims)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, rule)
	}
}

// GetRule returns a single pricing rule by id.
func GetRule(svc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.ClaimsFromContext(r.Context())
		if claims == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor context missing"))
			return
		}

		ruleID, err := validators.ParsePathUUID(chi.URLParam(r, "ruleID"), "ruleID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rule, err := svc.GetRule(r.Context(), claims.TenantID, ruleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, rule)
	}
}

// ListRulesForProduct returns every rule targeting a product, all states.
func ListRulesForProduct(svc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.ClaimsFromContext(r.Context())
		if claims == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor context missing"))
			return
		}

		productID, err := validators.ParsePathUUID(chi.URLParam(r, "productID"), "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rules, err := svc.ListRulesForProduct(r.Context(), claims.TenantID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, rules)
	}
}

// ProposeRuleChange stages or applies a mutation depending on the actor's
// authority and the rule's scope.
func ProposeRuleChange(svc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.ClaimsFromContext(r.Context())
		if claims == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor context missing"))
			return
		}

		ruleID, err := validators.ParsePathUUID(chi.URLParam(r, "ruleID"), "ruleID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload ruleChangeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		change, err := payload.toChangeSet()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rule, err := svc.UpdateRule(r.Context(), claims.TenantID, ruleID, change, claims)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, rule)
	}
}

// ApproveRule applies a staged change to the live rule.
func ApproveRule(svc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.ClaimsFromContext(r.Context())
		if claims == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor context missing"))
			return
		}

		ruleID, err := validators.ParsePathUUID(chi.URLParam(r, "ruleID"), "ruleID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rule, err := svc.Approve(r.Context(), claims.TenantID, ruleID, claims)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, rule)
	}
}

// RejectRule discards a staged change, leaving the live rule untouched.
func RejectRule(svc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.ClaimsFromContext(r.Context())
		if claims == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor context missing"))
			return
		}

		ruleID, err := validators.ParsePathUUID(chi.URLParam(r, "ruleID"), "ruleID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload rejectRuleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rule, err := svc.Reject(r.Context(), claims.TenantID, ruleID, claims, strings.TrimSpace(payload.Reason))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, rule)
	}
}

// DeactivateRule switches a rule off without deleting its audit trail.
func DeactivateRule(svc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.ClaimsFromContext(r.Context())
		if claims == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor context missing"))
			return
		}

		ruleID, err := validators.ParsePathUUID(chi.URLParam(r, "ruleID"), "ruleID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rule, err := svc.DeactivateRule(r.Context(), claims.TenantID, ruleID, claims)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, rule)
	}
}

// DeleteRule removes a rule that has never priced a quote.
func DeleteRule(svc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.ClaimsFromContext(r.Context())
		if claims == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor context missing"))
			return
		}

		ruleID, err := validators.ParsePathUUID(chi.URLParam(r, "ruleID"), "ruleID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteRule(r.Context(), claims.TenantID, ruleID, claims); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusOK, map[string]any{"deleted": true})
	}
}

type createRuleRequest struct {
	ProductID          string  `json:"product_id" validate:"required,uuid"`
	PriceType          string  `json:"price_type" validate:"required"`
	TierID             *string `json:"tier_id,omitempty" validate:"omitempty,uuid"`
	BranchID           *string `json:"branch_id,omitempty" validate:"omitempty,uuid"`
	PriceTierID        *string `json:"price_tier_id,omitempty" validate:"omitempty,uuid"`
	Price              string  `json:"price" validate:"required"`
	DiscountAmount     *string `json:"discount_amount,omitempty"`
	DiscountPercentage *string `json:"discount_percentage,omitempty"`
	MinQuantity        int     `json:"min_quantity" validate:"omitempty,min=0"`
	MaxQuantity        *int    `json:"max_quantity,omitempty" validate:"omitempty,min=1"`
	StartDate          *string `json:"start_date,omitempty"`
	EndDate            *string `json:"end_date,omitempty"`
	IsActive           *bool   `json:"is_active,omitempty"`
	Priority           int     `json:"priority"`
	IsStandard         bool    `json:"is_standard"`
}

func (r createRuleRequest) toCreateInput() (pricing.CreateRuleInput, error) {
	productID, err := uuid.Parse(r.ProductID)
	if err != nil {
		return pricing.CreateRuleInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
	}

	priceType, err := enums.ParsePriceType(strings.TrimSpace(r.PriceType))
	if err != nil {
		return pricing.CreateRuleInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price type")
	}

	price, err := parseDecimalString(r.Price, "price")
	if err != nil {
		return pricing.CreateRuleInput{}, err
	}

	tierID, err := parseUUIDPtr(r.TierID, "tier_id")
	if err != nil {
		return pricing.CreateRuleInput{}, err
	}
	branchID, err := parseUUIDPtr(r.BranchID, "branch_id")
	if err != nil {
		return pricing.CreateRuleInput{}, err
	}
	priceTierID, err := parseUUIDPtr(r.PriceTierID, "price_tier_id")
	if err != nil {
		return pricing.CreateRuleInput{}, err
	}

	discountAmount, err := parseDecimalPtr(r.DiscountAmount, "discount_amount")
	if err != nil {
		return pricing.CreateRuleInput{}, err
	}
	discountPercentage, err := parseDecimalPtr(r.DiscountPercentage, "discount_percentage")
	if err != nil {
		return pricing.CreateRuleInput{}, err
	}

	startDate, err := parseTimePtr(r.StartDate, "start_date")
	if err != nil {
		return pricing.CreateRuleInput{}, err
	}
	endDate, err := parseTimePtr(r.EndDate, "end_date")
	if err != nil {
		return pricing.CreateRuleInput{}, err
	}

	isActive := true
	if r.IsActive != nil {
		isActive = *r.IsActive
	}

	return pricing.CreateRuleInput{
		ProductID:          productID,
		PriceType:          priceType,
		TierID:             tierID,
		BranchID:           branchID,
		PriceTierID:        priceTierID,
		Price:              price,
		DiscountAmount:     discountAmount,
		DiscountPercentage: discountPercentage,
		MinQuantity:        r.MinQuantity,
		MaxQuantity:        r.MaxQuantity,
		StartDate:          startDate,
		EndDate:            endDate,
		IsActive:           isActive,
		Priority:           r.Priority,
		IsStandard:         r.IsStandard,
	}, nil
}

type ruleChangeRequest struct {
	Price              *string `json:"price,omitempty"`
	DiscountAmount     *string `json:"discount_amount,omitempty"`
	DiscountPercentage *string `json:"discount_percentage,omitempty"`
	MinQuantity        *int    `json:"min_quantity,omitempty" validate:"omitempty,min=0"`
	MaxQuantity        *int    `json:"max_quantity,omitempty" validate:"omitempty,min=1"`
	StartDate          *string `json:"start_date,omitempty"`
	EndDate            *string `json:"end_date,omitempty"`
	Priority           *int    `json:"priority,omitempty"`
	IsActive           *bool   `json:"is_active,omitempty"`
}

func (r ruleChangeRequest) toChangeSet() (pricing.ChangeSet, error) {
	change := pricing.ChangeSet{
		MinQuantity: r.MinQuantity,
		MaxQuantity: r.MaxQuantity,
		Priority:    r.Priority,
		IsActive:    r.IsActive,
	}

	var err error
	if change.Price, err = parseDecimalPtr(r.Price, "price"); err != nil {
		return pricing.ChangeSet{}, err
	}
	if change.DiscountAmount, err = parseDecimalPtr(r.DiscountAmount, "discount_amount"); err != nil {
		return pricing.ChangeSet{}, err
	}
	if change.DiscountPercentage, err = parseDecimalPtr(r.DiscountPercentage, "discount_percentage"); err != nil {
		return pricing.ChangeSet{}, err
	}
	if change.StartDate, err = parseTimePtr(r.StartDate, "start_date"); err != nil {
		return pricing.ChangeSet{}, err
	}
	if change.EndDate, err = parseTimePtr(r.EndDate, "end_date"); err != nil {
		return pricing.ChangeSet{}, err
	}
	return change, nil
}

type rejectRuleRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func parseUUIDPtr(raw *string, field string) (*uuid.UUID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	parsed, err := uuid.Parse(strings.TrimSpace(*raw))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field)
	}
	return &parsed, nil
}

func parseDecimalString(raw, field string) (decimal.Decimal, error) {
	parsed, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field)
	}
	return parsed, nil
}

func parseDecimalPtr(raw *string, field string) (*decimal.Decimal, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	parsed, err := parseDecimalString(*raw, field)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func parseTimePtr(raw *string, field string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(*raw))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field)
	}
	return &parsed, nil
}
