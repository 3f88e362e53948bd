package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/retailsignals/pricewise-backend/api/middleware"
	"github.com/retailsignals/pricewise-backend/api/responses"
	"github.com/retailsignals/pricewise-backend/api/validators"
	"github.com/retailsignals/pricewise-backend/internal/branches"
	pkgerrors "github.com/retailsignals/pricewise-backend/pkg/errors"
	"github.com/retailsignals/pricewise-backend/pkg/logger"
)

// CreateBranch handles branch creation.
func CreateBranch(svc branches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.ClaimsFromContext(r.Context())
		if claims == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor context missing"))
			return
		}

		var payload branchRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		branch, err := svc.CreateBranch(r.Context(), claims.TenantID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, branch)
	}
}

// UpdateBranch handles partial branch mutation.
func UpdateBranch(svc branches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.ClaimsFromContext(r.Context())
		if claims == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor context missing"))
			return
		}

		branchID, err := validators.ParsePathUUID(chi.URLParam(r, "branchID"), "branchID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload branchUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toUpdate()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		branch, err := svc.UpdateBranch(r.Context(), claims.TenantID, branchID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, branch)
	}
}

// GetBranch returns a single branch by id.
func GetBranch(svc branches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.ClaimsFromContext(r.Context())
		if claims == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor context missing"))
			return
		}

		branchID, err := validators.ParsePathUUID(chi.URLParam(r, "branchID"), "branchID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		branch, err := svc.GetBranch(r.Context(), claims.TenantID, branchID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, branch)
	}
}

// ListBranches returns every branch belonging to the tenant.
func ListBranches(svc branches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.ClaimsFromContext(r.Context())
		if claims == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor context missing"))
			return
		}

		result, err := svc.ListBranches(r.Context(), claims.TenantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

type branchRequest struct {
	Code               string  `json:"code" validate:"required"`
	Name               string  `json:"name" validate:"required"`
	DefaultPriceTierID *string `json:"default_price_tier_id,omitempty" validate:"omitempty,uuid"`
	IsActive           *bool   `json:"is_active,omitempty"`
}

func (r branchRequest) toInput() (branches.BranchInput, error) {
	defaultTier, err := parseUUIDPtr(r.DefaultPriceTierID, "default_price_tier_id")
	if err != nil {
		return branches.BranchInput{}, err
	}

	isActive := true
	if r.IsActive != nil {
		isActive = *r.IsActive
	}

	return branches.BranchInput{
		Code:               strings.TrimSpace(r.Code),
		Name:               strings.TrimSpace(r.Name),
		DefaultPriceTierID: defaultTier,
		IsActive:           isActive,
	}, nil
}

type branchUpdateRequest struct {
	Code               *string `json:"code,omitempty"`
	Name               *string `json:"name,omitempty"`
	DefaultPriceTierID *string `json:"default_price_tier_id,omitempty" validate:"omitempty,uuid"`
	ClearDefaultTier   bool    `json:"clear_default_tier,omitempty"`
	IsActive           *bool   `json:"is_active,omitempty"`
}

func (r branchUpdateRequest) toUpdate() (branches.BranchUpdate, error) {
	defaultTier, err := parseUUIDPtr(r.DefaultPriceTierID, "default_price_tier_id")
	if err != nil {
		return branches.BranchUpdate{}, err
	}

	return branches.BranchUpdate{
		Code:               trimPtr(r.Code),
		Name:               trimPtr(r.Name),
		DefaultPriceTierID: defaultTier,
		ClearDefaultTier:   r.ClearDefaultTier,
		IsActive:           r.IsActive,
	}, nil
}
