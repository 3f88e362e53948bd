package controllers

import (
	"net/http"

	"github.com/retailsignals/pricewise-backend/api/middleware"
	"github.com/retailsignals/pricewise-backend/api/responses"
	"github.com/retailsignals/pricewise-backend/api/validators"
	"github.com/retailsignals/pricewise-backend/internal/approvals"
	pkgerrors "github.com/retailsignals/pricewise-backend/pkg/errors"
	"github.com/retailsignals/pricewise-backend/pkg/logger"
	"github.com/retailsignals/pricewise-backend/pkg/pagination"
)

// ListPendingApprovals returns the tenant's undecided proposals, oldest first.
func ListPendingApprovals(svc approvals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.ClaimsFromContext(r.Context())
		if claims == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor context missing"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pending, err := svc.ListPending(r.Context(), claims.TenantID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, pending)
	}
}
