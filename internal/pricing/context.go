package pricing

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/retailsignals/pricewise-backend/pkg/enums"
	pkgerrors "github.com/retailsignals/pricewise-backend/pkg/errors"
)

// ResolutionContext describes one price lookup. Nil optional fields widen the
// lookup: a nil BranchID means "any branch", a nil LoyaltyTierID means the
// customer holds no loyalty tier.
type ResolutionContext struct {
	TenantID      uuid.UUID
	ProductID     uuid.UUID
	Quantity      int
	CustomerClass enums.PriceType
	LoyaltyTierID *uuid.UUID
	BranchID      *uuid.UUID
	PriceTierID   *uuid.UUID
	At            time.Time
}

// Validate rejects malformed contexts before any rule is fetched.
func (c ResolutionContext) Validate() error {
	var errs error
	if c.TenantID == uuid.Nil {
		errs = multierr.Append(errs, pkgerrors.New(pkgerrors.CodeValidation, "tenant_id is required"))
	}
	if c.ProductID == uuid.Nil {
		errs = multierr.Append(errs, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required"))
	}
	if c.Quantity < 1 {
		errs = multierr.Append(errs, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1"))
	}
	if c.CustomerClass != "" && !c.CustomerClass.IsValid() {
		errs = multierr.Append(errs, pkgerrors.New(pkgerrors.CodeValidation, "invalid customer class"))
	}
	if errs != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, errs, "invalid resolution context")
	}
	return nil
}

// class returns the effective customer class, defaulting to regular.
func (c ResolutionContext) class() enums.PriceType {
	if c.CustomerClass == "" {
		return enums.PriceTypeRegular
	}
	return c.CustomerClass
}

// at returns the effective resolution instant, defaulting to now.
func (c ResolutionContext) at() time.Time {
	if c.At.IsZero() {
		return time.Now()
	}
	return c.At
}
