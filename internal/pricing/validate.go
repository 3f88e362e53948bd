package pricing

import (
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	pkgerrors "github.com/retailsignals/pricewise-backend/pkg/errors"
)

// validateChange checks the internal consistency of the fields a change sets.
// Cross-field checks against unset live values are deferred to the database
// constraints.
func validateChange(change ChangeSet) error {
	var errs error
	if change.Price != nil && change.Price.IsNegative() {
		errs = multierr.Append(errs, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative"))
	}
	errs = multierr.Append(errs, validateDiscounts(change.DiscountAmount, change.DiscountPercentage))
	if change.MinQuantity != nil && *change.MinQuantity < 1 {
		errs = multierr.Append(errs, pkgerrors.New(pkgerrors.CodeValidation, "min_quantity must be at least 1"))
	}
	if change.MinQuantity != nil && change.MaxQuantity != nil && *change.MaxQuantity < *change.MinQuantity {
		errs = multierr.Append(errs, pkgerrors.New(pkgerrors.CodeValidation, "max_quantity cannot be below min_quantity"))
	}
	errs = multierr.Append(errs, validateWindow(change.StartDate, change.EndDate))
	if errs != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, errs, "invalid rule change")
	}
	return nil
}

func validateDiscounts(amount, percentage *decimal.Decimal) error {
	var errs error
	if amount != nil && amount.IsNegative() {
		errs = multierr.Append(errs, pkgerrors.New(pkgerrors.CodeValidation, "discount_amount cannot be negative"))
	}
	if percentage != nil && (percentage.IsNegative() || percentage.GreaterThan(oneHundred)) {
		errs = multierr.Append(errs, pkgerrors.New(pkgerrors.CodeValidation, "discount_percentage must be between 0 and 100"))
	}
	return errs
}

func validateWindow(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return pkgerrors.New(pkgerrors.CodeValidation, "end_date cannot precede start_date")
	}
	return nil
}
