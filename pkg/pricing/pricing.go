// Package pricing is the single place money is derived and rounded. Cart
// totals, order snapshots and the admin product editor all go through it so
// displayed and persisted amounts never drift apart.
package pricing

import (
	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/hatchery-backend/pkg/errors"
)

// MinorUnits is the number of decimal places kept for every amount.
const MinorUnits = 2

var (
	hundred = decimal.NewFromInt(100)
	zero    = decimal.Zero
)

// ComputeFinalPrice applies a percentage discount to a base price and rounds
// the result half-up to the minor unit. base must be non-negative and
// discountPercent must lie in [0, 100].
//
// A base with more than two decimal places (e.g. 9.999) is also rejected with
// INVALID_INPUT rather than silently rounded.
func ComputeFinalPrice(base, discountPercent decimal.Decimal) (decimal.Decimal, error) {
	if base.LessThan(zero) {
		return decimal.Decimal{}, pkgerrors.New(pkgerrors.CodeInvalidInput, "base price must be non-negative").
			WithDetails(map[string]any{"base_price": base.String()})
	}
	if !hasMinorUnitPrecision(base) {
		return decimal.Decimal{}, pkgerrors.New(pkgerrors.CodeInvalidInput, "base price has too many decimal places").
			WithDetails(map[string]any{"base_price": base.String()})
	}
	if discountPercent.LessThan(zero) || discountPercent.GreaterThan(hundred) {
		return decimal.Decimal{}, pkgerrors.New(pkgerrors.CodeInvalidInput, "discount percent must be between 0 and 100").
			WithDetails(map[string]any{"discount_percent": discountPercent.String()})
	}

	discount := base.Mul(discountPercent).Shift(-2)
	return Round(base.Sub(discount)), nil
}

// Round applies the shared rounding policy: half-up at MinorUnits places.
func Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(MinorUnits)
}

// LineSubtotal is unitPrice × quantity, rounded.
func LineSubtotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return Round(unitPrice.Mul(decimal.NewFromInt(int64(quantity))))
}

// Sum adds already rounded amounts.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, amount := range amounts {
		total = total.Add(amount)
	}
	return Round(total)
}

// Format renders an amount with exactly MinorUnits decimals, e.g. "85.00".
func Format(amount decimal.Decimal) string {
	return Round(amount).StringFixed(MinorUnits)
}

func hasMinorUnitPrecision(amount decimal.Decimal) bool {
	return amount.Equal(amount.Truncate(MinorUnits))
}
