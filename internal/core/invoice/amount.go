package invoice

import (
	"github.com/shopspring/decimal"
)

// divisionPrecision is the number of fractional digits kept when removing
// tax from a total. Final rounding is left to the billing API.
const divisionPrecision = 16

var hundred = decimal.NewFromInt(100)

// MaxAmount is the largest total the invoice store can hold (NUMERIC(14,2)).
var MaxAmount = decimal.RequireFromString("999999999999.99")

// ValidateAmount checks that total is positive, no larger than MaxAmount and
// has at most two fractional digits.
func ValidateAmount(total decimal.Decimal) error {
	if !total.IsPositive() {
		return &InvalidAmountError{Reason: "debe ser mayor a cero"}
	}
	if total.GreaterThan(MaxAmount) {
		return &InvalidAmountError{Reason: "supera el máximo admitido de " + MaxAmount.StringFixed(2)}
	}
	if !total.Equal(total.Truncate(2)) {
		return &InvalidAmountError{Reason: "admite como máximo 2 decimales"}
	}
	return nil
}

// DeriveLineItem computes the tax-exclusive unit price from a tax-inclusive total.
// Type C documents carry no tax breakdown, so the total is used unchanged with
// a zero rate.
func DeriveLineItem(total, taxRatePercent decimal.Decimal, isTypeC bool) (LineItem, error) {
	if err := ValidateAmount(total); err != nil {
		return LineItem{}, err
	}

	if isTypeC {
		return LineItem{
			UnitPriceExcludingTax: total,
			TaxRate:               decimal.Zero,
		}, nil
	}

	divisor := decimal.NewFromInt(1).Add(taxRatePercent.Div(hundred))
	return LineItem{
		UnitPriceExcludingTax: total.DivRound(divisor, divisionPrecision),
		TaxRate:               taxRatePercent,
	}, nil
}
