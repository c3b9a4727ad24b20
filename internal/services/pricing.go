package services

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ChargeAmount returns price × (1 − discount/100) rounded half away from zero
// to minorUnits decimal places.
func ChargeAmount(price decimal.Decimal, discountPercent int, minorUnits int32) (decimal.Decimal, error) {
	if price.IsNegative() {
		return decimal.Zero, fmt.Errorf("price must not be negative")
	}
	if discountPercent < 0 || discountPercent > 100 {
		return decimal.Zero, fmt.Errorf("discount must be within 0..100")
	}
	if minorUnits < 0 {
		minorUnits = 0
	}
	factor := hundred.Sub(decimal.NewFromInt(int64(discountPercent))).Div(hundred)
	return price.Mul(factor).Round(minorUnits), nil
}

// GatewayAmount converts a charge into the integer amount the processor
// accepts, rounding any fractional part up so the charge is never short.
func GatewayAmount(amount decimal.Decimal) int64 {
	return amount.Ceil().IntPart()
}
