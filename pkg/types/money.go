package types

import "github.com/shopspring/decimal"

func init() {
	// Prices travel as JSON numbers to and from the storefront API.
	decimal.MarshalJSONWithoutQuotes = true
}

// EffectivePrice returns the promotional price when it is set, positive and
// lower than the unit price.
func EffectivePrice(unit decimal.Decimal, promotional *decimal.Decimal) decimal.Decimal {
	if promotional != nil && promotional.IsPositive() && promotional.LessThan(unit) {
		return *promotional
	}
	return unit
}
