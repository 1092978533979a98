package metrics

import (
	"math"

	"github.com/shopspring/decimal"

	"positionscope/internal/model"
)

// impermanentLoss compares the position value against holding the entry
// amounts unswapped, using the concentrated-range IL multiplier:
//
//	r  = currentPrice / entryPrice
//	pa = lowerPrice / entryPrice
//	inside the range: (2·√(r·pa) − pa − r) / (pa + r)
//	outside:          0 (opportunity cost, reported as zero IL, not omitted)
//
// Returned as a percentage (negative = loss). known is false when no entry
// price is available.
func impermanentLoss(entryPrice string, priceRange model.PriceRange) (decimal.Decimal, bool) {
	if entryPrice == "" {
		return decimal.Zero, false
	}
	entry, err := decimal.NewFromString(entryPrice)
	if err != nil || entry.Sign() <= 0 {
		return decimal.Zero, false
	}
	if !priceRange.InRange {
		return decimal.Zero, true
	}

	r, _ := priceRange.Current.Div(entry).Float64()
	pa, _ := priceRange.Lower.Div(entry).Float64()
	if r <= 0 || pa <= 0 || pa+r == 0 {
		return decimal.Zero, false
	}

	multiplier := (2*math.Sqrt(r*pa) - pa - r) / (pa + r)
	return decimal.NewFromFloat(multiplier * 100), true
}
