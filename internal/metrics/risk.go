package metrics

import (
	"math"

	"github.com/shopspring/decimal"

	"positionscope/internal/model"
)

// Risk fractions. Each is an independent score in [0,1]; the engine averages
// them and buckets the mean. Width-style scores saturate at fullRangeTicks,
// roughly a ±2.7x price band.
const fullRangeTicks = 20000

func clamp01(v float64) decimal.Decimal {
	if math.IsNaN(v) || v < 0 {
		return decimal.Zero
	}
	if v > 1 {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromFloat(v)
}

// concentrationRisk rises as the tick range narrows.
func concentrationRisk(widthTicks float64) decimal.Decimal {
	if widthTicks <= 0 {
		return decimal.NewFromInt(1)
	}
	return clamp01(1 - widthTicks/fullRangeTicks)
}

// liquidityShareRisk rises with the position's share of pool liquidity:
// exiting a dominant share moves the pool against the holder.
func liquidityShareRisk(positionLiquidity, poolLiquidity string) decimal.Decimal {
	position, err1 := decimal.NewFromString(positionLiquidity)
	pool, err2 := decimal.NewFromString(poolLiquidity)
	if err1 != nil || err2 != nil || pool.IsZero() {
		return decimal.NewFromFloat(0.5) // unknown: neutral
	}
	share, _ := position.Div(pool).Float64()
	return clamp01(share * 10)
}

// priceDriftRisk uses the log distance from the entry price as a volatility
// proxy when no time-series history exists; neutral when entry is unknown.
func priceDriftRisk(entryPrice string, current decimal.Decimal) decimal.Decimal {
	if entryPrice == "" {
		return decimal.NewFromFloat(0.5)
	}
	entry, err := decimal.NewFromString(entryPrice)
	if err != nil || entry.Sign() <= 0 || current.Sign() <= 0 {
		return decimal.NewFromFloat(0.5)
	}
	ratio, _ := current.Div(entry).Float64()
	return clamp01(math.Abs(math.Log(ratio)))
}

// rangeEdgeRisk rises as the current tick approaches the nearest bound;
// out-of-range positions score 1.
func rangeEdgeRisk(current, lower, upper int32) decimal.Decimal {
	if current < lower || current >= upper {
		return decimal.NewFromInt(1)
	}
	halfWidth := float64(upper-lower) / 2
	if halfWidth <= 0 {
		return decimal.NewFromInt(1)
	}
	distance := math.Min(float64(current-lower), float64(upper-current))
	return clamp01(1 - distance/halfWidth)
}

func concentratedRisk(position *model.Position, pool *model.Pool, priceRange model.PriceRange) model.RiskScores {
	return model.RiskScores{
		Concentration: concentrationRisk(float64(position.TickUpper - position.TickLower)),
		Liquidity:     liquidityShareRisk(position.Liquidity, pool.Liquidity),
		Price:         priceDriftRisk(position.EntryPrice, priceRange.Current),
		Range:         rangeEdgeRisk(pool.TickCurrent, position.TickLower, position.TickUpper),
	}
}

// binRisk scores a bin position using the bin span scaled by the bin step as
// a tick-equivalent width. The bin protocol has no out-of-range state, so
// range risk measures the active bin's distance to the span edge instead.
func binRisk(position *model.Position, pool *model.Pool) model.RiskScores {
	lower, upper, ok := position.BinRange()
	width := float64(0)
	rangeScore := decimal.NewFromInt(1)
	if ok && pool.BinStep > 0 {
		width = float64(upper-lower+1) * float64(pool.BinStep)
		rangeScore = rangeEdgeRisk(pool.ActiveBinID, lower, upper+1)
	}
	return model.RiskScores{
		Concentration: concentrationRisk(width),
		Liquidity:     liquidityShareRisk(position.Liquidity, pool.Liquidity),
		Price:         priceDriftRisk(position.EntryPrice, decimal.Zero),
		Range:         rangeScore,
	}
}
