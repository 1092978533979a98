package metrics

import (
	"fmt"

	"github.com/shopspring/decimal"

	"positionscope/internal/dex"
	"positionscope/internal/model"
)

// computeBins handles the bin protocol. Amounts and fees are summed from the
// stored bin entries; there is no closed-form liquidity conversion and no
// out-of-range state (idle bins still belong to the position).
func (e *Engine) computeBins(position *model.Position, pool *model.Pool, feed model.PriceFeed) (*model.PositionMetrics, error) {
	if pool == nil {
		return nil, fmt.Errorf("position %s: pair state required: %w",
			position.Address, model.ErrCalculation)
	}

	amountX := decimal.Zero
	amountY := decimal.Zero
	feeX := decimal.Zero
	feeY := decimal.Zero
	for _, bin := range position.Bins {
		x, err := uiAmount(bin.AmountX, pool.TokenA.Decimals)
		if err != nil {
			return nil, err
		}
		y, err := uiAmount(bin.AmountY, pool.TokenB.Decimals)
		if err != nil {
			return nil, err
		}
		fx, err := uiAmount(bin.FeeX, pool.TokenA.Decimals)
		if err != nil {
			return nil, err
		}
		fy, err := uiAmount(bin.FeeY, pool.TokenB.Decimals)
		if err != nil {
			return nil, err
		}
		amountX = amountX.Add(x)
		amountY = amountY.Add(y)
		feeX = feeX.Add(fx)
		feeY = feeY.Add(fy)
	}

	priceX, _ := feed.Price(pool.TokenA.Mint)
	priceY, _ := feed.Price(pool.TokenB.Mint)

	valueX := amountX.Mul(priceX)
	valueY := amountY.Mul(priceY)
	totalValue := valueX.Add(valueY)
	feesValue := feeX.Mul(priceX).Add(feeY.Mul(priceY))

	priceRange := model.PriceRange{InRange: true}
	if lower, upper, ok := position.BinRange(); ok && pool.BinStep > 0 {
		lowerPrice, err := dex.PriceFromBinID(lower, pool.BinStep)
		if err != nil {
			return nil, err
		}
		upperPrice, err := dex.PriceFromBinID(upper, pool.BinStep)
		if err != nil {
			return nil, err
		}
		currentPrice, err := dex.PriceFromBinID(pool.ActiveBinID, pool.BinStep)
		if err != nil {
			return nil, err
		}
		priceRange.Lower = dex.AdjustForDecimals(lowerPrice, pool.TokenA.Decimals, pool.TokenB.Decimals)
		priceRange.Upper = dex.AdjustForDecimals(upperPrice, pool.TokenA.Decimals, pool.TokenB.Decimals)
		priceRange.Current = dex.AdjustForDecimals(currentPrice, pool.TokenA.Decimals, pool.TokenB.Decimals)
	}

	rewardValue := rewardsValue(position, pool, feed)
	rewardRate, rewardKnown := rewardAPR(position, pool, feed, totalValue, decimal.NewFromInt(1))

	risk := binRisk(position, pool)

	return &model.PositionMetrics{
		Protocol:       position.Protocol,
		Address:        position.Address,
		TotalValue:     totalValue,
		Token0Value:    valueX,
		Token1Value:    valueY,
		FeesEarned:     feesValue,
		FeeAPR:         feeAPR(feesValue, totalValue, e.ageDays(position.OpenedAt)),
		RewardsEarned:  rewardValue,
		RewardAPR:      rewardRate,
		RewardAPRKnown: rewardKnown,
		// the bin protocol has no out-of-range state, so IL against an
		// entry price is not defined for it
		ImpermanentLossPct: decimal.Zero,
		ILKnown:            false,
		UtilizationRate:    decimal.NewFromInt(1),
		Risk:               risk,
		RiskBucket:         model.BucketRisk(risk.Average()),
		PriceRange:         priceRange,
	}, nil
}
