package metrics

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"positionscope/internal/dex"
	"positionscope/internal/model"
)

// computeConcentrated handles both tick protocols: their decoded shapes are
// identical apart from the emission-rate encoding.
func (e *Engine) computeConcentrated(position *model.Position, pool *model.Pool, feed model.PriceFeed) (*model.PositionMetrics, error) {
	if pool == nil {
		return nil, fmt.Errorf("position %s: pool state required: %w",
			position.Address, model.ErrCalculation)
	}
	if !position.HasRange || position.TickUpper <= position.TickLower {
		return nil, fmt.Errorf("position %s: bad tick range [%d, %d): %w",
			position.Address, position.TickLower, position.TickUpper, model.ErrCalculation)
	}

	amount0Raw, amount1Raw, err := dex.PositionAmounts(position, pool)
	if err != nil {
		return nil, err
	}
	amount0 := amount0Raw.Shift(-int32(pool.TokenA.Decimals))
	amount1 := amount1Raw.Shift(-int32(pool.TokenB.Decimals))

	price0, ok0 := feed.Price(pool.TokenA.Mint)
	price1, ok1 := feed.Price(pool.TokenB.Mint)
	if !ok0 || !ok1 {
		e.logger.Debug("price missing for pool token",
			zap.String("position", position.Address),
			zap.Bool("token_a_priced", ok0),
			zap.Bool("token_b_priced", ok1),
		)
	}

	value0 := amount0.Mul(price0)
	value1 := amount1.Mul(price1)
	totalValue := value0.Add(value1)

	feeA, err := uiAmount(position.FeeOwedA, pool.TokenA.Decimals)
	if err != nil {
		return nil, err
	}
	feeB, err := uiAmount(position.FeeOwedB, pool.TokenB.Decimals)
	if err != nil {
		return nil, err
	}
	feesValue := feeA.Mul(price0).Add(feeB.Mul(price1))

	currentPrice, err := dex.PriceFromSqrtX64(pool.SqrtPriceX64)
	if err != nil {
		currentPrice = dex.PriceFromTick(pool.TickCurrent)
	}
	priceRange := model.PriceRange{
		Lower:   dex.AdjustForDecimals(dex.PriceFromTick(position.TickLower), pool.TokenA.Decimals, pool.TokenB.Decimals),
		Upper:   dex.AdjustForDecimals(dex.PriceFromTick(position.TickUpper), pool.TokenA.Decimals, pool.TokenB.Decimals),
		Current: dex.AdjustForDecimals(currentPrice, pool.TokenA.Decimals, pool.TokenB.Decimals),
		InRange: pool.TickCurrent >= position.TickLower && pool.TickCurrent < position.TickUpper,
	}

	utilization := decimal.Zero
	if priceRange.InRange {
		utilization = decimal.NewFromInt(1)
	}

	ilPct, ilKnown := impermanentLoss(position.EntryPrice, priceRange)

	emissionsScale := decimal.NewFromInt(1)
	if position.Protocol == model.ProtocolWhirlpool {
		emissionsScale = q64Scale
	}
	rewardValue := rewardsValue(position, pool, feed)
	rewardRate, rewardKnown := rewardAPR(position, pool, feed, totalValue, emissionsScale)

	risk := concentratedRisk(position, pool, priceRange)

	return &model.PositionMetrics{
		Protocol:           position.Protocol,
		Address:            position.Address,
		TotalValue:         totalValue,
		Token0Value:        value0,
		Token1Value:        value1,
		FeesEarned:         feesValue,
		FeeAPR:             feeAPR(feesValue, totalValue, e.ageDays(position.OpenedAt)),
		RewardsEarned:      rewardValue,
		RewardAPR:          rewardRate,
		RewardAPRKnown:     rewardKnown,
		ImpermanentLossPct: ilPct,
		ILKnown:            ilKnown,
		UtilizationRate:    utilization,
		Risk:               risk,
		RiskBucket:         model.BucketRisk(risk.Average()),
		PriceRange:         priceRange,
	}, nil
}
