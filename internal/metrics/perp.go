package metrics

import (
	"fmt"

	"github.com/shopspring/decimal"

	"positionscope/internal/model"
)

// usdDecimals is the on-chain fixed-point scale of the perpetual protocol's
// USD fields (micro-USD).
const usdDecimals = 6

// computePerp values a perpetual position from its own USD fields:
// positionValue = collateral + unrealizedPnl. The custody (pool) contributes
// the mark price mint; without it the entry price stands in.
func (e *Engine) computePerp(position *model.Position, pool *model.Pool, feed model.PriceFeed) (*model.PositionMetrics, error) {
	perp := position.Perp
	if perp == nil {
		return nil, fmt.Errorf("position %s: missing perp fields: %w",
			position.Address, model.ErrCalculation)
	}

	sizeUsd, err := uiAmount(perp.SizeUsd, usdDecimals)
	if err != nil {
		return nil, err
	}
	collateralUsd, err := uiAmount(perp.CollateralUsd, usdDecimals)
	if err != nil {
		return nil, err
	}
	pnlUsd, err := uiAmount(perp.UnrealizedPnlUsd, usdDecimals)
	if err != nil {
		return nil, err
	}
	entryPrice, err := uiAmount(perp.EntryPriceUsd, usdDecimals)
	if err != nil {
		return nil, err
	}
	liquidationPrice, err := uiAmount(perp.LiquidationPrice, usdDecimals)
	if err != nil {
		return nil, err
	}

	positionValue := collateralUsd.Add(pnlUsd)
	if positionValue.Sign() < 0 {
		positionValue = decimal.Zero
	}

	// size can be zero while collateral is still posted (position closed
	// but not withdrawn); leverage and margin are undefined then
	leverage := decimal.Zero
	marginRatio := decimal.Zero
	if sizeUsd.Sign() > 0 && positionValue.Sign() > 0 {
		leverage = sizeUsd.Div(positionValue)
		marginRatio = positionValue.Div(sizeUsd)
	}

	markPrice := entryPrice
	if pool != nil {
		if price, ok := feed.Price(pool.TokenA.Mint); ok {
			markPrice = price
		}
	}

	liquidationDistance := decimal.Zero
	if markPrice.Sign() > 0 && liquidationPrice.Sign() > 0 {
		liquidationDistance = markPrice.Sub(liquidationPrice).Abs().Div(markPrice).Mul(decimal.NewFromInt(100))
	}

	inRange := true
	switch perp.Side {
	case model.PerpSideLong:
		inRange = markPrice.GreaterThan(liquidationPrice)
	case model.PerpSideShort:
		inRange = liquidationPrice.IsZero() || markPrice.LessThan(liquidationPrice)
	}

	risk := perpRisk(perp, pool, leverage, collateralUsd, pnlUsd, liquidationDistance)

	return &model.PositionMetrics{
		Protocol:        position.Protocol,
		Address:         position.Address,
		TotalValue:      positionValue,
		Token0Value:     positionValue,
		Token1Value:     decimal.Zero,
		FeesEarned:      decimal.Zero,
		FeeAPR:          decimal.Zero,
		RewardsEarned:   decimal.Zero,
		RewardAPR:       decimal.Zero,
		RewardAPRKnown:  false,
		ILKnown:         false,
		UtilizationRate: decimal.NewFromInt(1),
		Risk:            risk,
		RiskBucket:      model.BucketRisk(risk.Average()),
		PriceRange: model.PriceRange{
			Lower:   liquidationPrice,
			Upper:   decimal.Zero,
			Current: markPrice,
			InRange: inRange,
		},
		Perp: &model.PerpMetrics{
			Side:                   perp.Side,
			Leverage:               leverage,
			MarginRatio:            marginRatio,
			UnrealizedPnlUsd:       pnlUsd,
			LiquidationPriceUsd:    liquidationPrice,
			LiquidationDistancePct: liquidationDistance,
		},
	}, nil
}

// perpRisk scores a perpetual position: leverage saturates at 10x, the
// custody's locked/owned utilization stands in for liquidity depth, drawdown
// against collateral proxies price risk, and proximity to the liquidation
// price replaces range risk.
func perpRisk(perp *model.PerpDetails, pool *model.Pool, leverage, collateralUsd, pnlUsd, liquidationDistance decimal.Decimal) model.RiskScores {
	lev, _ := leverage.Float64()

	liquidity := decimal.NewFromFloat(0.5)
	if pool != nil && pool.Custody != nil {
		liquidity = liquidityShareRisk(pool.Custody.AssetsLocked, pool.Custody.AssetsOwned)
	}

	price := decimal.Zero
	if collateralUsd.Sign() > 0 && pnlUsd.Sign() < 0 {
		drawdown, _ := pnlUsd.Abs().Div(collateralUsd).Float64()
		price = clamp01(drawdown)
	}

	distance, _ := liquidationDistance.Float64()

	return model.RiskScores{
		Concentration: clamp01(lev / 10),
		Liquidity:     liquidity,
		Price:         price,
		Range:         clamp01(1 - distance/100),
	}
}
