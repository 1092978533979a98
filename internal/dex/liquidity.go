package dex

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"positionscope/internal/model"
)

// AmountsFromLiquidity converts a tick-range position's liquidity into raw
// token amounts, branching on where the current price sits relative to the
// [lower, upper) range:
//
//	current < lower:  all token0, amount0 = L·(√Pu−√Pl)/(√Pu·√Pl)
//	current ≥ upper:  all token1, amount1 = L·(√Pu−√Pl)
//	inside:           √Pcurrent replaces one bound in each formula
//
// The bin protocol never calls this: its per-bin amounts are stored
// explicitly.
func AmountsFromLiquidity(liquidity string, sqrtCurrent, sqrtLower, sqrtUpper *big.Float) (decimal.Decimal, decimal.Decimal, error) {
	l, ok := new(big.Int).SetString(liquidity, 10)
	if !ok || l.Sign() < 0 {
		return decimal.Zero, decimal.Zero, fmt.Errorf("liquidity %q: %w", liquidity, model.ErrCalculation)
	}
	if sqrtLower.Sign() <= 0 || sqrtUpper.Cmp(sqrtLower) <= 0 {
		return decimal.Zero, decimal.Zero, fmt.Errorf("sqrt bounds out of order: %w", model.ErrCalculation)
	}

	liq := new(big.Float).SetPrec(256).SetInt(l)

	amount0 := func(upper, lower *big.Float) *big.Float {
		num := new(big.Float).SetPrec(256).Sub(upper, lower)
		num.Mul(num, liq)
		den := new(big.Float).SetPrec(256).Mul(upper, lower)
		return num.Quo(num, den)
	}
	amount1 := func(upper, lower *big.Float) *big.Float {
		out := new(big.Float).SetPrec(256).Sub(upper, lower)
		return out.Mul(out, liq)
	}

	var raw0, raw1 *big.Float
	switch {
	case sqrtCurrent.Cmp(sqrtLower) < 0:
		raw0 = amount0(sqrtUpper, sqrtLower)
		raw1 = new(big.Float)
	case sqrtCurrent.Cmp(sqrtUpper) >= 0:
		raw0 = new(big.Float)
		raw1 = amount1(sqrtUpper, sqrtLower)
	default:
		raw0 = amount0(sqrtUpper, sqrtCurrent)
		raw1 = amount1(sqrtCurrent, sqrtLower)
	}

	out0, err := decimalFromFloat(raw0)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	out1, err := decimalFromFloat(raw1)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return out0, out1, nil
}

// PositionAmounts resolves a tick position's raw token amounts against its
// pool, preferring the pool's exact Q64.64 square-root price over the
// current tick when present.
func PositionAmounts(position *model.Position, pool *model.Pool) (decimal.Decimal, decimal.Decimal, error) {
	if !position.HasRange {
		return decimal.Zero, decimal.Zero, fmt.Errorf("position %s has no tick range: %w",
			position.Address, model.ErrCalculation)
	}

	sqrtCurrent := SqrtRatioFromTick(pool.TickCurrent)
	if pool.SqrtPriceX64 != "" {
		exact, err := SqrtRatioFromX64(pool.SqrtPriceX64)
		if err == nil {
			sqrtCurrent = exact
		}
	}

	return AmountsFromLiquidity(
		position.Liquidity,
		sqrtCurrent,
		SqrtRatioFromTick(position.TickLower),
		SqrtRatioFromTick(position.TickUpper),
	)
}
