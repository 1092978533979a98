package dex

import (
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"

	"positionscope/internal/model"
)

// Shared geometric price law: price(index) = base^index with base 1.0001.
// The bin protocol scales the exponent base by its per-pool bin step; the
// tick protocols additionally carry the current price as a Q64.64 square
// root.
const (
	// MinTick and MaxTick bound the usable tick range of both tick
	// protocols.
	MinTick = -443636
	MaxTick = 443636
)

var logTickBase = math.Log(1.0001)

// tieEpsilon absorbs the last-ulp error of exp/log so that a price sitting
// exactly on a tick boundary recovers that tick.
const tieEpsilon = 1e-9

// PriceFromTick returns base^tick as a raw (decimal-unadjusted) price.
func PriceFromTick(tick int32) decimal.Decimal {
	return decimal.NewFromFloat(math.Exp(float64(tick) * logTickBase))
}

// TickFromPrice inverts PriceFromTick: floor(log(price)/log(1.0001)).
// Prices that land outside [MinTick, MaxTick] are rejected before the
// float-to-int32 conversion can wrap.
func TickFromPrice(price decimal.Decimal) (int32, error) {
	p, _ := price.Float64()
	if p <= 0 {
		return 0, fmt.Errorf("tick from price %v: %w", price, model.ErrCalculation)
	}
	raw := math.Floor(math.Log(p)/logTickBase + tieEpsilon)
	if raw < MinTick || raw > MaxTick {
		return 0, fmt.Errorf("price %v outside tick range: %w", price, model.ErrCalculation)
	}
	return int32(raw), nil
}

// binBase returns the bin protocol's per-pool base: 1 + binStep/10000.
func binBase(binStep uint16) float64 {
	return 1 + float64(binStep)/10000
}

// PriceFromBinID returns the bin protocol's price for a bin id.
func PriceFromBinID(binID int32, binStep uint16) (decimal.Decimal, error) {
	if binStep == 0 {
		return decimal.Zero, fmt.Errorf("bin step is zero: %w", model.ErrCalculation)
	}
	return decimal.NewFromFloat(math.Exp(float64(binID) * math.Log(binBase(binStep)))), nil
}

// BinIDFromPrice inverts PriceFromBinID.
func BinIDFromPrice(price decimal.Decimal, binStep uint16) (int32, error) {
	p, _ := price.Float64()
	if p <= 0 || binStep == 0 {
		return 0, fmt.Errorf("bin id from price %v step %d: %w", price, binStep, model.ErrCalculation)
	}
	raw := math.Log(p) / math.Log(binBase(binStep))
	return int32(math.Floor(raw + tieEpsilon)), nil
}

var q64 = new(big.Float).SetPrec(256).SetInt(new(big.Int).Lsh(big.NewInt(1), 64))

// SqrtRatioFromX64 parses a Q64.64 square-root price into a plain square
// root: sqrtPriceX64 / 2^64.
func SqrtRatioFromX64(sqrtPriceX64 string) (*big.Float, error) {
	raw, ok := new(big.Int).SetString(sqrtPriceX64, 10)
	if !ok || raw.Sign() <= 0 {
		return nil, fmt.Errorf("sqrt price %q: %w", sqrtPriceX64, model.ErrCalculation)
	}
	value := new(big.Float).SetPrec(256).SetInt(raw)
	return value.Quo(value, q64), nil
}

// PriceFromSqrtX64 squares a Q64.64 square-root price into a raw price.
func PriceFromSqrtX64(sqrtPriceX64 string) (decimal.Decimal, error) {
	root, err := SqrtRatioFromX64(sqrtPriceX64)
	if err != nil {
		return decimal.Zero, err
	}
	price := new(big.Float).SetPrec(256).Mul(root, root)
	return decimalFromFloat(price)
}

// SqrtRatioFromTick returns sqrt(1.0001^tick) as a big float.
func SqrtRatioFromTick(tick int32) *big.Float {
	return new(big.Float).SetPrec(256).SetFloat64(math.Exp(float64(tick) * logTickBase / 2))
}

// SqrtPriceX64FromTick returns the Q64.64 fixed-point square-root price for
// a tick, as a decimal string.
func SqrtPriceX64FromTick(tick int32) string {
	scaled := new(big.Float).SetPrec(256).Mul(SqrtRatioFromTick(tick), q64)
	out, _ := scaled.Int(nil)
	return out.String()
}

// AdjustForDecimals converts a raw token-B-per-token-A price into a
// human-readable one: raw * 10^(decimalsA - decimalsB).
func AdjustForDecimals(raw decimal.Decimal, decimalsA, decimalsB uint8) decimal.Decimal {
	return raw.Shift(int32(decimalsA) - int32(decimalsB))
}

func decimalFromFloat(value *big.Float) (decimal.Decimal, error) {
	out, err := decimal.NewFromString(value.Text('f', 18))
	if err != nil {
		return decimal.Zero, fmt.Errorf("decimal conversion: %w", model.ErrCalculation)
	}
	return out, nil
}
