// Package metrics turns decoded position and pool state plus an external
// price feed into valuation, fee/reward accounting, impermanent loss, and
// risk scores. All arithmetic is decimal; nothing here touches the network
// or the ledger.
package metrics

import (
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"positionscope/internal/model"
)

const (
	secondsPerYear = 31536000
	secondsPerDay  = 86400
)

// Engine computes PositionMetrics. The clock is injectable so age-dependent
// APR math is testable.
type Engine struct {
	logger *zap.Logger
	now    func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithClock overrides the engine clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine builds a metrics engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compute derives the metrics for one position. The pool may be nil for the
// perpetual protocol (the position carries its own USD fields); the liquidity
// protocols need their pool state for decimals and the current price.
// The protocol switch is exhaustive over the closed protocol set.
func (e *Engine) Compute(position *model.Position, pool *model.Pool, feed model.PriceFeed) (*model.PositionMetrics, error) {
	if position == nil {
		return nil, fmt.Errorf("position is nil: %w", model.ErrCalculation)
	}

	switch position.Protocol {
	case model.ProtocolDLMM:
		return e.computeBins(position, pool, feed)
	case model.ProtocolWhirlpool, model.ProtocolCLMM:
		return e.computeConcentrated(position, pool, feed)
	case model.ProtocolPerp:
		return e.computePerp(position, pool, feed)
	default:
		return nil, fmt.Errorf("protocol %q has no metrics mapping: %w",
			position.Protocol, model.ErrCalculation)
	}
}

// uiAmount converts a raw decimal-string amount into human units.
func uiAmount(raw string, decimals uint8) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("amount %q: %w", raw, model.ErrCalculation)
	}
	return value.Shift(-int32(decimals)), nil
}

// ageDays returns the position age in whole days, floored at 1 so APR math
// never divides by zero; unknown open times also report 1.
func (e *Engine) ageDays(openedAt int64) decimal.Decimal {
	if openedAt <= 0 {
		return decimal.NewFromInt(1)
	}
	elapsed := e.now().Unix() - openedAt
	days := elapsed / secondsPerDay
	if days < 1 {
		days = 1
	}
	return decimal.NewFromInt(days)
}

// feeAPR annualizes the accrued fees against the position value:
// (dailyFee / value) * 365 * 100 with dailyFee = fees / ageDays.
func feeAPR(feesValue, positionValue, ageDays decimal.Decimal) decimal.Decimal {
	if positionValue.IsZero() || ageDays.IsZero() {
		return decimal.Zero
	}
	daily := feesValue.Div(ageDays)
	return daily.Div(positionValue).Mul(decimal.NewFromInt(365 * 100))
}

// rewardDecimals picks the decimal count used to value a reward mint: the
// matching pool token's decimals when the reward is one of the pool tokens,
// otherwise the chain-standard 9.
func rewardDecimals(pool *model.Pool, mint string) uint8 {
	if pool != nil {
		if mint == pool.TokenA.Mint {
			return pool.TokenA.Decimals
		}
		if mint == pool.TokenB.Mint {
			return pool.TokenB.Decimals
		}
	}
	return 9
}

// rewardsValue prices the position's unclaimed reward accruals. Rewards
// whose mint has no feed price contribute zero.
func rewardsValue(position *model.Position, pool *model.Pool, feed model.PriceFeed) decimal.Decimal {
	total := decimal.Zero
	if pool == nil {
		return total
	}
	for _, accrual := range position.Rewards {
		if accrual.Slot >= len(pool.Rewards) {
			continue
		}
		slot := pool.Rewards[accrual.Slot]
		price, ok := feed.Price(slot.Mint)
		if !ok {
			continue
		}
		amount, err := uiAmount(accrual.Amount, rewardDecimals(pool, slot.Mint))
		if err != nil {
			continue
		}
		total = total.Add(amount.Mul(price))
	}
	return total
}

// rewardAPR derives an annualized reward rate from the pool's emission
// rates and the position's share of pool liquidity. Reported as unknown
// (zero, false) when the pool has no usable emission data; never fabricated.
// emissionsScale divides the raw per-second rate (2^64 for protocols that
// store emissions as Q64.64, 1 otherwise).
func rewardAPR(position *model.Position, pool *model.Pool, feed model.PriceFeed, positionValue decimal.Decimal, emissionsScale decimal.Decimal) (decimal.Decimal, bool) {
	if pool == nil || len(pool.Rewards) == 0 || positionValue.IsZero() {
		return decimal.Zero, false
	}
	poolLiquidity, err := decimal.NewFromString(pool.Liquidity)
	if err != nil || poolLiquidity.IsZero() {
		return decimal.Zero, false
	}
	positionLiquidity, err := decimal.NewFromString(position.Liquidity)
	if err != nil || positionLiquidity.IsZero() {
		return decimal.Zero, false
	}
	share := positionLiquidity.Div(poolLiquidity)

	yearly := decimal.Zero
	found := false
	for _, slot := range pool.Rewards {
		price, ok := feed.Price(slot.Mint)
		if !ok {
			continue
		}
		perSecond, err := uiAmount(slot.EmissionsPerSecond, rewardDecimals(pool, slot.Mint))
		if err != nil || perSecond.IsZero() {
			continue
		}
		if emissionsScale.GreaterThan(decimal.NewFromInt(1)) {
			perSecond = perSecond.Div(emissionsScale)
		}
		yearly = yearly.Add(perSecond.Mul(decimal.NewFromInt(secondsPerYear)).Mul(price))
		found = true
	}
	if !found {
		return decimal.Zero, false
	}
	apr := yearly.Mul(share).Div(positionValue).Mul(decimal.NewFromInt(100))
	return apr, true
}

// q64Scale is the divisor for Q64.64 emission rates.
var q64Scale = decimal.NewFromBigInt(new(big.Int).Lsh(big.NewInt(1), 64), 0)
