package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"positionscope/internal/dex"
	"positionscope/internal/model"
)

const (
	mintA = "So11111111111111111111111111111111111111112"
	mintB = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

func feedWith(prices map[string]float64) model.PriceFeed {
	feed := model.NewPriceFeed()
	for mint, price := range prices {
		feed.Prices[mint] = decimal.NewFromFloat(price)
	}
	return feed
}

func tickPool(tickCurrent int32) *model.Pool {
	return &model.Pool{
		Protocol:     model.ProtocolWhirlpool,
		Address:      "pool",
		TokenA:       model.Token{Mint: mintA, Decimals: 6},
		TokenB:       model.Token{Mint: mintB, Decimals: 6},
		Liquidity:    "100000000000",
		TickCurrent:  tickCurrent,
		SqrtPriceX64: dex.SqrtPriceX64FromTick(tickCurrent),
	}
}

func TestInRangePositionUtilization(t *testing.T) {
	engine := NewEngine()
	position := &model.Position{
		Protocol:  model.ProtocolWhirlpool,
		Address:   "pos",
		Liquidity: "1000000000",
		HasRange:  true,
		TickLower: -100,
		TickUpper: 100,
		FeeOwedA:  "0",
		FeeOwedB:  "0",
	}

	m, err := engine.Compute(position, tickPool(0), feedWith(map[string]float64{mintA: 1, mintB: 1}))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if !m.PriceRange.InRange {
		t.Fatalf("tick 0 in [-100, 100) must be in range")
	}
	if !m.UtilizationRate.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("utilization: %s", m.UtilizationRate)
	}
	if m.TotalValue.Sign() <= 0 {
		t.Fatalf("in-range position must have positive value: %s", m.TotalValue)
	}
	if m.Token0Value.Sign() <= 0 || m.Token1Value.Sign() <= 0 {
		t.Fatalf("in-range position must hold both tokens: %s / %s", m.Token0Value, m.Token1Value)
	}
}

func TestOutOfRangePosition(t *testing.T) {
	engine := NewEngine()
	position := &model.Position{
		Protocol:  model.ProtocolWhirlpool,
		Address:   "pos",
		Liquidity: "1000000000",
		HasRange:  true,
		TickLower: 100,
		TickUpper: 300,
		FeeOwedA:  "0",
		FeeOwedB:  "0",
	}

	// current below the range: all token0, none of token1
	m, err := engine.Compute(position, tickPool(0), feedWith(map[string]float64{mintA: 1, mintB: 1}))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if m.PriceRange.InRange {
		t.Fatalf("tick 0 below [100, 300) must be out of range")
	}
	if !m.UtilizationRate.IsZero() {
		t.Fatalf("out-of-range utilization: %s", m.UtilizationRate)
	}
	if !m.Token1Value.IsZero() {
		t.Fatalf("below-range token1 value must be zero: %s", m.Token1Value)
	}
	if m.Risk.Range.Cmp(decimal.NewFromInt(1)) != 0 {
		t.Fatalf("out-of-range range risk must saturate: %s", m.Risk.Range)
	}
}

func TestFeeAPRUsesPositionAge(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	engine := NewEngine(WithClock(func() time.Time { return now }))

	position := &model.Position{
		Protocol:  model.ProtocolWhirlpool,
		Address:   "pos",
		Liquidity: "1000000000",
		HasRange:  true,
		TickLower: -100,
		TickUpper: 100,
		FeeOwedA:  "10000000", // 10 token A at 6 decimals
		FeeOwedB:  "0",
		OpenedAt:  now.Add(-10 * 24 * time.Hour).Unix(),
	}

	m, err := engine.Compute(position, tickPool(0), feedWith(map[string]float64{mintA: 1, mintB: 1}))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if !m.FeesEarned.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("fees earned: %s", m.FeesEarned)
	}
	// daily fee = 10/10 = 1; APR = 1/value*365*100
	wantAPR := decimal.NewFromInt(36500).Div(m.TotalValue)
	if m.FeeAPR.Sub(wantAPR).Abs().GreaterThan(decimal.NewFromFloat(1e-6)) {
		t.Fatalf("fee apr: %s want %s", m.FeeAPR, wantAPR)
	}
}

func TestRewardAPRUnknownWithoutEmissions(t *testing.T) {
	engine := NewEngine()
	position := &model.Position{
		Protocol:  model.ProtocolWhirlpool,
		Address:   "pos",
		Liquidity: "1000000000",
		HasRange:  true,
		TickLower: -100,
		TickUpper: 100,
		FeeOwedA:  "0",
		FeeOwedB:  "0",
	}

	m, err := engine.Compute(position, tickPool(0), feedWith(map[string]float64{mintA: 1, mintB: 1}))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	// no emission data: the gap is surfaced, never fabricated
	if m.RewardAPRKnown || !m.RewardAPR.IsZero() {
		t.Fatalf("reward apr must be unknown: %+v", m)
	}
}

func TestRewardAPRFromEmissions(t *testing.T) {
	engine := NewEngine()
	pool := tickPool(0)
	pool.Rewards = []model.RewardSlot{{
		Mint:               mintB,
		EmissionsPerSecond: "1000000", // 1 token B per second at 6 decimals
	}}
	position := &model.Position{
		Protocol:  model.ProtocolCLMM, // raw emission rate, no Q64 scale
		Address:   "pos",
		Pool:      pool.Address,
		Liquidity: "1000000000",
		HasRange:  true,
		TickLower: -100,
		TickUpper: 100,
		FeeOwedA:  "0",
		FeeOwedB:  "0",
	}

	m, err := engine.Compute(position, pool, feedWith(map[string]float64{mintA: 1, mintB: 2}))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if !m.RewardAPRKnown {
		t.Fatalf("reward apr should be known with emission data")
	}
	if m.RewardAPR.Sign() <= 0 {
		t.Fatalf("reward apr: %s", m.RewardAPR)
	}
}

func TestPerpLeverage(t *testing.T) {
	engine := NewEngine()
	position := &model.Position{
		Protocol:  model.ProtocolPerp,
		Address:   "pos",
		Liquidity: "0",
		FeeOwedA:  "0",
		FeeOwedB:  "0",
		Perp: &model.PerpDetails{
			Side:             model.PerpSideLong,
			SizeUsd:          "1000000000", // $1000 in micro-USD
			CollateralUsd:    "500000000",  // $500
			UnrealizedPnlUsd: "0",
			EntryPriceUsd:    "150000000",
			LiquidationPrice: "80000000",
		},
	}

	m, err := engine.Compute(position, nil, model.NewPriceFeed())
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if m.Perp == nil {
		t.Fatalf("perp extension missing")
	}
	if !m.TotalValue.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("position value: %s", m.TotalValue)
	}
	if m.Perp.Leverage.Sub(decimal.NewFromInt(2)).Abs().GreaterThan(decimal.NewFromFloat(1e-9)) {
		t.Fatalf("leverage: %s", m.Perp.Leverage)
	}
	if !m.PriceRange.InRange {
		t.Fatalf("long above its liquidation price must be in range")
	}
}

func TestPerpZeroSizeCollateralRemaining(t *testing.T) {
	engine := NewEngine()
	position := &model.Position{
		Protocol: model.ProtocolPerp,
		Address:  "pos",
		Perp: &model.PerpDetails{
			Side:             model.PerpSideLong,
			SizeUsd:          "0", // fully closed, collateral not yet withdrawn
			CollateralUsd:    "500000000",
			UnrealizedPnlUsd: "0",
			EntryPriceUsd:    "150000000",
			LiquidationPrice: "0",
		},
	}

	m, err := engine.Compute(position, nil, model.NewPriceFeed())
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if !m.TotalValue.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("position value: %s", m.TotalValue)
	}
	if !m.Perp.Leverage.IsZero() {
		t.Fatalf("zero size must leave leverage zero, got %s", m.Perp.Leverage)
	}
	if !m.Perp.MarginRatio.IsZero() {
		t.Fatalf("zero size must leave margin ratio zero, got %s", m.Perp.MarginRatio)
	}
}

func TestPerpUnderwaterPnl(t *testing.T) {
	engine := NewEngine()
	position := &model.Position{
		Protocol: model.ProtocolPerp,
		Address:  "pos",
		Perp: &model.PerpDetails{
			Side:             model.PerpSideLong,
			SizeUsd:          "1000000000",
			CollateralUsd:    "500000000",
			UnrealizedPnlUsd: "-100000000", // -$100
			EntryPriceUsd:    "150000000",
			LiquidationPrice: "80000000",
		},
	}

	m, err := engine.Compute(position, nil, model.NewPriceFeed())
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if !m.TotalValue.Equal(decimal.NewFromInt(400)) {
		t.Fatalf("position value: %s", m.TotalValue)
	}
	if m.Perp.Leverage.Sub(decimal.NewFromFloat(2.5)).Abs().GreaterThan(decimal.NewFromFloat(1e-9)) {
		t.Fatalf("leverage: %s", m.Perp.Leverage)
	}
	if m.Risk.Price.IsZero() {
		t.Fatalf("drawdown must raise price risk")
	}
}

func TestDLMMPositionValue(t *testing.T) {
	engine := NewEngine()
	pool := &model.Pool{
		Protocol:    model.ProtocolDLMM,
		Address:     "pair",
		TokenA:      model.Token{Mint: mintA, Decimals: 6},
		TokenB:      model.Token{Mint: mintB, Decimals: 6},
		Liquidity:   "10000",
		BinStep:     25,
		ActiveBinID: 0,
	}
	position := &model.Position{
		Protocol:  model.ProtocolDLMM,
		Address:   "pos",
		Pool:      "pair",
		Liquidity: "1500",
		Bins: []model.BinEntry{
			{BinID: -2, AmountX: "3000000", AmountY: "0", Liquidity: "500", FeeX: "1000000", FeeY: "0"},
			{BinID: 1, AmountX: "0", AmountY: "2000000", Liquidity: "1000", FeeX: "0", FeeY: "500000"},
		},
		FeeOwedA: "1000000",
		FeeOwedB: "500000",
	}

	m, err := engine.Compute(position, pool, feedWith(map[string]float64{mintA: 2, mintB: 1}))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	// 3 tokenA * $2 + 2 tokenB * $1 = $8
	if !m.TotalValue.Equal(decimal.NewFromInt(8)) {
		t.Fatalf("total value: %s", m.TotalValue)
	}
	// 1 tokenA * $2 + 0.5 tokenB * $1 = $2.5
	if !m.FeesEarned.Equal(decimal.NewFromFloat(2.5)) {
		t.Fatalf("fees: %s", m.FeesEarned)
	}
	// the bin protocol is always in range
	if !m.PriceRange.InRange || !m.UtilizationRate.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("bin range/utilization: %+v", m)
	}
	if m.ILKnown {
		t.Fatalf("bin positions report no IL")
	}
}

func TestComputeRequiresPool(t *testing.T) {
	engine := NewEngine()
	position := &model.Position{
		Protocol:  model.ProtocolWhirlpool,
		Address:   "pos",
		Liquidity: "1",
		HasRange:  true,
		TickLower: -10,
		TickUpper: 10,
		FeeOwedA:  "0",
		FeeOwedB:  "0",
	}

	if _, err := engine.Compute(position, nil, model.NewPriceFeed()); !errors.Is(err, model.ErrCalculation) {
		t.Fatalf("expected calculation error without pool, got %v", err)
	}
	if _, err := engine.Compute(nil, nil, model.NewPriceFeed()); !errors.Is(err, model.ErrCalculation) {
		t.Fatalf("expected calculation error for nil position, got %v", err)
	}
}
