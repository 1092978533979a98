package model

import "github.com/shopspring/decimal"

// RiskBucket classifies the averaged risk fractions.
type RiskBucket string

const (
	RiskLow     RiskBucket = "low"
	RiskMedium  RiskBucket = "medium"
	RiskHigh    RiskBucket = "high"
	RiskExtreme RiskBucket = "extreme"
)

// BucketRisk maps an averaged risk fraction in [0,1] to a bucket.
func BucketRisk(score decimal.Decimal) RiskBucket {
	switch {
	case score.LessThan(decimal.NewFromFloat(0.25)):
		return RiskLow
	case score.LessThan(decimal.NewFromFloat(0.5)):
		return RiskMedium
	case score.LessThan(decimal.NewFromFloat(0.75)):
		return RiskHigh
	default:
		return RiskExtreme
	}
}

// PriceRange reports the position's price bounds against the pool's current
// price, in token-B-per-token-A units adjusted for decimals.
type PriceRange struct {
	Lower   decimal.Decimal `json:"lower"`
	Upper   decimal.Decimal `json:"upper"`
	Current decimal.Decimal `json:"current"`
	InRange bool            `json:"in_range"`
}

// RiskScores are the four independent risk fractions in [0,1].
type RiskScores struct {
	Concentration decimal.Decimal `json:"concentration"`
	Liquidity     decimal.Decimal `json:"liquidity"`
	Price         decimal.Decimal `json:"price"`
	Range         decimal.Decimal `json:"range"`
}

// Average returns the mean of the four fractions.
func (r RiskScores) Average() decimal.Decimal {
	sum := r.Concentration.Add(r.Liquidity).Add(r.Price).Add(r.Range)
	return sum.Div(decimal.NewFromInt(4))
}

// PerpMetrics is the perpetual-protocol extension of PositionMetrics.
type PerpMetrics struct {
	Side                   PerpSide        `json:"side"`
	Leverage               decimal.Decimal `json:"leverage"`
	MarginRatio            decimal.Decimal `json:"margin_ratio"`
	UnrealizedPnlUsd       decimal.Decimal `json:"unrealized_pnl_usd"`
	LiquidationPriceUsd    decimal.Decimal `json:"liquidation_price_usd"`
	LiquidationDistancePct decimal.Decimal `json:"liquidation_distance_pct"`
}

// PositionMetrics is the computed, protocol-uniform metrics shape. USD values
// are decimals; percentages are expressed as percent (5 == 5%). Protocol
// specifics ride in the extension pointers.
type PositionMetrics struct {
	Protocol Protocol `json:"protocol"`
	Address  string   `json:"address"`

	TotalValue  decimal.Decimal `json:"total_value"`
	Token0Value decimal.Decimal `json:"token0_value"`
	Token1Value decimal.Decimal `json:"token1_value"`

	FeesEarned decimal.Decimal `json:"fees_earned"`
	FeeAPR     decimal.Decimal `json:"fee_apr"`

	RewardsEarned  decimal.Decimal `json:"rewards_earned"`
	RewardAPR      decimal.Decimal `json:"reward_apr"`
	RewardAPRKnown bool            `json:"reward_apr_known"`

	ImpermanentLossPct decimal.Decimal `json:"impermanent_loss_pct"`
	ILKnown            bool            `json:"il_known"`

	UtilizationRate decimal.Decimal `json:"utilization_rate"`

	Risk       RiskScores `json:"risk"`
	RiskBucket RiskBucket `json:"risk_bucket"`

	PriceRange PriceRange `json:"price_range"`

	Perp *PerpMetrics `json:"perp,omitempty"`
}
