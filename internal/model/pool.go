package model

// Token describes one side of a pool: mint, reserve vault, and decimals.
type Token struct {
	Mint     string `json:"mint"`
	Vault    string `json:"vault,omitempty"`
	Decimals uint8  `json:"decimals"`
}

// RewardSlot is one reward-emitter entry on a pool. An all-zero mint means
// the slot is unused.
type RewardSlot struct {
	Mint               string `json:"mint"`
	Vault              string `json:"vault,omitempty"`
	EmissionsPerSecond string `json:"emissions_per_second"`
}

// Pool is the decoded state of a liquidity pool (or, for the perpetual
// protocol, a custody market). Decoded fresh on every fetch and never
// mutated; amount fields are decimal strings.
type Pool struct {
	Protocol Protocol `json:"protocol"`
	Address  string   `json:"address"`

	TokenA Token `json:"token_a"`
	TokenB Token `json:"token_b,omitempty"`

	// Liquidity is the pool's total active liquidity (u128).
	Liquidity string `json:"liquidity"`
	// FeePPM is the swap fee in parts per million of the input amount.
	FeePPM uint32 `json:"fee_ppm"`

	// Tick-protocol fields.
	TickSpacing  uint16 `json:"tick_spacing,omitempty"`
	TickCurrent  int32  `json:"tick_current,omitempty"`
	SqrtPriceX64 string `json:"sqrt_price_x64,omitempty"`

	// Bin-protocol fields.
	BinStep     uint16 `json:"bin_step,omitempty"`
	BaseFactor  uint16 `json:"base_factor,omitempty"`
	ActiveBinID int32  `json:"active_bin_id,omitempty"`
	Status      uint8  `json:"status,omitempty"`

	Rewards []RewardSlot `json:"rewards,omitempty"`

	// Custody carries the perpetual protocol's market-config fields.
	Custody *CustodyDetails `json:"custody,omitempty"`
}

// CustodyDetails is the perpetual protocol's per-token market configuration.
type CustodyDetails struct {
	PerpPool               string `json:"perp_pool"`
	IsStable               bool   `json:"is_stable"`
	TargetRatioBps         uint64 `json:"target_ratio_bps"`
	AssetsOwned            string `json:"assets_owned"`
	AssetsLocked           string `json:"assets_locked"`
	CumulativeInterestRate string `json:"cumulative_interest_rate"`
	LastUpdated            int64  `json:"last_updated"`
}

// FeeBps returns the pool fee expressed in basis points.
func (p *Pool) FeeBps() float64 {
	return float64(p.FeePPM) / 100
}
