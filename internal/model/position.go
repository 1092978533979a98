package model

// BinEntry is one discrete liquidity bucket owned by a bin-protocol position.
type BinEntry struct {
	BinID     int32  `json:"bin_id"`
	AmountX   string `json:"amount_x"`
	AmountY   string `json:"amount_y"`
	Liquidity string `json:"liquidity"`
	FeeX      string `json:"fee_x"`
	FeeY      string `json:"fee_y"`
}

// RewardAccrual is an unclaimed reward amount for one pool reward slot.
type RewardAccrual struct {
	Slot   int    `json:"slot"`
	Amount string `json:"amount"`
}

// PerpSide is the direction of a perpetual position.
type PerpSide string

const (
	PerpSideLong  PerpSide = "long"
	PerpSideShort PerpSide = "short"
)

// PerpDetails carries the perpetual protocol's position fields. USD amounts
// are micro-USD (6 decimal places) as stored on chain.
type PerpDetails struct {
	Side              PerpSide `json:"side"`
	Custody           string   `json:"custody"`
	CollateralCustody string   `json:"collateral_custody"`
	EntryPriceUsd     string   `json:"entry_price_usd"`
	SizeUsd           string   `json:"size_usd"`
	CollateralUsd     string   `json:"collateral_usd"`
	UnrealizedPnlUsd  string   `json:"unrealized_pnl_usd"`
	LiquidationPrice  string   `json:"liquidation_price"`
	LockedAmount      string   `json:"locked_amount"`
	InterestSnapshot  string   `json:"interest_snapshot"`
}

// Position is a decoded position account, tagged by protocol. Tick bounds are
// present only when HasRange is true; the bin protocol carries Bins instead
// and derives its bounds from them.
type Position struct {
	Protocol Protocol `json:"protocol"`
	Address  string   `json:"address"`
	Owner    string   `json:"owner"`
	Pool     string   `json:"pool"`

	Liquidity string `json:"liquidity"`

	HasRange  bool  `json:"has_range"`
	TickLower int32 `json:"tick_lower,omitempty"`
	TickUpper int32 `json:"tick_upper,omitempty"`

	Bins []BinEntry `json:"bins,omitempty"`

	FeeOwedA string `json:"fee_owed_a"`
	FeeOwedB string `json:"fee_owed_b"`

	Rewards []RewardAccrual `json:"rewards,omitempty"`

	// EntryPrice is an externally supplied cost-basis price (token B per
	// token A) used for impermanent-loss reporting. Empty when unknown.
	EntryPrice string `json:"entry_price,omitempty"`

	OpenedAt int64 `json:"opened_at,omitempty"`

	Perp *PerpDetails `json:"perp,omitempty"`
}

// BinRange returns the derived [min, max] bin ids over the position's bin
// entries. ok is false when the position has no bins.
func (p *Position) BinRange() (lower, upper int32, ok bool) {
	if len(p.Bins) == 0 {
		return 0, 0, false
	}
	lower, upper = p.Bins[0].BinID, p.Bins[0].BinID
	for _, bin := range p.Bins[1:] {
		if bin.BinID < lower {
			lower = bin.BinID
		}
		if bin.BinID > upper {
			upper = bin.BinID
		}
	}
	return lower, upper, true
}

// Closed reports whether the position holds nothing: zero liquidity, zero
// owed fees, zero size. Closed positions are excluded from scan results.
func (p *Position) Closed() bool {
	if !amountIsZero(p.Liquidity) || !amountIsZero(p.FeeOwedA) || !amountIsZero(p.FeeOwedB) {
		return false
	}
	for _, bin := range p.Bins {
		if !amountIsZero(bin.AmountX) || !amountIsZero(bin.AmountY) ||
			!amountIsZero(bin.Liquidity) || !amountIsZero(bin.FeeX) || !amountIsZero(bin.FeeY) {
			return false
		}
	}
	for _, reward := range p.Rewards {
		if !amountIsZero(reward.Amount) {
			return false
		}
	}
	if p.Perp != nil {
		if !amountIsZero(p.Perp.SizeUsd) || !amountIsZero(p.Perp.CollateralUsd) {
			return false
		}
	}
	return true
}

func amountIsZero(s string) bool {
	if s == "" || s == "0" {
		return true
	}
	for i, c := range s {
		if c == '-' && i == 0 {
			continue
		}
		if c != '0' {
			return false
		}
	}
	return true
}
