package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceFeed is an externally supplied mint → USD price mapping with a
// freshness timestamp. Read-only input to the metrics engine; providers may
// return a subset of the requested mints.
type PriceFeed struct {
	Prices    map[string]decimal.Decimal `json:"prices"`
	UpdatedAt time.Time                  `json:"updated_at"`
}

// NewPriceFeed builds an empty feed stamped now.
func NewPriceFeed() PriceFeed {
	return PriceFeed{Prices: make(map[string]decimal.Decimal), UpdatedAt: time.Now().UTC()}
}

// Price returns the USD price for a mint, if known.
func (f PriceFeed) Price(mint string) (decimal.Decimal, bool) {
	price, ok := f.Prices[mint]
	return price, ok
}
