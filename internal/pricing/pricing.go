// Package pricing supplies USD prices for token mints. The scanner depends
// only on the Provider interface; the static provider serves fixed prices
// for offline runs and tests.
package pricing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"positionscope/internal/model"
)

// Provider resolves USD prices for a set of mints. Mints with no known
// price are simply absent from the returned feed; callers treat missing
// prices as zero value, never as an error.
type Provider interface {
	GetPrices(ctx context.Context, mints []string) (model.PriceFeed, error)
}

// Static serves a fixed mint-to-price table.
type Static struct {
	prices map[string]decimal.Decimal
}

// NewStatic builds a static provider from a price table.
func NewStatic(prices map[string]decimal.Decimal) *Static {
	table := make(map[string]decimal.Decimal, len(prices))
	for mint, price := range prices {
		table[mint] = price
	}
	return &Static{prices: table}
}

// GetPrices returns the subset of the table covering the requested mints.
// An empty mint list yields an empty feed and no error.
func (s *Static) GetPrices(_ context.Context, mints []string) (model.PriceFeed, error) {
	feed := model.NewPriceFeed()
	feed.UpdatedAt = time.Now()
	for _, mint := range mints {
		if price, ok := s.prices[mint]; ok {
			feed.Prices[mint] = price
		}
	}
	return feed, nil
}
