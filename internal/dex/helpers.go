package dex

import (
	"math/big"

	"positionscope/internal/model"
)

func sumBinLiquidity(bins []model.BinEntry) string {
	return sumBinAmounts(bins, func(b model.BinEntry) string { return b.Liquidity })
}

func sumBinAmounts(bins []model.BinEntry, field func(model.BinEntry) string) string {
	total := new(big.Int)
	for _, bin := range bins {
		value, ok := new(big.Int).SetString(field(bin), 10)
		if !ok {
			continue
		}
		total.Add(total, value)
	}
	return total.String()
}
