package dex

import (
	"errors"
	"testing"

	"positionscope/internal/model"
)

func TestDLMMDecodePair(t *testing.T) {
	decoder := NewDLMMDecoder()
	data := encodeDLMMPair(t, dlmmPairFixture{
		binStep:    25,
		baseFactor: 10000,
		activeID:   -1200,
		feePPM:     2500,
		decimalsX:  9,
		decimalsY:  6,
		rewardMint: testKey(0xEE),
		rewardRate: 777,
		liquidity:  "340282366920938463463374607431768211455",
	})

	pool, err := decoder.DecodePool("pairAddr", data)
	if err != nil {
		t.Fatalf("decode pair: %v", err)
	}
	if pool.Protocol != model.ProtocolDLMM {
		t.Fatalf("protocol: %s", pool.Protocol)
	}
	if pool.BinStep != 25 || pool.ActiveBinID != -1200 {
		t.Fatalf("bin fields: %+v", pool)
	}
	if pool.FeePPM != 2500 || pool.TokenA.Decimals != 9 || pool.TokenB.Decimals != 6 {
		t.Fatalf("fee/decimals: %+v", pool)
	}
	if pool.Liquidity != "340282366920938463463374607431768211455" {
		t.Fatalf("liquidity: %s", pool.Liquidity)
	}
	if len(pool.Rewards) != 1 || pool.Rewards[0].EmissionsPerSecond != "777" {
		t.Fatalf("rewards: %+v", pool.Rewards)
	}
}

func TestDLMMDecodePosition(t *testing.T) {
	decoder := NewDLMMDecoder()
	owner := testKey(0x11)
	pair := testKey(0x22)
	data := encodeDLMMPosition(t, pair, owner, 1690000000, []dlmmBinFixture{
		{binID: -5, amountX: 1000, amountY: 0, liquidity: "500", feeX: 3, feeY: 0},
		{binID: -3, amountX: 600, amountY: 400, liquidity: "800", feeX: 1, feeY: 2},
		{binID: 4, amountX: 0, amountY: 900, liquidity: "700", feeX: 0, feeY: 5},
	})

	position, err := decoder.DecodePosition("posAddr", data)
	if err != nil {
		t.Fatalf("decode position: %v", err)
	}
	if position.Owner != owner || position.Pool != pair {
		t.Fatalf("refs: %+v", position)
	}
	if len(position.Bins) != 3 {
		t.Fatalf("bins: %d", len(position.Bins))
	}
	// Range bounds are derived from the bin set, never stored.
	lower, upper, ok := position.BinRange()
	if !ok || lower != -5 || upper != 4 {
		t.Fatalf("bin range: %d..%d ok=%v", lower, upper, ok)
	}
	if position.Liquidity != "2000" {
		t.Fatalf("summed liquidity: %s", position.Liquidity)
	}
	if position.FeeOwedA != "4" || position.FeeOwedB != "7" {
		t.Fatalf("summed fees: %s / %s", position.FeeOwedA, position.FeeOwedB)
	}
	if position.Closed() {
		t.Fatalf("live position reported closed")
	}
}

func TestDLMMEmptyPositionIsClosed(t *testing.T) {
	decoder := NewDLMMDecoder()
	data := encodeDLMMPosition(t, testKey(0x22), testKey(0x11), 0, nil)

	position, err := decoder.DecodePosition("posAddr", data)
	if err != nil {
		t.Fatalf("decode position: %v", err)
	}
	if len(position.Bins) != 0 || position.Liquidity != "0" {
		t.Fatalf("expected empty position: %+v", position)
	}
	if !position.Closed() {
		t.Fatalf("zero-bin zero-liquidity position must be closed")
	}
}

func TestDLMMDiscriminatorGate(t *testing.T) {
	decoder := NewDLMMDecoder()
	data := encodeDLMMPair(t, dlmmPairFixture{binStep: 10})
	data[0] ^= 0xFF

	if _, err := decoder.DecodePool("pairAddr", data); !errors.Is(err, model.ErrDiscriminatorMismatch) {
		t.Fatalf("expected discriminator mismatch, got %v", err)
	}

	// a position discriminator on pair-sized data must also be rejected
	wrongKind := encodeDLMMPair(t, dlmmPairFixture{binStep: 10})
	copy(wrongKind[:8], dlmmPositionDiscriminator[:])
	if _, err := decoder.DecodePool("pairAddr", wrongKind); !errors.Is(err, model.ErrDiscriminatorMismatch) {
		t.Fatalf("expected discriminator mismatch, got %v", err)
	}
}

func TestDLMMShortData(t *testing.T) {
	decoder := NewDLMMDecoder()
	if _, err := decoder.DecodePool("pairAddr", make([]byte, 16)); !errors.Is(err, model.ErrInvalidSize) {
		t.Fatalf("expected invalid size, got %v", err)
	}
	if _, err := decoder.DecodePosition("posAddr", make([]byte, dlmmPositionSize-1)); !errors.Is(err, model.ErrInvalidSize) {
		t.Fatalf("expected invalid size, got %v", err)
	}
}

func TestDLMMBinCountBound(t *testing.T) {
	decoder := NewDLMMDecoder()
	data := encodeDLMMPosition(t, testKey(0x22), testKey(0x11), 0, nil)
	putU32(data, dlmmPositionCountOff, DLMMMaxBinsPerPosition+1)

	if _, err := decoder.DecodePosition("posAddr", data); !errors.Is(err, model.ErrInvalidSize) {
		t.Fatalf("expected invalid size for oversized bin count, got %v", err)
	}
}

func TestDLMMPositionQuery(t *testing.T) {
	decoder := NewDLMMDecoder()
	owner := testKey(0x33)

	query, err := decoder.PositionQuery(owner)
	if err != nil {
		t.Fatalf("position query: %v", err)
	}
	if query.DataSize != dlmmPositionSize {
		t.Fatalf("data size: %d", query.DataSize)
	}
	if len(query.Memcmp) != 1 || query.Memcmp[0].Offset != dlmmPositionOwnerOff {
		t.Fatalf("memcmp: %+v", query.Memcmp)
	}

	if _, err := decoder.PositionQuery("not-base58-!!!"); !errors.Is(err, model.ErrInvalidAddress) {
		t.Fatalf("expected invalid address, got %v", err)
	}
}
