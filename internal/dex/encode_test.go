package dex

import (
	"bytes"
	"encoding/binary"
	"math/big"
	"testing"

	"github.com/gagliardetto/solana-go"
)

// Test fixture builders. Each writes the protocol's layout at the same named
// offsets the decoders read, so a layout table change breaks the tests
// loudly.

func putU16(buf []byte, off int, v uint16) { binary.LittleEndian.PutUint16(buf[off:], v) }
func putU32(buf []byte, off int, v uint32) { binary.LittleEndian.PutUint32(buf[off:], v) }
func putI32(buf []byte, off int, v int32)  { binary.LittleEndian.PutUint32(buf[off:], uint32(v)) }
func putU64(buf []byte, off int, v uint64) { binary.LittleEndian.PutUint64(buf[off:], v) }
func putI64(buf []byte, off int, v int64)  { binary.LittleEndian.PutUint64(buf[off:], uint64(v)) }

func putU128(t *testing.T, buf []byte, off int, v string) {
	t.Helper()
	value, ok := new(big.Int).SetString(v, 10)
	if !ok {
		t.Fatalf("bad u128 fixture: %s", v)
	}
	mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 64), big.NewInt(1))
	putU64(buf, off, new(big.Int).And(value, mask).Uint64())
	putU64(buf, off+8, new(big.Int).Rsh(value, 64).Uint64())
}

func putKey(t *testing.T, buf []byte, off int, key string) {
	t.Helper()
	pk, err := solana.PublicKeyFromBase58(key)
	if err != nil {
		t.Fatalf("bad key fixture %s: %v", key, err)
	}
	copy(buf[off:off+32], pk.Bytes())
}

// testKey derives a deterministic base58 key from a filler byte.
func testKey(seed byte) string {
	return solana.PublicKeyFromBytes(bytes.Repeat([]byte{seed}, 32)).String()
}

type dlmmPairFixture struct {
	binStep    uint16
	baseFactor uint16
	activeID   int32
	feePPM     uint32
	decimalsX  uint8
	decimalsY  uint8
	rewardMint string
	rewardRate uint64
	liquidity  string
}

func encodeDLMMPair(t *testing.T, fx dlmmPairFixture) []byte {
	t.Helper()
	buf := make([]byte, dlmmPairSize)
	copy(buf, dlmmPairDiscriminator[:])
	putU16(buf, dlmmPairBinStepOff, fx.binStep)
	putU16(buf, dlmmPairBaseFactorOff, fx.baseFactor)
	putI32(buf, dlmmPairActiveIDOff, fx.activeID)
	putKey(t, buf, dlmmPairTokenXMintOff, testKey(0xA1))
	putKey(t, buf, dlmmPairTokenYMintOff, testKey(0xA2))
	putKey(t, buf, dlmmPairReserveXOff, testKey(0xA3))
	putKey(t, buf, dlmmPairReserveYOff, testKey(0xA4))
	putU32(buf, dlmmPairFeePPMOff, fx.feePPM)
	buf[dlmmPairDecimalsXOff] = fx.decimalsX
	buf[dlmmPairDecimalsYOff] = fx.decimalsY
	buf[dlmmPairStatusOff] = 1
	if fx.rewardMint != "" {
		putKey(t, buf, dlmmPairRewardMint0Off, fx.rewardMint)
		putKey(t, buf, dlmmPairRewardVaultOff, testKey(0xA5))
		putU64(buf, dlmmPairRewardRate0Off, fx.rewardRate)
	}
	if fx.liquidity == "" {
		fx.liquidity = "0"
	}
	putU128(t, buf, dlmmPairLiquidityOff, fx.liquidity)
	return buf
}

type dlmmBinFixture struct {
	binID     int32
	amountX   uint64
	amountY   uint64
	liquidity string
	feeX      uint64
	feeY      uint64
}

func encodeDLMMPosition(t *testing.T, pair, owner string, openedAt int64, bins []dlmmBinFixture) []byte {
	t.Helper()
	buf := make([]byte, dlmmPositionSize)
	copy(buf, dlmmPositionDiscriminator[:])
	putKey(t, buf, dlmmPositionPairOff, pair)
	putKey(t, buf, dlmmPositionOwnerOff, owner)
	putI64(buf, dlmmPositionOpenOff, openedAt)
	putU32(buf, dlmmPositionCountOff, uint32(len(bins)))
	for i, bin := range bins {
		off := dlmmPositionBinsOff + i*dlmmBinStride
		putI32(buf, off, bin.binID)
		putU64(buf, off+4, bin.amountX)
		putU64(buf, off+12, bin.amountY)
		liq := bin.liquidity
		if liq == "" {
			liq = "0"
		}
		putU128(t, buf, off+20, liq)
		putU64(buf, off+36, bin.feeX)
		putU64(buf, off+44, bin.feeY)
	}
	return buf
}

type whirlpoolFixture struct {
	tickSpacing uint16
	feeRate     uint16
	decimalsA   uint8
	decimalsB   uint8
	liquidity   string
	sqrtPrice   string
	tickCurrent int32
	rewardMint  string
	emissions   string
}

func encodeWhirlpool(t *testing.T, fx whirlpoolFixture) []byte {
	t.Helper()
	buf := make([]byte, whirlpoolSize)
	copy(buf, whirlpoolDiscriminator[:])
	putKey(t, buf, whirlpoolConfigOff, testKey(0xB0))
	putU16(buf, whirlpoolTickSpacingOff, fx.tickSpacing)
	putU16(buf, whirlpoolFeeRateOff, fx.feeRate)
	buf[whirlpoolDecimalsAOff] = fx.decimalsA
	buf[whirlpoolDecimalsBOff] = fx.decimalsB
	if fx.liquidity == "" {
		fx.liquidity = "0"
	}
	if fx.sqrtPrice == "" {
		fx.sqrtPrice = SqrtPriceX64FromTick(fx.tickCurrent)
	}
	putU128(t, buf, whirlpoolLiquidityOff, fx.liquidity)
	putU128(t, buf, whirlpoolSqrtPriceOff, fx.sqrtPrice)
	putI32(buf, whirlpoolTickCurrentOff, fx.tickCurrent)
	putKey(t, buf, whirlpoolTokenMintAOff, testKey(0xB1))
	putKey(t, buf, whirlpoolTokenVaultAOff, testKey(0xB2))
	putKey(t, buf, whirlpoolTokenMintBOff, testKey(0xB3))
	putKey(t, buf, whirlpoolTokenVaultBOff, testKey(0xB4))
	if fx.rewardMint != "" {
		putKey(t, buf, whirlpoolRewardsOff, fx.rewardMint)
		putKey(t, buf, whirlpoolRewardsOff+32, testKey(0xB5))
		emissions := fx.emissions
		if emissions == "" {
			emissions = "0"
		}
		putU128(t, buf, whirlpoolRewardsOff+64, emissions)
	}
	return buf
}

type whirlpoolPositionFixture struct {
	pool      string
	owner     string
	liquidity string
	tickLower int32
	tickUpper int32
	feeOwedA  uint64
	feeOwedB  uint64
	rewards   []uint64
}

func encodeWhirlpoolPosition(t *testing.T, fx whirlpoolPositionFixture) []byte {
	t.Helper()
	buf := make([]byte, whirlpoolPositionSize)
	copy(buf, whirlpoolPositionDiscriminator[:])
	putKey(t, buf, whirlpoolPositionPoolOff, fx.pool)
	putKey(t, buf, whirlpoolPositionOwnerOff, fx.owner)
	putKey(t, buf, whirlpoolPositionMintOff, testKey(0xB6))
	if fx.liquidity == "" {
		fx.liquidity = "0"
	}
	putU128(t, buf, whirlpoolPositionLiqOff, fx.liquidity)
	putI32(buf, whirlpoolPositionLowerOff, fx.tickLower)
	putI32(buf, whirlpoolPositionUpperOff, fx.tickUpper)
	putU64(buf, whirlpoolPositionFeeAOff+16, fx.feeOwedA)
	putU64(buf, whirlpoolPositionFeeAOff+40, fx.feeOwedB)
	for slot, amount := range fx.rewards {
		putU64(buf, whirlpoolPositionRewardsOff+slot*whirlpoolPositionRewardLen+16, amount)
	}
	return buf
}

type clmmPoolFixture struct {
	decimals0   uint8
	decimals1   uint8
	tickSpacing uint16
	liquidity   string
	sqrtPrice   string
	tickCurrent int32
	feeRate     uint32
}

func encodeCLMMPool(t *testing.T, fx clmmPoolFixture) []byte {
	t.Helper()
	buf := make([]byte, clmmPoolSize)
	copy(buf, clmmPoolDiscriminator[:])
	putKey(t, buf, clmmPoolConfigOff, testKey(0xC0))
	putKey(t, buf, clmmPoolMint0Off, testKey(0xC1))
	putKey(t, buf, clmmPoolMint1Off, testKey(0xC2))
	putKey(t, buf, clmmPoolVault0Off, testKey(0xC3))
	putKey(t, buf, clmmPoolVault1Off, testKey(0xC4))
	buf[clmmPoolDecimals0Off] = fx.decimals0
	buf[clmmPoolDecimals1Off] = fx.decimals1
	putU16(buf, clmmPoolTickSpaceOff, fx.tickSpacing)
	if fx.liquidity == "" {
		fx.liquidity = "0"
	}
	if fx.sqrtPrice == "" {
		fx.sqrtPrice = SqrtPriceX64FromTick(fx.tickCurrent)
	}
	putU128(t, buf, clmmPoolLiquidityOff, fx.liquidity)
	putU128(t, buf, clmmPoolSqrtPriceOff, fx.sqrtPrice)
	putI32(buf, clmmPoolTickOff, fx.tickCurrent)
	putU32(buf, clmmPoolFeeRateOff, fx.feeRate)
	return buf
}

type clmmPositionFixture struct {
	pool      string
	owner     string
	tickLower int32
	tickUpper int32
	liquidity string
	feeOwed0  uint64
	feeOwed1  uint64
}

func encodeCLMMPosition(t *testing.T, fx clmmPositionFixture) []byte {
	t.Helper()
	buf := make([]byte, clmmPositionSize)
	copy(buf, clmmPositionDiscriminator[:])
	putKey(t, buf, clmmPositionPoolOff, fx.pool)
	putKey(t, buf, clmmPositionOwnerOff, fx.owner)
	putKey(t, buf, clmmPositionNFTOff, testKey(0xC5))
	putI32(buf, clmmPositionLowerOff, fx.tickLower)
	putI32(buf, clmmPositionUpperOff, fx.tickUpper)
	if fx.liquidity == "" {
		fx.liquidity = "0"
	}
	putU128(t, buf, clmmPositionLiqOff, fx.liquidity)
	putU64(buf, clmmPositionFee0Off, fx.feeOwed0)
	putU64(buf, clmmPositionFee1Off, fx.feeOwed1)
	return buf
}

type perpCustodyFixture struct {
	mint         string
	decimals     uint8
	isStable     bool
	assetsOwned  uint64
	assetsLocked uint64
}

func encodePerpCustody(t *testing.T, fx perpCustodyFixture) []byte {
	t.Helper()
	buf := make([]byte, perpCustodySize)
	copy(buf, perpCustodyDiscriminator[:])
	putKey(t, buf, perpCustodyPoolOff, testKey(0xD0))
	mint := fx.mint
	if mint == "" {
		mint = testKey(0xD1)
	}
	putKey(t, buf, perpCustodyMintOff, mint)
	buf[perpCustodyDecimalsOff] = fx.decimals
	if fx.isStable {
		buf[perpCustodyStableOff] = 1
	}
	putU64(buf, perpCustodyRatioOff, 5000)
	putU64(buf, perpCustodyOwnedOff, fx.assetsOwned)
	putU64(buf, perpCustodyLockedOff, fx.assetsLocked)
	putU128(t, buf, perpCustodyInterestOff, "0")
	putI64(buf, perpCustodyUpdatedOff, 1700000000)
	return buf
}

type perpPositionFixture struct {
	owner         string
	custody       string
	side          uint8
	openTime      int64
	entryPrice    uint64
	sizeUsd       uint64
	collateralUsd uint64
	pnl           int64
	liqPrice      uint64
}

func encodePerpPosition(t *testing.T, fx perpPositionFixture) []byte {
	t.Helper()
	buf := make([]byte, perpPositionSize)
	copy(buf, perpPositionDiscriminator[:])
	putKey(t, buf, perpPositionOwnerOff, fx.owner)
	putKey(t, buf, perpPositionPoolOff, testKey(0xD2))
	custody := fx.custody
	if custody == "" {
		custody = testKey(0xD3)
	}
	putKey(t, buf, perpPositionCustodyOff, custody)
	putKey(t, buf, perpPositionCollCusOff, custody)
	buf[perpPositionSideOff] = fx.side
	putI64(buf, perpPositionOpenOff, fx.openTime)
	putI64(buf, perpPositionUpdateOff, fx.openTime)
	putU64(buf, perpPositionPriceOff, fx.entryPrice)
	putU64(buf, perpPositionSizeUsdOff, fx.sizeUsd)
	putU64(buf, perpPositionCollUsdOff, fx.collateralUsd)
	putI64(buf, perpPositionPnlOff, fx.pnl)
	putU128(t, buf, perpPositionInterestOff, "0")
	putU64(buf, perpPositionLockedOff, 0)
	putU64(buf, perpPositionLiqPriceOff, fx.liqPrice)
	return buf
}
