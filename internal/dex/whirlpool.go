package dex

import (
	"fmt"

	"positionscope/internal/codec"
	"positionscope/internal/model"
)

// Whirlpool layout table.
const (
	whirlpoolProgramID = "whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc"

	whirlpoolSize            = 488
	whirlpoolConfigOff       = 8
	whirlpoolTickSpacingOff  = 40
	whirlpoolFeeRateOff      = 42
	whirlpoolProtoFeeOff     = 44
	whirlpoolDecimalsAOff    = 46
	whirlpoolDecimalsBOff    = 47
	whirlpoolLiquidityOff    = 48
	whirlpoolSqrtPriceOff    = 64
	whirlpoolTickCurrentOff  = 80
	whirlpoolTokenMintAOff   = 88
	whirlpoolTokenVaultAOff  = 120
	whirlpoolFeeGrowthAOff   = 152
	whirlpoolTokenMintBOff   = 168
	whirlpoolTokenVaultBOff  = 200
	whirlpoolFeeGrowthBOff   = 232
	whirlpoolRewardsOff      = 248
	whirlpoolRewardSlots     = 3
	whirlpoolRewardStride    = 80 // mint + vault + emissionsPerSecondX64
	whirlpoolRewardEmissions = 64

	whirlpoolPositionSize       = 248
	whirlpoolPositionPoolOff    = 8
	whirlpoolPositionOwnerOff   = 40
	whirlpoolPositionMintOff    = 72
	whirlpoolPositionLiqOff     = 104
	whirlpoolPositionLowerOff   = 120
	whirlpoolPositionUpperOff   = 124
	whirlpoolPositionFeeAOff    = 128
	whirlpoolPositionRewardsOff = 176
	whirlpoolPositionRewardLen  = 24 // growth checkpoint + amount owed
)

var (
	whirlpoolDiscriminator         = [8]byte{0x3f, 0x95, 0xd1, 0x0c, 0xe1, 0x80, 0x63, 0x09}
	whirlpoolPositionDiscriminator = [8]byte{0xaa, 0xbc, 0x8f, 0xe4, 0x7a, 0x40, 0xf7, 0xd0}
)

// WhirlpoolDecoder decodes the first tick-based CLMM's accounts.
type WhirlpoolDecoder struct{}

func NewWhirlpoolDecoder() *WhirlpoolDecoder { return &WhirlpoolDecoder{} }

func (d *WhirlpoolDecoder) Protocol() model.Protocol { return model.ProtocolWhirlpool }
func (d *WhirlpoolDecoder) ProgramID() string        { return whirlpoolProgramID }

func (d *WhirlpoolDecoder) PositionQuery(owner string) (model.AccountQuery, error) {
	return ownerQuery(owner, whirlpoolPositionSize, whirlpoolPositionOwnerOff)
}

func (d *WhirlpoolDecoder) DecodePool(address string, data []byte) (*model.Pool, error) {
	if err := checkAccount(data, whirlpoolSize, whirlpoolDiscriminator, "whirlpool"); err != nil {
		return nil, err
	}

	r := codec.NewReader(data, whirlpoolConfigOff)
	r.Skip(codec.PublicKeyLen) // config reference, not needed downstream
	tickSpacing := r.U16()
	feeRate := r.U16() // hundredths of a basis point == parts per million
	r.Skip(2)          // protocol fee rate
	decimalsA := r.U8()
	decimalsB := r.U8()
	liquidity := r.U128String()
	sqrtPrice := r.U128String()
	tickCurrent := r.I32()

	r.Seek(whirlpoolTokenMintAOff)
	mintA := r.PublicKey()
	vaultA := r.PublicKey()
	r.Seek(whirlpoolTokenMintBOff)
	mintB := r.PublicKey()
	vaultB := r.PublicKey()

	pool := &model.Pool{
		Protocol:     model.ProtocolWhirlpool,
		Address:      address,
		TokenA:       model.Token{Mint: mintA, Vault: vaultA, Decimals: decimalsA},
		TokenB:       model.Token{Mint: mintB, Vault: vaultB, Decimals: decimalsB},
		Liquidity:    liquidity,
		FeePPM:       uint32(feeRate),
		TickSpacing:  tickSpacing,
		TickCurrent:  tickCurrent,
		SqrtPriceX64: sqrtPrice,
	}

	for slot := 0; slot < whirlpoolRewardSlots; slot++ {
		r.Seek(whirlpoolRewardsOff + slot*whirlpoolRewardStride)
		mint := r.PublicKey()
		vault := r.PublicKey()
		emissions := r.U128String()
		if rewardSlotUsed(mint) {
			pool.Rewards = append(pool.Rewards, model.RewardSlot{
				Mint: mint, Vault: vault, EmissionsPerSecond: emissions,
			})
		}
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("whirlpool %s: %w", address, err)
	}
	return pool, nil
}

func (d *WhirlpoolDecoder) DecodePosition(address string, data []byte) (*model.Position, error) {
	if err := checkAccount(data, whirlpoolPositionSize, whirlpoolPositionDiscriminator, "whirlpool position"); err != nil {
		return nil, err
	}

	r := codec.NewReader(data, whirlpoolPositionPoolOff)
	pool := r.PublicKey()
	owner := r.PublicKey()
	r.Skip(codec.PublicKeyLen) // position mint
	liquidity := r.U128String()
	tickLower := r.I32()
	tickUpper := r.I32()
	r.Skip(16) // fee growth checkpoint A
	feeOwedA := r.U64String()
	r.Skip(16) // fee growth checkpoint B
	feeOwedB := r.U64String()

	position := &model.Position{
		Protocol:  model.ProtocolWhirlpool,
		Address:   address,
		Owner:     owner,
		Pool:      pool,
		Liquidity: liquidity,
		HasRange:  true,
		TickLower: tickLower,
		TickUpper: tickUpper,
		FeeOwedA:  feeOwedA,
		FeeOwedB:  feeOwedB,
	}

	for slot := 0; slot < whirlpoolRewardSlots; slot++ {
		r.Seek(whirlpoolPositionRewardsOff + slot*whirlpoolPositionRewardLen)
		r.Skip(16) // growth checkpoint
		amount := r.U64String()
		if amount != "" && amount != "0" {
			position.Rewards = append(position.Rewards, model.RewardAccrual{Slot: slot, Amount: amount})
		}
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("whirlpool position %s: %w", address, err)
	}
	return position, nil
}
