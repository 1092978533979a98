package dex

import (
	"fmt"

	"positionscope/internal/codec"
	"positionscope/internal/model"
)

// CLMM layout table.
const (
	clmmProgramID = "CAMMCzo5YL8w4VFF8KVHrK22GGUsp5VTaW7grrKgrWqK"

	clmmPoolSize          = 388
	clmmPoolConfigOff     = 8
	clmmPoolMint0Off      = 40
	clmmPoolMint1Off      = 72
	clmmPoolVault0Off     = 104
	clmmPoolVault1Off     = 136
	clmmPoolDecimals0Off  = 168
	clmmPoolDecimals1Off  = 169
	clmmPoolTickSpaceOff  = 170
	clmmPoolLiquidityOff  = 172
	clmmPoolSqrtPriceOff  = 188
	clmmPoolTickOff       = 204
	clmmPoolFeeRateOff    = 208
	clmmPoolTotalFee0Off  = 212
	clmmPoolTotalFee1Off  = 220
	clmmPoolRewardsOff    = 228
	clmmPoolRewardSlots   = 2
	clmmPoolRewardStride  = 80

	clmmPositionSize       = 224
	clmmPositionPoolOff    = 8
	clmmPositionOwnerOff   = 40
	clmmPositionNFTOff     = 72
	clmmPositionLowerOff   = 104
	clmmPositionUpperOff   = 108
	clmmPositionLiqOff     = 112
	clmmPositionFee0Off    = 160
	clmmPositionFee1Off    = 168
	clmmPositionRewardsOff = 176
	clmmPositionRewardLen  = 24
)

var (
	clmmPoolDiscriminator     = [8]byte{0xf7, 0xed, 0xe3, 0xf5, 0xd7, 0xc3, 0xde, 0x46}
	clmmPositionDiscriminator = [8]byte{0x64, 0x8b, 0x2e, 0x99, 0x07, 0x5c, 0xaf, 0x13}
)

// CLMMDecoder decodes the second tick-based CLMM's accounts.
type CLMMDecoder struct{}

func NewCLMMDecoder() *CLMMDecoder { return &CLMMDecoder{} }

func (d *CLMMDecoder) Protocol() model.Protocol { return model.ProtocolCLMM }
func (d *CLMMDecoder) ProgramID() string        { return clmmProgramID }

func (d *CLMMDecoder) PositionQuery(owner string) (model.AccountQuery, error) {
	return ownerQuery(owner, clmmPositionSize, clmmPositionOwnerOff)
}

func (d *CLMMDecoder) DecodePool(address string, data []byte) (*model.Pool, error) {
	if err := checkAccount(data, clmmPoolSize, clmmPoolDiscriminator, "clmm pool"); err != nil {
		return nil, err
	}

	r := codec.NewReader(data, clmmPoolConfigOff)
	r.Skip(codec.PublicKeyLen) // amm config reference
	mint0 := r.PublicKey()
	mint1 := r.PublicKey()
	vault0 := r.PublicKey()
	vault1 := r.PublicKey()
	decimals0 := r.U8()
	decimals1 := r.U8()
	tickSpacing := r.U16()
	liquidity := r.U128String()
	sqrtPrice := r.U128String()
	tickCurrent := r.I32()
	feeRate := r.U32() // parts per million

	pool := &model.Pool{
		Protocol:     model.ProtocolCLMM,
		Address:      address,
		TokenA:       model.Token{Mint: mint0, Vault: vault0, Decimals: decimals0},
		TokenB:       model.Token{Mint: mint1, Vault: vault1, Decimals: decimals1},
		Liquidity:    liquidity,
		FeePPM:       feeRate,
		TickSpacing:  tickSpacing,
		TickCurrent:  tickCurrent,
		SqrtPriceX64: sqrtPrice,
	}

	for slot := 0; slot < clmmPoolRewardSlots; slot++ {
		r.Seek(clmmPoolRewardsOff + slot*clmmPoolRewardStride)
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
		return nil, fmt.Errorf("clmm pool %s: %w", address, err)
	}
	return pool, nil
}

func (d *CLMMDecoder) DecodePosition(address string, data []byte) (*model.Position, error) {
	if err := checkAccount(data, clmmPositionSize, clmmPositionDiscriminator, "clmm position"); err != nil {
		return nil, err
	}

	r := codec.NewReader(data, clmmPositionPoolOff)
	pool := r.PublicKey()
	owner := r.PublicKey()
	r.Skip(codec.PublicKeyLen) // position nft mint
	tickLower := r.I32()
	tickUpper := r.I32()
	liquidity := r.U128String()
	r.Skip(32) // fee growth snapshots
	feeOwed0 := r.U64String()
	feeOwed1 := r.U64String()

	position := &model.Position{
		Protocol:  model.ProtocolCLMM,
		Address:   address,
		Owner:     owner,
		Pool:      pool,
		Liquidity: liquidity,
		HasRange:  true,
		TickLower: tickLower,
		TickUpper: tickUpper,
		FeeOwedA:  feeOwed0,
		FeeOwedB:  feeOwed1,
	}

	for slot := 0; slot < clmmPoolRewardSlots; slot++ {
		r.Seek(clmmPositionRewardsOff + slot*clmmPositionRewardLen)
		r.Skip(16) // growth inside snapshot
		amount := r.U64String()
		if amount != "" && amount != "0" {
			position.Rewards = append(position.Rewards, model.RewardAccrual{Slot: slot, Amount: amount})
		}
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("clmm position %s: %w", address, err)
	}
	return position, nil
}
