package dex

import (
	"fmt"

	"positionscope/internal/codec"
	"positionscope/internal/model"
)

// DLMM layout table. The pair account is fixed size; the position account
// carries a count-prefixed bin list inside a fixed-size slot array.
const (
	dlmmProgramID = "LBUZKhRxPF3XUpBCjp4YzTKgLccjZhTSDM9YuVaPwxo"

	dlmmPairSize           = 312
	dlmmPairBinStepOff     = 8
	dlmmPairBaseFactorOff  = 10
	dlmmPairActiveIDOff    = 12
	dlmmPairTokenXMintOff  = 16
	dlmmPairTokenYMintOff  = 48
	dlmmPairReserveXOff    = 80
	dlmmPairReserveYOff    = 112
	dlmmPairFeePPMOff      = 144
	dlmmPairDecimalsXOff   = 148
	dlmmPairDecimalsYOff   = 149
	dlmmPairStatusOff      = 150
	dlmmPairRewardMint0Off = 152
	dlmmPairRewardVaultOff = 184
	dlmmPairRewardMint1Off = 216
	dlmmPairRewardVlt1Off  = 248
	dlmmPairRewardRate0Off = 280
	dlmmPairRewardRate1Off = 288
	dlmmPairLiquidityOff   = 296

	dlmmPositionSize     = 3724
	dlmmPositionPairOff  = 8
	dlmmPositionOwnerOff = 40
	dlmmPositionOpenOff  = 72
	dlmmPositionCountOff = 80
	dlmmPositionBinsOff  = 84

	// DLMMMaxBinsPerPosition caps the bin slot array.
	DLMMMaxBinsPerPosition = 70
	dlmmBinStride          = 52
)

var (
	dlmmPairDiscriminator     = [8]byte{0x21, 0x4f, 0x93, 0x1d, 0x6e, 0x2a, 0x40, 0xb2}
	dlmmPositionDiscriminator = [8]byte{0xaa, 0x07, 0x5c, 0xe6, 0x31, 0x9b, 0x12, 0x4d}
)

// DLMMDecoder decodes the bin-based liquidity market maker's accounts.
type DLMMDecoder struct{}

func NewDLMMDecoder() *DLMMDecoder { return &DLMMDecoder{} }

func (d *DLMMDecoder) Protocol() model.Protocol { return model.ProtocolDLMM }
func (d *DLMMDecoder) ProgramID() string        { return dlmmProgramID }

func (d *DLMMDecoder) PositionQuery(owner string) (model.AccountQuery, error) {
	return ownerQuery(owner, dlmmPositionSize, dlmmPositionOwnerOff)
}

// DecodePool decodes an lb-pair account.
func (d *DLMMDecoder) DecodePool(address string, data []byte) (*model.Pool, error) {
	if err := checkAccount(data, dlmmPairSize, dlmmPairDiscriminator, "dlmm pair"); err != nil {
		return nil, err
	}

	r := codec.NewReader(data, dlmmPairBinStepOff)
	binStep := r.U16()
	baseFactor := r.U16()
	activeID := r.I32()
	tokenXMint := r.PublicKey()
	tokenYMint := r.PublicKey()
	reserveX := r.PublicKey()
	reserveY := r.PublicKey()
	feePPM := r.U32()
	decimalsX := r.U8()
	decimalsY := r.U8()
	status := r.U8()

	r.Seek(dlmmPairRewardMint0Off)
	rewardMint0 := r.PublicKey()
	rewardVault0 := r.PublicKey()
	rewardMint1 := r.PublicKey()
	rewardVault1 := r.PublicKey()
	rewardRate0 := r.U64String()
	rewardRate1 := r.U64String()
	liquidity := r.U128String()
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("dlmm pair %s: %w", address, err)
	}

	pool := &model.Pool{
		Protocol:    model.ProtocolDLMM,
		Address:     address,
		TokenA:      model.Token{Mint: tokenXMint, Vault: reserveX, Decimals: decimalsX},
		TokenB:      model.Token{Mint: tokenYMint, Vault: reserveY, Decimals: decimalsY},
		Liquidity:   liquidity,
		FeePPM:      feePPM,
		BinStep:     binStep,
		BaseFactor:  baseFactor,
		ActiveBinID: activeID,
		Status:      status,
	}
	if rewardSlotUsed(rewardMint0) {
		pool.Rewards = append(pool.Rewards, model.RewardSlot{
			Mint: rewardMint0, Vault: rewardVault0, EmissionsPerSecond: rewardRate0,
		})
	}
	if rewardSlotUsed(rewardMint1) {
		pool.Rewards = append(pool.Rewards, model.RewardSlot{
			Mint: rewardMint1, Vault: rewardVault1, EmissionsPerSecond: rewardRate1,
		})
	}
	return pool, nil
}

// DecodePosition decodes a bin position account. Only the first binCount
// slots of the fixed array are live; the rest are ignored.
func (d *DLMMDecoder) DecodePosition(address string, data []byte) (*model.Position, error) {
	if err := checkAccount(data, dlmmPositionSize, dlmmPositionDiscriminator, "dlmm position"); err != nil {
		return nil, err
	}

	r := codec.NewReader(data, dlmmPositionPairOff)
	pair := r.PublicKey()
	owner := r.PublicKey()
	openedAt := r.I64()
	binCount := r.U32()
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("dlmm position %s: %w", address, err)
	}
	if binCount > DLMMMaxBinsPerPosition {
		return nil, fmt.Errorf("dlmm position %s: bin count %d exceeds %d: %w",
			address, binCount, DLMMMaxBinsPerPosition, model.ErrInvalidSize)
	}

	bins := make([]model.BinEntry, 0, binCount)
	for i := 0; i < int(binCount); i++ {
		r.Seek(dlmmPositionBinsOff + i*dlmmBinStride)
		entry := model.BinEntry{
			BinID:     r.I32(),
			AmountX:   r.U64String(),
			AmountY:   r.U64String(),
			Liquidity: r.U128String(),
			FeeX:      r.U64String(),
			FeeY:      r.U64String(),
		}
		if err := r.Err(); err != nil {
			return nil, fmt.Errorf("dlmm position %s bin %d: %w", address, i, err)
		}
		bins = append(bins, entry)
	}

	position := &model.Position{
		Protocol:  model.ProtocolDLMM,
		Address:   address,
		Owner:     owner,
		Pool:      pair,
		Liquidity: sumBinLiquidity(bins),
		Bins:      bins,
		FeeOwedA:  sumBinAmounts(bins, func(b model.BinEntry) string { return b.FeeX }),
		FeeOwedB:  sumBinAmounts(bins, func(b model.BinEntry) string { return b.FeeY }),
		OpenedAt:  openedAt,
	}
	return position, nil
}
