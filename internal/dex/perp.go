package dex

import (
	"fmt"

	"positionscope/internal/codec"
	"positionscope/internal/model"
)

// Perpetuals layout table. The "pool" account for this protocol is the
// custody: the per-token market config a position's size and collateral are
// denominated against.
const (
	perpProgramID = "PERPHjGBqRHArX4DySjwM6UJHiR3sWAatqfdBS2qQJu"

	perpCustodySize        = 128
	perpCustodyPoolOff     = 8
	perpCustodyMintOff     = 40
	perpCustodyDecimalsOff = 72
	perpCustodyStableOff   = 73
	perpCustodyRatioOff    = 80
	perpCustodyOwnedOff    = 88
	perpCustodyLockedOff   = 96
	perpCustodyInterestOff = 104
	perpCustodyUpdatedOff  = 120

	perpPositionSize        = 224
	perpPositionOwnerOff    = 8
	perpPositionPoolOff     = 40
	perpPositionCustodyOff  = 72
	perpPositionCollCusOff  = 104
	perpPositionSideOff     = 136
	perpPositionOpenOff     = 144
	perpPositionUpdateOff   = 152
	perpPositionPriceOff    = 160
	perpPositionSizeUsdOff  = 168
	perpPositionCollUsdOff  = 176
	perpPositionPnlOff      = 184
	perpPositionInterestOff = 192
	perpPositionLockedOff   = 208
	perpPositionLiqPriceOff = 216

	perpSideLong  = 1
	perpSideShort = 2
)

var (
	perpCustodyDiscriminator  = [8]byte{0x01, 0x9c, 0x85, 0x5f, 0x2e, 0x77, 0xc3, 0x6a}
	perpPositionDiscriminator = [8]byte{0xea, 0x52, 0x36, 0x1c, 0x81, 0x8e, 0x5d, 0xd7}
)

// PerpDecoder decodes the perpetual-futures program's accounts.
type PerpDecoder struct{}

func NewPerpDecoder() *PerpDecoder { return &PerpDecoder{} }

func (d *PerpDecoder) Protocol() model.Protocol { return model.ProtocolPerp }
func (d *PerpDecoder) ProgramID() string        { return perpProgramID }

func (d *PerpDecoder) PositionQuery(owner string) (model.AccountQuery, error) {
	return ownerQuery(owner, perpPositionSize, perpPositionOwnerOff)
}

// DecodePool decodes a custody account into the pool shape: token A carries
// the custody mint, Custody the market-config fields.
func (d *PerpDecoder) DecodePool(address string, data []byte) (*model.Pool, error) {
	if err := checkAccount(data, perpCustodySize, perpCustodyDiscriminator, "perp custody"); err != nil {
		return nil, err
	}

	r := codec.NewReader(data, perpCustodyPoolOff)
	perpPool := r.PublicKey()
	mint := r.PublicKey()
	decimals := r.U8()
	isStable := r.U8()
	r.Seek(perpCustodyRatioOff)
	targetRatio := r.U64()
	assetsOwned := r.U64String()
	assetsLocked := r.U64String()
	interestRate := r.U128String()
	lastUpdated := r.I64()
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("perp custody %s: %w", address, err)
	}

	return &model.Pool{
		Protocol:  model.ProtocolPerp,
		Address:   address,
		TokenA:    model.Token{Mint: mint, Decimals: decimals},
		Liquidity: assetsOwned,
		Custody: &model.CustodyDetails{
			PerpPool:               perpPool,
			IsStable:               isStable == 1,
			TargetRatioBps:         targetRatio,
			AssetsOwned:            assetsOwned,
			AssetsLocked:           assetsLocked,
			CumulativeInterestRate: interestRate,
			LastUpdated:            lastUpdated,
		},
	}, nil
}

func (d *PerpDecoder) DecodePosition(address string, data []byte) (*model.Position, error) {
	if err := checkAccount(data, perpPositionSize, perpPositionDiscriminator, "perp position"); err != nil {
		return nil, err
	}

	r := codec.NewReader(data, perpPositionOwnerOff)
	owner := r.PublicKey()
	r.Skip(codec.PublicKeyLen) // perp pool, reachable through the custody
	custody := r.PublicKey()
	collateralCustody := r.PublicKey()
	sideByte := r.U8()
	r.Seek(perpPositionOpenOff)
	openTime := r.I64()
	r.Skip(8) // update time
	entryPrice := r.U64String()
	sizeUsd := r.U64String()
	collateralUsd := r.U64String()
	pnl := r.I64String()
	interestSnapshot := r.U128String()
	lockedAmount := r.U64String()
	liquidationPrice := r.U64String()
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("perp position %s: %w", address, err)
	}

	var side model.PerpSide
	switch sideByte {
	case perpSideLong:
		side = model.PerpSideLong
	case perpSideShort:
		side = model.PerpSideShort
	default:
		return nil, fmt.Errorf("perp position %s: unknown side %d: %w",
			address, sideByte, model.ErrDiscriminatorMismatch)
	}

	return &model.Position{
		Protocol:  model.ProtocolPerp,
		Address:   address,
		Owner:     owner,
		Pool:      custody,
		Liquidity: "0",
		FeeOwedA:  "0",
		FeeOwedB:  "0",
		OpenedAt:  openTime,
		Perp: &model.PerpDetails{
			Side:              side,
			Custody:           custody,
			CollateralCustody: collateralCustody,
			EntryPriceUsd:     entryPrice,
			SizeUsd:           sizeUsd,
			CollateralUsd:     collateralUsd,
			UnrealizedPnlUsd:  pnl,
			LiquidationPrice:  liquidationPrice,
			LockedAmount:      lockedAmount,
			InterestSnapshot:  interestSnapshot,
		},
	}, nil
}
