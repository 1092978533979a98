// Package dex decodes raw on-chain account data for the supported exchange
// programs into typed pool and position records, and carries the tick/bin
// price math shared across them.
//
// Layout constants (discriminators, sizes, offsets) are versioned data: a
// program upgrade that changes an account layout means a new constant table
// for that protocol, not a structural change to the decoders.
package dex

import (
	"bytes"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"positionscope/internal/model"
)

const discriminatorLen = 8

// Decoder decodes one protocol's accounts. Decoders are pure: the same bytes
// always produce the same record or the same error, and the account address
// is supplied by the caller, never read from the data.
type Decoder interface {
	Protocol() model.Protocol
	ProgramID() string

	// PositionQuery builds the program-account query that finds every
	// position account owned by the wallet.
	PositionQuery(owner string) (model.AccountQuery, error)

	DecodePosition(address string, data []byte) (*model.Position, error)

	// DecodePool decodes the pool-state account a position references. For
	// the perpetual protocol this is the custody (market config) account.
	DecodePool(address string, data []byte) (*model.Pool, error)
}

// Registry holds the enabled decoders keyed by protocol.
type Registry struct {
	decoders map[model.Protocol]Decoder
}

// NewRegistry builds a registry with every supported protocol enabled.
func NewRegistry() *Registry {
	r := &Registry{decoders: make(map[model.Protocol]Decoder)}
	for _, d := range []Decoder{
		NewDLMMDecoder(),
		NewWhirlpoolDecoder(),
		NewCLMMDecoder(),
		NewPerpDecoder(),
	} {
		r.decoders[d.Protocol()] = d
	}
	return r
}

// Get returns the decoder for a protocol.
func (r *Registry) Get(protocol model.Protocol) (Decoder, bool) {
	d, ok := r.decoders[protocol]
	return d, ok
}

// All returns the decoders for the requested protocols, or every decoder
// when the list is empty.
func (r *Registry) All(protocols []model.Protocol) []Decoder {
	if len(protocols) == 0 {
		protocols = model.AllProtocols()
	}
	out := make([]Decoder, 0, len(protocols))
	for _, p := range protocols {
		if d, ok := r.decoders[p]; ok {
			out = append(out, d)
		}
	}
	return out
}

// DecodeAccount decodes a single account of a known (protocol, kind) pair.
func (r *Registry) DecodeAccount(protocol model.Protocol, kind model.AccountKind, address string, data []byte) (interface{}, error) {
	d, ok := r.Get(protocol)
	if !ok {
		return nil, fmt.Errorf("unknown protocol: %s", protocol)
	}
	switch kind {
	case model.KindPosition:
		return d.DecodePosition(address, data)
	case model.KindPool, model.KindCustody:
		return d.DecodePool(address, data)
	default:
		return nil, fmt.Errorf("unknown account kind: %s", kind)
	}
}

// checkAccount verifies the minimum structure size and the 8-byte
// discriminator before any field is interpreted.
func checkAccount(data []byte, size int, discriminator [8]byte, kind string) error {
	if len(data) < size {
		return fmt.Errorf("%s: have %d bytes, want %d: %w", kind, len(data), size, model.ErrInvalidSize)
	}
	if !bytes.Equal(data[:discriminatorLen], discriminator[:]) {
		return fmt.Errorf("%s: %w", kind, model.ErrDiscriminatorMismatch)
	}
	return nil
}

// ownerQuery builds the standard position query: exact account size plus a
// memcmp on the owner field.
func ownerQuery(owner string, dataSize uint64, ownerOffset uint64) (model.AccountQuery, error) {
	key, err := solana.PublicKeyFromBase58(owner)
	if err != nil {
		return model.AccountQuery{}, fmt.Errorf("owner %q: %w", owner, model.ErrInvalidAddress)
	}
	return model.AccountQuery{
		DataSize: dataSize,
		Memcmp:   []model.MemcmpFilter{{Offset: ownerOffset, Bytes: key.Bytes()}},
	}, nil
}

// systemMint is the all-zero key marking an unused reward slot.
const systemMint = "11111111111111111111111111111111"

func rewardSlotUsed(mint string) bool {
	return mint != "" && mint != systemMint
}
