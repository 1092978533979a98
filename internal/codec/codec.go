// Package codec decodes little-endian fixed-width fields from raw account
// data. All functions are pure and endian-exact; wide integers come back as
// arbitrary-precision decimal strings because raw token amounts exceed the
// float64 safe-integer range.
package codec

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"

	"positionscope/internal/model"
)

// PublicKeyLen is the width of an opaque 32-byte account identifier.
const PublicKeyLen = 32

func checkBounds(data []byte, offset int, width int, field string) error {
	if offset < 0 {
		return fmt.Errorf("%s: negative offset %d: %w", field, offset, model.ErrInvalidSize)
	}
	if len(data) < offset+width {
		return fmt.Errorf("%s: need %d bytes at offset %d, have %d: %w",
			field, width, offset, len(data), model.ErrInvalidSize)
	}
	return nil
}

// U8 decodes an unsigned byte.
func U8(data []byte, offset int) (uint8, error) {
	if err := checkBounds(data, offset, 1, "u8"); err != nil {
		return 0, err
	}
	return data[offset], nil
}

// U16 decodes a little-endian unsigned 16-bit integer.
func U16(data []byte, offset int) (uint16, error) {
	if err := checkBounds(data, offset, 2, "u16"); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(data[offset : offset+2]), nil
}

// U32 decodes a little-endian unsigned 32-bit integer.
func U32(data []byte, offset int) (uint32, error) {
	if err := checkBounds(data, offset, 4, "u32"); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(data[offset : offset+4]), nil
}

// I32 decodes a little-endian signed 32-bit integer.
func I32(data []byte, offset int) (int32, error) {
	value, err := U32(data, offset)
	if err != nil {
		return 0, err
	}
	return int32(value), nil
}

// U64 decodes a little-endian unsigned 64-bit integer.
func U64(data []byte, offset int) (uint64, error) {
	if err := checkBounds(data, offset, 8, "u64"); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(data[offset : offset+8]), nil
}

// I64 decodes a little-endian signed 64-bit integer.
func I64(data []byte, offset int) (int64, error) {
	value, err := U64(data, offset)
	if err != nil {
		return 0, err
	}
	return int64(value), nil
}

// U64String decodes a u64 as a decimal string.
func U64String(data []byte, offset int) (string, error) {
	value, err := U64(data, offset)
	if err != nil {
		return "", err
	}
	return new(big.Int).SetUint64(value).String(), nil
}

// I64String decodes an i64 as a decimal string.
func I64String(data []byte, offset int) (string, error) {
	value, err := I64(data, offset)
	if err != nil {
		return "", err
	}
	return big.NewInt(value).String(), nil
}

// U128 decodes a little-endian unsigned 128-bit integer stored as two 64-bit
// halves (low first) and returns high*2^64 + low.
func U128(data []byte, offset int) (*big.Int, error) {
	if err := checkBounds(data, offset, 16, "u128"); err != nil {
		return nil, err
	}
	lo := binary.LittleEndian.Uint64(data[offset : offset+8])
	hi := binary.LittleEndian.Uint64(data[offset+8 : offset+16])

	value := new(big.Int).SetUint64(hi)
	value.Lsh(value, 64)
	value.Add(value, new(big.Int).SetUint64(lo))
	return value, nil
}

// U128String decodes a u128 as a decimal string.
func U128String(data []byte, offset int) (string, error) {
	value, err := U128(data, offset)
	if err != nil {
		return "", err
	}
	return value.String(), nil
}

// PublicKey reads 32 opaque bytes as a base58 address. The bytes are not
// interpreted further.
func PublicKey(data []byte, offset int) (string, error) {
	if err := checkBounds(data, offset, PublicKeyLen, "pubkey"); err != nil {
		return "", err
	}
	return solana.PublicKeyFromBytes(data[offset : offset+PublicKeyLen]).String(), nil
}
