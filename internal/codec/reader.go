package codec

import "math/big"

// Reader walks account data at increasing offsets, latching the first error
// so a decoder can read a whole layout and check failure once at the end.
type Reader struct {
	data   []byte
	offset int
	err    error
}

// NewReader starts a reader at the given offset.
func NewReader(data []byte, offset int) *Reader {
	return &Reader{data: data, offset: offset}
}

// Err returns the first decode error encountered, if any.
func (r *Reader) Err() error { return r.err }

// Offset returns the current read offset.
func (r *Reader) Offset() int { return r.offset }

// Skip advances past n bytes without decoding them.
func (r *Reader) Skip(n int) { r.offset += n }

// Seek moves the reader to an absolute offset.
func (r *Reader) Seek(offset int) { r.offset = offset }

func (r *Reader) advance(n int) { r.offset += n }

// U8 reads an unsigned byte.
func (r *Reader) U8() uint8 {
	if r.err != nil {
		return 0
	}
	value, err := U8(r.data, r.offset)
	if err != nil {
		r.err = err
		return 0
	}
	r.advance(1)
	return value
}

// U16 reads a little-endian u16.
func (r *Reader) U16() uint16 {
	if r.err != nil {
		return 0
	}
	value, err := U16(r.data, r.offset)
	if err != nil {
		r.err = err
		return 0
	}
	r.advance(2)
	return value
}

// U32 reads a little-endian u32.
func (r *Reader) U32() uint32 {
	if r.err != nil {
		return 0
	}
	value, err := U32(r.data, r.offset)
	if err != nil {
		r.err = err
		return 0
	}
	r.advance(4)
	return value
}

// I32 reads a little-endian i32.
func (r *Reader) I32() int32 {
	if r.err != nil {
		return 0
	}
	value, err := I32(r.data, r.offset)
	if err != nil {
		r.err = err
		return 0
	}
	r.advance(4)
	return value
}

// U64 reads a little-endian u64.
func (r *Reader) U64() uint64 {
	if r.err != nil {
		return 0
	}
	value, err := U64(r.data, r.offset)
	if err != nil {
		r.err = err
		return 0
	}
	r.advance(8)
	return value
}

// I64 reads a little-endian i64.
func (r *Reader) I64() int64 {
	if r.err != nil {
		return 0
	}
	value, err := I64(r.data, r.offset)
	if err != nil {
		r.err = err
		return 0
	}
	r.advance(8)
	return value
}

// U64String reads a u64 as a decimal string.
func (r *Reader) U64String() string {
	if r.err != nil {
		return ""
	}
	value, err := U64String(r.data, r.offset)
	if err != nil {
		r.err = err
		return ""
	}
	r.advance(8)
	return value
}

// I64String reads an i64 as a decimal string.
func (r *Reader) I64String() string {
	if r.err != nil {
		return ""
	}
	value, err := I64String(r.data, r.offset)
	if err != nil {
		r.err = err
		return ""
	}
	r.advance(8)
	return value
}

// U128 reads a u128 as a big.Int.
func (r *Reader) U128() *big.Int {
	if r.err != nil {
		return nil
	}
	value, err := U128(r.data, r.offset)
	if err != nil {
		r.err = err
		return nil
	}
	r.advance(16)
	return value
}

// U128String reads a u128 as a decimal string.
func (r *Reader) U128String() string {
	if r.err != nil {
		return ""
	}
	value, err := U128String(r.data, r.offset)
	if err != nil {
		r.err = err
		return ""
	}
	r.advance(16)
	return value
}

// PublicKey reads 32 opaque bytes as a base58 address.
func (r *Reader) PublicKey() string {
	if r.err != nil {
		return ""
	}
	value, err := PublicKey(r.data, r.offset)
	if err != nil {
		r.err = err
		return ""
	}
	r.advance(PublicKeyLen)
	return value
}
