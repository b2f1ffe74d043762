// Package varint exposes the QUIC variable-length integer encoding as a
// value type. The encoding itself is quic-go's quicvarint; this package only
// adds the bounds-checked VarInt type and the first-byte size rule that the
// buffer and stream layers build on.
package varint

import (
	"fmt"

	"github.com/quic-go/quic-go/quicvarint"
)

// VarInt is an unsigned integer representable as a QUIC variable-length
// integer. Values produced by the constructors and by the buffer decoder
// never exceed Max.
type VarInt uint64

const (
	// Max is the largest value a VarInt can hold (2^62 - 1).
	Max = VarInt(quicvarint.Max)

	// MaxSize is the largest number of bytes an encoded VarInt can take.
	MaxSize = 8
)

// New returns v as a VarInt. It fails if v exceeds Max.
func New(v uint64) (VarInt, error) {
	if v > uint64(Max) {
		return 0, fmt.Errorf("varint: value %d exceeds maximum %d", v, uint64(Max))
	}
	return VarInt(v), nil
}

// FromUint32 returns v as a VarInt. Any 32-bit value is representable.
func FromUint32(v uint32) VarInt {
	return VarInt(v)
}

// ParseSize returns the encoded length, in bytes, of a varint whose first
// encoded byte is b. The length is selected by the two most significant bits
// and is one of 1, 2, 4 or 8.
func ParseSize(b byte) int {
	return 1 << (b >> 6)
}

// Size returns the number of bytes the encoded form of v takes.
func (v VarInt) Size() int {
	return quicvarint.Len(uint64(v))
}

// Uint64 returns the value as a plain uint64.
func (v VarInt) Uint64() uint64 {
	return uint64(v)
}

func (v VarInt) String() string {
	return fmt.Sprintf("%d", uint64(v))
}
