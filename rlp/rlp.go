// Package rlp is a minimal, in-tree Recursive Length Prefix codec — the
// wire/storage format spec.md declares out of scope beyond "whatever this
// module needs to round-trip its own records." It is not a third-party
// import, matching the teacher's own rlp package, which isn't one either.
package rlp

import (
	"encoding/binary"
	"fmt"
)

// Encoder is implemented by any type that knows its own RLP encoding.
type Encoder interface {
	EncodeRLP() ([]byte, error)
}

// Decoder is implemented by any type that can populate itself from an RLP
// list Stream positioned just after the list header.
type Decoder interface {
	DecodeRLP(s *Stream) error
}

// EncodeBytes returns the RLP encoding of a byte string.
func EncodeBytes(b []byte) []byte {
	if len(b) == 1 && b[0] < 0x80 {
		return []byte{b[0]}
	}
	return append(encodeLength(0x80, 0xb7, len(b)), b...)
}

// EncodeUint64 returns the RLP encoding of i as a minimal big-endian string,
// with the Ethereum convention that 0 encodes as the empty string.
func EncodeUint64(i uint64) []byte {
	if i == 0 {
		return []byte{0x80}
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], i)
	n := 0
	for n < 8 && buf[n] == 0 {
		n++
	}
	return EncodeBytes(buf[n:])
}

// EncodeList wraps already-encoded items in an RLP list header.
func EncodeList(items ...[]byte) []byte {
	total := 0
	for _, it := range items {
		total += len(it)
	}
	out := encodeLength(0xc0, 0xf7, total)
	for _, it := range items {
		out = append(out, it...)
	}
	return out
}

func encodeLength(shortBase, longBase byte, n int) []byte {
	if n < 56 {
		return []byte{shortBase + byte(n)}
	}
	var lenBytes []byte
	for n > 0 {
		lenBytes = append([]byte{byte(n & 0xff)}, lenBytes...)
		n >>= 8
	}
	return append([]byte{longBase + byte(len(lenBytes))}, lenBytes...)
}

// EncodeToBytes encodes val via its Encoder implementation.
func EncodeToBytes(val Encoder) ([]byte, error) { return val.EncodeRLP() }

// DecodeBytes decodes data, which must be a single RLP item, into val.
func DecodeBytes(data []byte, val Decoder) error {
	s := NewStream(data)
	if _, err := s.List(); err != nil {
		return fmt.Errorf("rlp: %w", err)
	}
	return val.DecodeRLP(s)
}
