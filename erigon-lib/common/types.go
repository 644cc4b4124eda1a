// Package common holds the small value types shared by every package in
// this module: addresses, hashes, and the big-endian block-number codec
// used as a key prefix throughout the KV schema.
package common

import (
	"encoding/hex"
	"fmt"
)

const (
	AddressLength = 20
	HashLength    = 32
)

// Address is a 20-byte account address.
type Address [AddressLength]byte

func BytesToAddress(b []byte) (a Address) {
	copy(a[AddressLength-len(b):], b)
	return a
}

func (a Address) Bytes() []byte { return a[:] }

func (a Address) String() string { return "0x" + hex.EncodeToString(a[:]) }

// Hash is a 32-byte hash, used both for block hashes and state roots.
type Hash [HashLength]byte

func BytesToHash(b []byte) (h Hash) {
	copy(h[HashLength-len(b):], b)
	return h
}

func (h Hash) Bytes() []byte { return h[:] }

func (h Hash) String() string { return "0x" + hex.EncodeToString(h[:]) }

// EmptyCodeHash is the keccak256 hash of an empty byte string, the sentinel
// an Account carries in CodeHash when it owns no contract code.
var EmptyCodeHash = Hash{
	0xc5, 0xd2, 0x46, 0x01, 0x86, 0xf7, 0x23, 0x3c, 0x92, 0x7e, 0x7d, 0xb2, 0xdc, 0xc7, 0x03, 0xc0,
	0xe5, 0x00, 0xb6, 0x53, 0xca, 0x82, 0x27, 0x3b, 0x7b, 0xfa, 0xd8, 0x04, 0x5d, 0x85, 0xa4, 0x70,
}

// BlockNumber is a chain height, encoded big-endian as an 8-byte key prefix
// so that lexicographic byte order matches numeric order — the invariant
// every cursor walk over a block-keyed table depends on.
type BlockNumber uint64

func (n BlockNumber) Bytes() []byte {
	var b [8]byte
	b[0] = byte(n >> 56)
	b[1] = byte(n >> 48)
	b[2] = byte(n >> 40)
	b[3] = byte(n >> 32)
	b[4] = byte(n >> 24)
	b[5] = byte(n >> 16)
	b[6] = byte(n >> 8)
	b[7] = byte(n)
	return b[:]
}

func BytesToBlockNumber(b []byte) (BlockNumber, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("common: block number key must be 8 bytes, got %d", len(b))
	}
	n := uint64(b[0])<<56 | uint64(b[1])<<48 | uint64(b[2])<<40 | uint64(b[3])<<32 |
		uint64(b[4])<<24 | uint64(b[5])<<16 | uint64(b[6])<<8 | uint64(b[7])
	return BlockNumber(n), nil
}

// HeaderKey is the 40-byte composite key (block number ‖ hash) under which
// headers and bodies are stored, giving canonical and non-canonical headers
// at the same height distinct keys.
type HeaderKey [8 + HashLength]byte

func NewHeaderKey(number BlockNumber, hash Hash) (k HeaderKey) {
	copy(k[:8], number.Bytes())
	copy(k[8:], hash[:])
	return k
}

func (k HeaderKey) Number() BlockNumber {
	n, _ := BytesToBlockNumber(k[:8])
	return n
}

func (k HeaderKey) Hash() Hash {
	var h Hash
	copy(h[:], k[8:])
	return h
}
