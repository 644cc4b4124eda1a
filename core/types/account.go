package types

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/erigontech/erigon-core/erigon-lib/common"
)

// Account is the PlainState value: EVM account state keyed by address.
// Incarnation counts how many times the account has self-destructed and
// been recreated — a storage-key disambiguator, not part of consensus
// state — mirroring the Rust original's Account.incarnation field.
type Account struct {
	Nonce       uint64
	Balance     uint256.Int
	Incarnation uint64
	CodeHash    common.Hash
}

const (
	fieldNonce       = 1 << 0
	fieldBalance     = 1 << 1
	fieldIncarnation = 1 << 2
	fieldCodeHash    = 1 << 3
)

// EncodeForStorage writes the PlainState compact encoding: a field-set byte
// followed by only the non-zero fields, each length-prefixed except the
// fixed-size code hash. An account with no code (CodeHash == EmptyCodeHash)
// omits the code hash entirely — this is the condition
// findDataByHistory's caller must detect and rehydrate from PlainContractCode.
func (a *Account) EncodeForStorage() []byte {
	var fieldSet byte
	var nonceBytes, balanceBytes, incarnationBytes []byte

	if a.Nonce != 0 {
		fieldSet |= fieldNonce
		nonceBytes = trimBigEndian(a.Nonce)
	}
	if !a.Balance.IsZero() {
		fieldSet |= fieldBalance
		balanceBytes = a.Balance.Bytes()
	}
	if a.Incarnation != 0 {
		fieldSet |= fieldIncarnation
		incarnationBytes = trimBigEndian(a.Incarnation)
	}
	hasCode := a.CodeHash != common.EmptyCodeHash && a.CodeHash != (common.Hash{})
	if hasCode {
		fieldSet |= fieldCodeHash
	}

	out := []byte{fieldSet}
	if fieldSet&fieldNonce != 0 {
		out = append(out, byte(len(nonceBytes)))
		out = append(out, nonceBytes...)
	}
	if fieldSet&fieldBalance != 0 {
		out = append(out, byte(len(balanceBytes)))
		out = append(out, balanceBytes...)
	}
	if fieldSet&fieldIncarnation != 0 {
		out = append(out, byte(len(incarnationBytes)))
		out = append(out, incarnationBytes...)
	}
	if hasCode {
		out = append(out, a.CodeHash.Bytes()...)
	}
	return out
}

// DecodeForStorage parses the layout EncodeForStorage produces.
func DecodeForStorage(enc []byte) (*Account, error) {
	if len(enc) == 0 {
		return &Account{}, nil
	}
	a := &Account{CodeHash: common.EmptyCodeHash}
	fieldSet := enc[0]
	pos := 1

	readField := func() ([]byte, error) {
		if pos >= len(enc) {
			return nil, fmt.Errorf("types: account encoding truncated at length byte")
		}
		n := int(enc[pos])
		pos++
		if pos+n > len(enc) {
			return nil, fmt.Errorf("types: account encoding truncated in field value")
		}
		v := enc[pos : pos+n]
		pos += n
		return v, nil
	}

	if fieldSet&fieldNonce != 0 {
		b, err := readField()
		if err != nil {
			return nil, err
		}
		a.Nonce = bigEndianToUint64(b)
	}
	if fieldSet&fieldBalance != 0 {
		b, err := readField()
		if err != nil {
			return nil, err
		}
		a.Balance.SetBytes(b)
	}
	if fieldSet&fieldIncarnation != 0 {
		b, err := readField()
		if err != nil {
			return nil, err
		}
		a.Incarnation = bigEndianToUint64(b)
	}
	if fieldSet&fieldCodeHash != 0 {
		if pos+common.HashLength > len(enc) {
			return nil, fmt.Errorf("types: account encoding truncated in code hash")
		}
		a.CodeHash = common.BytesToHash(enc[pos : pos+common.HashLength])
		pos += common.HashLength
	}
	return a, nil
}

func trimBigEndian(v uint64) []byte {
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * (7 - i)))
	}
	n := 0
	for n < 8 && buf[n] == 0 {
		n++
	}
	return buf[n:]
}

func bigEndianToUint64(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}
