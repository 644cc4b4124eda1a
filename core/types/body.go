package types

import (
	"github.com/erigontech/erigon-core/erigon-lib/common"
	"github.com/erigontech/erigon-core/rlp"
)

// BodyForStorage is the on-disk body record: a reference into the
// monotonic transaction-id space rather than the transactions themselves,
// matching the teacher's BlockBody table (block_num_u64+hash -> this) and
// the Rust original's accessors::chain::storage_body.
type BodyForStorage struct {
	BaseTxID common.BlockNumber // first tx id owned by this block
	TxAmount uint32
	Uncles   []common.Hash
}

func (b *BodyForStorage) EncodeRLP() ([]byte, error) {
	uncles := make([][]byte, len(b.Uncles))
	for i, u := range b.Uncles {
		uncles[i] = rlp.EncodeBytes(u.Bytes())
	}
	return rlp.EncodeList(
		rlp.EncodeUint64(uint64(b.BaseTxID)),
		rlp.EncodeUint64(uint64(b.TxAmount)),
		rlp.EncodeList(uncles...),
	), nil
}

func (b *BodyForStorage) DecodeRLP(s *rlp.Stream) error {
	baseTxID, err := s.Uint64()
	if err != nil {
		return err
	}
	txAmount, err := s.Uint64()
	if err != nil {
		return err
	}
	if _, err := s.List(); err != nil {
		return err
	}
	var uncles []common.Hash
	for s.More() {
		h, err := s.Bytes()
		if err != nil {
			return err
		}
		uncles = append(uncles, common.BytesToHash(h))
	}
	if err := s.ListEnd(); err != nil {
		return err
	}
	b.BaseTxID = common.BlockNumber(baseTxID)
	b.TxAmount = uint32(txAmount)
	b.Uncles = uncles
	return s.ListEnd()
}

func DecodeBodyForStorage(data []byte) (*BodyForStorage, error) {
	b := new(BodyForStorage)
	if err := rlp.DecodeBytes(data, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Transaction is kept opaque: this module never validates signatures or
// executes transactions (spec.md Non-goals), it only stores and retrieves
// the raw RLP payload each accessor round-trips by transaction id.
type Transaction struct {
	Raw []byte
}

func (t *Transaction) EncodeRLP() ([]byte, error) { return t.Raw, nil }

func (t *Transaction) DecodeRLP(raw []byte) error {
	t.Raw = append([]byte(nil), raw...)
	return nil
}
