// Package rawdb holds the auxiliary chain-data accessors: canonical hash,
// header, body, transaction, sender and total-difficulty read/write, one
// function per concern, mirroring the Rust original's
// accessors::chain module function-for-function.
package rawdb

import (
	"encoding/binary"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/erigontech/erigon-core/core/types"
	"github.com/erigontech/erigon-core/erigon-lib/common"
	"github.com/erigontech/erigon-core/erigon-lib/kv"
	"github.com/erigontech/erigon-core/rlp"
)

// ReadCanonicalHash returns the canonical header hash at the given height,
// or the zero hash if none is marked canonical there.
func ReadCanonicalHash(tx kv.Tx, number common.BlockNumber) (common.Hash, error) {
	v, err := tx.GetOne(kv.HeaderCanonical, number.Bytes())
	if err != nil {
		return common.Hash{}, kv.WrapDbErr(err)
	}
	if v == nil {
		return common.Hash{}, nil
	}
	return common.BytesToHash(v), nil
}

// WriteCanonicalHash marks hash as the canonical header at number.
func WriteCanonicalHash(tx kv.RwTx, number common.BlockNumber, hash common.Hash) error {
	return kv.WrapDbErr(tx.Put(kv.HeaderCanonical, number.Bytes(), hash.Bytes()))
}

// DeleteCanonicalHash un-marks whatever hash is canonical at number, used
// when a stage unwinds past it.
func DeleteCanonicalHash(tx kv.RwTx, number common.BlockNumber) error {
	return kv.WrapDbErr(tx.Delete(kv.HeaderCanonical, number.Bytes()))
}

// ReadHeaderNumber returns the height of the header with the given hash.
func ReadHeaderNumber(tx kv.Tx, hash common.Hash) (*common.BlockNumber, error) {
	v, err := tx.GetOne(kv.HeaderNumber, hash.Bytes())
	if err != nil {
		return nil, kv.WrapDbErr(err)
	}
	if v == nil {
		return nil, nil
	}
	n, err := common.BytesToBlockNumber(v)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func WriteHeaderNumber(tx kv.RwTx, hash common.Hash, number common.BlockNumber) error {
	return kv.WrapDbErr(tx.Put(kv.HeaderNumber, hash.Bytes(), number.Bytes()))
}

// ReadHeader returns the header stored at (number, hash), or nil if absent.
func ReadHeader(tx kv.Tx, number common.BlockNumber, hash common.Hash) (*types.BlockHeader, error) {
	key := common.NewHeaderKey(number, hash)
	v, err := tx.GetOne(kv.Headers, key[:])
	if err != nil {
		return nil, kv.WrapDbErr(err)
	}
	if v == nil {
		return nil, nil
	}
	return types.DecodeHeader(v)
}

func WriteHeader(tx kv.RwTx, header *types.BlockHeader) error {
	key := common.NewHeaderKey(header.Number, header.Hash())
	enc, err := header.EncodeRLP()
	if err != nil {
		return err
	}
	return kv.WrapDbErr(tx.Put(kv.Headers, key[:], enc))
}

func DeleteHeader(tx kv.RwTx, number common.BlockNumber, hash common.Hash) error {
	key := common.NewHeaderKey(number, hash)
	return kv.WrapDbErr(tx.Delete(kv.Headers, key[:]))
}

// ReadTotalDifficulty returns the cumulative difficulty up to and including
// (number, hash).
func ReadTotalDifficulty(tx kv.Tx, number common.BlockNumber, hash common.Hash) (*uint256.Int, error) {
	key := common.NewHeaderKey(number, hash)
	v, err := tx.GetOne(kv.HeaderTD, key[:])
	if err != nil {
		return nil, kv.WrapDbErr(err)
	}
	if v == nil {
		return nil, nil
	}
	b, err := rlp.NewStream(v).Bytes()
	if err != nil {
		return nil, err
	}
	td := new(uint256.Int).SetBytes(b)
	return td, nil
}

func WriteTotalDifficulty(tx kv.RwTx, number common.BlockNumber, hash common.Hash, td *uint256.Int) error {
	key := common.NewHeaderKey(number, hash)
	return kv.WrapDbErr(tx.Put(kv.HeaderTD, key[:], rlp.EncodeBytes(td.Bytes())))
}

// ReadBody returns the storage body at (number, hash).
func ReadBody(tx kv.Tx, number common.BlockNumber, hash common.Hash) (*types.BodyForStorage, error) {
	key := common.NewHeaderKey(number, hash)
	v, err := tx.GetOne(kv.BlockBody, key[:])
	if err != nil {
		return nil, kv.WrapDbErr(err)
	}
	if v == nil {
		return nil, nil
	}
	return types.DecodeBodyForStorage(v)
}

func WriteBody(tx kv.RwTx, number common.BlockNumber, hash common.Hash, body *types.BodyForStorage) error {
	key := common.NewHeaderKey(number, hash)
	enc, err := body.EncodeRLP()
	if err != nil {
		return err
	}
	return kv.WrapDbErr(tx.Put(kv.BlockBody, key[:], enc))
}

// ReadTransaction returns the transaction stored at the given monotonic id.
func ReadTransaction(tx kv.Tx, id uint64) (*types.Transaction, error) {
	v, err := tx.GetOne(kv.EthTx, encodeTxID(id))
	if err != nil {
		return nil, kv.WrapDbErr(err)
	}
	if v == nil {
		return nil, nil
	}
	t := new(types.Transaction)
	if err := t.DecodeRLP(v); err != nil {
		return nil, err
	}
	return t, nil
}

func WriteTransaction(tx kv.RwTx, id uint64, txn *types.Transaction) error {
	enc, err := txn.EncodeRLP()
	if err != nil {
		return err
	}
	return kv.WrapDbErr(tx.Put(kv.EthTx, encodeTxID(id), enc))
}

// ReadTransactions returns up to amount transactions starting at the
// monotonic id base, walking the EthTx cursor forward and stopping once
// amount entries have been collected or the cursor runs dry — so the
// returned length equals amount iff at least that many ids are populated
// contiguously from base. Mirrors the Rust original's
// accessors::chain::tx::read.
func ReadTransactions(tx kv.Tx, base uint64, amount int) ([]*types.Transaction, error) {
	if amount <= 0 {
		return nil, nil
	}
	c, err := tx.Cursor(kv.EthTx)
	if err != nil {
		return nil, kv.WrapDbErr(err)
	}
	defer c.Close()

	out := make([]*types.Transaction, 0, amount)
	k, v, err := c.Seek(encodeTxID(base))
	for ; k != nil; k, v, err = c.Next() {
		if err != nil {
			return nil, kv.WrapDbErr(err)
		}
		if binary.BigEndian.Uint64(k) != base+uint64(len(out)) {
			break // gap in the id sequence
		}
		t := new(types.Transaction)
		if err := t.DecodeRLP(v); err != nil {
			return nil, err
		}
		out = append(out, t)
		if len(out) >= amount {
			break
		}
	}
	if err != nil {
		return nil, kv.WrapDbErr(err)
	}
	return out, nil
}

// WriteTransactions writes txs at consecutive ids starting at base,
// mirroring accessors::chain::tx::write.
func WriteTransactions(tx kv.RwTx, base uint64, txs []*types.Transaction) error {
	for i, t := range txs {
		if err := WriteTransaction(tx, base+uint64(i), t); err != nil {
			return err
		}
	}
	return nil
}

// ReadSenders returns the sender list recorded for the block at
// (number, hash), one 20-byte address per transaction in order.
func ReadSenders(tx kv.Tx, number common.BlockNumber, hash common.Hash) ([]common.Address, error) {
	key := common.NewHeaderKey(number, hash)
	v, err := tx.GetOne(kv.Senders, key[:])
	if err != nil {
		return nil, kv.WrapDbErr(err)
	}
	if len(v)%common.AddressLength != 0 {
		return nil, nil
	}
	senders := make([]common.Address, len(v)/common.AddressLength)
	for i := range senders {
		senders[i] = common.BytesToAddress(v[i*common.AddressLength : (i+1)*common.AddressLength])
	}
	return senders, nil
}

func WriteSenders(tx kv.RwTx, number common.BlockNumber, hash common.Hash, senders []common.Address) error {
	key := common.NewHeaderKey(number, hash)
	v := make([]byte, 0, len(senders)*common.AddressLength)
	for _, s := range senders {
		v = append(v, s.Bytes()...)
	}
	return kv.WrapDbErr(tx.Put(kv.Senders, key[:], v))
}

// ReadTransactionSenders returns up to amount recovered senders starting at
// the monotonic tx id base, one per matching ReadTransactions entry, in the
// same base/amount contract as ReadTransactions. Mirrors the Rust
// original's accessors::chain::tx_sender::read.
func ReadTransactionSenders(tx kv.Tx, base uint64, amount int) ([]common.Address, error) {
	if amount <= 0 {
		return nil, nil
	}
	c, err := tx.Cursor(kv.EthTxSender)
	if err != nil {
		return nil, kv.WrapDbErr(err)
	}
	defer c.Close()

	out := make([]common.Address, 0, amount)
	k, v, err := c.Seek(encodeTxID(base))
	for ; k != nil; k, v, err = c.Next() {
		if err != nil {
			return nil, kv.WrapDbErr(err)
		}
		id := binary.BigEndian.Uint64(k)
		if id != base+uint64(len(out)) {
			break // gap in the id sequence
		}
		if len(v) != common.AddressLength {
			return nil, fmt.Errorf("rawdb: corrupt sender entry at tx id %d: want %d bytes, got %d", id, common.AddressLength, len(v))
		}
		out = append(out, common.BytesToAddress(v))
		if len(out) >= amount {
			break
		}
	}
	if err != nil {
		return nil, kv.WrapDbErr(err)
	}
	return out, nil
}

// WriteTransactionSenders writes senders at consecutive tx ids starting at
// base, mirroring accessors::chain::tx_sender::write.
func WriteTransactionSenders(tx kv.RwTx, base uint64, senders []common.Address) error {
	for i, s := range senders {
		if err := tx.Put(kv.EthTxSender, encodeTxID(base+uint64(i)), s.Bytes()); err != nil {
			return kv.WrapDbErr(err)
		}
	}
	return nil
}

// ReadTxLookup returns the block number the transaction with the given hash
// belongs to.
func ReadTxLookup(tx kv.Tx, txHash common.Hash) (*common.BlockNumber, error) {
	v, err := tx.GetOne(kv.TxLookup, txHash.Bytes())
	if err != nil {
		return nil, kv.WrapDbErr(err)
	}
	if v == nil {
		return nil, nil
	}
	n, err := common.BytesToBlockNumber(v)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func WriteTxLookup(tx kv.RwTx, txHash common.Hash, number common.BlockNumber) error {
	return kv.WrapDbErr(tx.Put(kv.TxLookup, txHash.Bytes(), number.Bytes()))
}

func encodeTxID(id uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], id)
	return b[:]
}
