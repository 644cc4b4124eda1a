package state

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/erigontech/erigon-core/core/state/bitmapdb"
	"github.com/erigontech/erigon-core/core/state/changeset"
	"github.com/erigontech/erigon-core/core/types"
	"github.com/erigontech/erigon-core/erigon-lib/common"
	"github.com/erigontech/erigon-core/erigon-lib/kv"
)

// GetAccountDataAsOf returns the account's decoded state as of (i.e. at the
// start of) blockNumber: the first change recorded at or after that height
// if one exists, otherwise the account's current PlainState value.
//
// This resolves Open Question (a): seeking the index chunk at exactly
// blockNumber lands on a shard whose upper bound may equal blockNumber
// itself, and the change-set entry found there is, by construction, the
// value the account held immediately before blockNumber — i.e. querying
// "as of" the block that changed it intentionally returns the pre-block
// value, not the post-block one.
func GetAccountDataAsOf(tx kv.Tx, address common.Address, blockNumber common.BlockNumber) (*types.Account, error) {
	enc, found, err := findDataByHistory(tx, address, blockNumber)
	if err != nil {
		return nil, err
	}
	if !found {
		enc, err = tx.GetOne(kv.PlainState, address.Bytes())
		if err != nil {
			return nil, kv.WrapDbErr(err)
		}
		if enc == nil {
			return nil, nil
		}
	}
	if len(enc) == 0 {
		return nil, nil // recorded deletion: account did not exist before this block
	}
	acc, err := types.DecodeForStorage(enc)
	if err != nil {
		return nil, err
	}
	if err := rehydrateCodeHash(tx, address, acc); err != nil {
		return nil, err
	}
	return acc, nil
}

// findDataByHistory implements the two-level lookup: seek the index-chunk
// bitmap for address to find the smallest recorded block >= blockNumber,
// then fetch that block's change-set entry for address.
func findDataByHistory(tx kv.Tx, address common.Address, blockNumber common.BlockNumber) (enc []byte, found bool, err error) {
	bm, upperBound, err := bitmapdb.SeekGTE(tx, kv.E2AccountsHistory, address.Bytes(), uint64(blockNumber))
	if err != nil || bm == nil {
		return nil, false, err
	}

	changedAt, ok := seekGTE(bm, uint64(blockNumber))
	if !ok {
		// No recorded change at or after blockNumber in this (necessarily
		// last, per upperBound==LastShardSentinel) shard: subject never
		// changed again, fall back to PlainState.
		_ = upperBound
		return nil, false, nil
	}

	data, present, err := changeset.FindAccount(tx, common.BlockNumber(changedAt), address)
	if err != nil {
		return nil, false, err
	}
	return data, present, nil
}

// GetStorageAsOf is findDataByHistory's storage-slot counterpart.
func GetStorageAsOf(tx kv.Tx, address common.Address, incarnation uint64, slot common.Hash, blockNumber common.BlockNumber) (common.Hash, bool, error) {
	subject := storageSubject(address, slot)
	bm, upperBound, err := bitmapdb.SeekGTE(tx, kv.E2StorageHistory, subject, uint64(blockNumber))
	if err != nil {
		return common.Hash{}, false, err
	}
	if bm == nil {
		return plainStorage(tx, address, incarnation, slot)
	}

	changedAt, ok := seekGTE(bm, uint64(blockNumber))
	if !ok {
		if upperBound == bitmapdb.LastShardSentinel {
			return plainStorage(tx, address, incarnation, slot)
		}
		return common.Hash{}, false, nil
	}

	v, present, err := changeset.FindStorage(tx, common.BlockNumber(changedAt), address, incarnation, slot)
	if err != nil {
		return common.Hash{}, false, err
	}
	if !present {
		return plainStorage(tx, address, incarnation, slot)
	}
	return v, true, nil
}

func plainStorage(tx kv.Tx, address common.Address, incarnation uint64, slot common.Hash) (common.Hash, bool, error) {
	key := plainStorageKey(address, incarnation, slot)
	v, err := tx.GetOne(kv.PlainState, key)
	if err != nil {
		return common.Hash{}, false, kv.WrapDbErr(err)
	}
	if v == nil {
		return common.Hash{}, false, nil
	}
	return common.BytesToHash(v), true, nil
}

func storageSubject(address common.Address, slot common.Hash) []byte {
	k := make([]byte, 0, common.AddressLength+common.HashLength)
	k = append(k, address.Bytes()...)
	return append(k, slot.Bytes()...)
}

func plainStorageKey(address common.Address, incarnation uint64, slot common.Hash) []byte {
	k := make([]byte, common.AddressLength+8+common.HashLength)
	copy(k, address.Bytes())
	inc := common.BlockNumber(incarnation).Bytes()
	copy(k[common.AddressLength:], inc)
	copy(k[common.AddressLength+8:], slot.Bytes())
	return k
}

// rehydrateCodeHash fills in CodeHash from PlainContractCode when
// EncodeForStorage omitted it — the condition the Rust original checks as
// `incarnation > 0 && code_hash == EMPTY_HASH`.
func rehydrateCodeHash(tx kv.Tx, address common.Address, acc *types.Account) error {
	if acc.Incarnation == 0 || acc.CodeHash != common.EmptyCodeHash {
		return nil
	}
	key := make([]byte, common.AddressLength+8)
	copy(key, address.Bytes())
	copy(key[common.AddressLength:], common.BlockNumber(acc.Incarnation).Bytes())
	v, err := tx.GetOne(kv.PlainContractCode, key)
	if err != nil {
		return kv.WrapDbErr(err)
	}
	if len(v) == common.HashLength {
		acc.CodeHash = common.BytesToHash(v)
	}
	return nil
}

// seekGTE returns the smallest value in bm that is >= n.
func seekGTE(bm *roaring.Bitmap, n uint64) (uint64, bool) {
	it := bm.Iterator()
	it.AdvanceIfNeeded(uint32(n))
	if !it.HasNext() {
		return 0, false
	}
	return uint64(it.Next()), true
}
