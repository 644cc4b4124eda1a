// Package changeset reads and writes the AccountChangeSet/StorageChangeSet
// tables: for each block, the pre-block value of every account or storage
// slot that block's execution changed. Both tables are DupSort so that a
// block's many changes share one physical key prefix.
package changeset

import (
	"encoding/binary"
	"fmt"

	"github.com/erigontech/erigon-core/erigon-lib/common"
	"github.com/erigontech/erigon-core/erigon-lib/kv"
)

func blockKey(block common.BlockNumber) []byte { return block.Bytes() }

// PutAccount records that, before block changed it, address held
// accountEncoded (the PlainState encoding, or nil for "did not exist").
func PutAccount(tx kv.RwTx, block common.BlockNumber, address common.Address, accountEncoded []byte) error {
	c, err := tx.RwCursorDupSort(kv.AccountChangeSetDeprecated)
	if err != nil {
		return err
	}
	defer c.Close()
	v := make([]byte, 0, common.AddressLength+len(accountEncoded))
	v = append(v, address.Bytes()...)
	v = append(v, accountEncoded...)
	return kv.WrapDbErr(c.Put(blockKey(block), v))
}

// WalkAccounts calls f for every (address, accountEncoded) pair recorded
// for block.
func WalkAccounts(tx kv.Tx, block common.BlockNumber, f func(address common.Address, accountEncoded []byte) error) error {
	c, err := tx.CursorDupSort(kv.AccountChangeSetDeprecated)
	if err != nil {
		return err
	}
	defer c.Close()

	k, v, err := c.SeekExact(blockKey(block))
	if err != nil {
		return kv.WrapDbErr(err)
	}
	for k != nil {
		if len(v) < common.AddressLength {
			return fmt.Errorf("changeset: malformed AccountChangeSet value for block %d", block)
		}
		addr := common.BytesToAddress(v[:common.AddressLength])
		if err := f(addr, v[common.AddressLength:]); err != nil {
			return err
		}
		k, v, err = c.NextDup()
		if err != nil {
			return kv.WrapDbErr(err)
		}
	}
	return nil
}

// FindAccount returns the pre-block encoding recorded for address at
// block, or (nil, false, nil) if that block didn't touch it.
func FindAccount(tx kv.Tx, block common.BlockNumber, address common.Address) ([]byte, bool, error) {
	var found []byte
	ok := false
	err := WalkAccounts(tx, block, func(a common.Address, enc []byte) error {
		if a == address && !ok {
			found, ok = append([]byte{}, enc...), true
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return found, ok, nil
}

// StorageChangeSetKey builds the block ‖ address ‖ incarnation key under
// which a block's storage changes for one account incarnation are grouped.
func StorageChangeSetKey(block common.BlockNumber, address common.Address, incarnation uint64) []byte {
	k := make([]byte, 0, 8+common.AddressLength+8)
	k = append(k, block.Bytes()...)
	k = append(k, address.Bytes()...)
	var inc [8]byte
	binary.BigEndian.PutUint64(inc[:], incarnation)
	return append(k, inc[:]...)
}

// PutStorage records that, before block changed it, the given storage slot
// of address/incarnation held value.
func PutStorage(tx kv.RwTx, block common.BlockNumber, address common.Address, incarnation uint64, slot, value common.Hash) error {
	c, err := tx.RwCursorDupSort(kv.StorageChangeSetDeprecated)
	if err != nil {
		return err
	}
	defer c.Close()
	v := make([]byte, 0, common.HashLength*2)
	v = append(v, slot.Bytes()...)
	v = append(v, value.Bytes()...)
	return kv.WrapDbErr(c.Put(StorageChangeSetKey(block, address, incarnation), v))
}

// WalkStorage calls f for every (slot, value) pair recorded for
// address/incarnation at block.
func WalkStorage(tx kv.Tx, block common.BlockNumber, address common.Address, incarnation uint64, f func(slot, value common.Hash) error) error {
	c, err := tx.CursorDupSort(kv.StorageChangeSetDeprecated)
	if err != nil {
		return err
	}
	defer c.Close()

	key := StorageChangeSetKey(block, address, incarnation)
	k, v, err := c.SeekExact(key)
	if err != nil {
		return kv.WrapDbErr(err)
	}
	for k != nil {
		if len(v) != common.HashLength*2 {
			return fmt.Errorf("changeset: malformed StorageChangeSet value")
		}
		slot := common.BytesToHash(v[:common.HashLength])
		value := common.BytesToHash(v[common.HashLength:])
		if err := f(slot, value); err != nil {
			return err
		}
		k, v, err = c.NextDup()
		if err != nil {
			return kv.WrapDbErr(err)
		}
	}
	return nil
}

// FindStorage returns the pre-block value recorded for the given slot of
// address/incarnation at block, or (zero, false, nil) if untouched.
func FindStorage(tx kv.Tx, block common.BlockNumber, address common.Address, incarnation uint64, slot common.Hash) (common.Hash, bool, error) {
	var found common.Hash
	ok := false
	err := WalkStorage(tx, block, address, incarnation, func(s, v common.Hash) error {
		if s == slot && !ok {
			found, ok = v, true
		}
		return nil
	})
	if err != nil {
		return common.Hash{}, false, err
	}
	return found, ok, nil
}
