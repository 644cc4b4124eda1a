// Package bitmapdb reads and writes the index-chunk tables
// (E2AccountsHistory / E2StorageHistory): for each subject (an address, or
// an address+storage-key), the set of block numbers at which it changed is
// split into roaring-bitmap shards no larger than ChunkBytes, keyed by
// subject ‖ upper_bound_block_number so a single seek finds the first
// shard whose upper bound is >= a queried block number.
package bitmapdb

import (
	"encoding/binary"
	"math"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/erigontech/erigon-core/erigon-lib/kv"
)

// ChunkBytes is the teacher's documented 2KiB shard size for these
// tables (erigon-lib/kv/tables.go). Put does not split a
// bitmap or check it against this bound; choosing shard boundaries is up to
// the caller.
const ChunkBytes = 2048

// LastShardSentinel is the upper-bound suffix written on a subject's final
// (still-growing) shard, so a "get last shard" lookup is a single
// SeekExact rather than a scan to the end of the subject's key range.
const LastShardSentinel = math.MaxUint64

func chunkKey(subject []byte, upperBound uint64) []byte {
	k := make([]byte, len(subject)+8)
	copy(k, subject)
	binary.BigEndian.PutUint64(k[len(subject):], upperBound)
	return k
}

// Put writes the bitmap for subject's shard ending at upperBound (use
// LastShardSentinel for the open-ended final shard).
func Put(tx kv.RwTx, table string, subject []byte, upperBound uint64, bm *roaring.Bitmap) error {
	bm.RunOptimize()
	enc, err := bm.ToBytes()
	if err != nil {
		return err
	}
	return kv.WrapDbErr(tx.Put(table, chunkKey(subject, upperBound), enc))
}

// SeekGTE returns the first shard of subject whose upper bound is >= block,
// or nil if subject has no recorded shard at or after block (including
// when subject was never indexed at all).
func SeekGTE(tx kv.Tx, table string, subject []byte, block uint64) (*roaring.Bitmap, uint64, error) {
	c, err := tx.Cursor(table)
	if err != nil {
		return nil, 0, err
	}
	defer c.Close()

	k, v, err := c.Seek(chunkKey(subject, block))
	if err != nil {
		return nil, 0, kv.WrapDbErr(err)
	}
	if k == nil || len(k) < len(subject) || !sameSubject(k, subject) {
		return nil, 0, nil
	}
	bm := roaring.New()
	if err := bm.UnmarshalBinary(v); err != nil {
		return nil, 0, err
	}
	upperBound := binary.BigEndian.Uint64(k[len(subject):])
	return bm, upperBound, nil
}

func sameSubject(key, subject []byte) bool {
	if len(key) != len(subject)+8 {
		return false
	}
	for i := range subject {
		if key[i] != subject[i] {
			return false
		}
	}
	return true
}
