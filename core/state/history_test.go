package state_test

import (
	"context"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/stretchr/testify/require"

	"github.com/erigontech/erigon-core/core/state"
	"github.com/erigontech/erigon-core/core/state/bitmapdb"
	"github.com/erigontech/erigon-core/core/state/changeset"
	"github.com/erigontech/erigon-core/core/types"
	"github.com/erigontech/erigon-core/erigon-lib/common"
	"github.com/erigontech/erigon-core/erigon-lib/kv"
	"github.com/erigontech/erigon-core/erigon-lib/kv/memdb"
)

// Mirrors the scenario generated by the Rust original's
// generate_accounts_with_storage_and_history helper: account A's
// change-sets record that it held X before block 1 and Y before block 2;
// its current PlainState value is Z. Querying as-of block 2 returns Y, the
// value recorded in the change-set entry at exactly block 2 — the
// intentional >= seek semantics from Open Question (a) — not Z.
func TestGetAccountDataAsOf(t *testing.T) {
	store := memdb.New(kv.CoreTables, kv.CoreTablesCfg)
	ctx := context.Background()
	addr := common.BytesToAddress([]byte{0xA1})

	accX := &types.Account{Nonce: 1}
	accY := &types.Account{Nonce: 2}
	accZ := &types.Account{Nonce: 3}

	err := store.Update(ctx, func(tx kv.RwTx) error {
		require.NoError(t, changeset.PutAccount(tx, common.BlockNumber(1), addr, accX.EncodeForStorage()))
		require.NoError(t, changeset.PutAccount(tx, common.BlockNumber(2), addr, accY.EncodeForStorage()))
		require.NoError(t, tx.Put(kv.PlainState, addr.Bytes(), accZ.EncodeForStorage()))

		bm := roaring.New()
		bm.AddMany([]uint32{1, 2})
		return bitmapdb.Put(tx, kv.E2AccountsHistory, addr.Bytes(), bitmapdb.LastShardSentinel, bm)
	})
	require.NoError(t, err)

	err = store.View(ctx, func(tx kv.Tx) error {
		got, err := state.GetAccountDataAsOf(tx, addr, common.BlockNumber(2))
		require.NoError(t, err)
		require.NotNil(t, got)
		require.Equal(t, accY.Nonce, got.Nonce)

		got, err = state.GetAccountDataAsOf(tx, addr, common.BlockNumber(1))
		require.NoError(t, err)
		require.NotNil(t, got)
		require.Equal(t, accX.Nonce, got.Nonce)

		got, err = state.GetAccountDataAsOf(tx, addr, common.BlockNumber(3))
		require.NoError(t, err)
		require.NotNil(t, got)
		require.Equal(t, accZ.Nonce, got.Nonce)
		return nil
	})
	require.NoError(t, err)
}
