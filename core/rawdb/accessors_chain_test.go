package rawdb_test

import (
	"context"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/erigontech/erigon-core/core/rawdb"
	"github.com/erigontech/erigon-core/core/types"
	"github.com/erigontech/erigon-core/erigon-lib/common"
	"github.com/erigontech/erigon-core/erigon-lib/kv"
	"github.com/erigontech/erigon-core/erigon-lib/kv/memdb"
)

// Mirrors the round-trip exercised by the Rust original's accessors() test:
// write a canonical hash, a header, a two-transaction body, the senders and
// the total difficulty for one block, then read every one of them back.
func TestAccessorsRoundTrip(t *testing.T) {
	store := memdb.New(kv.CoreTables, kv.CoreTablesCfg)
	ctx := context.Background()

	header := &types.BlockHeader{
		Number:      common.BlockNumber(1),
		ParentHash:  common.BytesToHash([]byte{0xaa}),
		Difficulty:  131072,
		GasLimit:    3141592,
		Beneficiary: common.BytesToAddress([]byte{0x01}),
	}
	hash := header.Hash()

	body := &types.BodyForStorage{
		BaseTxID: common.BlockNumber(1),
		TxAmount: 2,
	}
	senders := []common.Address{
		common.BytesToAddress([]byte{0x11}),
		common.BytesToAddress([]byte{0x22}),
	}
	td := uint256.NewInt(131072)

	err := store.Update(ctx, func(tx kv.RwTx) error {
		require.NoError(t, rawdb.WriteCanonicalHash(tx, header.Number, hash))
		require.NoError(t, rawdb.WriteHeaderNumber(tx, hash, header.Number))
		require.NoError(t, rawdb.WriteHeader(tx, header))
		require.NoError(t, rawdb.WriteBody(tx, header.Number, hash, body))
		require.NoError(t, rawdb.WriteSenders(tx, header.Number, hash, senders))
		require.NoError(t, rawdb.WriteTotalDifficulty(tx, header.Number, hash, td))

		tx1 := &types.Transaction{Raw: []byte("tx-one")}
		tx2 := &types.Transaction{Raw: []byte("tx-two")}
		require.NoError(t, rawdb.WriteTransaction(tx, uint64(body.BaseTxID), tx1))
		require.NoError(t, rawdb.WriteTransaction(tx, uint64(body.BaseTxID)+1, tx2))
		return nil
	})
	require.NoError(t, err)

	err = store.View(ctx, func(tx kv.Tx) error {
		gotHash, err := rawdb.ReadCanonicalHash(tx, header.Number)
		require.NoError(t, err)
		require.Equal(t, hash, gotHash)

		gotNumber, err := rawdb.ReadHeaderNumber(tx, hash)
		require.NoError(t, err)
		require.NotNil(t, gotNumber)
		require.Equal(t, header.Number, *gotNumber)

		gotHeader, err := rawdb.ReadHeader(tx, header.Number, hash)
		require.NoError(t, err)
		require.Equal(t, header.Difficulty, gotHeader.Difficulty)
		require.Equal(t, header.ParentHash, gotHeader.ParentHash)

		gotBody, err := rawdb.ReadBody(tx, header.Number, hash)
		require.NoError(t, err)
		require.Equal(t, body.TxAmount, gotBody.TxAmount)

		gotSenders, err := rawdb.ReadSenders(tx, header.Number, hash)
		require.NoError(t, err)
		require.Equal(t, senders, gotSenders)

		gotTD, err := rawdb.ReadTotalDifficulty(tx, header.Number, hash)
		require.NoError(t, err)
		require.True(t, gotTD.Eq(td))

		gotTx1, err := rawdb.ReadTransaction(tx, uint64(body.BaseTxID))
		require.NoError(t, err)
		require.Equal(t, []byte("tx-one"), gotTx1.Raw)
		return nil
	})
	require.NoError(t, err)
}

// TestReadTransactionsBatch mirrors the Rust original's tx::read/
// tx_sender::read round trip: tx::read(1, 2) must return both transactions
// in order, and a request for more than is contiguously present from base
// must come back short rather than erroring.
func TestReadTransactionsBatch(t *testing.T) {
	store := memdb.New(kv.CoreTables, kv.CoreTablesCfg)
	ctx := context.Background()

	txs := []*types.Transaction{
		{Raw: []byte("tx-one")},
		{Raw: []byte("tx-two")},
	}
	senders := []common.Address{
		common.BytesToAddress([]byte{0x11}),
		common.BytesToAddress([]byte{0x22}),
	}

	err := store.Update(ctx, func(tx kv.RwTx) error {
		require.NoError(t, rawdb.WriteTransactions(tx, 1, txs))
		require.NoError(t, rawdb.WriteTransactionSenders(tx, 1, senders))
		return nil
	})
	require.NoError(t, err)

	err = store.View(ctx, func(tx kv.Tx) error {
		got, err := rawdb.ReadTransactions(tx, 1, 2)
		require.NoError(t, err)
		require.Len(t, got, 2)
		require.Equal(t, []byte("tx-one"), got[0].Raw)
		require.Equal(t, []byte("tx-two"), got[1].Raw)

		gotSenders, err := rawdb.ReadTransactionSenders(tx, 1, 2)
		require.NoError(t, err)
		require.Equal(t, senders, gotSenders)

		short, err := rawdb.ReadTransactions(tx, 1, 5)
		require.NoError(t, err)
		require.Len(t, short, 2)

		none, err := rawdb.ReadTransactions(tx, 100, 3)
		require.NoError(t, err)
		require.Len(t, none, 0)
		return nil
	})
	require.NoError(t, err)
}
