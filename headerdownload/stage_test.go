package headerdownload

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erigontech/erigon-core/core/rawdb"
	"github.com/erigontech/erigon-core/core/types"
	"github.com/erigontech/erigon-core/erigon-lib/common"
	"github.com/erigontech/erigon-core/erigon-lib/kv"
	"github.com/erigontech/erigon-core/erigon-lib/kv/memdb"
	"github.com/erigontech/erigon-core/p2p"
	"github.com/erigontech/erigon-core/p2p/fakenode"
	"github.com/erigontech/erigon-core/stagedsync"
	"github.com/erigontech/erigon-core/stagedsync/stages"
)

// acceptAllEngine validates nothing; the stage's own chain-continuity
// checks are what these tests exercise, not a real consensus rule.
type acceptAllEngine struct{}

func (acceptAllEngine) ValidateBlockHeader(header, parent *types.BlockHeader, withSeal bool) error {
	return nil
}

// rejectFromEngine fails validation for every header at or after badNumber,
// simulating a chain whose tail was forged past a certain height.
type rejectFromEngine struct{ badNumber common.BlockNumber }

func (e rejectFromEngine) ValidateBlockHeader(header, parent *types.BlockHeader, withSeal bool) error {
	if header.Number >= e.badNumber {
		return errBadSeal
	}
	return nil
}

type sealError struct{}

func (sealError) Error() string { return "seal rejected" }

var errBadSeal = sealError{}

func chainOf(n int) []*types.BlockHeader {
	headers := make([]*types.BlockHeader, 0, n)
	var parent common.Hash
	for i := 0; i < n; i++ {
		h := &types.BlockHeader{
			ParentHash: parent,
			Number:     common.BlockNumber(i),
			Difficulty: 1,
			GasLimit:   1_000_000,
			Time:       uint64(i),
		}
		headers = append(headers, h)
		parent = h.Hash()
	}
	return headers
}

func seedGenesis(t *testing.T, db kv.RwDB, genesis *types.BlockHeader) {
	t.Helper()
	require.NoError(t, db.Update(context.Background(), func(tx kv.RwTx) error {
		if err := rawdb.WriteHeader(tx, genesis); err != nil {
			return err
		}
		if err := rawdb.WriteCanonicalHash(tx, genesis.Number, genesis.Hash()); err != nil {
			return err
		}
		return rawdb.WriteHeaderNumber(tx, genesis.Hash(), genesis.Number)
	}))
}

func TestHeaderDownloadStageAdvancesChain(t *testing.T) {
	chain := chainOf(10) // blocks 0..9
	node := fakenode.New(chain, []p2p.PeerID{"peer-a", "peer-b"})

	db := memdb.New(kv.CoreTables, kv.CoreTablesCfg)
	seedGenesis(t, db, chain[0])

	cfg := StageHeadersCfg(node, acceptAllEngine{})
	cfg.RequestInterval = 0 // tests don't need the periodic re-request path
	st := NewStage(cfg)
	require.Equal(t, stages.Headers, st.ID())

	var out stagedsync.ExecOutput
	require.NoError(t, db.Update(context.Background(), func(tx kv.RwTx) error {
		var err error
		out, err = st.Execute(context.Background(), tx, stagedsync.ExecInput{CurrentProgress: 0})
		return err
	}))

	require.True(t, out.Done)
	require.Equal(t, uint64(9), out.Progress)

	require.NoError(t, db.View(context.Background(), func(tx kv.Tx) error {
		hash, err := rawdb.ReadCanonicalHash(tx, 9)
		require.NoError(t, err)
		require.Equal(t, chain[9].Hash(), hash)

		h, err := rawdb.ReadHeader(tx, 5, chain[5].Hash())
		require.NoError(t, err)
		require.NotNil(t, h)
		require.Equal(t, chain[5].Number, h.Number)
		return nil
	}))
}

func TestHeaderDownloadStageRejectsBadSeal(t *testing.T) {
	chain := chainOf(6) // blocks 0..5
	node := fakenode.New(chain, []p2p.PeerID{"peer-a"})

	db := memdb.New(kv.CoreTables, kv.CoreTablesCfg)
	seedGenesis(t, db, chain[0])

	cfg := StageHeadersCfg(node, rejectFromEngine{badNumber: 3})
	cfg.RequestInterval = 0
	st := NewStage(cfg)

	err := db.Update(context.Background(), func(tx kv.RwTx) error {
		_, err := st.Execute(context.Background(), tx, stagedsync.ExecInput{CurrentProgress: 0})
		return err
	})
	require.Error(t, err)
	se, ok := err.(*stagedsync.StageError)
	require.True(t, ok)
	require.Equal(t, stagedsync.KindConsensusRejected, se.Kind)
	require.True(t, node.IsBadBlock(chain[3].Hash()))
}

func TestHeaderDownloadStagePenalizesMalformedBatch(t *testing.T) {
	chain := chainOf(4)
	node := fakenode.New(chain, []p2p.PeerID{"peer-a"})

	garbled := []*types.BlockHeader{chain[1], chain[3]} // skips block 2: fails the contiguity check
	node.InjectHeaders("peer-bad", garbled)

	db := memdb.New(kv.CoreTables, kv.CoreTablesCfg)
	seedGenesis(t, db, chain[0])

	cfg := StageHeadersCfg(node, acceptAllEngine{})
	cfg.RequestInterval = 0
	cfg.BackOff = 0
	st := NewStage(cfg)

	require.NoError(t, db.Update(context.Background(), func(tx kv.RwTx) error {
		_, err := st.Execute(context.Background(), tx, stagedsync.ExecInput{CurrentProgress: 0})
		return err
	}))

	require.Equal(t, 1, node.PenaltyCount("peer-bad"))
}
