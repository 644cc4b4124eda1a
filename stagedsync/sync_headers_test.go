package stagedsync_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erigontech/erigon-core/core/rawdb"
	"github.com/erigontech/erigon-core/core/types"
	"github.com/erigontech/erigon-core/erigon-lib/common"
	"github.com/erigontech/erigon-core/erigon-lib/kv"
	"github.com/erigontech/erigon-core/erigon-lib/kv/memdb"
	"github.com/erigontech/erigon-core/headerdownload"
	"github.com/erigontech/erigon-core/p2p"
	"github.com/erigontech/erigon-core/p2p/fakenode"
	"github.com/erigontech/erigon-core/stagedsync"
)

type acceptAllEngine struct{}

func (acceptAllEngine) ValidateBlockHeader(header, parent *types.BlockHeader, withSeal bool) error {
	return nil
}

func chainOf(n int) []*types.BlockHeader {
	headers := make([]*types.BlockHeader, 0, n)
	var parent common.Hash
	for i := 0; i < n; i++ {
		h := &types.BlockHeader{ParentHash: parent, Number: common.BlockNumber(i), Difficulty: 1, GasLimit: 1_000_000, Time: uint64(i)}
		headers = append(headers, h)
		parent = h.Hash()
	}
	return headers
}

// TestSyncDrivesHeaderDownloadStage wires the header-download stage into a
// one-stage Sync pipeline and runs it to completion, exercising the
// driver's per-stage commit and progress-persistence path against a real
// stage rather than a stub.
func TestSyncDrivesHeaderDownloadStage(t *testing.T) {
	chain := chainOf(12)
	node := fakenode.New(chain, []p2p.PeerID{"peer-a", "peer-b"})

	db := memdb.New(kv.CoreTables, kv.CoreTablesCfg)
	require.NoError(t, db.Update(context.Background(), func(tx kv.RwTx) error {
		if err := rawdb.WriteHeader(tx, chain[0]); err != nil {
			return err
		}
		if err := rawdb.WriteCanonicalHash(tx, chain[0].Number, chain[0].Hash()); err != nil {
			return err
		}
		return rawdb.WriteHeaderNumber(tx, chain[0].Hash(), chain[0].Number)
	}))

	cfg := headerdownload.StageHeadersCfg(node, acceptAllEngine{})
	cfg.RequestInterval = 0
	headersStage := headerdownload.NewStage(cfg)

	sync := stagedsync.NewSync([]stagedsync.Stage{headersStage}, nil)
	require.NoError(t, sync.Run(context.Background(), db))

	require.NoError(t, db.View(context.Background(), func(tx kv.Tx) error {
		hash, err := rawdb.ReadCanonicalHash(tx, 11)
		require.NoError(t, err)
		require.Equal(t, chain[11].Hash(), hash)
		return nil
	}))
}
