package headerdownload

import (
	"context"
	"fmt"
	"time"

	"github.com/holiman/uint256"

	"github.com/erigontech/erigon-core/core/rawdb"
	"github.com/erigontech/erigon-core/core/types"
	"github.com/erigontech/erigon-core/erigon-lib/common"
	"github.com/erigontech/erigon-core/erigon-lib/kv"
	"github.com/erigontech/erigon-core/stagedsync"
	"github.com/erigontech/erigon-core/stagedsync/stages"
)

// stage is the header-download Stage: each Execute call drains up to
// StageUpperBound blocks worth of headers from the network, verifies their
// seals, and commits them as canonical; Unwind deletes canonical headers
// back to the unwind point. Grounded on the Rust original's
// stages::headers::HeaderDownloadStage::execute/unwind.
type stage struct {
	cfg   Cfg
	graph *Graph
}

// NewStage builds the header-download stage. A fresh Graph is created per
// stage instance; Execute clears it at the start of every download round
// since a round's collected-but-uncommitted headers never carry over.
func NewStage(cfg Cfg) stagedsync.Stage {
	return &stage{cfg: cfg, graph: NewGraph()}
}

func (s *stage) ID() stages.SyncStage { return stages.Headers }

func (s *stage) Execute(ctx context.Context, tx kv.RwTx, input stagedsync.ExecInput) (stagedsync.ExecOutput, error) {
	prevProgress := common.BlockNumber(input.CurrentProgress)

	if prevProgress != 0 {
		if err := s.updateHead(tx, prevProgress); err != nil {
			return stagedsync.ExecOutput{}, err
		}
	}

	prevHash, err := rawdb.ReadCanonicalHash(tx, prevProgress)
	if err != nil {
		return stagedsync.ExecOutput{}, stagedsync.NewStageError(stagedsync.KindDb, err)
	}
	if prevHash == (common.Hash{}) && prevProgress != 0 {
		return stagedsync.ExecOutput{}, stagedsync.NewStageError(
			stagedsync.KindInternal,
			fmt.Errorf("no canonical hash for block %d", prevProgress),
		)
	}

	startingBlock := prevProgress + 1

	tip, err := s.pollChainTip(ctx, startingBlock)
	if err != nil {
		return stagedsync.ExecOutput{}, err
	}

	target := tip
	reachedTip := true
	if uint64(prevProgress)+s.cfg.StageUpperBound < uint64(tip) {
		target = prevProgress + common.BlockNumber(s.cfg.StageUpperBound)
		reachedTip = false
	}

	headersCap := uint64(target - startingBlock)

	var chain []*types.BlockHeader
	cursor := startingBlock
	for uint64(len(chain)) < headersCap {
		s.graph.Clear()
		if err := s.downloadHeaders(ctx, cursor-1, target); err != nil {
			return stagedsync.ExecOutput{}, err
		}

		tipHeader, ok := s.graph.DFS()
		if !ok {
			// Nothing usable arrived this round; try again next cycle
			// rather than spinning forever on an unresponsive network.
			break
		}
		got, ok := s.graph.Backtrack(tipHeader.Hash())
		if !ok || len(got) == 0 {
			break
		}

		attachesTo := prevHash
		if len(chain) > 0 {
			attachesTo = chain[len(chain)-1].Hash()
		}
		if got[0].ParentHash != attachesTo {
			unwindTo := uint64(0)
			if prevProgress > 0 {
				unwindTo = uint64(prevProgress) - 1
			}
			return stagedsync.ExecOutput{}, stagedsync.NewReorgError(
				unwindTo,
				fmt.Errorf("header chain at block %d does not attach to our canonical tip", got[0].Number),
			)
		}

		if err := s.verifySeals(ctx, got); err != nil {
			return stagedsync.ExecOutput{}, err
		}

		chain = append(chain, got...)
		cursor = chain[len(chain)-1].Number + 1
	}

	stageProgress := prevProgress

	td, err := rawdb.ReadTotalDifficulty(tx, prevProgress, prevHash)
	if err != nil {
		return stagedsync.ExecOutput{}, stagedsync.NewStageError(stagedsync.KindDb, err)
	}
	if td == nil {
		td = uint256.NewInt(0)
	}

	prev := prevHash
	for _, h := range chain {
		if h.Number == 0 {
			continue
		}
		if h.ParentHash != prev {
			return stagedsync.ExecOutput{}, stagedsync.NewReorgError(
				uint64(h.Number)-1,
				fmt.Errorf("header chain discontinuity at block %d", h.Number),
			)
		}
		if s.cfg.Node.IsBadBlock(h.Hash()) {
			return stagedsync.ExecOutput{}, stagedsync.NewStageError(
				stagedsync.KindConsensusRejected,
				fmt.Errorf("block %d is a known-bad block", h.Number),
			)
		}

		td = new(uint256.Int).Add(td, new(uint256.Int).SetUint64(h.Difficulty))

		if err := rawdb.WriteHeader(tx, h); err != nil {
			return stagedsync.ExecOutput{}, stagedsync.NewStageError(stagedsync.KindDb, err)
		}
		if err := rawdb.WriteCanonicalHash(tx, h.Number, h.Hash()); err != nil {
			return stagedsync.ExecOutput{}, stagedsync.NewStageError(stagedsync.KindDb, err)
		}
		if err := rawdb.WriteHeaderNumber(tx, h.Hash(), h.Number); err != nil {
			return stagedsync.ExecOutput{}, stagedsync.NewStageError(stagedsync.KindDb, err)
		}
		if err := rawdb.WriteTotalDifficulty(tx, h.Number, h.Hash(), td); err != nil {
			return stagedsync.ExecOutput{}, stagedsync.NewStageError(stagedsync.KindDb, err)
		}

		stageProgress = h.Number
		prev = h.Hash()
	}

	return stagedsync.ExecOutput{
		Progress: uint64(stageProgress),
		Done:     reachedTip,
	}, nil
}

// updateHead refreshes the peer-to-peer collaborator's advertised chain
// head from the canonical header already committed at height (hash and
// cumulative difficulty), so peers see our true position before we start
// asking them for anything past it.
func (s *stage) updateHead(tx kv.Tx, height common.BlockNumber) error {
	hash, err := rawdb.ReadCanonicalHash(tx, height)
	if err != nil {
		return stagedsync.NewStageError(stagedsync.KindDb, err)
	}
	if hash == (common.Hash{}) {
		return nil
	}
	td, err := rawdb.ReadTotalDifficulty(tx, height, hash)
	if err != nil {
		return stagedsync.NewStageError(stagedsync.KindDb, err)
	}
	s.cfg.Node.UpdateChainHead(height, hash, td)
	return nil
}

// pollChainTip blocks, sleeping BackOff between checks, until the node's
// best known peer tip has advanced past startingBlock.
func (s *stage) pollChainTip(ctx context.Context, startingBlock common.BlockNumber) (common.BlockNumber, error) {
	backOff := s.cfg.BackOff
	if backOff <= 0 {
		backOff = BackOff
	}
	for {
		tip, _ := s.cfg.Node.ChainTip()
		if tip > startingBlock {
			return tip, nil
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(backOff):
		}
	}
}

// Unwind deletes every canonical header above UnwindTo, oldest-last so a
// crash mid-unwind never leaves a gap below the new progress mark.
func (s *stage) Unwind(ctx context.Context, tx kv.RwTx, input stagedsync.UnwindInput) (stagedsync.UnwindOutput, error) {
	current, err := currentStageProgress(tx)
	if err != nil {
		return stagedsync.UnwindOutput{}, err
	}
	for n := current; n > common.BlockNumber(input.UnwindTo); n-- {
		hash, err := rawdb.ReadCanonicalHash(tx, n)
		if err != nil {
			return stagedsync.UnwindOutput{}, stagedsync.NewStageError(stagedsync.KindDb, err)
		}
		if hash == (common.Hash{}) {
			continue
		}
		if err := rawdb.DeleteHeader(tx, n, hash); err != nil {
			return stagedsync.UnwindOutput{}, stagedsync.NewStageError(stagedsync.KindDb, err)
		}
		if err := rawdb.DeleteCanonicalHash(tx, n); err != nil {
			return stagedsync.UnwindOutput{}, stagedsync.NewStageError(stagedsync.KindDb, err)
		}
	}
	return stagedsync.UnwindOutput{Progress: input.UnwindTo}, nil
}

// currentStageProgress recovers this stage's progress from the highest
// canonical header actually present, since Unwind runs in its own
// transaction and cannot see the driver's in-memory progress value.
func currentStageProgress(tx kv.Tx) (common.BlockNumber, error) {
	c, err := tx.Cursor(kv.HeaderCanonical)
	if err != nil {
		return 0, stagedsync.NewStageError(stagedsync.KindDb, err)
	}
	defer c.Close()
	k, _, err := c.Last()
	if err != nil {
		return 0, stagedsync.NewStageError(stagedsync.KindDb, err)
	}
	if k == nil {
		return 0, nil
	}
	n, err := common.BytesToBlockNumber(k)
	if err != nil {
		return 0, stagedsync.NewStageError(stagedsync.KindInternal, err)
	}
	return n, nil
}
