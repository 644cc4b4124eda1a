package headerdownload

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/erigontech/erigon-core/core/types"
	"github.com/erigontech/erigon-core/stagedsync"
)

// verifySeals checks every header in chain (after the first, which attaches
// to already-canonical state and is validated by the attach-point check in
// Execute) against its immediate parent concurrently, bounded to GOMAXPROCS
// workers. Workers race to record the lowest index that failed validation
// via a CAS loop, since any header at or after that index is unreachable
// once its ancestor is rejected — mirroring the Rust original's
// parallel seal-verification pass over a freshly backtracked chain.
func (s *stage) verifySeals(ctx context.Context, chain []*types.BlockHeader) error {
	if len(chain) < 2 {
		return nil
	}

	var minInvalid atomic.Uint64
	minInvalid.Store(uint64(len(chain)))

	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, runtime.GOMAXPROCS(0))

	for i := 1; i < len(chain); i++ {
		i := i
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-gctx.Done():
				return nil
			}
			defer func() { <-sem }()

			if uint64(i) >= minInvalid.Load() {
				return nil
			}
			if err := s.cfg.Engine.ValidateBlockHeader(chain[i], chain[i-1], false); err != nil {
				for {
					cur := minInvalid.Load()
					if uint64(i) >= cur {
						break
					}
					if minInvalid.CompareAndSwap(cur, uint64(i)) {
						break
					}
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	if idx := minInvalid.Load(); idx < uint64(len(chain)) {
		bad := chain[idx]
		s.cfg.Node.MarkBadBlock(bad.Hash())
		return stagedsync.NewStageError(
			stagedsync.KindConsensusRejected,
			fmt.Errorf("header %d failed seal validation", bad.Number),
		)
	}
	return nil
}
