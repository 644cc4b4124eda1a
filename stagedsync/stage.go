package stagedsync

import (
	"context"

	"github.com/erigontech/erigon-core/erigon-lib/kv"
	"github.com/erigontech/erigon-core/stagedsync/stages"
)

// ExecInput tells a stage how far the preceding stage has progressed (the
// upper bound it may advance to this run) and how far it had itself
// progressed as of the end of the previous run (where to resume from).
type ExecInput struct {
	PrevStageProgress uint64
	CurrentProgress   uint64
}

// ExecOutput is a stage's new progress after a forward run.
type ExecOutput struct {
	Progress uint64
	// Done reports whether the stage drained all available work (false
	// means the driver should re-invoke it again this cycle, e.g. a
	// download stage that hit a batch-size limit).
	Done bool
}

// UnwindInput tells a stage the block height to unwind back to.
type UnwindInput struct {
	UnwindTo uint64
}

// UnwindOutput is a stage's new progress after an unwind.
type UnwindOutput struct {
	Progress uint64
}

// Stage is one independent step of the sync pipeline: it reads and writes
// its own tables via tx and never reaches into another stage's state
// directly.
type Stage interface {
	ID() stages.SyncStage
	Execute(ctx context.Context, tx kv.RwTx, input ExecInput) (ExecOutput, error)
	Unwind(ctx context.Context, tx kv.RwTx, input UnwindInput) (UnwindOutput, error)
}
