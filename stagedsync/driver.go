package stagedsync

import (
	"context"
	"encoding/binary"

	"github.com/erigontech/erigon-core/erigon-lib/kv"
	"github.com/erigontech/erigon-core/erigon-lib/log3"
	"github.com/erigontech/erigon-core/stagedsync/stages"
)

// Sync drives a fixed ordered pipeline of stages: one forward pass runs
// every stage in order, committing its own transaction per stage; a
// KindReorg error from any stage triggers an unwind of that stage and every
// later stage, in reverse order, down to the error's UnwindTo before forward execution
// resumes.
type Sync struct {
	stages []Stage
	log    log3.Logger
}

func NewSync(stageList []Stage, logger log3.Logger) *Sync {
	if logger == nil {
		logger = log3.Nop()
	}
	return &Sync{stages: stageList, log: logger}
}

func progressKey(id stages.SyncStage) []byte { return []byte(id) }

func getProgress(tx kv.Tx, id stages.SyncStage) (uint64, error) {
	v, err := tx.GetOne(kv.SyncStageProgress, progressKey(id))
	if err != nil {
		return 0, kv.WrapDbErr(err)
	}
	if v == nil {
		return 0, nil
	}
	return binary.BigEndian.Uint64(v), nil
}

func putProgress(tx kv.RwTx, id stages.SyncStage, progress uint64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], progress)
	return kv.WrapDbErr(tx.Put(kv.SyncStageProgress, progressKey(id), b[:]))
}

// Run executes one forward pass over every stage, handling any KindReorg
// by unwinding the affected stages and retrying the pass, per spec.md §7's
// "driver commits per-stage and unwinds stages in reverse order" design.
func (s *Sync) Run(ctx context.Context, db kv.RwDB) error {
	for {
		reorg, err := s.forward(ctx, db)
		if err != nil {
			return err
		}
		if reorg == nil {
			return nil
		}
		if err := s.unwindTo(ctx, db, reorg.stageIndex, reorg.unwindTo); err != nil {
			return err
		}
	}
}

type reorgSignal struct {
	stageIndex int
	unwindTo   uint64
}

func (s *Sync) forward(ctx context.Context, db kv.RwDB) (*reorgSignal, error) {
	var prevProgress uint64
	for i, stage := range s.stages {
		for {
			var out ExecOutput
			err := db.Update(ctx, func(tx kv.RwTx) error {
				progress, err := getProgress(tx, stage.ID())
				if err != nil {
					return err
				}
				out, err = stage.Execute(ctx, tx, ExecInput{PrevStageProgress: prevProgress, CurrentProgress: progress})
				if err != nil {
					return err
				}
				if out.Progress < progress {
					out.Progress = progress
				}
				return putProgress(tx, stage.ID(), out.Progress)
			})
			if err != nil {
				if se, ok := err.(*StageError); ok && se.Kind == KindReorg {
					return &reorgSignal{stageIndex: i, unwindTo: se.UnwindTo}, nil
				}
				return nil, err
			}
			s.log.Debug("stage executed", "stage", string(stage.ID()), "progress", out.Progress, "done", out.Done)
			if out.Done {
				prevProgress = out.Progress
				break
			}
		}
	}
	return nil, nil
}

// unwindTo rolls every stage from the last one back to stageIndex to
// unwindTo, in reverse pipeline order, so a later stage never observes
// state an earlier stage has already discarded.
func (s *Sync) unwindTo(ctx context.Context, db kv.RwDB, stageIndex int, unwindTo uint64) error {
	for i := len(s.stages) - 1; i >= stageIndex; i-- {
		stage := s.stages[i]
		err := db.Update(ctx, func(tx kv.RwTx) error {
			out, err := stage.Unwind(ctx, tx, UnwindInput{UnwindTo: unwindTo})
			if err != nil {
				return err
			}
			return putProgress(tx, stage.ID(), out.Progress)
		})
		if err != nil {
			return err
		}
		s.log.Info("stage unwound", "stage", string(stage.ID()), "to", unwindTo)
	}
	return nil
}
