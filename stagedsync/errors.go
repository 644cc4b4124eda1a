package stagedsync

import "github.com/pkg/errors"

// ErrorKind classifies a stage failure so the driver knows whether to
// retry, unwind, or abort the whole run (spec.md §7).
type ErrorKind int

const (
	// KindInternal is a fatal, unrecoverable bug — short-circuit straight
	// to driver rollback.
	KindInternal ErrorKind = iota
	// KindDb is a fatal storage-layer failure. Open Question (b): this is
	// returned as a typed error here, never via panic/.unwrap().
	KindDb
	// KindOutOfGas is a recoverable, local execution failure.
	KindOutOfGas
	// KindPeerMisbehaved is recoverable: penalize the peer and retry.
	KindPeerMisbehaved
	// KindReorg signals the canonical chain changed underneath this
	// stage; carries the block to unwind every later stage to.
	KindReorg
	// KindConsensusRejected is recoverable: the data was well-formed but
	// failed consensus validation.
	KindConsensusRejected
)

func (k ErrorKind) String() string {
	switch k {
	case KindInternal:
		return "Internal"
	case KindDb:
		return "Db"
	case KindOutOfGas:
		return "OutOfGas"
	case KindPeerMisbehaved:
		return "PeerMisbehaved"
	case KindReorg:
		return "Reorg"
	case KindConsensusRejected:
		return "ConsensusRejected"
	default:
		return "Unknown"
	}
}

// StageError wraps a stage failure with the kind the driver needs to
// decide what to do next, and the underlying cause via pkg/errors so a
// stack trace survives the wrap.
type StageError struct {
	Kind ErrorKind
	// UnwindTo is set only for KindReorg: every stage must unwind to this
	// block number before forward execution resumes.
	UnwindTo uint64
	Cause    error
}

func (e *StageError) Error() string {
	return e.Kind.String() + ": " + e.Cause.Error()
}

func (e *StageError) Unwrap() error { return e.Cause }

func NewStageError(kind ErrorKind, cause error) *StageError {
	return &StageError{Kind: kind, Cause: errors.WithStack(cause)}
}

func NewReorgError(unwindTo uint64, cause error) *StageError {
	return &StageError{Kind: KindReorg, UnwindTo: unwindTo, Cause: errors.WithStack(cause)}
}

// IsFatal reports whether kind should abort the run outright rather than
// being handled by the driver's unwind/retry logic.
func (k ErrorKind) IsFatal() bool { return k == KindInternal || k == KindDb }
