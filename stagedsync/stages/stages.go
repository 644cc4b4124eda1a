// Package stages lists the stage-id constants the driver iterates in
// order, mirroring eth/stagedsync/stages referenced throughout the
// teacher's stagedsync call sites (stages.Execution and friends).
package stages

type SyncStage string

const (
	Headers   SyncStage = "Headers"
	BlockHashes SyncStage = "BlockHashes"
	Bodies    SyncStage = "Bodies"
	Senders   SyncStage = "Senders"
	Execution SyncStage = "Execution"
)

// ForwardOrder is the order stages execute in on a forward run; Unwind
// runs stages in the reverse of this order.
var ForwardOrder = []SyncStage{Headers, BlockHashes, Bodies, Senders, Execution}
