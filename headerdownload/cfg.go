package headerdownload

import (
	"time"

	"github.com/erigontech/erigon-core/consensus"
	"github.com/erigontech/erigon-core/p2p"
)

// These mirror the Rust original's stages::headers constants exactly:
// STAGE_UPPER_BOUND, HEADERS_UPPER_BOUND, BACK_OFF, REQUEST_INTERVAL.
const (
	StageUpperBound   = 3 << 15 // 98304 blocks processed per stage invocation
	HeadersUpperBound = 1 << 10 // 1024 headers requested per chunk
	BackOff           = 5 * time.Second
	RequestInterval   = 10 * time.Second
)

// Cfg carries a header-download stage's collaborators and tunables,
// following the teacher's functional-options Cfg-struct convention
// (StageExecuteBlocksCfg(...) ExecuteBlockCfg).
type Cfg struct {
	Node   p2p.Node
	Engine consensus.Engine

	BackOff           time.Duration
	RequestInterval   time.Duration
	StageUpperBound   uint64
	HeadersUpperBound uint64
}

// StageHeadersCfg builds a Cfg with the spec's default tunables.
func StageHeadersCfg(node p2p.Node, engine consensus.Engine) Cfg {
	return Cfg{
		Node:              node,
		Engine:            engine,
		BackOff:           BackOff,
		RequestInterval:   RequestInterval,
		StageUpperBound:   StageUpperBound,
		HeadersUpperBound: HeadersUpperBound,
	}
}
