// Package consensus declares the pure validation boundary the
// header-download stage calls into: this module implements no consensus
// engine itself (clique, ethash, ...), only the interface and the seal
// verification call sites that use it.
package consensus

import "github.com/erigontech/erigon-core/core/types"

// Engine validates one header against its parent. Implementations must be
// safe for concurrent use: the header-download stage calls
// ValidateBlockHeader from many goroutines at once during parallel seal
// verification.
type Engine interface {
	// ValidateBlockHeader checks header's fields against parent
	// (difficulty progression, timestamp ordering, gas limit bounds) and,
	// if withSeal is true, verifies the consensus seal (e.g. a clique
	// signature or a PoW nonce) as well.
	ValidateBlockHeader(header, parent *types.BlockHeader, withSeal bool) error
}
