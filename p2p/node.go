// Package p2p declares this module's peer network boundary. No transport
// is implemented here (devp2p wire protocol is out of scope per spec.md
// §1/§6); this is the Node interface the header-download stage programs
// against, plus the message/request shapes that cross it.
package p2p

import (
	"context"

	"github.com/holiman/uint256"

	"github.com/erigontech/erigon-core/core/types"
	"github.com/erigontech/erigon-core/erigon-lib/common"
)

type PeerID string

// HeaderRequest asks for up to Limit headers starting at Start, in
// reverse order if Reverse is set — mirroring the GetBlockHeaders devp2p
// message this module never implements directly.
type HeaderRequest struct {
	Start   common.BlockNumber
	Limit   uint64
	Reverse bool
}

// HeadersMessage is an inbound batch of headers attributed to the peer
// that sent them, so the receiver can penalize misbehaving peers without
// re-deriving who sent what.
type HeadersMessage struct {
	Peer    PeerID
	Headers []*types.BlockHeader
}

// Status is this node's self-reported chain position, exchanged on peer
// handshake.
type Status struct {
	Head            common.Hash
	HeadNumber      common.BlockNumber
	TotalDifficulty *uint256.Int
}

// Node is the collaborator the header-download stage drives: it never
// touches a socket directly, only this interface.
type Node interface {
	// StreamHeaders delivers every inbound header batch until ctx is
	// canceled or the returned channel is drained and closed.
	StreamHeaders(ctx context.Context) (<-chan HeadersMessage, error)
	// SendManyHeaderRequests dispatches one request per element of reqs,
	// fanned out across known peers.
	SendManyHeaderRequests(ctx context.Context, reqs []HeaderRequest) error
	// PenalizePeer drops/deprioritizes a peer that sent invalid or
	// unresponsive data.
	PenalizePeer(peer PeerID)
	// MarkBadBlock records hash as known-invalid so it is never
	// re-requested or re-accepted from another peer.
	MarkBadBlock(hash common.Hash)
	// IsBadBlock reports whether hash was previously marked bad.
	IsBadBlock(hash common.Hash) bool
	// UpdateChainHead advances this node's advertised chain tip and
	// cumulative difficulty, announced to peers on their next status
	// exchange.
	UpdateChainHead(number common.BlockNumber, hash common.Hash, td *uint256.Int)
	// ChainTip returns the best known tip across all connected peers,
	// i.e. what this stage is trying to catch up to.
	ChainTip() (common.BlockNumber, common.Hash)
}
