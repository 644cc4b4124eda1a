// Package fakenode is a scriptable, in-process p2p.Node used by
// header-download-stage tests: it serves headers from a fixed in-memory
// chain instead of a real devp2p transport, grounded on the task-group and
// channel shapes in the Rust original's downloader_linear module.
package fakenode

import (
	"context"
	"sync"

	"github.com/holiman/uint256"

	"github.com/erigontech/erigon-core/core/types"
	"github.com/erigontech/erigon-core/erigon-lib/common"
	"github.com/erigontech/erigon-core/p2p"
)

// FakeNode serves HeaderRequests against a fixed chain, indexed by height,
// round-robining responses across a fixed peer set.
type FakeNode struct {
	mu sync.Mutex

	chain []*types.BlockHeader // sorted ascending by Number
	peers []p2p.PeerID
	next  int

	penalized map[p2p.PeerID]int
	badBlocks map[common.Hash]bool

	networkTip      common.BlockNumber
	networkTipHash  common.Hash
	localHeadNumber common.BlockNumber
	localHeadHash   common.Hash
	localHeadTD     *uint256.Int

	ch chan p2p.HeadersMessage
}

func New(chain []*types.BlockHeader, peers []p2p.PeerID) *FakeNode {
	n := &FakeNode{
		chain:     chain,
		peers:     peers,
		penalized: make(map[p2p.PeerID]int),
		badBlocks: make(map[common.Hash]bool),
		ch:        make(chan p2p.HeadersMessage, 256),
	}
	if len(chain) > 0 {
		last := chain[len(chain)-1]
		n.networkTip, n.networkTipHash = last.Number, last.Hash()
	}
	return n
}

func (n *FakeNode) StreamHeaders(ctx context.Context) (<-chan p2p.HeadersMessage, error) {
	return n.ch, nil
}

func (n *FakeNode) SendManyHeaderRequests(ctx context.Context, reqs []p2p.HeaderRequest) error {
	n.mu.Lock()
	peers := append([]p2p.PeerID(nil), n.peers...)
	start := n.next
	n.next += len(reqs)
	n.mu.Unlock()

	for i, req := range reqs {
		req := req
		peer := p2p.PeerID("no-peers")
		if len(peers) > 0 {
			peer = peers[(start+i)%len(peers)]
		}
		headers := n.serve(req)
		msg := p2p.HeadersMessage{Peer: peer, Headers: headers}
		select {
		case n.ch <- msg:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (n *FakeNode) serve(req p2p.HeaderRequest) []*types.BlockHeader {
	n.mu.Lock()
	defer n.mu.Unlock()

	var out []*types.BlockHeader
	for _, h := range n.chain {
		// A reverse request collects every header up to Start and keeps
		// the Limit highest via the trim below.
		if !req.Reverse && uint64(len(out)) >= req.Limit {
			break
		}
		if req.Reverse {
			if h.Number <= req.Start {
				out = append([]*types.BlockHeader{h}, out...)
			}
			continue
		}
		if h.Number >= req.Start {
			out = append(out, h)
		}
	}
	if uint64(len(out)) > req.Limit {
		out = out[:req.Limit]
	}
	return out
}

func (n *FakeNode) PenalizePeer(peer p2p.PeerID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.penalized[peer]++
}

// PenaltyCount reports how many times peer has been penalized, letting
// tests assert a misbehaving peer was actually caught.
func (n *FakeNode) PenaltyCount(peer p2p.PeerID) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.penalized[peer]
}

func (n *FakeNode) MarkBadBlock(hash common.Hash) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.badBlocks[hash] = true
}

func (n *FakeNode) IsBadBlock(hash common.Hash) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.badBlocks[hash]
}

func (n *FakeNode) UpdateChainHead(number common.BlockNumber, hash common.Hash, td *uint256.Int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.localHeadNumber, n.localHeadHash, n.localHeadTD = number, hash, td
}

// LocalHead reports the last value passed to UpdateChainHead, letting
// tests assert the head hint actually advanced before downloading.
func (n *FakeNode) LocalHead() (common.BlockNumber, common.Hash, *uint256.Int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.localHeadNumber, n.localHeadHash, n.localHeadTD
}

func (n *FakeNode) ChainTip() (common.BlockNumber, common.Hash) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.networkTip, n.networkTipHash
}

// SetNetworkTip lets a test move the simulated network's head, e.g. to
// exercise the stage polling for new work after it catches up.
func (n *FakeNode) SetNetworkTip(number common.BlockNumber, hash common.Hash) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.networkTip, n.networkTipHash = number, hash
}

// InjectHeaders pushes a HeadersMessage directly onto the stream, for
// tests simulating an unsolicited or malicious response.
func (n *FakeNode) InjectHeaders(peer p2p.PeerID, headers []*types.BlockHeader) {
	n.ch <- p2p.HeadersMessage{Peer: peer, Headers: headers}
}
