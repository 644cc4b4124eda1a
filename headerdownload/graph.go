// Package headerdownload implements the header graph and the
// header-download stage built on top of it: concurrent fetch, receive,
// verify and canonical-commit, grounded on the Rust original's
// stages::headers module.
package headerdownload

import (
	"bytes"
	"sync"

	"github.com/erigontech/erigon-core/core/types"
	"github.com/erigontech/erigon-core/erigon-lib/common"
)

const graphShards = 16

// Graph is the concurrently-populated hash-keyed DAG of headers received
// so far. There is no direct Go analogue of the Rust original's DashMap in
// the retrieved example pack, so concurrency is handled here with a
// manually sharded sync.RWMutex map — the standard Go idiom for this
// concern (see DESIGN.md).
type Graph struct {
	shards [graphShards]struct {
		mu sync.RWMutex
		m  map[common.Hash]*types.BlockHeader
	}
}

func NewGraph() *Graph {
	g := &Graph{}
	for i := range g.shards {
		g.shards[i].m = make(map[common.Hash]*types.BlockHeader)
	}
	return g
}

func (g *Graph) shard(hash common.Hash) int { return int(hash[0]) % graphShards }

// Extend adds header to the graph, keyed by its own hash. Returns false if
// a header with that hash was already present (a duplicate delivery).
func (g *Graph) Extend(header *types.BlockHeader) bool {
	hash := header.Hash()
	s := &g.shards[g.shard(hash)]
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.m[hash]; exists {
		return false
	}
	s.m[hash] = header
	return true
}

func (g *Graph) Contains(hash common.Hash) bool {
	s := &g.shards[g.shard(hash)]
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.m[hash]
	return ok
}

func (g *Graph) Get(hash common.Hash) (*types.BlockHeader, bool) {
	s := &g.shards[g.shard(hash)]
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.m[hash]
	return h, ok
}

func (g *Graph) Len() int {
	n := 0
	for i := range g.shards {
		g.shards[i].mu.RLock()
		n += len(g.shards[i].m)
		g.shards[i].mu.RUnlock()
	}
	return n
}

func (g *Graph) Clear() {
	for i := range g.shards {
		g.shards[i].mu.Lock()
		g.shards[i].m = make(map[common.Hash]*types.BlockHeader)
		g.shards[i].mu.Unlock()
	}
}

// DFS picks the graph's best tip candidate: among headers that are not
// themselves any other header's parent (the graph's leaves), the one with
// the highest block number, tie-broken by lexicographically smallest hash
// so concurrent peers racing to deliver the same height converge on one
// winner.
func (g *Graph) DFS() (*types.BlockHeader, bool) {
	parents := make(map[common.Hash]bool)
	all := make(map[common.Hash]*types.BlockHeader)
	for i := range g.shards {
		g.shards[i].mu.RLock()
		for hash, h := range g.shards[i].m {
			all[hash] = h
			parents[h.ParentHash] = true
		}
		g.shards[i].mu.RUnlock()
	}

	var best *types.BlockHeader
	var bestHash common.Hash
	for hash, h := range all {
		if parents[hash] {
			continue
		}
		if best == nil || h.Number > best.Number ||
			(h.Number == best.Number && bytes.Compare(hash[:], bestHash[:]) < 0) {
			best, bestHash = h, hash
		}
	}
	return best, best != nil
}

// Backtrack walks parent pointers from tail back through the graph,
// returning the chain from the earliest ancestor still present in the
// graph up to tail, oldest first.
func (g *Graph) Backtrack(tail common.Hash) ([]*types.BlockHeader, bool) {
	var chain []*types.BlockHeader
	cur := tail
	for {
		h, ok := g.Get(cur)
		if !ok {
			break
		}
		chain = append(chain, h)
		cur = h.ParentHash
	}
	if len(chain) == 0 {
		return nil, false
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, true
}
