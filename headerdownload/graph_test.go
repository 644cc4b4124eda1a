package headerdownload_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erigontech/erigon-core/core/types"
	"github.com/erigontech/erigon-core/erigon-lib/common"
	"github.com/erigontech/erigon-core/headerdownload"
)

func chainOf(n int) []*types.BlockHeader {
	headers := make([]*types.BlockHeader, n)
	parent := common.Hash{}
	for i := 0; i < n; i++ {
		h := &types.BlockHeader{Number: common.BlockNumber(i + 1), ParentHash: parent, GasLimit: uint64(i)}
		headers[i] = h
		parent = h.Hash()
	}
	return headers
}

func TestGraphExtendContainsLen(t *testing.T) {
	g := headerdownload.NewGraph()
	headers := chainOf(3)
	for _, h := range headers {
		require.True(t, g.Extend(h))
	}
	require.False(t, g.Extend(headers[0]), "re-extending a known header should report a duplicate")
	require.Equal(t, 3, g.Len())
	require.True(t, g.Contains(headers[1].Hash()))
}

func TestGraphDFSPicksHighestTip(t *testing.T) {
	g := headerdownload.NewGraph()
	headers := chainOf(5)
	for _, h := range headers {
		g.Extend(h)
	}
	tip, ok := g.DFS()
	require.True(t, ok)
	require.Equal(t, headers[len(headers)-1].Hash(), tip.Hash())
}

func TestGraphBacktrack(t *testing.T) {
	g := headerdownload.NewGraph()
	headers := chainOf(4)
	for _, h := range headers {
		g.Extend(h)
	}
	chain, ok := g.Backtrack(headers[3].Hash())
	require.True(t, ok)
	require.Len(t, chain, 4)
	require.Equal(t, headers[0].Hash(), chain[0].Hash())
	require.Equal(t, headers[3].Hash(), chain[3].Hash())
}

func TestGraphClear(t *testing.T) {
	g := headerdownload.NewGraph()
	for _, h := range chainOf(2) {
		g.Extend(h)
	}
	g.Clear()
	require.Equal(t, 0, g.Len())
}
