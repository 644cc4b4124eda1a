package memory_test

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/erigontech/erigon-core/core/vm/memory"
)

// Mirrors the Rust original's #[test] fn stack(): push 0xde, 0xad, 0xbe,
// 0xef in that order; the word two slots below the top is 0xad; popping
// returns 0xef; the word two slots below the new top is 0xde.
func TestStack(t *testing.T) {
	arena, err := memory.NewArena(memory.PageSize4K)
	require.NoError(t, err)
	defer arena.Close()

	sm, err := arena.RootFrame()
	require.NoError(t, err)
	defer sm.Release()

	s := sm.Stack()
	for _, b := range []byte{0xde, 0xad, 0xbe, 0xef} {
		require.NoError(t, s.Push(uint256.NewInt(uint64(b))))
	}

	got, err := s.Get(2)
	require.NoError(t, err)
	require.Equal(t, uint64(0xad), got.Uint64())

	popped, err := s.Pop()
	require.NoError(t, err)
	require.Equal(t, uint64(0xef), popped.Uint64())

	got, err = s.Get(2)
	require.NoError(t, err)
	require.Equal(t, uint64(0xde), got.Uint64())
}

func TestSubMemoryRelease(t *testing.T) {
	arena, err := memory.NewArena(memory.PageSize4K)
	require.NoError(t, err)
	defer arena.Close()

	sm, err := arena.RootFrame()
	require.NoError(t, err)

	cost, err := sm.TryGrow(4, 1_000_000)
	require.NoError(t, err)
	require.Greater(t, cost, uint64(0))
	copy(sm.GetHeap(0, 1), []byte{1, 2, 3, 4})

	sm.Release()

	sm2, err := arena.RootFrame()
	require.NoError(t, err)
	_, err = sm2.TryGrow(4, 1_000_000)
	require.NoError(t, err)
	require.Equal(t, make([]byte, memory.WordSize), sm2.GetHeap(0, 1))
}

// TestNestedSubMemoryDoesNotAliasParentHeap exercises the actual CALL/CREATE
// case this arena exists for: a parent frame grows its heap, then acquires
// a still-live child frame via NextSubMemory. The child's heap must sit
// strictly past whatever the parent has already committed, so writes
// through one are never visible through the other, and releasing the
// child must not zero any of the parent's live data.
func TestNestedSubMemoryDoesNotAliasParentHeap(t *testing.T) {
	arena, err := memory.NewArena(memory.PageSize4K)
	require.NoError(t, err)
	defer arena.Close()

	parent, err := arena.RootFrame()
	require.NoError(t, err)
	defer parent.Release()

	_, err = parent.TryGrow(4, 1_000_000)
	require.NoError(t, err)
	parentHeap := parent.GetHeap(0, 4)
	for w, b := range []byte{0xaa, 0xbb, 0xcc, 0xdd} {
		for i := 0; i < memory.WordSize; i++ {
			parentHeap[w*memory.WordSize+i] = b
		}
	}

	child, err := parent.NextSubMemory()
	require.NoError(t, err)

	_, err = child.TryGrow(2, 1_000_000)
	require.NoError(t, err)
	copy(child.GetHeap(0, 1), []byte{0xff, 0xff, 0xff, 0xff})

	// The child's writes must not have touched the parent's already
	// committed heap bytes.
	require.Equal(t, byte(0xaa), parent.GetHeap(0, 1)[0])
	require.Equal(t, byte(0xdd), parent.GetHeap(3, 1)[0])

	child.Release()

	// Releasing the child zeroes only its own heap extent; the parent's
	// live data at the same offsets it held before must be untouched.
	require.Equal(t, byte(0xaa), parent.GetHeap(0, 1)[0])
	require.Equal(t, byte(0xdd), parent.GetHeap(3, 1)[0])
}
