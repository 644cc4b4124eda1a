// Package memory is the EVM execution memory subsystem: one mmap'd arena
// per worker goroutine, carved into per-call-frame stack and heap regions
// so a frame's memory is acquired and released without touching the
// allocator on the hot path. Grounded on the Rust original's
// execution::evm::state module (EvmMemory/EvmSubMemory/EvmStack).
package memory

import (
	"errors"

	"golang.org/x/sys/unix"
)

const (
	// WordSize is the EVM's native 256-bit stack/heap word, in bytes.
	WordSize = 32
	// StackSize is the number of words a call frame's stack region holds.
	StackSize = 1024
	// SuperStackSizeBytes is the total byte span reserved for every
	// in-flight frame's stack region within one arena.
	SuperStackSizeBytes = 32 * 1024 * 1024
	// TotalMemSize is the size of one worker's mmap'd arena: stack region
	// plus whatever remains for heap growth.
	TotalMemSize = 1 << 30
)

// PageSize selects the mapping's backing page size; larger pages reduce
// TLB pressure for an arena this size at the cost of coarser demand paging.
type PageSize int

const (
	PageSize4K PageSize = 1 << 12
	PageSize2M PageSize = 1 << 21
	PageSize1G PageSize = 1 << 30
)

var (
	ErrArenaExhausted  = errors.New("memory: arena exhausted")
	ErrStackOverflow   = errors.New("memory: stack overflow")
	ErrStackUnderflow  = errors.New("memory: stack underflow")
	ErrOutOfGas        = errors.New("memory: out of gas growing heap")
)

// Arena is a single mmap'd region backing every call frame live on one
// worker goroutine at once. Frames are acquired and released in strict
// LIFO order, mirroring the call stack they represent: acquiring a frame
// bumps stackTop down by a fixed-size slice of the super-stack region;
// releasing it gives that slice back. The arena itself carries no notion
// of "the current heap base" — each frame derives its own heap region
// from whichever frame acquired it (see RootFrame and
// SubMemory.NextSubMemory), exactly as the original's EvmMemory does.
type Arena struct {
	mem      []byte
	stackTop int // byte offset: lower bound of the already-reserved part of the super-stack region
}

// NewArena reserves a fresh TotalMemSize-byte anonymous mapping. The
// mapping is demand-paged: reserving it costs address space, not resident
// memory, so a worker pool can afford one per goroutine.
func NewArena(pageSize PageSize) (*Arena, error) {
	flags := unix.MAP_PRIVATE | unix.MAP_ANON
	// Linux reads log2 of the requested huge page size from the flag bits
	// starting at MAP_HUGE_SHIFT (26).
	const hugePageShift = 26
	switch pageSize {
	case PageSize2M:
		flags |= unix.MAP_HUGETLB | 21<<hugePageShift
	case PageSize1G:
		flags |= unix.MAP_HUGETLB | 30<<hugePageShift
	}
	mem, err := unix.Mmap(-1, 0, TotalMemSize, unix.PROT_READ|unix.PROT_WRITE, flags)
	if err != nil {
		return nil, err
	}
	return &Arena{mem: mem, stackTop: SuperStackSizeBytes}, nil
}

// Close unmaps the arena. Callers must release every outstanding
// SubMemory first.
func (a *Arena) Close() error { return unix.Munmap(a.mem) }

// RootFrame acquires the outermost call frame, the one with no parent:
// its heap begins at the arena's heap-region origin, immediately past the
// super-stack region, mirroring the Rust original's EvmMemory::get_origin.
// Every nested frame after this one is acquired via SubMemory.NextSubMemory
// instead, deriving its heap base from its own parent rather than from the
// arena.
func (a *Arena) RootFrame() (*SubMemory, error) {
	return a.acquireFrame(SuperStackSizeBytes)
}

// acquireFrame is a pointer bump, never a syscall ("zero-cost acquire"):
// it reserves the next fixed-size slice of the super-stack region and
// hands the caller-supplied heapBase to the new frame.
func (a *Arena) acquireFrame(heapBase int) (*SubMemory, error) {
	reserve := StackSize * WordSize
	if a.stackTop-reserve < 0 {
		return nil, ErrArenaExhausted
	}
	a.stackTop -= reserve
	return &SubMemory{
		arena:     a,
		stackBase: a.stackTop + reserve,
		heapBase:  heapBase,
	}, nil
}
