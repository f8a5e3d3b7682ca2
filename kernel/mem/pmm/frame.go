// Package pmm contains the types and pure algorithms for accounting physical
// memory: page frames, memory region kinds, the region interval algebra and
// the canonical memory map assembled from them.
package pmm

import (
	"math"

	"github.com/analogrelay/roxy/kernel"
	"github.com/analogrelay/roxy/kernel/mem"
)

// Frame describes a physical memory page index.
type Frame uintptr

const (
	// InvalidFrame is returned by page allocators when they fail to
	// reserve the requested frame.
	InvalidFrame = Frame(math.MaxUint64)
)

// Valid returns true if this is a valid frame.
func (f Frame) Valid() bool {
	return f != InvalidFrame
}

// Address returns the physical memory address where this Frame starts.
func (f Frame) Address() uintptr {
	return uintptr(f << mem.PageShift)
}

// FrameFromAddress returns the Frame containing the given physical address.
// Addresses that are not page-aligned are rounded down to the frame that
// contains them.
func FrameFromAddress(physAddr uintptr) Frame {
	return Frame((physAddr & ^uintptr(mem.PageSize-1)) >> mem.PageShift)
}

// FrameAllocatorFn is a function that can allocate physical frames.
type FrameAllocatorFn func() (Frame, *kernel.Error)

// frameAllocator points to the frame allocator function registered via
// SetFrameAllocator.
var frameAllocator FrameAllocatorFn

// SetFrameAllocator registers a frame allocator function that is used
// whenever kernel code needs a new physical frame.
func SetFrameAllocator(allocFn FrameAllocatorFn) {
	frameAllocator = allocFn
}

// AllocFrame allocates a new physical frame using the currently registered
// frame allocator.
func AllocFrame() (Frame, *kernel.Error) {
	return frameAllocator()
}
