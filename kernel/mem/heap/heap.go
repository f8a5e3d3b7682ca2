// Package heap performs the one-time initialization of the kernel heap
// allocator. The allocator algorithm itself lives outside this package; an
// implementation registers itself here and this package guarantees that it
// is initialized exactly once, under a lock that masks interrupts.
//
// Once initialized, the heap allocator becomes process-wide state that is
// reached from interrupt handlers and, later, from concurrently executing
// tasks. It is never torn down.
package heap

import (
	"github.com/analogrelay/roxy/kernel"
	"github.com/analogrelay/roxy/kernel/mem"
	"github.com/analogrelay/roxy/kernel/sync"
)

// Allocator is implemented by kernel heap allocators. Init hands the
// allocator the virtual address range it manages; the range must already be
// mapped and writable.
type Allocator interface {
	Init(heapStart uintptr, size mem.Size)
}

var (
	// heapLock guards the allocator state below. Interrupt handlers
	// allocate from the heap, so the critical section must mask
	// interrupts.
	heapLock sync.IrqSpinlock
	lockFn   = heapLock.Acquire
	unlockFn = heapLock.Release

	allocator   Allocator
	initialized bool

	errHeapNoAllocator = &kernel.Error{Module: "heap", Message: "no heap allocator registered"}
	errHeapReinit      = &kernel.Error{Module: "heap", Message: "heap allocator already initialized"}
)

// SetAllocator registers the heap allocator implementation that Init will
// initialize. It must be called before Init.
func SetAllocator(alloc Allocator) {
	lockFn()
	allocator = alloc
	unlockFn()
}

// Init initializes the registered heap allocator over the given virtual
// address range. The initialization happens exactly once per boot; further
// calls fail.
func Init(heapStart uintptr, size mem.Size) *kernel.Error {
	lockFn()
	defer unlockFn()

	if allocator == nil {
		return errHeapNoAllocator
	}

	if initialized {
		return errHeapReinit
	}

	allocator.Init(heapStart, size)
	initialized = true
	return nil
}
