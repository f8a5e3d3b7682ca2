// Package boot sequences the early initialization steps that take the kernel
// from the loader-provided environment to a self-sufficient one. The steps
// have strict ordering requirements; each function in this package documents
// the state it expects and the state it leaves behind.
package boot

import (
	"github.com/analogrelay/roxy/kernel"
	"github.com/analogrelay/roxy/kernel/hal/bootinfo"
	"github.com/analogrelay/roxy/kernel/mem"
	"github.com/analogrelay/roxy/kernel/mem/heap"
	"github.com/analogrelay/roxy/kernel/mem/pmm"
	"github.com/analogrelay/roxy/kernel/mem/pmm/allocator"
	"github.com/analogrelay/roxy/kernel/mem/vmm"
)

// initialHeapSize is the amount of virtual memory mapped and handed to the
// heap allocator during memory initialization. The heap grows beyond it on
// demand once the permanent frame allocator is online.
const initialHeapSize = 100 * mem.Kb

var (
	// the following functions are mocked by tests and are automatically
	// inlined by the compiler.
	dropBootMappingsFn = vmm.DropBootMappings
	allocInitFn        = allocator.Init
	allocFrameFn       = allocator.AllocFrame
	allocRetireFn      = allocator.Retire
	mapFn              = vmm.Map
	heapInitFn         = heap.Init
)

// InitMemory brings up the kernel memory subsystems using the memory region
// catalog supplied by the loader. It discards the loader's low mappings,
// initializes the early frame allocator, maps the initial kernel heap and
// hands it to the heap allocator, then retires the early allocator and
// returns the final memory map that accounts for every frame consumed
// during bootstrap.
//
// After InitMemory returns successfully no further early frame allocations
// are possible; all physical memory management goes through the returned
// memory map.
func InitMemory(regions []bootinfo.RawRegion) (*pmm.MemoryMap, *kernel.Error) {
	dropBootMappingsFn()

	if err := allocInitFn(regions); err != nil {
		return nil, err
	}

	if err := mapInitialHeap(); err != nil {
		return nil, err
	}

	if err := heapInitFn(vmm.KernelHeapStart, initialHeapSize); err != nil {
		return nil, err
	}

	return allocRetireFn()
}

// mapInitialHeap maps initialHeapSize bytes of physical memory at
// KernelHeapStart one page at a time, backing each page with a frame from
// the early allocator.
func mapInitialHeap() *kernel.Error {
	var (
		firstPage = vmm.PageFromAddress(vmm.KernelHeapStart)
		pageCount = uintptr((initialHeapSize + mem.PageSize - 1) / mem.PageSize)
	)

	for pageIndex := uintptr(0); pageIndex < pageCount; pageIndex++ {
		frame, err := allocFrameFn()
		if err != nil {
			return err
		}

		if err = mapFn(firstPage+vmm.Page(pageIndex), frame, vmm.FlagPresent|vmm.FlagRW); err != nil {
			return err
		}
	}

	return nil
}
