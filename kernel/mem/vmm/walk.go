package vmm

import (
	"unsafe"

	"github.com/analogrelay/roxy/kernel/cpu"
	"github.com/analogrelay/roxy/kernel/mem"
)

var (
	// activePDTFn returns the physical address of the active top-level
	// page table. It is overridden by tests which cannot read CR3.
	activePDTFn = cpu.ActivePDT

	// physToVirtFn translates a physical address into a virtual address
	// through the loader-provided physical memory mapping. Tests override
	// it to point page table accesses at in-memory fixtures.
	physToVirtFn = func(physAddr uintptr) unsafe.Pointer {
		return unsafe.Pointer(PhysicalMapStart + physAddr)
	}
)

// pageTableWalker is a function that can be passed to the walk method. The
// function receives the current page table level and entry as its arguments.
// Returning false aborts the page walk.
type pageTableWalker func(pteLevel uint8, pte *pageTableEntry) bool

// walk performs a page table walk for the given virtual address starting at
// the active top-level table. It invokes walkFn with the page table entry
// that corresponds to each level. Entries are accessed through the physical
// memory mapping; the walker must arrange for the next table to be present
// before allowing the walk to descend into it.
func walk(virtAddr uintptr, walkFn pageTableWalker) {
	tableAddr := activePDTFn()

	for level := uint8(0); level < pageLevels; level++ {
		entryIndex := (virtAddr >> pageLevelShifts[level]) & ((1 << pageLevelBits[level]) - 1)
		pte := (*pageTableEntry)(physToVirtFn(tableAddr + entryIndex<<mem.PointerShift))

		if !walkFn(level, pte) {
			return
		}

		tableAddr = pte.Frame().Address()
	}
}
