package vmm

import (
	"github.com/analogrelay/roxy/kernel"
	"github.com/analogrelay/roxy/kernel/cpu"
	"github.com/analogrelay/roxy/kernel/mem"
	"github.com/analogrelay/roxy/kernel/mem/pmm"
)

var (
	// the following functions are mocked by tests and are automatically
	// inlined by the compiler.
	flushTLBEntryFn = cpu.FlushTLBEntry
	frameAllocFn    = pmm.AllocFrame

	errNoHugePageSupport = &kernel.Error{Module: "vmm", Message: "huge pages are not supported"}
	errAlreadyMapped     = &kernel.Error{Module: "vmm", Message: "virtual page is already mapped"}
)

// Map establishes a mapping between a virtual page and a physical memory
// frame in the currently active page tables and flushes the TLB entry for
// the page. Missing intermediate page tables are allocated through the
// registered frame allocator and zeroed before use.
//
// Attempts to map a page that is already mapped return an error: the frames
// mapped by this kernel are always freshly allocated, so an existing mapping
// indicates a bookkeeping bug.
func Map(page Page, frame pmm.Frame, flags PageTableEntryFlag) *kernel.Error {
	var err *kernel.Error

	walk(page.Address(), func(pteLevel uint8, pte *pageTableEntry) bool {
		// The last level entry maps the frame itself
		if pteLevel == pageLevels-1 {
			if pte.HasFlags(FlagPresent) {
				err = errAlreadyMapped
				return false
			}

			*pte = 0
			pte.SetFrame(frame)
			pte.SetFlags(flags)
			flushTLBEntryFn(page.Address())
			return true
		}

		if pte.HasFlags(FlagHugePage) {
			err = errNoHugePageSupport
			return false
		}

		// The next table does not exist yet; allocate a frame for it,
		// hook it up and clear its contents.
		if !pte.HasFlags(FlagPresent) {
			var newTableFrame pmm.Frame
			newTableFrame, err = frameAllocFn()
			if err != nil {
				return false
			}

			kernel.Memset(uintptr(physToVirtFn(newTableFrame.Address())), 0, uintptr(mem.PageSize))

			*pte = 0
			pte.SetFrame(newTableFrame)
			pte.SetFlags(FlagPresent | FlagRW)
		}

		return true
	})

	return err
}

// DropBootMappings zeroes every top-level page table entry that covers
// virtual addresses below the kernel image, discarding the identity
// mappings the loader established for its own use. Leaving them in place
// would keep low physical memory writable through stale virtual addresses,
// so this is a hygiene step and not merely cleanup.
func DropBootMappings() {
	var (
		tableAddr = activePDTFn()
		lastIndex = (KernelImageStart >> pageLevelShifts[0]) & ((1 << pageLevelBits[0]) - 1)
	)

	for entryIndex := uintptr(0); entryIndex < lastIndex; entryIndex++ {
		pte := (*pageTableEntry)(physToVirtFn(tableAddr + entryIndex<<mem.PointerShift))
		*pte = 0
	}
}
