//go:build amd64

package vmm

// Fixed virtual address space layout. The loader is instructed to place the
// kernel image, stack and the full physical memory mapping at these
// addresses before handing over control.
const (
	// KernelImageStart is the virtual address where the kernel image is
	// loaded. Everything below it belongs to the loader's identity
	// mappings and is discarded during memory initialization.
	KernelImageStart = uintptr(0x8000_0000_0000)

	// KernelStackStart is the virtual address of the kernel stack.
	KernelStackStart = uintptr(0x9000_0000_0000)

	// KernelHeapStart is the virtual address where the kernel heap
	// begins.
	KernelHeapStart = uintptr(0xa000_0000_0000)

	// PhysicalMapStart is the virtual address where the loader maps all
	// of physical memory. Adding it to a physical address yields a
	// virtual address through which that physical memory can be
	// accessed; page table frames are reached this way.
	PhysicalMapStart = uintptr(0xc000_0000_0000)
)

const (
	// pageLevels indicates the number of page table levels supported by
	// the amd64 architecture.
	pageLevels = 4

	// ptePhysPageMask is a mask that allows us to extract the physical
	// memory address pointed to by a page table entry. For this
	// particular architecture, bits 12-51 contain the physical memory
	// address.
	ptePhysPageMask = uintptr(0x000ffffffffff000)
)

var (
	// pageLevelBits defines the number of virtual address bits that
	// correspond to each page table level. Each level uses 9 bits which
	// amounts to 512 entries per table.
	pageLevelBits = [pageLevels]uint8{9, 9, 9, 9}

	// pageLevelShifts defines the shift required to extract the table
	// index for each page table level from a virtual address.
	pageLevelShifts = [pageLevels]uint8{39, 30, 21, 12}
)

// PageTableEntryFlag describes a flag that can be applied to a page table
// entry.
type PageTableEntryFlag uintptr

const (
	// FlagPresent is set when the page is available in memory.
	FlagPresent PageTableEntryFlag = 1 << iota

	// FlagRW is set if the page can be written to.
	FlagRW

	// FlagUserAccessible is set if user-mode code can access this page.
	// If not set only kernel code can access this page.
	FlagUserAccessible

	// FlagWriteThroughCaching implies write-through caching when set and
	// write-back caching if cleared.
	FlagWriteThroughCaching

	// FlagDoNotCache prevents this page from being cached if set.
	FlagDoNotCache

	// FlagAccessed is set by the CPU when this page is accessed.
	FlagAccessed

	// FlagDirty is set by the CPU when this page is modified.
	FlagDirty

	// FlagHugePage is set when an entry maps a 2Mb page instead of
	// pointing to the next table level.
	FlagHugePage

	// FlagGlobal prevents the TLB entry for this page from being flushed
	// when the page tables are switched.
	FlagGlobal

	// FlagNoExecute marks the contents of a page as non-executable.
	FlagNoExecute = PageTableEntryFlag(1) << 63
)
