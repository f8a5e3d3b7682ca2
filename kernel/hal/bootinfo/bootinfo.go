// Package bootinfo provides access to the boot information payload that the
// loader passes to the kernel entry point. The payload lives in memory that
// the loader reserves; this package overlays Go types on top of it without
// copying so it can be used before any allocator exists.
package bootinfo

import "unsafe"

// RawRegionType describes the usage type of a firmware-reported memory
// region.
type RawRegionType uint32

const (
	// RawUsable indicates a region that is free for the kernel to use.
	RawUsable RawRegionType = iota

	// RawReservedBootloader indicates a region withheld by the bootloader
	// (loader code, boot information, initial page tables).
	RawReservedBootloader

	// RawReservedBios indicates a region reserved by the BIOS firmware.
	// The region kind carries the raw e820 type code.
	RawReservedBios

	// RawReservedUefi indicates a region reserved by UEFI firmware. The
	// region kind carries the raw UEFI memory descriptor type code.
	RawReservedUefi

	// RawReservedUnknown indicates a reserved region of unknown origin.
	RawReservedUnknown
)

// String implements fmt.Stringer for RawRegionType.
func (t RawRegionType) String() string {
	switch t {
	case RawUsable:
		return "usable"
	case RawReservedBootloader:
		return "reserved (bootloader)"
	case RawReservedBios:
		return "reserved (BIOS)"
	case RawReservedUefi:
		return "reserved (UEFI)"
	default:
		return "reserved (unknown)"
	}
}

// RawRegionKind describes the usage kind of a firmware-reported memory
// region together with the raw firmware type code for firmware-reserved
// regions.
type RawRegionKind struct {
	// The usage type of the region.
	Type RawRegionType

	// The firmware type code. Only meaningful when Type is RawReservedBios
	// or RawReservedUefi.
	Code uint32
}

// RawRegion describes a single entry of the firmware memory map: a half-open
// physical address range tagged with a usage kind. The loader guarantees
// that the reported regions are sorted ascending by start address, mutually
// non-overlapping and contiguous over the reported physical address space.
type RawRegion struct {
	// The physical address where this region starts (inclusive).
	Start uint64

	// The physical address where this region ends (exclusive).
	End uint64

	// The usage kind of this region.
	Kind RawRegionKind
}

// infoHeader describes the header preceding the packed region descriptors in
// the boot information payload.
type infoHeader struct {
	// The number of region descriptors that follow the header.
	regionCount uint64
}

var infoData uintptr

// SetInfoPtr updates the internal boot information pointer to the given
// value. This function must be invoked before invoking any other function
// exported by this package.
func SetInfoPtr(ptr uintptr) {
	infoData = ptr
}

// MemoryRegions returns the firmware memory map as a slice overlaid on the
// boot information payload. The returned slice must be treated as read-only;
// it aliases loader-owned memory.
func MemoryRegions() []RawRegion {
	if infoData == 0 {
		return nil
	}

	header := (*infoHeader)(unsafe.Pointer(infoData))
	if header.regionCount == 0 {
		return nil
	}

	return unsafe.Slice(
		(*RawRegion)(unsafe.Pointer(infoData+unsafe.Sizeof(infoHeader{}))),
		header.regionCount,
	)
}
