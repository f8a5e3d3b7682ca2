package pmm

import "github.com/analogrelay/roxy/kernel/mem"

// RegionType describes the usage type of a MemoryRegion.
type RegionType uint8

const (
	// RegionUsable marks memory that is free for the kernel to allocate.
	RegionUsable RegionType = iota

	// RegionInUse marks memory that currently backs a kernel structure.
	RegionInUse

	// RegionReserved marks memory withheld by firmware or the bootloader.
	RegionReserved
)

// String implements fmt.Stringer for RegionType.
func (t RegionType) String() string {
	switch t {
	case RegionUsable:
		return "usable"
	case RegionInUse:
		return "in use"
	case RegionReserved:
		return "reserved"
	default:
		return "unknown"
	}
}

// UsePurpose describes what an in-use memory region backs.
type UsePurpose uint8

const (
	// UseUnknown marks in-use memory with an unknown owner.
	UseUnknown UsePurpose = iota

	// UseKernelHeap marks memory backing the kernel heap.
	UseKernelHeap

	// UseKernelPageTables marks memory backing kernel page tables.
	UseKernelPageTables
)

// ReservedSource describes which agent reserved a memory region.
type ReservedSource uint8

const (
	// ReservedUnknown marks a reservation of unknown origin.
	ReservedUnknown ReservedSource = iota

	// ReservedByBootloader marks memory withheld by the bootloader.
	ReservedByBootloader

	// ReservedByBios marks memory reserved by BIOS firmware.
	ReservedByBios

	// ReservedByUefi marks memory reserved by UEFI firmware.
	ReservedByUefi
)

// ReservedKind describes a reserved region: the agent that reserved it plus
// the raw firmware type code for firmware reservations.
type ReservedKind struct {
	Source ReservedSource
	Code   uint32
}

// MemoryRegionKind describes the usage kind of a MemoryRegion. Only the
// fields selected by Type carry meaning but the struct is comparable as a
// whole, which is what region coalescing relies on: two regions merge only
// when every part of their kind matches.
type MemoryRegionKind struct {
	// The usage type of the region.
	Type RegionType

	// What the region backs. Only meaningful when Type is RegionInUse.
	Purpose UsePurpose

	// Reservation details. Only meaningful when Type is RegionReserved.
	Reserved ReservedKind
}

// String implements fmt.Stringer for MemoryRegionKind. It only returns
// constant strings so it is safe to call before the heap is available.
func (k MemoryRegionKind) String() string {
	switch k.Type {
	case RegionUsable:
		return "usable"
	case RegionInUse:
		switch k.Purpose {
		case UseKernelHeap:
			return "in use (kernel heap)"
		case UseKernelPageTables:
			return "in use (kernel page tables)"
		default:
			return "in use"
		}
	case RegionReserved:
		switch k.Reserved.Source {
		case ReservedByBootloader:
			return "reserved (bootloader)"
		case ReservedByBios:
			return "reserved (bios)"
		case ReservedByUefi:
			return "reserved (uefi)"
		default:
			return "reserved"
		}
	default:
		return "unknown"
	}
}

// KindUsable is the kind of a region that is free for the kernel to use.
var KindUsable = MemoryRegionKind{Type: RegionUsable}

// KindInUse returns the kind of a region backing the given kernel structure.
func KindInUse(purpose UsePurpose) MemoryRegionKind {
	return MemoryRegionKind{Type: RegionInUse, Purpose: purpose}
}

// KindReserved returns the kind of a region withheld by the given agent.
func KindReserved(source ReservedSource, code uint32) MemoryRegionKind {
	return MemoryRegionKind{Type: RegionReserved, Reserved: ReservedKind{Source: source, Code: code}}
}

// MemoryRegion describes a half-open range of physical memory tagged with a
// usage kind.
type MemoryRegion struct {
	// The physical address where this region starts (inclusive).
	Start uint64

	// The physical address where this region ends (exclusive).
	End uint64

	// The usage kind of this region.
	Kind MemoryRegionKind
}

// Size returns the size of this region in bytes.
func (r MemoryRegion) Size() mem.Size {
	return mem.Size(r.End - r.Start)
}

// TryAppend extends this region to cover next if next begins exactly where
// this region ends and both share the same kind. It returns true if the
// region was extended.
func (r *MemoryRegion) TryAppend(next MemoryRegion) bool {
	if r.Kind != next.Kind || r.End != next.Start {
		return false
	}

	r.End = next.End
	return true
}

// MergeRegions merges the incoming region into the current accumulating
// region. Both regions are half-open intervals and incoming must not start
// before current does; callers feed regions in ascending start order.
//
// MergeRegions returns one to three non-empty, ascending, non-overlapping
// pieces. All pieces but the last are final and must be emitted in order;
// the last piece replaces current as the accumulating region, since a later
// incoming region may still extend or split it. The possible outcomes are:
//
//   - incoming starts past the end of current: both survive unchanged.
//   - same kind, overlapping or touching: a single coalesced piece.
//   - different kind, touching: both survive unchanged.
//   - different kind, incoming starts inside current: current is split
//     around incoming, leaving a leading piece of current's kind, incoming
//     itself and, if incoming ends before current does, a trailing
//     remainder of current's kind.
//   - different kind, both start together: incoming displaces the covered
//     prefix of current, leaving a trailing remainder if one exists.
func MergeRegions(current, incoming MemoryRegion) (pieces [3]MemoryRegion, n int) {
	switch {
	case incoming.Start > current.End:
		// Disjoint
		pieces[0], pieces[1] = current, incoming
		return pieces, 2
	case incoming.Kind == current.Kind:
		// Coalesce
		if incoming.End > current.End {
			current.End = incoming.End
		}
		pieces[0] = current
		return pieces, 1
	case incoming.Start == current.End:
		// Adjacent, different kind
		pieces[0], pieces[1] = current, incoming
		return pieces, 2
	case incoming.Start > current.Start:
		// Incoming starts inside current: split around it
		pieces[0] = MemoryRegion{Start: current.Start, End: incoming.Start, Kind: current.Kind}
		pieces[1] = incoming
		n = 2
		if incoming.End < current.End {
			pieces[2] = MemoryRegion{Start: incoming.End, End: current.End, Kind: current.Kind}
			n = 3
		}
		return pieces, n
	default:
		// Both start at the same address: incoming displaces the
		// covered prefix of current
		pieces[0] = incoming
		n = 1
		if incoming.End < current.End {
			pieces[1] = MemoryRegion{Start: incoming.End, End: current.End, Kind: current.Kind}
			n = 2
		}
		return pieces, n
	}
}
