// Package allocator implements the boot memory allocator: the physical frame
// allocator used during the narrow window between kernel entry and heap
// initialization.
package allocator

import (
	"sort"

	"github.com/analogrelay/roxy/kernel"
	"github.com/analogrelay/roxy/kernel/hal/bootinfo"
	"github.com/analogrelay/roxy/kernel/kfmt"
	"github.com/analogrelay/roxy/kernel/mem"
	"github.com/analogrelay/roxy/kernel/mem/pmm"
)

var (
	// earlyAllocator is the boot mem allocator instance used for frame
	// allocations before the heap becomes available.
	earlyAllocator BootMemAllocator

	errBootAllocOutOfMemory    = &kernel.Error{Module: "bootmem", Message: "out of memory"}
	errBootAllocRetired        = &kernel.Error{Module: "bootmem", Message: "allocator used after retirement"}
	errBootAllocBadCatalog     = &kernel.Error{Module: "bootmem", Message: "malformed firmware region catalog"}
	errBootAllocFrameNotUsable = &kernel.Error{Module: "bootmem", Message: "allocated frame not contained in a usable region"}
)

// BootMemAllocator hands out physical frames drawn from the usable regions
// of the firmware memory map, in ascending address order. It tracks only a
// count of the frames issued; the ascending frame sequence itself is
// re-derived from the immutable region catalog on every call, trading CPU
// for simplicity during the short bootstrap window.
//
// Frames handed out by this allocator cannot be freed. Once the kernel heap
// is running the allocator is retired: it converts its allocation activity
// plus the firmware catalog into the system memory map and refuses any
// further use.
type BootMemAllocator struct {
	// regions is the firmware-provided region catalog.
	regions []bootinfo.RawRegion

	// allocCount tracks the total number of allocated frames.
	allocCount uint64

	// retired is latched by Retire. A retired allocator cannot be used
	// again; the frames it issued are owned by the memory map it built.
	retired bool
}

// init validates the firmware region catalog and sets up the allocator
// internal state. The catalog regions must be sorted ascending, mutually
// non-overlapping and contiguous; anything else indicates a firmware or
// loader bug that must not be papered over.
func (alloc *BootMemAllocator) init(regions []bootinfo.RawRegion) *kernel.Error {
	for i, region := range regions {
		if region.Start >= region.End {
			return errBootAllocBadCatalog
		}

		if i > 0 && regions[i-1].End != region.Start {
			return errBootAllocBadCatalog
		}
	}

	alloc.regions = regions
	alloc.allocCount = 0
	alloc.retired = false
	return nil
}

// usableFrame returns the n-th (zero-based) page frame covered by the usable
// regions of the catalog, in ascending address order, or InvalidFrame when
// fewer than n+1 usable frames exist. Region extents that are not
// page-aligned are shrunk to whole frames.
func (alloc *BootMemAllocator) usableFrame(n uint64) pmm.Frame {
	pageSizeMinus1 := uint64(mem.PageSize - 1)

	for _, region := range alloc.regions {
		if region.Kind.Type != bootinfo.RawUsable {
			continue
		}

		regionStartFrame := pmm.Frame(((region.Start + pageSizeMinus1) &^ pageSizeMinus1) >> mem.PageShift)
		regionEndFrame := pmm.Frame(region.End >> mem.PageShift)
		if regionStartFrame >= regionEndFrame {
			continue
		}

		frameCount := uint64(regionEndFrame - regionStartFrame)
		if n < frameCount {
			return regionStartFrame + pmm.Frame(n)
		}
		n -= frameCount
	}

	return pmm.InvalidFrame
}

// AllocFrame reserves the next available frame from the usable regions of
// the firmware memory map and returns it. It returns an error if the
// allocator has been retired or if no usable frames remain; exhaustion is
// permanent, so every call after a failed one fails as well.
func (alloc *BootMemAllocator) AllocFrame() (pmm.Frame, *kernel.Error) {
	if alloc.retired {
		return pmm.InvalidFrame, errBootAllocRetired
	}

	frame := alloc.usableFrame(alloc.allocCount)
	if !frame.Valid() {
		return pmm.InvalidFrame, errBootAllocOutOfMemory
	}

	alloc.allocCount++
	return frame, nil
}

// Retire consumes the allocator and converts its allocation activity into
// the canonical memory map: the firmware catalog regions with every frame
// this allocator issued carved out and tagged as in use by the kernel heap.
// After Retire returns, both Retire and AllocFrame fail; ownership of the
// issued frames rests with the returned map.
func (alloc *BootMemAllocator) Retire() (*pmm.MemoryMap, *kernel.Error) {
	if alloc.retired {
		return nil, errBootAllocRetired
	}
	alloc.retired = true

	// Re-derive the frames issued so far: by construction these are the
	// first allocCount usable frames in ascending address order.
	usedFrames := make([]pmm.Frame, alloc.allocCount)
	for i := uint64(0); i < alloc.allocCount; i++ {
		usedFrames[i] = alloc.usableFrame(i)
	}

	return constructMemoryMap(alloc.regions, usedFrames)
}

// constructMemoryMap walks the firmware region catalog merging the used
// frame list into it and returns the resulting memory map. Each catalog
// region becomes the accumulating candidate region; every used frame that
// falls inside it is merged in as an in-use region, the finalized pieces of
// each merge are pushed to the map builder and the last piece carries on as
// the candidate. Used frames may arrive in any order but each one must lie
// entirely inside a usable catalog region: a frame that does not indicates
// a mismatch between the firmware map and the allocator, which is fatal.
func constructMemoryMap(catalog []bootinfo.RawRegion, usedFrames []pmm.Frame) (*pmm.MemoryMap, *kernel.Error) {
	sort.Slice(usedFrames, func(i, j int) bool { return usedFrames[i] < usedFrames[j] })

	var (
		builder  pmm.MemoryMapBuilder
		frameIdx int
	)

	for _, raw := range catalog {
		candidate := pmm.MemoryRegion{Start: raw.Start, End: raw.End, Kind: regionKindForRaw(raw.Kind)}

		for frameIdx < len(usedFrames) {
			frameStart := uint64(usedFrames[frameIdx].Address())
			if frameStart < raw.Start || frameStart >= raw.End {
				break
			}

			frameEnd := frameStart + uint64(mem.PageSize)
			if raw.Kind.Type != bootinfo.RawUsable || frameEnd > raw.End {
				return nil, errBootAllocFrameNotUsable
			}

			frameRegion := pmm.MemoryRegion{
				Start: frameStart,
				End:   frameEnd,
				Kind:  pmm.KindInUse(pmm.UseKernelHeap),
			}

			pieces, n := pmm.MergeRegions(candidate, frameRegion)
			for i := 0; i < n-1; i++ {
				builder.AddRegion(pieces[i])
			}
			candidate = pieces[n-1]

			frameIdx++
		}

		builder.AddRegion(candidate)
	}

	if frameIdx != len(usedFrames) {
		// Trailing frames fell past the catalog end
		return nil, errBootAllocFrameNotUsable
	}

	return builder.Build(), nil
}

// regionKindForRaw maps a firmware region kind to the corresponding memory
// map region kind.
func regionKindForRaw(kind bootinfo.RawRegionKind) pmm.MemoryRegionKind {
	switch kind.Type {
	case bootinfo.RawUsable:
		return pmm.KindUsable
	case bootinfo.RawReservedBootloader:
		return pmm.KindReserved(pmm.ReservedByBootloader, 0)
	case bootinfo.RawReservedBios:
		return pmm.KindReserved(pmm.ReservedByBios, kind.Code)
	case bootinfo.RawReservedUefi:
		return pmm.KindReserved(pmm.ReservedByUefi, kind.Code)
	default:
		return pmm.KindReserved(pmm.ReservedUnknown, kind.Code)
	}
}

// printMemoryMap dumps the firmware region catalog to the boot log.
func (alloc *BootMemAllocator) printMemoryMap() {
	kfmt.Printf("[bootmem] firmware memory map:\n")

	var totalFree mem.Size
	for _, region := range alloc.regions {
		kfmt.Printf("\t[0x%10x - 0x%10x], size: %10d, type: %s\n",
			region.Start, region.End, region.End-region.Start, region.Kind.Type.String())

		if region.Kind.Type == bootinfo.RawUsable {
			totalFree += mem.Size(region.End - region.Start)
		}
	}
	kfmt.Printf("[bootmem] free memory: %dKb\n", uint64(totalFree/mem.Kb))
}

// Init sets up the boot memory allocator over the supplied firmware region
// catalog and registers it as the system frame allocator.
func Init(regions []bootinfo.RawRegion) *kernel.Error {
	if err := earlyAllocator.init(regions); err != nil {
		return err
	}

	earlyAllocator.printMemoryMap()
	pmm.SetFrameAllocator(AllocFrame)
	return nil
}

// AllocFrame reserves the next available frame using the boot memory
// allocator.
func AllocFrame() (pmm.Frame, *kernel.Error) {
	return earlyAllocator.AllocFrame()
}

// Retire consumes the boot memory allocator and returns the canonical
// memory map for the rest of the kernel to query.
func Retire() (*pmm.MemoryMap, *kernel.Error) {
	return earlyAllocator.Retire()
}
