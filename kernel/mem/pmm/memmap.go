package pmm

import "github.com/analogrelay/roxy/kernel/mem"

// MemoryMap holds the canonical map of physical memory: an ascending,
// non-overlapping, maximally coalesced sequence of memory regions together
// with byte totals derived from it. A MemoryMap is immutable once built.
type MemoryMap struct {
	regions []MemoryRegion

	totalMemory    mem.Size
	usableMemory   mem.Size
	reservedMemory mem.Size
}

// Regions returns the ordered sequence of regions in this map. The returned
// slice must be treated as read-only.
func (m *MemoryMap) Regions() []MemoryRegion {
	return m.regions
}

// TotalMemory returns the total number of bytes described by this map.
func (m *MemoryMap) TotalMemory() mem.Size {
	return m.totalMemory
}

// UsableMemory returns the number of bytes not reserved by firmware or the
// bootloader. Memory that is in use by the kernel counts as usable.
func (m *MemoryMap) UsableMemory() mem.Size {
	return m.usableMemory
}

// ReservedMemory returns the number of bytes reserved by firmware or the
// bootloader.
func (m *MemoryMap) ReservedMemory() mem.Size {
	return m.reservedMemory
}

// MemoryMapBuilder accumulates a stream of ascending memory regions,
// coalescing adjacent same-kind regions as they arrive. The zero value is
// ready to use.
type MemoryMapBuilder struct {
	regions []MemoryRegion
}

// AddRegion appends region to the accumulated sequence. If region is
// adjacent to the previously added region and shares its kind, the previous
// region is extended instead. Empty regions are dropped.
func (b *MemoryMapBuilder) AddRegion(region MemoryRegion) {
	if region.Start >= region.End {
		return
	}

	if n := len(b.regions); n > 0 && b.regions[n-1].TryAppend(region) {
		return
	}

	b.regions = append(b.regions, region)
}

// Build finalizes the accumulated regions into an immutable MemoryMap,
// deriving the byte totals in a single pass. The builder must not be reused
// after calling Build.
func (b *MemoryMapBuilder) Build() *MemoryMap {
	m := &MemoryMap{regions: b.regions}
	b.regions = nil

	for _, region := range m.regions {
		m.totalMemory += region.Size()
		if region.Kind.Type == RegionReserved {
			m.reservedMemory += region.Size()
		}
	}
	m.usableMemory = m.totalMemory - m.reservedMemory

	return m
}
