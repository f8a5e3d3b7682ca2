package pmm

import "testing"

func TestMergeRegions(t *testing.T) {
	var (
		usable = KindUsable
		inUse  = KindInUse(UseKernelHeap)
	)

	specs := []struct {
		descr             string
		current, incoming MemoryRegion
		exp               []MemoryRegion
	}{
		{
			"disjoint regions survive unchanged",
			MemoryRegion{Start: 0x0000, End: 0x1000, Kind: usable},
			MemoryRegion{Start: 0x2000, End: 0x3000, Kind: inUse},
			[]MemoryRegion{
				{Start: 0x0000, End: 0x1000, Kind: usable},
				{Start: 0x2000, End: 0x3000, Kind: inUse},
			},
		},
		{
			"same kind, touching regions coalesce",
			MemoryRegion{Start: 0x0000, End: 0x1000, Kind: usable},
			MemoryRegion{Start: 0x1000, End: 0x3000, Kind: usable},
			[]MemoryRegion{
				{Start: 0x0000, End: 0x3000, Kind: usable},
			},
		},
		{
			"same kind, overlapping regions coalesce",
			MemoryRegion{Start: 0x0000, End: 0x2000, Kind: inUse},
			MemoryRegion{Start: 0x1000, End: 0x3000, Kind: inUse},
			[]MemoryRegion{
				{Start: 0x0000, End: 0x3000, Kind: inUse},
			},
		},
		{
			"same kind, contained region changes nothing",
			MemoryRegion{Start: 0x0000, End: 0x4000, Kind: usable},
			MemoryRegion{Start: 0x1000, End: 0x2000, Kind: usable},
			[]MemoryRegion{
				{Start: 0x0000, End: 0x4000, Kind: usable},
			},
		},
		{
			"different kind, touching regions survive unchanged",
			MemoryRegion{Start: 0x0000, End: 0x1000, Kind: usable},
			MemoryRegion{Start: 0x1000, End: 0x2000, Kind: inUse},
			[]MemoryRegion{
				{Start: 0x0000, End: 0x1000, Kind: usable},
				{Start: 0x1000, End: 0x2000, Kind: inUse},
			},
		},
		{
			"different kind, incoming inside current splits three ways",
			MemoryRegion{Start: 0x0000, End: 0x4000, Kind: usable},
			MemoryRegion{Start: 0x1000, End: 0x2000, Kind: inUse},
			[]MemoryRegion{
				{Start: 0x0000, End: 0x1000, Kind: usable},
				{Start: 0x1000, End: 0x2000, Kind: inUse},
				{Start: 0x2000, End: 0x4000, Kind: usable},
			},
		},
		{
			"different kind, incoming reaching the end of current leaves no remainder",
			MemoryRegion{Start: 0x0000, End: 0x2000, Kind: usable},
			MemoryRegion{Start: 0x1000, End: 0x2000, Kind: inUse},
			[]MemoryRegion{
				{Start: 0x0000, End: 0x1000, Kind: usable},
				{Start: 0x1000, End: 0x2000, Kind: inUse},
			},
		},
		{
			"different kind, same start displaces the prefix of current",
			MemoryRegion{Start: 0x0000, End: 0x3000, Kind: usable},
			MemoryRegion{Start: 0x0000, End: 0x1000, Kind: inUse},
			[]MemoryRegion{
				{Start: 0x0000, End: 0x1000, Kind: inUse},
				{Start: 0x1000, End: 0x3000, Kind: usable},
			},
		},
		{
			"different kind, same extent is fully displaced",
			MemoryRegion{Start: 0x0000, End: 0x1000, Kind: usable},
			MemoryRegion{Start: 0x0000, End: 0x1000, Kind: inUse},
			[]MemoryRegion{
				{Start: 0x0000, End: 0x1000, Kind: inUse},
			},
		},
		{
			"reserved regions coalesce only when the full kind matches",
			MemoryRegion{Start: 0x0000, End: 0x1000, Kind: KindReserved(ReservedByBios, 2)},
			MemoryRegion{Start: 0x1000, End: 0x2000, Kind: KindReserved(ReservedByBios, 4)},
			[]MemoryRegion{
				{Start: 0x0000, End: 0x1000, Kind: KindReserved(ReservedByBios, 2)},
				{Start: 0x1000, End: 0x2000, Kind: KindReserved(ReservedByBios, 4)},
			},
		},
		{
			"identical reserved kinds coalesce",
			MemoryRegion{Start: 0x0000, End: 0x1000, Kind: KindReserved(ReservedByBootloader, 0)},
			MemoryRegion{Start: 0x1000, End: 0x2000, Kind: KindReserved(ReservedByBootloader, 0)},
			[]MemoryRegion{
				{Start: 0x0000, End: 0x2000, Kind: KindReserved(ReservedByBootloader, 0)},
			},
		},
	}

	for specIndex, spec := range specs {
		pieces, n := MergeRegions(spec.current, spec.incoming)

		if n != len(spec.exp) {
			t.Errorf("[spec %d] %s: expected %d pieces; got %d", specIndex, spec.descr, len(spec.exp), n)
			continue
		}

		for i := 0; i < n; i++ {
			if pieces[i] != spec.exp[i] {
				t.Errorf("[spec %d] %s: piece %d: expected %+v; got %+v", specIndex, spec.descr, i, spec.exp[i], pieces[i])
			}
		}

		for i := 1; i < n; i++ {
			if pieces[i].Start < pieces[i-1].End {
				t.Errorf("[spec %d] %s: pieces %d and %d overlap", specIndex, spec.descr, i-1, i)
			}
		}
	}
}

func TestTryAppend(t *testing.T) {
	specs := []struct {
		current, next MemoryRegion
		expOk         bool
		expEnd        uint64
	}{
		{
			MemoryRegion{Start: 0x0000, End: 0x1000, Kind: KindUsable},
			MemoryRegion{Start: 0x1000, End: 0x2000, Kind: KindUsable},
			true,
			0x2000,
		},
		{
			// different kind
			MemoryRegion{Start: 0x0000, End: 0x1000, Kind: KindUsable},
			MemoryRegion{Start: 0x1000, End: 0x2000, Kind: KindInUse(UseKernelHeap)},
			false,
			0x1000,
		},
		{
			// gap between the regions
			MemoryRegion{Start: 0x0000, End: 0x1000, Kind: KindUsable},
			MemoryRegion{Start: 0x2000, End: 0x3000, Kind: KindUsable},
			false,
			0x1000,
		},
		{
			// different in-use purpose
			MemoryRegion{Start: 0x0000, End: 0x1000, Kind: KindInUse(UseKernelHeap)},
			MemoryRegion{Start: 0x1000, End: 0x2000, Kind: KindInUse(UseKernelPageTables)},
			false,
			0x1000,
		},
	}

	for specIndex, spec := range specs {
		current := spec.current
		if got := current.TryAppend(spec.next); got != spec.expOk {
			t.Errorf("[spec %d] expected TryAppend to return %t; got %t", specIndex, spec.expOk, got)
		}

		if current.End != spec.expEnd {
			t.Errorf("[spec %d] expected region end to be 0x%x; got 0x%x", specIndex, spec.expEnd, current.End)
		}
	}
}

func TestMemoryRegionKindString(t *testing.T) {
	specs := []struct {
		kind MemoryRegionKind
		exp  string
	}{
		{KindUsable, "usable"},
		{KindInUse(UseUnknown), "in use"},
		{KindInUse(UseKernelHeap), "in use (kernel heap)"},
		{KindInUse(UseKernelPageTables), "in use (kernel page tables)"},
		{KindReserved(ReservedUnknown, 0), "reserved"},
		{KindReserved(ReservedByBootloader, 0), "reserved (bootloader)"},
		{KindReserved(ReservedByBios, 2), "reserved (bios)"},
		{KindReserved(ReservedByUefi, 7), "reserved (uefi)"},
	}

	for specIndex, spec := range specs {
		if got := spec.kind.String(); got != spec.exp {
			t.Errorf("[spec %d] expected %q; got %q", specIndex, spec.exp, got)
		}
	}
}

func TestRegionSize(t *testing.T) {
	region := MemoryRegion{Start: 0x1000, End: 0x4000, Kind: KindUsable}
	if got := region.Size(); got != 0x3000 {
		t.Fatalf("expected region size to be 0x3000; got 0x%x", got)
	}
}
