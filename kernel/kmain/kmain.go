package kmain

import (
	"github.com/analogrelay/roxy/kernel"
	"github.com/analogrelay/roxy/kernel/boot"
	"github.com/analogrelay/roxy/kernel/hal/bootinfo"
	"github.com/analogrelay/roxy/kernel/kfmt"
)

var errKmainReturned = &kernel.Error{Module: "kmain", Message: "Kmain returned"}

// Kmain is the only Go symbol that is visible (exported) from the rt0
// initialization code. This function is invoked by the rt0 assembly code
// after setting up a minimal g0 struct that allows running Go code on the
// stack provided by the loader.
//
// The rt0 code passes the address of the boot information payload provided
// by the loader.
//
// Kmain is not expected to return. If it does, the rt0 code will halt the
// CPU.
//
//go:noinline
func Kmain(infoPtr uintptr) {
	bootinfo.SetInfoPtr(infoPtr)

	kfmt.Printf("roxy is booting...\n")

	memMap, err := boot.InitMemory(bootinfo.MemoryRegions())
	if err != nil {
		kfmt.Panic(err)
	}

	kfmt.Printf("memory map initialized: %d bytes known, %d bytes reserved\n",
		uint64(memMap.TotalMemory()),
		uint64(memMap.ReservedMemory()),
	)
	for regionIndex, region := range memMap.Regions() {
		kfmt.Printf("region %d: [0x%16x - 0x%16x] %s, %d bytes\n",
			regionIndex,
			region.Start,
			region.End,
			region.Kind.String(),
			uint64(region.Size()),
		)
	}

	// Use kfmt.Panic instead of panic to prevent the compiler from
	// treating kfmt.Panic as dead-code and eliminating it.
	kfmt.Panic(errKmainReturned)
}
