// Package vmm provides the virtual memory primitives that the kernel needs
// while bootstrapping: page table entry manipulation and the establishment
// of virtual-to-physical page mappings through the loader-provided physical
// memory mapping.
package vmm

import "github.com/analogrelay/roxy/kernel/mem"

// Page describes a virtual memory page index.
type Page uintptr

// Address returns the virtual memory address where this Page starts.
func (p Page) Address() uintptr {
	return uintptr(p << mem.PageShift)
}

// PageFromAddress returns the Page containing the given virtual address.
// Addresses that are not page-aligned are rounded down to the page that
// contains them.
func PageFromAddress(virtAddr uintptr) Page {
	return Page((virtAddr & ^uintptr(mem.PageSize-1)) >> mem.PageShift)
}
