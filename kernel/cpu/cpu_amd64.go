// Package cpu provides access to amd64-specific privileged instructions and
// registers that the kernel requires while it bootstraps itself. The
// functions in this package are implemented in assembly and must only be
// invoked while running in ring 0.
package cpu

// FlagsIF is the interrupt-enable bit of the RFLAGS register. Maskable
// interrupts are delivered only while it is set.
const FlagsIF = uintptr(1 << 9)

// ReadFlags returns the contents of the RFLAGS register.
func ReadFlags() uintptr

// EnableInterrupts enables interrupt handling.
func EnableInterrupts()

// DisableInterrupts disables interrupt handling.
func DisableInterrupts()

// Halt disables interrupts and stops instruction execution.
func Halt()

// FlushTLBEntry flushes a TLB entry for a particular virtual address.
func FlushTLBEntry(virtAddr uintptr)

// ActivePDT returns the physical address of the currently active page
// directory table.
func ActivePDT() uintptr

// SwitchPDT sets the root page table directory to point to the specified
// physical address and flushes the TLB.
func SwitchPDT(pdtPhysAddr uintptr)
