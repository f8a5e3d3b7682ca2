// Package sync provides the synchronization primitives used by kernel code
// that may be entered from multiple execution contexts.
package sync

import (
	"sync/atomic"

	"github.com/analogrelay/roxy/kernel/cpu"
)

var (
	// The interrupt control functions are mocked by tests and are
	// automatically inlined by the compiler.
	irqDisableFn = cpu.DisableInterrupts
	irqEnableFn  = cpu.EnableInterrupts
	readFlagsFn  = cpu.ReadFlags

	// yieldFn is invoked while busy-waiting for a lock.
	// TODO: point this at the scheduler yield once context-switching is
	// implemented.
	yieldFn func()
)

// Spinlock implements a lock where each task trying to acquire it busy-waits
// till the lock becomes available.
type Spinlock struct {
	state uint32
}

// Acquire blocks until the lock can be acquired by the currently active task.
// Any attempt to re-acquire a lock already held by the current task will
// cause a deadlock.
func (l *Spinlock) Acquire() {
	for !atomic.CompareAndSwapUint32(&l.state, 0, 1) {
		if yieldFn != nil {
			yieldFn()
		}
	}
}

// TryToAcquire attempts to acquire the lock and returns true if the lock
// could be acquired or false otherwise.
func (l *Spinlock) TryToAcquire() bool {
	return atomic.SwapUint32(&l.state, 1) == 0
}

// Release relinquishes a held lock allowing other tasks to acquire it.
// Calling Release while the lock is free has no effect.
func (l *Spinlock) Release() {
	atomic.StoreUint32(&l.state, 0)
}

// IrqSpinlock is a spinlock whose critical section also masks interrupts.
// It guards state that is shared with interrupt handlers: a handler firing
// while the lock is held by the interrupted task would otherwise deadlock
// trying to acquire it.
//
// Release restores the interrupt-enable state captured by Acquire instead
// of unconditionally enabling interrupts. Code running with interrupts
// disabled (early boot, nested critical sections) can therefore take the
// lock without interrupts becoming enabled behind its back.
type IrqSpinlock struct {
	lock Spinlock

	// irqEnabled records whether interrupts were enabled when the
	// current holder acquired the lock. Guarded by lock.
	irqEnabled bool
}

// Acquire saves the current interrupt-enable state, disables interrupts and
// then blocks until the lock can be acquired by the currently active task.
func (l *IrqSpinlock) Acquire() {
	irqEnabled := readFlagsFn()&cpu.FlagsIF != 0
	irqDisableFn()
	l.lock.Acquire()
	l.irqEnabled = irqEnabled
}

// Release relinquishes a held lock and re-enables interrupts if they were
// enabled when the lock was acquired.
func (l *IrqSpinlock) Release() {
	irqEnabled := l.irqEnabled
	l.lock.Release()
	if irqEnabled {
		irqEnableFn()
	}
}
