package sync

import (
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/analogrelay/roxy/kernel/cpu"
)

func TestSpinlock(t *testing.T) {
	// Substitute the yieldFn with runtime.Gosched to avoid deadlocks while testing
	defer func(origYieldFn func()) { yieldFn = origYieldFn }(yieldFn)
	yieldFn = runtime.Gosched

	var (
		sl         Spinlock
		wg         sync.WaitGroup
		numWorkers = 10
	)

	sl.Acquire()

	if sl.TryToAcquire() != false {
		t.Error("expected TryToAcquire to return false when lock is held")
	}

	wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go func() {
			sl.Acquire()
			sl.Release()
			wg.Done()
		}()
	}

	<-time.After(100 * time.Millisecond)
	sl.Release()
	wg.Wait()
}

func TestIrqSpinlockMasksInterrupts(t *testing.T) {
	defer func(origDisableFn, origEnableFn func(), origReadFlagsFn func() uintptr) {
		irqDisableFn = origDisableFn
		irqEnableFn = origEnableFn
		readFlagsFn = origReadFlagsFn
	}(irqDisableFn, irqEnableFn, readFlagsFn)

	var (
		irqEnabled   bool
		disableCalls int
	)
	irqDisableFn = func() { disableCalls++; irqEnabled = false }
	irqEnableFn = func() { irqEnabled = true }
	readFlagsFn = func() uintptr {
		if irqEnabled {
			return cpu.FlagsIF
		}
		return 0
	}

	t.Run("interrupts enabled before Acquire", func(t *testing.T) {
		irqEnabled, disableCalls = true, 0

		var l IrqSpinlock
		l.Acquire()

		if disableCalls != 1 || irqEnabled {
			t.Fatalf("expected interrupts to be masked inside the critical section; disable calls: %d, enabled: %t", disableCalls, irqEnabled)
		}

		l.Release()

		if !irqEnabled {
			t.Fatal("expected interrupts to be re-enabled after Release when they were enabled before Acquire")
		}
	})

	t.Run("interrupts disabled before Acquire", func(t *testing.T) {
		irqEnabled, disableCalls = false, 0

		var l IrqSpinlock
		l.Acquire()
		l.Release()

		if irqEnabled {
			t.Fatal("expected interrupts to remain disabled after Release when they were disabled before Acquire")
		}
	})
}
