package main

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RunShared carries the state every core's tick loop reads to decide when
// to stop (spec.md §5): a cycle budget and a cooperative stop flag set
// when any core halts.
type RunShared struct {
	maxCycles uint64 // 0 = unbounded
	sched     *Scheduler
	bus       *Bus
	intc      *InterruptController
	io        *IODevices
	sd0, sd1  *SDEngine
	video     *Video
	log       *Logger
}

// runCore implements spec.md §4.6's seven-step tick loop for one core,
// looping until the scheduler is done or the cycle budget is spent.
// Round-robin/random arbitration is delegated to Scheduler.WaitTurn;
// every core still runs its own full tick body once admitted, matching
// "each thread runs its own tick loop" (spec.md §5).
func runCore(ctx context.Context, c *CPU, rs *RunShared) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if !rs.sched.WaitTurn(c.id) {
			return nil
		}

		// Step 1: drain input-queue non-emptiness into the interrupt
		// controller. uartMode picks whichever channel currently has
		// data waiting; if both are idle the call is a no-op.
		uartMode := rs.io.UARTRXPending()
		ioNonEmpty := rs.bus.PS2NonEmpty() || rs.io.UARTRXPending()
		rs.intc.DispatchInput(uartMode, ioNonEmpty)

		// Step 2: poll MMIO-raised interrupt bits and route them.
		rs.intc.DispatchDeviceInterrupts(rs.bus.CheckInterrupts())

		// Steps 3-5: take pending bits, merge IPI/ISR, wake/dispatch.
		c.pollAndDeliverInterrupts()

		// Step 4 (timer) runs regardless of sleep state, per spec.md
		// §4.6: the PIT keeps counting even while the core is asleep.
		c.tickTimer(rs.io.PITReload())

		// Step 6: fetch/execute gated by the clock divider.
		if !c.asleep && !c.halted {
			cdv := c.cr[CRCDV]
			if c.tickCount%uint64(cdv+1) == 0 {
				c.fetchAndExecute()
			}
		}

		// Step 7.
		c.tickCount++

		if c.id == 0 {
			rs.sd0.Tick(rs.bus)
			rs.sd1.Tick(rs.bus)
		}

		if c.halted {
			rs.sched.MarkHalted(c.id)
			rs.sched.Stop()
			if rs.log != nil {
				rs.log.Info("core %d halted", c.id)
			}
			return nil
		}

		if rs.maxCycles != 0 && c.tickCount >= rs.maxCycles {
			rs.sched.Stop()
			return nil
		}

		rs.sched.FinishTurn(c.id)
	}
}

// RunCores launches one goroutine per core and blocks until every one
// returns: either all cores halted, the scheduler was stopped, or the
// context was cancelled. errgroup gives the fan-out/fan-in join and
// first-error propagation the teacher's codebase doesn't need (it has no
// multi-core model to borrow from) but the rest of the retrieval corpus
// uses for exactly this pattern.
func RunCores(ctx context.Context, cores []*CPU, rs *RunShared) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, c := range cores {
		core := c
		g.Go(func() error {
			return runCore(gctx, core, rs)
		})
	}
	return g.Wait()
}
