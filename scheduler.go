package main

import "sync"

// SchedMode selects one of the three multi-core arbitration policies
// (spec.md §4.5).
type SchedMode int

const (
	SchedFree SchedMode = iota
	SchedRoundRobin
	SchedRandom
)

func (m SchedMode) String() string {
	switch m {
	case SchedFree:
		return "free"
	case SchedRoundRobin:
		return "rr"
	case SchedRandom:
		return "random"
	default:
		return "?"
	}
}

// Scheduler arbitrates per-tick execution permits across cores. In Free
// mode it is a no-op: every core's tick loop runs unsynchronized, relying
// only on the bus's own locking. In RoundRobin/Random, exactly one core
// may run per turn; the rest block on a condition variable until chosen.
type Scheduler struct {
	mode     SchedMode
	numCores int

	mu       sync.Mutex
	cond     *sync.Cond
	halted   []bool
	nextCore int
	done     bool
	rngState uint64
}

// NewScheduler creates a scheduler for n cores in the given mode. Random
// mode seeds its LCG from seed, which main.go takes from wall-clock
// nanoseconds (spec.md §4.5); tests pass fixed seeds.
func NewScheduler(mode SchedMode, n int, seed uint64) *Scheduler {
	s := &Scheduler{
		mode:     mode,
		numCores: n,
		halted:   make([]bool, n),
		rngState: seed | 1,
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// nextLCG advances the LCG (Knuth's MMIX constants) and returns a
// core index in [0, numCores).
func (s *Scheduler) nextLCG() int {
	s.rngState = s.rngState*6364136223846793005 + 1442695040888963407
	return int((s.rngState >> 33) % uint64(s.numCores))
}

// WaitTurn blocks core `id` until it is this core's turn to execute one
// tick. In Free mode it returns immediately. Returns false if the
// scheduler is done (all cores halted or stop() was called), in which
// case the caller's tick loop should exit.
func (s *Scheduler) WaitTurn(id int) bool {
	if s.mode == SchedFree {
		s.mu.Lock()
		done := s.done
		s.mu.Unlock()
		return !done
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for !s.done && s.nextCore != id {
		s.cond.Wait()
	}
	return !s.done
}

// FinishTurn is called by the running core after it completes one tick,
// in RoundRobin/Random modes. It picks the next runnable core, or signals
// done if none remain.
func (s *Scheduler) FinishTurn(id int) {
	if s.mode == SchedFree {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advanceLocked(id)
	s.cond.Broadcast()
}

func (s *Scheduler) advanceLocked(from int) {
	if s.allHaltedLocked() {
		s.done = true
		return
	}
	switch s.mode {
	case SchedRoundRobin:
		n := from
		for i := 0; i < s.numCores; i++ {
			n = (n + 1) % s.numCores
			if !s.halted[n] {
				s.nextCore = n
				return
			}
		}
		s.done = true
	case SchedRandom:
		// allHaltedLocked above guarantees at least one runnable core
		// exists, so this loop always terminates.
		for {
			n := s.nextLCG()
			if !s.halted[n] {
				s.nextCore = n
				return
			}
		}
	}
}

func (s *Scheduler) allHaltedLocked() bool {
	for _, h := range s.halted {
		if !h {
			return false
		}
	}
	return true
}

// MarkHalted records that a core has halted. If every core is now
// halted, the scheduler becomes done and wakes any waiters.
func (s *Scheduler) MarkHalted(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.halted[id] = true
	if s.allHaltedLocked() {
		s.done = true
	}
	if s.nextCore == id {
		s.advanceLocked(id)
	}
	s.cond.Broadcast()
}

// Stop forces the scheduler into the done state and wakes every waiter,
// used for max-cycles cutoffs and cross-core halt propagation.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.done = true
	s.mu.Unlock()
	s.cond.Broadcast()
}

// Done reports whether the scheduler has finished (all cores halted, or
// Stop was called).
func (s *Scheduler) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}
