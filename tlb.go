package main

import "math/rand/v2"

// AccessKind is the permission being checked on a TLB lookup.
type AccessKind int

const (
	AccessRead AccessKind = iota
	AccessWrite
	AccessExec
)

// tlbKey is the lookup key for the private table: (PID, VPN).
type tlbKey struct {
	pid uint32
	vpn uint32
}

// TLB implements the split private/global software-managed translation
// cache described in spec.md §4.2: two fixed-capacity tables, random
// eviction on overflow, and permission bits packed into the 32-bit
// payload alongside the PPN.
type TLB struct {
	private map[tlbKey]uint32
	global  map[uint32]uint32
}

// NewTLB creates an empty TLB with the spec's fixed capacities.
func NewTLB() *TLB {
	return &TLB{
		private: make(map[tlbKey]uint32, TLBCapacity),
		global:  make(map[uint32]uint32, TLBCapacity),
	}
}

func vpnOf(vaddr uint32) uint32 { return vaddr >> PageBits }

func permitsAccess(payload uint32, op AccessKind, kmode bool) bool {
	if !kmode && payload&TLBFlagU == 0 {
		return false
	}
	switch op {
	case AccessRead:
		return payload&TLBFlagR != 0
	case AccessWrite:
		return payload&TLBFlagW != 0
	case AccessExec:
		return payload&TLBFlagX != 0
	default:
		return false
	}
}

// Access performs the lookup policy from spec.md §4.2: private table
// first, then global, each gated on the requested permission. It returns
// the PPN (high 20 bits) on success.
func (t *TLB) Access(pid, vpn uint32, op AccessKind, kmode bool) (ppn uint32, ok bool) {
	if payload, found := t.private[tlbKey{pid, vpn}]; found {
		if !permitsAccess(payload, op, kmode) {
			return 0, false
		}
		return payload &^ PageMask, true
	}
	if payload, found := t.global[vpn]; found {
		if !permitsAccess(payload, op, kmode) {
			return 0, false
		}
		return payload &^ PageMask, true
	}
	return 0, false
}

// Read returns the raw payload for tlbr: private entry first, else
// global, else (0, false).
func (t *TLB) Read(pid, vpn uint32) (raw uint32, ok bool) {
	if payload, found := t.private[tlbKey{pid, vpn}]; found {
		return payload, true
	}
	if payload, found := t.global[vpn]; found {
		return payload, true
	}
	return 0, false
}

// Write installs an entry (spec.md §4.2 insertion policy): global payload
// bit routes to the global table, otherwise private. Overflow evicts an
// arbitrary existing entry.
func (t *TLB) Write(pid, vpn, payload uint32) {
	if payload&TLBFlagG != 0 {
		if _, exists := t.global[vpn]; !exists && len(t.global) >= TLBCapacity {
			evictArbitrary(t.global)
		}
		t.global[vpn] = payload
		return
	}
	key := tlbKey{pid, vpn}
	if _, exists := t.private[key]; !exists && len(t.private) >= TLBCapacity {
		evictArbitraryKeyed(t.private)
	}
	t.private[key] = payload
}

// evictArbitrary removes one entry from a global-table map. Map iteration
// order in Go is unspecified per-run, which already satisfies the spec's
// "random-replacement; any deterministic-but-order-free victim" policy;
// rand.N additionally reseeds the pick so repeated evictions don't always
// land on the same iteration-order winner.
func evictArbitrary(m map[uint32]uint32) {
	skip := rand.N(len(m))
	i := 0
	for k := range m {
		if i == skip {
			delete(m, k)
			return
		}
		i++
	}
}

func evictArbitraryKeyed(m map[tlbKey]uint32) {
	skip := rand.N(len(m))
	i := 0
	for k := range m {
		if i == skip {
			delete(m, k)
			return
		}
		i++
	}
}

// Invalidate removes the private entry for (pid, vpn) and the global
// entry for vpn — tlbi.
func (t *TLB) Invalidate(pid, vpn uint32) {
	delete(t.private, tlbKey{pid, vpn})
	delete(t.global, vpn)
}

// Clear empties both tables — tlbc.
func (t *TLB) Clear() {
	t.private = make(map[tlbKey]uint32, TLBCapacity)
	t.global = make(map[uint32]uint32, TLBCapacity)
}

// PrivateCount and GlobalCount expose current table cardinality for the
// capacity invariant in spec.md §8.
func (t *TLB) PrivateCount() int { return len(t.private) }
func (t *TLB) GlobalCount() int  { return len(t.global) }
