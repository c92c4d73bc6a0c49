package mem

// LimitArena caps the cumulative bytes an inner arena may grow by. It exists
// so out-of-memory handling can be exercised deterministically: configure a
// budget, exhaust it, and the allocator must surface the failure instead of
// crashing.
type LimitArena struct {
	inner  Arena
	budget int
	grown  int
	calls  int
}

// NewLimitArena wraps inner with a cumulative growth budget in bytes.
func NewLimitArena(inner Arena, budget int) *LimitArena {
	return &LimitArena{inner: inner, budget: budget}
}

// Bytes returns the current address space.
func (a *LimitArena) Bytes() []byte { return a.inner.Bytes() }

// End reports the current top of the address space.
func (a *LimitArena) End() int { return a.inner.End() }

// Grow forwards to the inner arena unless the budget would be exceeded.
func (a *LimitArena) Grow(n int) (int, error) {
	if a.grown+n > a.budget {
		return 0, ErrBudget
	}
	base, err := a.inner.Grow(n)
	if err != nil {
		return 0, err
	}
	a.grown += n
	a.calls++
	return base, nil
}

// Grown reports the cumulative bytes granted so far.
func (a *LimitArena) Grown() int { return a.grown }

// GrowCalls reports the number of successful growths.
func (a *LimitArena) GrowCalls() int { return a.calls }
