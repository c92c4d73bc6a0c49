package mem

// GapArena inserts an unusable gap before each growth after the first, so
// successive growths are never contiguous. The allocator must treat every
// growth as a fresh segment, which is exactly the path this wrapper exists
// to exercise.
type GapArena struct {
	inner *SliceArena
	gap   int
	grown int
}

// NewGapArena returns a gap-injecting arena. gap must be a multiple of 8 so
// segment bases stay chunk-aligned.
func NewGapArena(gap int) *GapArena {
	return &GapArena{inner: NewSliceArena(), gap: gap}
}

// Bytes returns the current address space, gaps included.
func (a *GapArena) Bytes() []byte { return a.inner.Bytes() }

// End reports the current top of the address space.
func (a *GapArena) End() int { return a.inner.End() }

// Grow extends the inner arena by gap+n bytes and returns a base past the
// gap. The gap bytes stay zero and must never be addressed by the caller.
func (a *GapArena) Grow(n int) (int, error) {
	pad := 0
	if a.grown > 0 {
		pad = a.gap
	}
	base, err := a.inner.Grow(pad + n)
	if err != nil {
		return 0, err
	}
	a.grown++
	return base + pad, nil
}
