package mem

import "errors"

var (
	// ErrBudget indicates a LimitArena refused to grow past its budget.
	ErrBudget = errors.New("mem: growth budget exhausted")

	// ErrTooLarge indicates growth would push the address space past the
	// 2 GiB offset ceiling.
	ErrTooLarge = errors.New("mem: address space limit reached")

	// ErrShrinkRange indicates a shrink request larger than the arena.
	ErrShrinkRange = errors.New("mem: shrink out of range")
)
