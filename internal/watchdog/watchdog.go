// Package watchdog bounds the execution of untrusted firmware byte-code.
// A Budget is created for every top-level control-method invocation and
// threaded through the evaluator's call stack; each loop construct
// registers itself on entry and ticks the budget once per iteration. The
// bound applies to the innermost active loop, not cumulatively across the
// call stack: a single stuck loop triggers the abort, matching what
// firmware authors expect of the mechanism.
package watchdog

import "errors"

// ErrLoopTimeout aborts the owning control-method invocation when a loop
// exceeds its iteration budget.
var ErrLoopTimeout = errors.New("watchdog: maximum loop iterations exceeded")

// Budget tracks loop iteration counts for one method invocation, including
// any methods it calls. Budgets are not safe for concurrent use; each
// invocation owns exactly one.
type Budget struct {
	max   uint32
	loops []uint32
}

// New creates a budget allowing max iterations per loop.
func New(max uint32) *Budget {
	return &Budget{max: max}
}

// EnterLoop registers a new innermost loop with a fresh counter.
func (b *Budget) EnterLoop() {
	b.loops = append(b.loops, 0)
}

// Iterate ticks the innermost loop's counter. It returns ErrLoopTimeout on
// the first iteration past the maximum: with a budget of N, iterations
// 1..N proceed and iteration N+1 aborts. Calling Iterate outside any loop
// is a programmer error.
func (b *Budget) Iterate() error {
	if len(b.loops) == 0 {
		panic("watchdog: Iterate called with no active loop")
	}
	i := len(b.loops) - 1
	b.loops[i]++
	if b.loops[i] > b.max {
		return ErrLoopTimeout
	}
	return nil
}

// ExitLoop unregisters the innermost loop. The enclosing loop's counter
// resumes where it left off.
func (b *Budget) ExitLoop() {
	if len(b.loops) == 0 {
		panic("watchdog: ExitLoop called with no active loop")
	}
	b.loops = b.loops[:len(b.loops)-1]
}

// Depth reports the number of active loops, innermost last.
func (b *Budget) Depth() int { return len(b.loops) }
