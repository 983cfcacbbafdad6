package interp

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/amlhostgo/internal/diag"
	"github.com/vk/amlhostgo/internal/hostcfg"
	"github.com/vk/amlhostgo/internal/watchdog"
)

var (
	// ErrUninitialized is returned for strict-mode reads of locals that
	// were never stored to.
	ErrUninitialized = errors.New("interp: read of uninitialized local")

	// ErrNotAnInteger is returned when an arithmetic or predicate operand
	// cannot be treated as an integer.
	ErrNotAnInteger = errors.New("interp: operand is not an integer")
)

// ctrlFlow selects how execution proceeds after an op completes.
type ctrlFlow uint8

const (
	flowNext ctrlFlow = iota
	flowBreak
	flowContinue
	flowReturn
)

// execContext is the per-invocation interpreter state: locals, arguments,
// control flow, and the shared watchdog budget. Nested method calls get a
// fresh execContext but inherit the budget, so loop bounds apply through
// recursion while each loop still counts independently.
type execContext struct {
	ctx      context.Context
	locals   [maxLocals]any
	localSet [maxLocals]bool
	args     []any

	flow   ctrlFlow
	retVal any

	// lastVal is the most recently computed value, kept for slack-mode
	// implicit returns.
	lastVal any

	budget *watchdog.Budget
}

// execBlock runs ops in order until the block ends or an op changes the
// control flow.
func (e *Engine) execBlock(ec *execContext, ops []Op) error {
	for _, op := range ops {
		if ec.flow != flowNext {
			return nil
		}
		if err := e.execOp(ec, op); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) execOp(ec *execContext, op Op) error {
	switch op := op.(type) {
	case StoreLocal:
		if op.Dst < 0 || op.Dst >= maxLocals {
			return fmt.Errorf("store to Local%d: slot out of range", op.Dst)
		}
		val, err := e.eval(ec, op.Src)
		if err != nil {
			return err
		}
		ec.locals[op.Dst] = val
		ec.localSet[op.Dst] = true
		ec.lastVal = val
		return nil

	case StoreNamed:
		val, err := e.eval(ec, op.Src)
		if err != nil {
			return err
		}
		if err := e.ns.Store(op.Dst, val); err != nil {
			if !errors.Is(err, ErrObjectNotFound) || !e.cfg.Bool(hostcfg.InterpreterSlack) {
				return err
			}
			// Slack: tolerate the store beyond the defined namespace,
			// creating the target instead of failing.
			e.sink.Warnf(diag.LayerNamespace, "store to undefined %s, creating it", op.Dst)
			if err := e.ns.Create(op.Dst, val); err != nil {
				return err
			}
		}
		ec.lastVal = val
		return nil

	case CreateNamed:
		val, err := e.eval(ec, op.Val)
		if err != nil {
			return err
		}
		if err := e.ns.Create(op.Name, val); err != nil {
			return err
		}
		ec.lastVal = val
		return nil

	case DebugWrite:
		val, err := e.eval(ec, op.Val)
		if err != nil {
			return err
		}
		if e.cfg.Bool(hostcfg.EnableAmlDebugObject) {
			e.sink.DebugObject(val)
		}
		ec.lastVal = val
		return nil

	case If:
		pred, err := e.evalPredicate(ec, op.Pred)
		if err != nil {
			return err
		}
		if pred {
			return e.execBlock(ec, op.Then)
		}
		return e.execBlock(ec, op.Else)

	case While:
		return e.execWhile(ec, op)

	case Return:
		if op.Val != nil {
			val, err := e.eval(ec, op.Val)
			if err != nil {
				return err
			}
			ec.retVal = val
		}
		ec.flow = flowReturn
		return nil

	case Break:
		ec.flow = flowBreak
		return nil

	case Continue:
		ec.flow = flowContinue
		return nil

	case Call:
		_, err := e.eval(ec, op)
		return err

	default:
		return fmt.Errorf("unsupported op %T", op)
	}
}

// execWhile evaluates one loop construct. The watchdog counter exists for
// exactly the lifetime of the loop; each iteration ticks it before the
// body runs, so a budget of N aborts the invocation on iteration N+1.
func (e *Engine) execWhile(ec *execContext, op While) error {
	ec.budget.EnterLoop()
	defer ec.budget.ExitLoop()

	for {
		pred, err := e.evalPredicate(ec, op.Pred)
		if err != nil {
			return err
		}
		if !pred {
			return nil
		}

		if err := ec.budget.Iterate(); err != nil {
			// Watchdog trip: abort the whole invocation.
			return err
		}

		if err := e.execBlock(ec, op.Body); err != nil {
			return err
		}

		switch ec.flow {
		case flowReturn:
			// Propagate so the innermost method exits.
			return nil
		case flowBreak:
			ec.flow = flowNext
			return nil
		case flowContinue:
			ec.flow = flowNext
		}
	}
}

func (e *Engine) eval(ec *execContext, x Expr) (any, error) {
	switch x := x.(type) {
	case Int:
		return uint64(x), nil

	case Str:
		return string(x), nil

	case Local:
		if x < 0 || int(x) >= maxLocals {
			return nil, fmt.Errorf("Local%d: slot out of range", x)
		}
		if !ec.localSet[x] {
			if !e.cfg.Bool(hostcfg.InterpreterSlack) {
				return nil, fmt.Errorf("Local%d: %w", x, ErrUninitialized)
			}
			// Slack: auto-init to integer zero, with a warning.
			e.sink.Warnf(diag.LayerInterpreter, "auto-initializing uninitialized Local%d to 0", x)
			ec.locals[x] = uint64(0)
			ec.localSet[x] = true
		}
		return ec.locals[x], nil

	case Arg:
		if x < 0 || int(x) >= len(ec.args) {
			return nil, fmt.Errorf("Arg%d: %w", x, ErrArgCount)
		}
		return ec.args[x], nil

	case Named:
		return e.ns.Load(string(x))

	case Add:
		a, b, err := e.evalIntPair(ec, x.A, x.B)
		if err != nil {
			return nil, err
		}
		return a + b, nil

	case LLess:
		a, b, err := e.evalIntPair(ec, x.A, x.B)
		if err != nil {
			return nil, err
		}
		if a < b {
			return uint64(1), nil
		}
		return uint64(0), nil

	case Call:
		argv := make([]any, len(x.Args))
		for i, argExpr := range x.Args {
			val, err := e.eval(ec, argExpr)
			if err != nil {
				return nil, err
			}
			argv[i] = val
		}
		val, err := e.invokeMethod(ec.ctx, x.Method, argv, ec.budget)
		if err != nil {
			return nil, err
		}
		ec.lastVal = val
		return val, nil

	default:
		return nil, fmt.Errorf("unsupported expression %T", x)
	}
}

func (e *Engine) evalPredicate(ec *execContext, x Expr) (bool, error) {
	val, err := e.eval(ec, x)
	if err != nil {
		return false, err
	}
	n, err := toInteger(val)
	if err != nil {
		return false, err
	}
	return n != 0, nil
}

func (e *Engine) evalIntPair(ec *execContext, a, b Expr) (uint64, uint64, error) {
	av, err := e.eval(ec, a)
	if err != nil {
		return 0, 0, err
	}
	bv, err := e.eval(ec, b)
	if err != nil {
		return 0, 0, err
	}
	an, err := toInteger(av)
	if err != nil {
		return 0, 0, err
	}
	bn, err := toInteger(bv)
	if err != nil {
		return 0, 0, err
	}
	return an, bn, nil
}

func toInteger(v any) (uint64, error) {
	n, isInt := v.(uint64)
	if !isInt {
		return 0, fmt.Errorf("%w: %T", ErrNotAnInteger, v)
	}
	return n, nil
}
