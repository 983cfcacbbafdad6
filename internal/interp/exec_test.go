package interp

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/amlhostgo/internal/hostcfg"
	"github.com/vk/amlhostgo/internal/watchdog"
	"github.com/zclconf/go-cty/cty"
)

// uninitReadMethod reads Local0 before anything stores to it.
func uninitReadMethod() *Method {
	return &Method{
		Name: "UIL_",
		Body: []Op{Return{Val: Local(0)}},
	}
}

func TestUninitializedLocalStrict(t *testing.T) {
	e, _, _ := newTestEngine(t, map[string]cty.Value{
		hostcfg.InterpreterSlack: cty.False,
	})
	require.NoError(t, e.Load(uninitReadMethod()))

	_, err := e.Invoke(context.Background(), "UIL_")
	assert.ErrorIs(t, err, ErrUninitialized)
}

func TestUninitializedLocalSlack(t *testing.T) {
	e, _, buf := newTestEngine(t, map[string]cty.Value{
		hostcfg.InterpreterSlack: cty.True,
	})
	require.NoError(t, e.Load(uninitReadMethod()))

	result, err := e.Invoke(context.Background(), "UIL_")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), result)
	assert.Contains(t, buf.String(), "auto-initializing")
}

func TestImplicitReturn(t *testing.T) {
	// No Return op; the last computed value is 42.
	method := func() *Method {
		return &Method{
			Name: "IMP_",
			Body: []Op{StoreLocal{Src: Int(42), Dst: 0}},
		}
	}

	t.Run("strict returns nothing", func(t *testing.T) {
		e, _, _ := newTestEngine(t, nil)
		require.NoError(t, e.Load(method()))

		result, err := e.Invoke(context.Background(), "IMP_")
		require.NoError(t, err)
		assert.Nil(t, result)
	})

	t.Run("slack returns last value", func(t *testing.T) {
		e, _, _ := newTestEngine(t, map[string]cty.Value{
			hostcfg.InterpreterSlack: cty.True,
		})
		require.NoError(t, e.Load(method()))

		result, err := e.Invoke(context.Background(), "IMP_")
		require.NoError(t, err)
		assert.Equal(t, uint64(42), result)
	})
}

func TestStoreToUndefinedName(t *testing.T) {
	method := func() *Method {
		return &Method{
			Name: "STU_",
			Body: []Op{StoreNamed{Src: Int(5), Dst: "MISS"}},
		}
	}

	t.Run("strict fails", func(t *testing.T) {
		e, _, _ := newTestEngine(t, nil)
		require.NoError(t, e.Load(method()))

		_, err := e.Invoke(context.Background(), "STU_")
		assert.ErrorIs(t, err, ErrObjectNotFound)
	})

	t.Run("slack creates the target", func(t *testing.T) {
		e, _, _ := newTestEngine(t, map[string]cty.Value{
			hostcfg.InterpreterSlack: cty.True,
		})
		require.NoError(t, e.Load(method()))

		_, err := e.Invoke(context.Background(), "STU_")
		require.NoError(t, err)
		val, err := e.Namespace().Load("MISS")
		require.NoError(t, err)
		assert.Equal(t, uint64(5), val)
	})
}

func TestDebugObjectOutputGated(t *testing.T) {
	method := func() *Method {
		return &Method{
			Name: "DBG_",
			Body: []Op{DebugWrite{Val: Str("hello from AML")}},
		}
	}

	t.Run("disabled by default", func(t *testing.T) {
		e, _, buf := newTestEngine(t, nil)
		require.NoError(t, e.Load(method()))

		_, err := e.Invoke(context.Background(), "DBG_")
		require.NoError(t, err)
		assert.NotContains(t, buf.String(), "hello from AML")
	})

	t.Run("enabled", func(t *testing.T) {
		e, _, buf := newTestEngine(t, map[string]cty.Value{
			hostcfg.EnableAmlDebugObject: cty.True,
		})
		require.NoError(t, e.Load(method()))

		_, err := e.Invoke(context.Background(), "DBG_")
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "hello from AML")
	})
}

func TestControlFlow(t *testing.T) {
	e, _, _ := newTestEngine(t, nil)

	// Count to 10, skipping even-to-odd transitions via Continue and
	// bailing out via Break once Local1 reaches 5.
	require.NoError(t, e.Load(&Method{
		Name: "FLW_",
		Body: []Op{
			StoreLocal{Src: Int(0), Dst: 0},
			While{Pred: Int(1), Body: []Op{
				If{
					Pred: LLess{A: Local(0), B: Int(5)},
					Then: []Op{
						StoreLocal{Src: Add{A: Local(0), B: Int(1)}, Dst: 0},
						Continue{},
					},
				},
				Break{},
			}},
			Return{Val: Local(0)},
		},
	}))

	result, err := e.Invoke(context.Background(), "FLW_")
	require.NoError(t, err)
	assert.Equal(t, uint64(5), result)
}

// countingLoopMethod creates a counter object, then increments it forever.
// The CreateNamed op also makes the load-time scan serialize the method.
func countingLoopMethod() *Method {
	return &Method{
		Name: "LOOP",
		Body: []Op{
			CreateNamed{Name: "CNT_", Val: Int(0)},
			While{Pred: Int(1), Body: []Op{
				StoreNamed{Src: Add{A: Named("CNT_"), B: Int(1)}, Dst: "CNT_"},
			}},
		},
	}
}

func TestWatchdogAbortsRunawayLoop(t *testing.T) {
	e, _, _ := newTestEngine(t, map[string]cty.Value{
		hostcfg.MaxLoopIterations: cty.NumberUIntVal(1000),
	})
	require.NoError(t, e.Load(countingLoopMethod()))

	_, err := e.Invoke(context.Background(), "LOOP")
	assert.ErrorIs(t, err, watchdog.ErrLoopTimeout)

	// The abort fired on iteration 1001 exactly: the body ran 1000 times.
	val, err := e.Namespace().Load("CNT_")
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), val)
}

func TestWatchdogAbortReleasesSerializationMutex(t *testing.T) {
	e, _, _ := newTestEngine(t, map[string]cty.Value{
		hostcfg.MaxLoopIterations: cty.NumberUIntVal(100),
	})
	m := countingLoopMethod()
	require.NoError(t, e.Load(m))
	require.True(t, m.Serialized)

	// Two aborted invocations in sequence: if the first leaked the
	// mutex, the second would block forever instead of timing out.
	_, err := e.Invoke(context.Background(), "LOOP")
	assert.ErrorIs(t, err, watchdog.ErrLoopTimeout)
	_, err = e.Invoke(context.Background(), "LOOP")
	assert.ErrorIs(t, err, watchdog.ErrLoopTimeout)
}

func TestNestedLoopsBoundedIndependently(t *testing.T) {
	e, _, _ := newTestEngine(t, map[string]cty.Value{
		hostcfg.MaxLoopIterations: cty.NumberUIntVal(10),
	})

	// Inner runs a 10-iteration loop; outer runs it 10 times. The
	// cumulative count is 110 iterations, but each loop stays within its
	// own bound, so the invocation completes.
	require.NoError(t, e.Load(
		&Method{
			Name: "INNR",
			Body: []Op{
				StoreLocal{Src: Int(0), Dst: 0},
				While{Pred: LLess{A: Local(0), B: Int(10)}, Body: []Op{
					StoreLocal{Src: Add{A: Local(0), B: Int(1)}, Dst: 0},
				}},
				Return{Val: Local(0)},
			},
		},
		&Method{
			Name: "OUTR",
			Body: []Op{
				StoreLocal{Src: Int(0), Dst: 0},
				While{Pred: LLess{A: Local(0), B: Int(10)}, Body: []Op{
					Call{Method: "INNR"},
					StoreLocal{Src: Add{A: Local(0), B: Int(1)}, Dst: 0},
				}},
				Return{Val: Local(0)},
			},
		},
	))

	result, err := e.Invoke(context.Background(), "OUTR")
	require.NoError(t, err)
	assert.Equal(t, uint64(10), result)
}

func TestWatchdogTripsThroughNestedCall(t *testing.T) {
	e, _, _ := newTestEngine(t, map[string]cty.Value{
		hostcfg.MaxLoopIterations: cty.NumberUIntVal(50),
	})

	require.NoError(t, e.Load(
		&Method{
			Name: "SPIN",
			Body: []Op{While{Pred: Int(1), Body: nil}},
		},
		&Method{
			Name: "CALL",
			Body: []Op{Call{Method: "SPIN"}, Return{Val: Int(1)}},
		},
	))

	_, err := e.Invoke(context.Background(), "CALL")
	assert.ErrorIs(t, err, watchdog.ErrLoopTimeout)
}

func TestSerializedMethodNeverOverlaps(t *testing.T) {
	const (
		goroutines  = 2
		invocations = 10000
	)

	e, _, _ := newTestEngine(t, nil)
	ns := e.Namespace()
	require.NoError(t, ns.Create("IN__", uint64(0)))
	require.NoError(t, ns.Create("OVL_", uint64(0)))
	require.NoError(t, ns.Create("CNT_", uint64(0)))

	// The body raises an in-progress marker, records an overlap if any
	// other invocation is inside, bumps the completion counter and drops
	// the marker. Only mutual exclusion keeps OVL_ at zero.
	require.NoError(t, e.Load(&Method{
		Name:       "SER_",
		Serialized: true,
		Body: []Op{
			StoreNamed{Src: Add{A: Named("IN__"), B: Int(1)}, Dst: "IN__"},
			If{
				Pred: LLess{A: Int(1), B: Named("IN__")},
				Then: []Op{StoreNamed{Src: Add{A: Named("OVL_"), B: Int(1)}, Dst: "OVL_"}},
			},
			StoreNamed{Src: Add{A: Named("CNT_"), B: Int(1)}, Dst: "CNT_"},
			StoreNamed{Src: Int(0), Dst: "IN__"},
		},
	}))

	var wg sync.WaitGroup
	errs := make(chan error, goroutines*invocations)
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < invocations; i++ {
				if _, err := e.Invoke(context.Background(), "SER_"); err != nil {
					errs <- err
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("invocation failed: %v", err)
	}

	completions, err := ns.Load("CNT_")
	require.NoError(t, err)
	assert.Equal(t, uint64(goroutines*invocations), completions)

	overlaps, err := ns.Load("OVL_")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), overlaps)
}
