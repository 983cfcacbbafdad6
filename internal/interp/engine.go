package interp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/vk/amlhostgo/internal/diag"
	"github.com/vk/amlhostgo/internal/hostcfg"
	"github.com/vk/amlhostgo/internal/hostsync"
	"github.com/vk/amlhostgo/internal/watchdog"
	"github.com/zclconf/go-cty/cty"
)

const (
	maxLocals     = 8
	maxMethodArgs = 7

	// ones is the AML constant returned by _OSI for a supported string.
	ones = ^uint64(0)
)

var (
	// ErrMethodNotFound is returned by Invoke for undefined methods.
	ErrMethodNotFound = errors.New("interp: method not found")

	// ErrArgCount is returned when an invocation does not match the
	// method's declared argument count.
	ErrArgCount = errors.New("interp: argument count mismatch")

	// ErrUnresolvedReference is returned when a package element names an
	// object that does not exist and neither slack mode nor
	// ignore_package_resolution_errors is set.
	ErrUnresolvedReference = errors.New("interp: unresolved package element reference")
)

// Method is one loadable control method. Serialized may be set by the
// author or by the load-time scan; once a method is loaded its
// serialization is permanent.
type Method struct {
	Name       string
	ArgCount   int
	Serialized bool
	Returns    ReturnKind
	Body       []Op

	// handler, when set, short-circuits Body. Used for predefined host
	// methods such as _OSI.
	handler func(args []any) (any, error)

	// mu guards invocation of serialized methods. Minted at load time
	// from the engine's sync provider.
	mu hostsync.Mutex
}

// Engine executes loaded methods against a shared namespace, under the
// policies of a sealed configuration registry and the primitives of a
// host sync provider.
type Engine struct {
	cfg  *hostcfg.Registry
	sync *hostsync.Provider
	sink *diag.Sink
	ns   *Namespace

	mu      sync.RWMutex
	methods map[string]*Method
}

// New creates an engine. The registry must already be sealed by Init; the
// predefined _OSI method is installed now unless create_osi_method was
// switched off.
func New(cfg *hostcfg.Registry, provider *hostsync.Provider, sink *diag.Sink) *Engine {
	e := &Engine{
		cfg:     cfg,
		sync:    provider,
		sink:    sink,
		ns:      newNamespace(cfg, sink),
		methods: make(map[string]*Method),
	}
	if cfg.Bool(hostcfg.CreateOsiMethod) {
		e.installOSI()
	}
	return e
}

// Namespace exposes the shared object store, primarily for hosts and
// tests inspecting execution results.
func (e *Engine) Namespace() *Namespace { return e.ns }

// Load installs methods into the engine. For each method not already
// marked serialized, a single static scan of its body decides whether it
// can create named objects; if so the method is permanently marked
// serialized so that concurrent invocations cannot corrupt the namespace.
// Methods that stay unserialized may execute concurrently with interleaved
// namespace access.
func (e *Engine) Load(methods ...*Method) error {
	autoSerialize := e.cfg.Bool(hostcfg.AutoSerializeMethods)

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, m := range methods {
		if m.ArgCount < 0 || m.ArgCount > maxMethodArgs {
			return fmt.Errorf("method %s: %w", m.Name, ErrArgCount)
		}
		if !m.Serialized && autoSerialize && createsNamedObjects(m.Body) {
			m.Serialized = true
			e.sink.Printf(diag.LevelLoad, diag.LayerDispatcher,
				"method %s creates named objects, marking serialized", m.Name)
		}
		if m.Serialized && m.mu == nil {
			m.mu = e.sync.NewMutex()
		}

		if _, exists := e.methods[m.Name]; exists {
			if !e.cfg.Bool(hostcfg.RuntimeNamespaceOverride) {
				return fmt.Errorf("%w: %s", ErrAlreadyDefined, m.Name)
			}
			e.sink.Warnf(diag.LayerNamespace, "overriding existing method %s", m.Name)
		}
		e.methods[m.Name] = m
	}
	return nil
}

// LoadPackage resolves a package object's element references and installs
// it as a named object. Elements may be integer or string literals or
// Named references. An unresolved reference fails the load unless slack
// mode or ignore_package_resolution_errors downgrades it to a warning and
// a null element.
func (e *Engine) LoadPackage(name string, elems []Expr) error {
	tolerate := e.cfg.Bool(hostcfg.IgnorePackageResolutionErrors) ||
		e.cfg.Bool(hostcfg.InterpreterSlack)

	resolved := make([]any, len(elems))
	for i, elem := range elems {
		switch elem := elem.(type) {
		case Int:
			resolved[i] = uint64(elem)
		case Str:
			resolved[i] = string(elem)
		case Named:
			val, err := e.ns.Load(string(elem))
			if err != nil {
				if !tolerate {
					return fmt.Errorf("package %s element %d (%s): %w",
						name, i, string(elem), ErrUnresolvedReference)
				}
				e.sink.Warnf(diag.LayerNamespace,
					"package %s element %d: replacing unresolved reference %s with null",
					name, i, string(elem))
				resolved[i] = nil
				continue
			}
			resolved[i] = val
		default:
			return fmt.Errorf("package %s element %d: unsupported element expression", name, i)
		}
	}
	return e.ns.Create(name, resolved)
}

// Invoke executes a loaded method as a new top-level invocation with its
// own loop watchdog budget. Serialized methods block on the method mutex
// first; the mutex is released on every exit path, including a watchdog
// abort, so a timed-out invocation never leaks the lock.
func (e *Engine) Invoke(ctx context.Context, name string, args ...any) (any, error) {
	budget := watchdog.New(e.cfg.Uint32(hostcfg.MaxLoopIterations))
	return e.invokeMethod(ctx, name, args, budget)
}

func (e *Engine) invokeMethod(ctx context.Context, name string, args []any, budget *watchdog.Budget) (any, error) {
	e.mu.RLock()
	m, ok := e.methods[name]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMethodNotFound, name)
	}
	if len(args) != m.ArgCount {
		return nil, fmt.Errorf("method %s expects %d args, got %d: %w",
			m.Name, m.ArgCount, len(args), ErrArgCount)
	}

	traced := e.cfg.Uint32(hostcfg.TraceFlags) != 0 &&
		e.cfg.String(hostcfg.TraceMethodName) == m.Name
	if traced {
		e.sink.Tracef(diag.LevelExec, diag.LayerInterpreter, "begin execution of %s", m.Name)
		defer e.sink.Tracef(diag.LevelExec, diag.LayerInterpreter, "end execution of %s", m.Name)
	}

	if m.Serialized {
		if err := m.mu.Acquire(ctx); err != nil {
			return nil, fmt.Errorf("method %s: acquiring serialization mutex: %w", m.Name, err)
		}
		defer m.mu.Release()
	}

	if m.handler != nil {
		return m.handler(args)
	}

	ec := &execContext{
		ctx:    ctx,
		args:   args,
		budget: budget,
	}
	if err := e.execBlock(ec, m.Body); err != nil {
		return nil, fmt.Errorf("method %s: %w", m.Name, err)
	}

	result := e.methodResult(ec, m)
	return e.repairResult(m, result), nil
}

// methodResult selects the invocation's return value. A Return op wins;
// otherwise slack mode permits an implicit return of the last computed
// value, and strict execution returns nothing.
func (e *Engine) methodResult(ec *execContext, m *Method) any {
	if ec.flow == flowReturn {
		return ec.retVal
	}
	if e.cfg.Bool(hostcfg.InterpreterSlack) && ec.lastVal != nil {
		e.sink.Warnf(diag.LayerInterpreter,
			"method %s: implicit return of last value", m.Name)
		return ec.lastVal
	}
	return nil
}

// repairResult coerces a return value that does not match the method's
// declared kind, unless runtime repair is disabled, in which case the
// malformed value propagates unchanged.
func (e *Engine) repairResult(m *Method, result any) any {
	if m.Returns == ReturnAny || result == nil || e.cfg.Bool(hostcfg.DisableAutoRepair) {
		return result
	}

	switch m.Returns {
	case ReturnInteger:
		if s, isStr := result.(string); isStr {
			n, err := strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 64)
			if err != nil {
				n = 0
			}
			e.sink.Printf(diag.LevelRepair, diag.LayerInterpreter,
				"method %s: repaired String return %q to Integer 0x%x", m.Name, s, n)
			return n
		}
	case ReturnString:
		if n, isInt := result.(uint64); isInt {
			s := strconv.FormatUint(n, 16)
			e.sink.Printf(diag.LevelRepair, diag.LayerInterpreter,
				"method %s: repaired Integer return 0x%x to String %q", m.Name, n, s)
			return s
		}
	}
	return result
}

// osiCompatLevels maps _OSI query strings to the compatibility level
// recorded in osi_data. The newest requested level wins.
var osiCompatLevels = map[string]uint32{
	"Windows 2000":    0x01,
	"Windows 2001":    0x02,
	"Windows 2006":    0x08,
	"Windows 2009":    0x0B,
	"Windows 2012":    0x0D,
	"Windows 2013":    0x0E,
	"Windows 2015":    0x0F,

	// Feature group strings answer true but carry no compat level.
	"Extended Address Space Descriptor": 0x00,
}

// installOSI registers the predefined _OSI compatibility query method.
// Answering any Windows string also truncates I/O addresses to 16 bits
// from then on, for compatibility with the implementations that firmware
// tested against.
func (e *Engine) installOSI() {
	e.methods["_OSI"] = &Method{
		Name:     "_OSI",
		ArgCount: 1,
		handler: func(args []any) (any, error) {
			query, isStr := args[0].(string)
			if !isStr {
				return nil, fmt.Errorf("_OSI: argument must be a string")
			}
			level, supported := osiCompatLevels[query]
			if !supported {
				return uint64(0), nil
			}

			if strings.HasPrefix(query, "Windows") {
				_ = e.cfg.Set(hostcfg.TruncateIoAddresses, cty.True)
				if level > e.cfg.Uint32(hostcfg.OsiData) {
					_ = e.cfg.Set(hostcfg.OsiData, cty.NumberUIntVal(uint64(level)))
				}
			}
			return ones, nil
		},
	}
}
