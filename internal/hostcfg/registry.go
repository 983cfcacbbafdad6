package hostcfg

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

var (
	// ErrRejected is returned by Set when an init-time-only switch is
	// written after Init has sealed the registry.
	ErrRejected = errors.New("hostcfg: switch is init-time-only and the registry is sealed")

	// ErrUnknownSwitch is returned for names that are not part of the
	// switch table at all (as opposed to build-excluded switches, which
	// are silently ignored).
	ErrUnknownSwitch = errors.New("hostcfg: unknown switch")

	// ErrAlreadyInitialized is returned by Init on a second call.
	ErrAlreadyInitialized = errors.New("hostcfg: registry already initialized")
)

// Registry is a process-wide configuration table. It is constructed with
// built-in defaults, receives host overrides exactly once via Init, and is
// then handed to the interpreter by reference. All methods are safe for
// concurrent use; runtime-mutable switches may be flipped while the
// interpreter is running.
type Registry struct {
	mu       sync.RWMutex
	switches map[string]Switch
	values   map[string]cty.Value
	excluded map[string]bool
	sealed   bool
}

// New builds a registry from the built-in switch table. Switches tagged
// with a feature not present in features are excluded: reads fail and
// writes are silent no-ops. FeatureDebugOutput additionally selects the
// verbose diagnostic level default, mirroring a debug build.
func New(features ...Feature) *Registry {
	enabled := make(map[Feature]bool, len(features))
	for _, f := range features {
		enabled[f] = true
	}

	r := &Registry{
		switches: make(map[string]Switch),
		values:   make(map[string]cty.Value),
		excluded: make(map[string]bool),
	}
	for _, sw := range switchTable() {
		r.switches[sw.Name] = sw
		if sw.Feature != "" && !enabled[sw.Feature] {
			r.excluded[sw.Name] = true
			continue
		}
		r.values[sw.Name] = sw.Default
	}
	if enabled[FeatureDebugOutput] {
		r.values[DbgLevel] = cty.NumberUIntVal(uint64(dbgLevelDebugDefault))
	}
	return r
}

// Init applies the host's overrides on top of the defaults and seals the
// registry. It must be called exactly once, before the interpreter first
// consults the registry; a second call fails with ErrAlreadyInitialized.
func (r *Registry) Init(overrides map[string]cty.Value) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return ErrAlreadyInitialized
	}
	for name, val := range overrides {
		if err := r.assign(name, val); err != nil {
			return fmt.Errorf("applying override for %q: %w", name, err)
		}
	}
	r.sealed = true
	return nil
}

// Sealed reports whether Init has completed.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// Set assigns a new value to a switch. After Init, init-time-only switches
// reject the write with ErrRejected. Writes to build-excluded switches are
// silent no-ops so callers need not track which features this build
// carries. The value is converted to the switch's declared type; no other
// validation is performed.
func (r *Registry) Set(name string, val cty.Value) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sw, ok := r.switches[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSwitch, name)
	}
	if r.excluded[name] {
		return nil
	}
	if r.sealed && sw.Mutability == InitOnly {
		return fmt.Errorf("%w: %q", ErrRejected, name)
	}
	return r.assign(name, val)
}

// assign type-checks and stores a value. Callers hold r.mu.
func (r *Registry) assign(name string, val cty.Value) error {
	sw, ok := r.switches[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSwitch, name)
	}
	if r.excluded[name] {
		return nil
	}
	converted, err := convert.Convert(val, sw.Type)
	if err != nil {
		return fmt.Errorf("switch %q expects %s: %w", name, sw.Type.FriendlyName(), err)
	}
	r.values[name] = converted
	return nil
}

// Value returns the current value of a switch. Build-excluded and unknown
// switches fail with ErrUnknownSwitch.
func (r *Registry) Value(name string) (cty.Value, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	val, ok := r.values[name]
	if !ok {
		return cty.NilVal, fmt.Errorf("%w: %q", ErrUnknownSwitch, name)
	}
	return val, nil
}

// Bool returns a boolean switch. It panics on an unknown or excluded name;
// switch names are compile-time constants, so that is a programmer error.
func (r *Registry) Bool(name string) bool {
	val, err := r.Value(name)
	if err != nil {
		panic(err)
	}
	return val.True()
}

// Uint32 returns a numeric switch as a uint32.
func (r *Registry) Uint32(name string) uint32 {
	val, err := r.Value(name)
	if err != nil {
		panic(err)
	}
	f := val.AsBigFloat()
	u, _ := new(big.Float).SetMode(big.ToZero).Set(f).Uint64()
	return uint32(u)
}

// String returns a string switch.
func (r *Registry) String(name string) string {
	val, err := r.Value(name)
	if err != nil {
		panic(err)
	}
	return val.AsString()
}

// Snapshot returns a copy of the effective configuration, keyed by switch
// name. Build-excluded switches are absent. Used by the diagnostics
// endpoint and by tests.
func (r *Registry) Snapshot() map[string]cty.Value {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]cty.Value, len(r.values))
	for name, val := range r.values {
		out[name] = val
	}
	return out
}
