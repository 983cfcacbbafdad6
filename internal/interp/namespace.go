package interp

import (
	"errors"
	"fmt"
	"sync"

	"github.com/vk/amlhostgo/internal/diag"
	"github.com/vk/amlhostgo/internal/hostcfg"
)

var (
	// ErrAlreadyDefined is returned when a name is redefined while
	// runtime_namespace_override is disabled.
	ErrAlreadyDefined = errors.New("interp: name already defined")

	// ErrObjectNotFound is returned for lookups of undefined names.
	ErrObjectNotFound = errors.New("interp: namespace object not found")
)

// Namespace is the shared object store all method invocations read and
// write. The map itself is guarded internally; beyond that, only method
// serialization orders concurrent mutation. Invocations of unserialized
// methods may interleave their namespace accesses, which higher layers
// accept as a documented hazard.
type Namespace struct {
	mu      sync.RWMutex
	cfg     *hostcfg.Registry
	sink    *diag.Sink
	objects map[string]any
}

func newNamespace(cfg *hostcfg.Registry, sink *diag.Sink) *Namespace {
	return &Namespace{
		cfg:     cfg,
		sink:    sink,
		objects: make(map[string]any),
	}
}

// Create defines a named object. Redefinition of an existing name succeeds
// with a warning when runtime_namespace_override is set and fails with
// ErrAlreadyDefined otherwise.
func (ns *Namespace) Create(name string, val any) error {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	if _, exists := ns.objects[name]; exists {
		if !ns.cfg.Bool(hostcfg.RuntimeNamespaceOverride) {
			return fmt.Errorf("%w: %s", ErrAlreadyDefined, name)
		}
		ns.sink.Warnf(diag.LayerNamespace, "overriding existing namespace object %s", name)
	}
	ns.objects[name] = val
	return nil
}

// Store writes to an existing named object.
func (ns *Namespace) Store(name string, val any) error {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	if _, exists := ns.objects[name]; !exists {
		return fmt.Errorf("%w: %s", ErrObjectNotFound, name)
	}
	ns.objects[name] = val
	return nil
}

// Load reads a named object.
func (ns *Namespace) Load(name string) (any, error) {
	ns.mu.RLock()
	defer ns.mu.RUnlock()

	val, exists := ns.objects[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, name)
	}
	return val, nil
}
