package hostsync

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// MutexKind selects the primitive backing every mutex a Provider mints.
// The kind is fixed when the Provider is constructed, mirroring a
// build-time selection: all interpreter-internal locks use the same kind
// for the life of the process.
type MutexKind int

const (
	// BinarySemaphore is the default kind: acquire/release only, no
	// recursive-acquire guarantee.
	BinarySemaphore MutexKind = iota

	// HostMutex uses the host OS's native mutex. The native primitive is
	// non-recursive; even on hosts whose native lock is reentrant, that
	// capability must not be exposed, because the interpreter is written
	// against non-recursive semantics.
	HostMutex
)

// String returns the configuration-file spelling of the kind.
func (k MutexKind) String() string {
	switch k {
	case BinarySemaphore:
		return "binary_semaphore"
	case HostMutex:
		return "host_mutex"
	default:
		return "unknown"
	}
}

// Mutex is the lock handed to the interpreter for serialized control
// methods and other internal critical sections. Acquire blocks until the
// lock is held or ctx is cancelled; it must not be called again by a
// holder (no recursion). Release must only be called by the holder.
type Mutex interface {
	Acquire(ctx context.Context) error
	Release()
}

// Provider mints synchronization primitives of a single fixed kind and
// carries the host's cache-flush hook.
type Provider struct {
	kind       MutexKind
	flushCache func()
}

// Option configures a Provider.
type Option func(*Provider)

// WithCacheFlush installs a host-specific CPU cache flush routine, e.g. a
// wbinvd trampoline on bare-metal x86 hosts.
func WithCacheFlush(fn func()) Option {
	return func(p *Provider) { p.flushCache = fn }
}

// NewProvider creates a provider whose mutexes are all of the given kind.
func NewProvider(kind MutexKind, opts ...Option) *Provider {
	p := &Provider{kind: kind}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Kind returns the fixed mutex kind of this provider.
func (p *Provider) Kind() MutexKind { return p.kind }

// NewMutex returns a new, unlocked mutex of the provider's kind.
func (p *Provider) NewMutex() Mutex {
	switch p.kind {
	case HostMutex:
		return &hostMutex{}
	default:
		return &binarySemaphore{sem: semaphore.NewWeighted(1)}
	}
}

// FlushCPUCache executes the host's cache flush routine. It must be called
// before any architecture-level sleep or suspend transition triggered on
// the host's behalf. On userspace hosts there is no privileged cache
// instruction available and no coherency concern across a simulated sleep,
// so the default is an explicit no-op.
func (p *Provider) FlushCPUCache() {
	if p.flushCache != nil {
		p.flushCache()
	}
}

// binarySemaphore implements Mutex as a counting semaphore of weight one.
type binarySemaphore struct {
	sem *semaphore.Weighted
}

func (m *binarySemaphore) Acquire(ctx context.Context) error {
	return m.sem.Acquire(ctx, 1)
}

func (m *binarySemaphore) Release() {
	m.sem.Release(1)
}

// hostMutex implements Mutex over the native lock. Lock ignores ctx: the
// native primitive blocks unconditionally, matching the contract that
// mutex acquisition has no interpreter-visible timeout.
type hostMutex struct {
	mu sync.Mutex
}

func (m *hostMutex) Acquire(_ context.Context) error {
	m.mu.Lock()
	return nil
}

func (m *hostMutex) Release() {
	m.mu.Unlock()
}

// KindFromString parses a configuration-file spelling of a mutex kind.
func KindFromString(s string) (MutexKind, bool) {
	switch s {
	case "binary_semaphore", "":
		return BinarySemaphore, true
	case "host_mutex":
		return HostMutex, true
	default:
		return BinarySemaphore, false
	}
}
