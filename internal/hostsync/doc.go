// Package hostsync implements the synchronization primitives the host
// supplies to the AML subsystem: in-process mutual exclusion with a fixed
// primitive kind, the platform-wide global hardware lock, and the CPU
// cache flush hook used before sleep transitions.
//
// The interpreter is the sole intended caller. Mutex acquisition blocks
// with no interpreter-visible timeout; the loop watchdog, one layer up, is
// the only runaway-execution bound.
package hostsync
