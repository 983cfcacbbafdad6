// Package hostcfg implements the host-tunable configuration registry that
// the AML subsystem consults at initialization and at runtime decision
// points. The registry holds a fixed table of named, typed switches with
// built-in defaults; hosts apply overrides exactly once via Init before the
// interpreter first runs, after which init-time-only switches are sealed
// and only runtime-mutable switches (for example the ones a debugger
// console flips while the interpreter is idle) accept new values.
package hostcfg
