// Package interp implements the subsystem's control-method engine over a
// synthetic op tree. It is not an AML byte-code interpreter: parsing and
// the full opcode set live outside this repository. What it implements is
// every behavior the host boundary is contractually responsible for when
// methods execute: the load-time auto-serialization scan, mutually
// exclusive invocation of serialized methods, the loop watchdog, slack-mode
// leniency, namespace override policy, package element resolution, the
// _OSI compatibility method, Debug-object output and per-method tracing.
//
// Methods hold up to 8 local variables and receive up to 7 arguments,
// matching the limits firmware byte-code is written against.
package interp
