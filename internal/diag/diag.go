// Package diag implements the subsystem's diagnostic output sink: a
// printf-style entry point filtered by runtime verbosity and component
// bitmasks, delivered through the host's structured logger. The masks live
// in the configuration registry so a debugger console can raise or lower
// them while the interpreter runs.
package diag

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/vk/amlhostgo/internal/hostcfg"
)

// Level is the verbosity bitmask for one diagnostic message. A message is
// emitted only when its level bits intersect the registry's dbg_level.
type Level uint32

const (
	LevelInit        Level = 1 << 0
	LevelDebugObject Level = 1 << 1
	LevelInfo        Level = 1 << 2
	LevelRepair      Level = 1 << 3
	LevelExec        Level = 1 << 4
	LevelNames       Level = 1 << 5
	LevelLoad        Level = 1 << 6
	LevelMutex       Level = 1 << 7
)

// Layer identifies the component a message originates from, matched
// against the registry's dbg_layer mask.
type Layer uint32

const (
	LayerTables      Layer = 1 << 0
	LayerNamespace   Layer = 1 << 1
	LayerInterpreter Layer = 1 << 2
	LayerDispatcher  Layer = 1 << 3
	LayerDebugger    Layer = 1 << 4
)

// Sink is the formatted-output function the subsystem hands to its
// components. It consults the registry's masks on every call, so runtime
// changes take effect immediately.
type Sink struct {
	logger *slog.Logger
	cfg    *hostcfg.Registry
}

// NewSink binds a sink to a logger and a registry.
func NewSink(logger *slog.Logger, cfg *hostcfg.Registry) *Sink {
	return &Sink{logger: logger, cfg: cfg}
}

// Enabled reports whether a message with the given level and layer would
// currently be emitted.
func (s *Sink) Enabled(level Level, layer Layer) bool {
	return uint32(level)&s.cfg.Uint32(hostcfg.DbgLevel) != 0 &&
		uint32(layer)&s.cfg.Uint32(hostcfg.DbgLayer) != 0
}

// Printf formats and emits a diagnostic message if the current masks allow
// it.
func (s *Sink) Printf(level Level, layer Layer, format string, args ...any) {
	if !s.Enabled(level, layer) {
		return
	}
	s.logger.Debug(fmt.Sprintf(format, args...), "level", uint32(level), "layer", uint32(layer))
}

// Warnf emits regardless of the verbosity mask; warnings about firmware
// misbehavior must not be silenced by a low dbg_level.
func (s *Sink) Warnf(layer Layer, format string, args ...any) {
	s.logger.Warn(fmt.Sprintf(format, args...), "layer", uint32(layer))
}

// Tracef emits a single-method trace message. Trace output is filtered
// against the dedicated trace_dbg_level/trace_dbg_layer masks rather than
// the global ones, so a single method can be traced verbosely without
// flooding the log with everything else.
func (s *Sink) Tracef(level Level, layer Layer, format string, args ...any) {
	if uint32(level)&s.cfg.Uint32(hostcfg.TraceDbgLevel) == 0 ||
		uint32(layer)&s.cfg.Uint32(hostcfg.TraceDbgLayer) == 0 {
		return
	}
	s.logger.Debug(fmt.Sprintf(format, args...), "trace", true)
}

// DebugObject emits a Debug-object store from AML. Callers gate on the
// enable_aml_debug_object switch; the sink only applies the optional
// timer prefix.
func (s *Sink) DebugObject(v any) {
	attrs := []any{"value", fmt.Sprintf("%v", v)}
	if s.cfg.Bool(hostcfg.DisplayDebugTimer) {
		attrs = append(attrs, "elapsed", time.Now().UnixMicro())
	}
	s.logger.Info("AML Debug object", attrs...)
}
