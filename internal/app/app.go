package app

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/amlhostgo/internal/diag"
	"github.com/vk/amlhostgo/internal/hostcfg"
	"github.com/vk/amlhostgo/internal/hostcfg/hclload"
	"github.com/vk/amlhostgo/internal/hostsync"
	"github.com/vk/amlhostgo/internal/interp"
	"github.com/zclconf/go-cty/cty"
)

// App encapsulates the subsystem's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	cfg    *hostcfg.Registry
	sync   *hostsync.Provider
	lock   hostsync.GlobalLock
	sink   *diag.Sink
	engine *interp.Engine
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance: logger, settings overrides applied, registry
// sealed, sync provider and engine constructed. A failure here is a fatal
// startup error, so it panics; the entrypoint recovers to exit cleanly.
func NewApp(outW io.Writer, config *Config) *App {
	logger := newLogger(config.LogLevel, config.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	overrides := map[string]cty.Value{}
	if config.SettingsPath != "" {
		var err error
		overrides, err = hclload.File(config.SettingsPath)
		if err != nil {
			panic(fmt.Errorf("failed to load settings: %w", err))
		}
		logger.Debug("Settings overrides loaded.", "path", config.SettingsPath, "count", len(overrides))
	}

	// Debug-level logging selects the verbose diagnostic defaults too.
	var features []hostcfg.Feature
	if config.LogLevel == "debug" {
		features = append(features, hostcfg.FeatureDebugOutput)
	}

	registry := hostcfg.New(features...)
	if err := registry.Init(overrides); err != nil {
		panic(fmt.Errorf("failed to apply settings: %w", err))
	}
	logger.Debug("Configuration registry sealed.", "switches", len(registry.Snapshot()))

	// The kind was validated by NewConfig.
	kind, _ := hostsync.KindFromString(config.MutexKind)
	provider := hostsync.NewProvider(kind)
	sink := diag.NewSink(logger, registry)

	return &App{
		outW:   outW,
		logger: logger,
		cfg:    registry,
		sync:   provider,
		lock:   hostsync.DegradedGlobalLock{},
		sink:   sink,
		engine: interp.New(registry, provider, sink),
	}
}

// Registry returns the application's configuration registry. This is
// primarily for testing.
func (a *App) Registry() *hostcfg.Registry {
	return a.cfg
}

// Engine returns the interpreter engine so hosts can load and invoke
// control methods.
func (a *App) Engine() *interp.Engine {
	return a.engine
}
