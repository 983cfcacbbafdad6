package app

import (
	"context"
	"fmt"

	"github.com/vk/amlhostgo/internal/ctxlog"
	"github.com/vk/amlhostgo/internal/hostcfg"
)

// Run brings the subsystem up: the diagnostics server is started if
// requested, the synchronization contract is exercised once, and the
// effective configuration is reported.
func (a *App) Run(ctx context.Context, config *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if config.DiagPort > 0 {
		a.startDiagServer(config.DiagPort)
	}

	if err := a.checkSyncContract(ctx); err != nil {
		return fmt.Errorf("synchronization self-check failed: %w", err)
	}

	a.logger.Info("Host configuration boundary ready.",
		"mutex_kind", a.sync.Kind().String(),
		"max_loop_iterations", a.cfg.Uint32(hostcfg.MaxLoopIterations),
		"interpreter_slack", a.cfg.Bool(hostcfg.InterpreterSlack),
		"auto_serialize_methods", a.cfg.Bool(hostcfg.AutoSerializeMethods),
	)

	a.logger.Debug("App.Run method finished.")
	return nil
}

// checkSyncContract exercises each synchronization primitive once before
// the interpreter depends on them, so a broken host binding fails at
// startup instead of mid-method.
func (a *App) checkSyncContract(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	m := a.sync.NewMutex()
	if err := m.Acquire(ctx); err != nil {
		return fmt.Errorf("mutex acquire: %w", err)
	}
	m.Release()
	logger.Debug("Mutex round-trip passed.", "kind", a.sync.Kind().String())

	if !a.lock.Acquire() {
		logger.Warn("Global lock busy at startup, request left pending.")
	} else if pending := a.lock.Release(); pending {
		logger.Warn("Global lock released with a requester pending.")
	}

	a.sync.FlushCPUCache()
	return nil
}
