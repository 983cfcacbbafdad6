package app

import (
	"fmt"

	"github.com/vk/amlhostgo/internal/hostsync"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	SettingsPath string // optional hcl override file

	LogFormat string
	LogLevel  string
	DiagPort  int
	MutexKind string
}

func NewConfig(cfg Config) (*Config, error) {
	if _, ok := hostsync.KindFromString(cfg.MutexKind); !ok {
		return nil, fmt.Errorf("invalid mutex-kind %q: must be 'binary_semaphore' or 'host_mutex'", cfg.MutexKind)
	}

	// The settings path is optional; built-in defaults apply without one.

	return &cfg, nil
}
