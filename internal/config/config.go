// Package config resolves the base storage path and logging verbosity
// from the environment, leaving CLI flags (registered per command) free
// to override it. This is the "path/filesystem plumbing" spec.md keeps
// outside the engine: internal/engine only ever sees a resolved path.
package config

import (
	"os"

	"github.com/rs/zerolog"

	"heartystore/internal/obslog"
)

const (
	envBasePath = "HEARTYSTORE_BASE"
	envLogLevel = "HEARTYSTORE_LOG_LEVEL"

	// DefaultBasePath matches the original source's hardcoded /tmp root.
	DefaultBasePath = "/tmp/heartystore"
)

// Config is the resolved runtime configuration shared by all seven CLI commands.
type Config struct {
	BasePath string
	LogLevel zerolog.Level
}

// Load resolves Config from the environment, falling back to defaults.
func Load() Config {
	base := os.Getenv(envBasePath)
	if base == "" {
		base = DefaultBasePath
	}

	level := zerolog.InfoLevel
	if raw := os.Getenv(envLogLevel); raw != "" {
		if parsed, err := zerolog.ParseLevel(raw); err == nil {
			level = parsed
		}
	}

	return Config{BasePath: base, LogLevel: level}
}

// ApplyLogLevel raises or lowers the package-level obslog logger to
// cfg.LogLevel. Every cmd/* binary calls this right after Load (and any
// flag override) so HEARTYSTORE_LOG_LEVEL actually controls verbosity
// instead of being resolved and discarded.
func ApplyLogLevel(cfg Config) {
	obslog.Set(obslog.Get().Level(cfg.LogLevel))
}
