// Package obslog provides the package-level logger every component uses
// for best-effort secondary operations (parity updates, replica syncs)
// that must not fail the primary write they follow.
package obslog

import (
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu      sync.RWMutex
	current = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
)

// Set replaces the process-wide logger, e.g. to apply the configured
// log level (config.ApplyLogLevel) or to redirect output in tests.
func Set(l zerolog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	current = l
}

// Get returns the current process-wide logger.
func Get() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := current
	return &l
}

// Warn logs a best-effort-operation failure without promoting it to the
// caller's error return, matching spec.md §4.5 step 9 and §5's ordering
// guarantees: a crash or failure at the redundancy level is detectable
// and repairable, not a reason to fail an already-committed primary write.
func Warn(component string, err error, msg string) {
	Get().Warn().Str("component", component).Err(err).Msg(msg)
}
