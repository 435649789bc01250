package pulse

import (
	"log/slog"
	"sync"

	"github.com/Aanishnithin07/Project-Aura/internal/logging"
)

var (
	pulseLogger *slog.Logger
	loggerOnce  sync.Once
)

// logger returns the package logger, initializing it on first use so
// hot-path logging never races logging setup.
func logger() *slog.Logger {
	loggerOnce.Do(func() {
		pulseLogger = logging.ForService("pulse")
		if pulseLogger == nil {
			pulseLogger = slog.Default().With("service", "pulse")
		}
	})
	return pulseLogger
}
