package observability

import (
	"log/slog"
	"sync"

	"github.com/Aanishnithin07/Project-Aura/internal/logging"
)

var (
	serviceLogger *slog.Logger
	loggerOnce    sync.Once
)

// getLogger returns the shared logger for this package, falling back
// to the default logger when logging has not been initialized yet.
func getLogger() *slog.Logger {
	loggerOnce.Do(func() {
		serviceLogger = logging.ForService("observability")
		if serviceLogger == nil {
			serviceLogger = slog.Default().With("service", "observability")
		}
	})
	return serviceLogger
}
