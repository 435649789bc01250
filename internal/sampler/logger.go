package sampler

import (
	"log/slog"
	"sync"

	"github.com/Aanishnithin07/Project-Aura/internal/logging"
)

var (
	serviceLogger *slog.Logger
	loggerOnce    sync.Once
)

func getLogger() *slog.Logger {
	loggerOnce.Do(func() {
		serviceLogger = logging.ForService("sampler")
		if serviceLogger == nil {
			serviceLogger = slog.Default().With("service", "sampler")
		}
	})
	return serviceLogger
}
