// Package telemetry provides opt-in error reporting to Sentry.
// Nothing is ever sent unless the user has explicitly enabled it in
// the configuration.
package telemetry

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/Aanishnithin07/Project-Aura/internal/conf"
	"github.com/Aanishnithin07/Project-Aura/internal/errors"
	"github.com/Aanishnithin07/Project-Aura/internal/logging"
	"github.com/Aanishnithin07/Project-Aura/internal/privacy"
)

var (
	enabled    atomic.Bool
	initOnce   sync.Once
	logger     *slog.Logger
	loggerOnce sync.Once
)

func getLogger() *slog.Logger {
	loggerOnce.Do(func() {
		logger = logging.ForService("telemetry")
		if logger == nil {
			logger = slog.Default().With("service", "telemetry")
		}
	})
	return logger
}

// InitSentry initializes the Sentry SDK when error reporting has been
// explicitly enabled in the settings, and registers the reporter with
// the errors package so enhanced errors are forwarded automatically.
func InitSentry(settings *conf.Settings) error {
	if !settings.Sentry.Enabled {
		getLogger().Debug("Sentry error reporting is disabled (opt-in required)")
		return nil
	}

	var initErr error
	initOnce.Do(func() {
		initErr = sentry.Init(sentry.ClientOptions{
			Dsn:              settings.Sentry.DSN,
			Environment:      settings.Sentry.Environment,
			Release:          fmt.Sprintf("aurascan@%s", settings.Version),
			SampleRate:       1.0,
			AttachStacktrace: true,
			BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
				return scrubEvent(event)
			},
		})
		if initErr != nil {
			initErr = fmt.Errorf("failed to initialize Sentry: %w", initErr)
			return
		}

		sentry.ConfigureScope(func(scope *sentry.Scope) {
			scope.SetTag("instance", settings.Main.Name)
		})

		enabled.Store(true)
		errors.SetTelemetryReporter(&sentryReporter{})
		getLogger().Info("Sentry error reporting enabled",
			"environment", settings.Sentry.Environment)
	})
	return initErr
}

// Enabled reports whether Sentry reporting is active.
func Enabled() bool {
	return enabled.Load()
}

// scrubEvent anonymizes URLs and filesystem paths in every field a raw
// error string can reach. Trace file paths and broker endpoints stay on
// the user's machine.
func scrubEvent(event *sentry.Event) *sentry.Event {
	event.Message = privacy.ScrubMessage(event.Message)
	for i := range event.Exception {
		event.Exception[i].Value = privacy.ScrubMessage(event.Exception[i].Value)
	}
	return event
}

// sentryReporter forwards enhanced errors to Sentry with component and
// category tags attached.
type sentryReporter struct{}

func (r *sentryReporter) ReportError(ee *errors.EnhancedError) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", ee.GetComponent())
		scope.SetTag("category", ee.GetCategory())
		for key, value := range ee.GetContext() {
			scope.SetExtra(key, value)
		}
		sentry.CaptureException(ee)
	})
}

func (r *sentryReporter) IsEnabled() bool {
	return enabled.Load()
}

// CaptureError reports an error that did not travel through the
// enhanced error path.
func CaptureError(err error, component string) {
	if !enabled.Load() {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", component)
		sentry.CaptureException(err)
	})
}

// CaptureMessage reports a plain message at the given level.
func CaptureMessage(message string, level sentry.Level, component string) {
	if !enabled.Load() {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", component)
		scope.SetLevel(level)
		sentry.CaptureMessage(message)
	})
}

// Flush waits up to the given timeout for buffered events to be
// delivered. Call this during shutdown.
func Flush(timeout time.Duration) {
	if enabled.Load() {
		sentry.Flush(timeout)
	}
}
