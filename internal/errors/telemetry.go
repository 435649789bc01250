package errors

import "sync"

// TelemetryReporter receives finalized errors. The telemetry package
// installs its implementation at startup, keeping the dependency
// pointing from telemetry to errors and never the other way around.
type TelemetryReporter interface {
	ReportError(ee *EnhancedError)
	IsEnabled() bool
}

var (
	telemetryReporter TelemetryReporter
	reporterMu        sync.RWMutex
)

// SetTelemetryReporter installs the reporter used by Build. Passing
// nil disables reporting.
func SetTelemetryReporter(reporter TelemetryReporter) {
	reporterMu.Lock()
	defer reporterMu.Unlock()
	telemetryReporter = reporter
}

func reportToTelemetry(ee *EnhancedError) {
	reporterMu.RLock()
	reporter := telemetryReporter
	reporterMu.RUnlock()

	if reporter == nil || !reporter.IsEnabled() || ee.IsReported() {
		return
	}
	reporter.ReportError(ee)
	ee.MarkReported()
}
