// Package metrics provides Prometheus metric collectors for the
// individual AuraScan subsystems. Each collector registers itself on
// the registry passed to its constructor.
package metrics

import "time"

// Cycle outcome labels used by the pulse metrics. These match the
// cycle results reported by the estimator.
const (
	OutcomeNew     = "new"
	OutcomeHeld    = "held"
	OutcomeFilling = "filling"
	OutcomeDropped = "dropped"
)

// ShutdownTimeout is the timeout for graceful shutdown of the
// telemetry HTTP server.
const ShutdownTimeout = 5 * time.Second
