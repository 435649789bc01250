// Package errors layers component, category and context metadata on
// top of standard library errors so failures can be grouped, logged
// and optionally forwarded to telemetry without losing the wrapped
// error chain. It re-exports the stdlib helpers so callers only need
// one errors import.
package errors

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrorCategory groups errors by failure domain.
type ErrorCategory string

const (
	CategoryValidation       ErrorCategory = "validation"
	CategoryConfiguration    ErrorCategory = "configuration"
	CategorySignalProcessing ErrorCategory = "signal-processing"
	CategorySource           ErrorCategory = "sample-source"
	CategoryFileIO           ErrorCategory = "file-io"
	CategoryNetwork          ErrorCategory = "network"
	CategoryMQTTConnection   ErrorCategory = "mqtt-connection"
	CategoryMQTTPublish      ErrorCategory = "mqtt-publish"
	CategoryHTTP             ErrorCategory = "http-request"
	CategoryBroadcast        ErrorCategory = "broadcast"
	CategorySystem           ErrorCategory = "system-resource"
	CategoryState            ErrorCategory = "state"
	CategoryGeneric          ErrorCategory = "generic"
)

// ComponentUnknown is assigned when the builder was given no component.
const ComponentUnknown = "unknown"

// EnhancedError carries an underlying error plus grouping metadata.
type EnhancedError struct {
	Err       error
	Category  ErrorCategory
	Context   map[string]any
	Timestamp time.Time

	component string
	mu        sync.RWMutex
	reported  bool
}

// Error returns the underlying error message.
func (ee *EnhancedError) Error() string {
	return ee.Err.Error()
}

// Unwrap exposes the wrapped error to errors.Is and errors.As.
func (ee *EnhancedError) Unwrap() error {
	return ee.Err
}

// GetComponent returns the component this error was attributed to.
func (ee *EnhancedError) GetComponent() string {
	return ee.component
}

// GetCategory returns the category as a plain string for log fields.
func (ee *EnhancedError) GetCategory() string {
	return string(ee.Category)
}

// GetContext returns a copy of the context map, never the live map.
func (ee *EnhancedError) GetContext() map[string]any {
	if ee.Context == nil {
		return nil
	}
	out := make(map[string]any, len(ee.Context))
	for k, v := range ee.Context {
		out[k] = v
	}
	return out
}

// MarkReported records that this error reached telemetry, repeat
// reports of the same instance are suppressed.
func (ee *EnhancedError) MarkReported() {
	ee.mu.Lock()
	defer ee.mu.Unlock()
	ee.reported = true
}

// IsReported returns whether this error has been sent to telemetry.
func (ee *EnhancedError) IsReported() bool {
	ee.mu.RLock()
	defer ee.mu.RUnlock()
	return ee.reported
}

// ErrorBuilder assembles an EnhancedError fluently.
type ErrorBuilder struct {
	err       error
	component string
	category  ErrorCategory
	context   map[string]any
}

// New starts a builder around an existing error.
func New(err error) *ErrorBuilder {
	return &ErrorBuilder{err: err}
}

// Newf starts a builder around a freshly formatted error.
func Newf(format string, args ...any) *ErrorBuilder {
	return New(fmt.Errorf(format, args...))
}

// Component names the subsystem the error belongs to.
func (eb *ErrorBuilder) Component(component string) *ErrorBuilder {
	eb.component = component
	return eb
}

// Category assigns the failure domain.
func (eb *ErrorBuilder) Category(category ErrorCategory) *ErrorBuilder {
	eb.category = category
	return eb
}

// Context attaches one key/value pair of diagnostic data.
func (eb *ErrorBuilder) Context(key string, value any) *ErrorBuilder {
	if eb.context == nil {
		eb.context = make(map[string]any)
	}
	eb.context[key] = value
	return eb
}

// Timing attaches the operation name and its duration.
func (eb *ErrorBuilder) Timing(operation string, duration time.Duration) *ErrorBuilder {
	if eb.context == nil {
		eb.context = make(map[string]any)
	}
	eb.context["operation"] = operation
	eb.context["duration_ms"] = duration.Milliseconds()
	return eb
}

// Build finalizes the error and hands it to the telemetry reporter
// when one is installed.
func (eb *ErrorBuilder) Build() *EnhancedError {
	ee := &EnhancedError{
		Err:       eb.err,
		Category:  eb.category,
		Context:   eb.context,
		Timestamp: time.Now(),
		component: eb.component,
	}
	if ee.component == "" {
		ee.component = ComponentUnknown
	}
	if ee.Category == "" {
		ee.Category = CategoryGeneric
	}
	reportToTelemetry(ee)
	return ee
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Join wraps a list of errors into one.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
