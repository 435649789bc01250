// Package sampler provides the sources that feed raw
// photoplethysmography samples into the pulse estimator. A source
// emits one scalar per video frame, typically the spatial mean of the
// green channel over the subject's forehead region.
package sampler

import (
	"context"
	"fmt"

	"github.com/Aanishnithin07/Project-Aura/internal/conf"
)

// Source produces raw samples at the configured capture rate. Stream
// blocks until the context is cancelled or the source is exhausted,
// sending samples on out. The channel is not closed by the source.
type Source interface {
	Name() string
	Stream(ctx context.Context, out chan<- float64) error
}

// New returns the source selected in the settings.
func New(settings *conf.Settings) (Source, error) {
	src := settings.Realtime.Source
	switch src.Type {
	case "synthetic":
		return NewSynthetic(src.Synthetic, settings.Pulse.SampleRate), nil
	case "stdin":
		return NewStdin(), nil
	case "trace":
		return NewTrace(src.Path, settings.Pulse.SampleRate), nil
	default:
		return nil, fmt.Errorf("unknown source type: %q", src.Type)
	}
}
