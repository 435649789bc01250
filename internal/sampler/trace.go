// trace.go: recorded trace replay source and trace file loading.
package sampler

import (
	"context"
	"os"
	"time"

	"github.com/Aanishnithin07/Project-Aura/internal/errors"
)

// TraceSource replays a recorded sample trace, paced at the capture
// rate so the pipeline behaves as it would live.
type TraceSource struct {
	path string
	rate float64
}

// NewTrace creates a trace replay source. A rate of zero disables
// pacing and replays as fast as the consumer accepts.
func NewTrace(path string, rate float64) *TraceSource {
	return &TraceSource{path: path, rate: rate}
}

func (t *TraceSource) Name() string { return "trace" }

// Stream replays the trace and returns nil when it is exhausted.
func (t *TraceSource) Stream(ctx context.Context, out chan<- float64) error {
	samples, err := ReadTrace(t.path)
	if err != nil {
		return err
	}

	getLogger().Info("Replaying trace",
		"path", t.path, "samples", len(samples), "sample_rate", t.rate)

	var ticker *time.Ticker
	if t.rate > 0 {
		ticker = time.NewTicker(time.Duration(float64(time.Second) / t.rate))
		defer ticker.Stop()
	}

	for _, sample := range samples {
		if ticker != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
		select {
		case out <- sample:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}

// ReadTrace loads all samples from a trace file using the same line
// protocol as the stdin source.
func ReadTrace(path string) ([]float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.New(err).
			Component("sampler").
			Category(errors.CategoryFileIO).
			Context("operation", "open-trace").
			Context("path", path).
			Build()
	}
	defer file.Close()

	var samples []float64
	source := NewReader(file, "trace")

	// Collect on an unbuffered channel from the streaming reader so
	// file and live input share one parser.
	collect := make(chan float64)
	done := make(chan error, 1)
	go func() {
		done <- source.Stream(context.Background(), collect)
		close(collect)
	}()

	for sample := range collect {
		samples = append(samples, sample)
	}
	if err := <-done; err != nil {
		return nil, err
	}

	return samples, nil
}
