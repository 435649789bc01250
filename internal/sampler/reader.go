// reader.go: line protocol source reading one sample per line from an
// io.Reader, backing the stdin source type.
package sampler

import (
	"bufio"
	"context"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Aanishnithin07/Project-Aura/internal/errors"
)

// ReaderSource reads one decimal sample per line. Blank lines and
// lines starting with '#' are skipped. Values that parse to NaN or Inf
// are forwarded unchanged, the estimator drops them with a log entry.
type ReaderSource struct {
	name   string
	reader io.Reader
}

// NewReader creates a line protocol source over an arbitrary reader.
func NewReader(r io.Reader, name string) *ReaderSource {
	return &ReaderSource{name: name, reader: r}
}

// NewStdin creates a line protocol source over standard input.
func NewStdin() *ReaderSource {
	return NewReader(os.Stdin, "stdin")
}

func (r *ReaderSource) Name() string { return r.name }

// Stream reads lines until EOF or context cancellation. EOF is a
// normal end of stream and returns nil.
func (r *ReaderSource) Stream(ctx context.Context, out chan<- float64) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)

	// The blocking Scan cannot be interrupted, so it runs in its own
	// goroutine and exits on EOF or when a pending send is abandoned.
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r.reader)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	lineNo := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil {
						return errors.New(err).
							Component("sampler").
							Category(errors.CategorySource).
							Context("operation", "read-stream").
							Context("source", r.name).
							Build()
					}
				default:
				}
				return nil
			}

			lineNo++
			value, ok, err := parseSampleLine(line, lineNo)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}

			select {
			case out <- value:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// parseSampleLine parses one line of the sample protocol. The second
// return is false for lines that carry no sample. CSV style rows take
// the last field so "timestamp,value" traces work unmodified.
func parseSampleLine(line string, lineNo int) (float64, bool, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return 0, false, nil
	}

	field := trimmed
	if idx := strings.LastIndex(trimmed, ","); idx >= 0 {
		field = strings.TrimSpace(trimmed[idx+1:])
	}

	value, err := strconv.ParseFloat(field, 64)
	if err != nil {
		// A non-numeric first line is a header, anything later is a
		// malformed trace.
		if lineNo == 1 {
			return 0, false, nil
		}
		return 0, false, errors.Newf("unparseable sample on line %d: %q", lineNo, trimmed).
			Component("sampler").
			Category(errors.CategoryValidation).
			Context("operation", "parse-sample").
			Build()
	}

	return value, true, nil
}
