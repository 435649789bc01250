package analysis

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Aanishnithin07/Project-Aura/internal/conf"
	"github.com/Aanishnithin07/Project-Aura/internal/pulse"
	"github.com/Aanishnithin07/Project-Aura/internal/sampler"
)

// VitalRecord is one timeline row of an offline trace analysis,
// sampled once per second of signal.
type VitalRecord struct {
	Offset     float64 // position in the trace, seconds
	BPM        float64 // meaningful only when Valid
	Valid      bool
	Cycle      pulse.CycleResult
	BufferFill float64
}

// TraceAnalysis runs the estimator over a recorded trace file and
// outputs a per-second timeline plus the final estimate. The whole run
// is synchronous, no goroutines are involved.
func TraceAnalysis(settings *conf.Settings) error {
	if err := validateTraceFile(settings.Input.Path); err != nil {
		return err
	}

	samples, err := sampler.ReadTrace(settings.Input.Path)
	if err != nil {
		return err
	}

	estimator, err := pulse.NewEstimator(pulseConfig(settings))
	if err != nil {
		return err
	}

	startTime := time.Now()
	records, final := processTrace(estimator, samples)

	filename := truncateFilename(settings.Input.Path)
	duration := time.Duration(float64(len(samples)) / estimator.Config().SampleRate * float64(time.Second))
	fmt.Printf("\r\033[K\033[37m📄 %s [%s]\033[0m | \033[32m✅ Analysis completed in %s\033[0m\n",
		filename,
		duration.Round(time.Second),
		time.Since(startTime).Round(time.Millisecond))

	if final.Valid {
		fmt.Printf("Final estimate: %.1f BPM (%d samples accepted, %d dropped)\n",
			final.BPM, estimator.Accepted(), estimator.Dropped())
	} else {
		fmt.Printf("No valid estimate, trace has %d samples but the window needs %d\n",
			len(samples), estimator.Config().BufferSize)
	}

	return writeResults(settings, records)
}

// validateTraceFile checks if the provided path is a usable trace file.
func validateTraceFile(filePath string) error {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return fmt.Errorf("\033[31m❌ Error accessing file %s: %w\033[0m", filepath.Base(filePath), err)
	}

	// Check if it's a file (not a directory)
	if fileInfo.IsDir() {
		return fmt.Errorf("\033[31m❌ The path %s is a directory, not a file\033[0m", filepath.Base(filePath))
	}

	// Check if file size is 0
	if fileInfo.Size() == 0 {
		return fmt.Errorf("\033[31m❌ File %s is empty (0 bytes)\033[0m", filepath.Base(filePath))
	}

	return nil
}

// processTrace feeds every sample into the estimator and records the
// state once per second of signal plus a final partial row when the
// trace does not end on a second boundary.
func processTrace(estimator *pulse.Estimator, samples []float64) (records []VitalRecord, final pulse.Estimate) {
	cfg := estimator.Config()
	perSecond := int(math.Round(cfg.SampleRate))
	if perSecond < 1 {
		perSecond = 1
	}

	for i, x := range samples {
		final = estimator.Ingest(x)
		if (i+1)%perSecond == 0 || i == len(samples)-1 {
			records = append(records, VitalRecord{
				Offset:     float64(i+1) / cfg.SampleRate,
				BPM:        final.BPM,
				Valid:      final.Valid,
				Cycle:      final.Cycle,
				BufferFill: final.BufferFill,
			})
		}
	}
	return records, final
}

// truncateFilename truncates the filename to 30 characters if it's longer.
func truncateFilename(path string) string {
	filename := filepath.Base(path)
	if len(filename) > 30 {
		return filename[:27] + "..."
	}
	return filename
}

// writeResults writes the timeline based on the output configuration.
func writeResults(settings *conf.Settings, records []VitalRecord) error {
	// Prepare the output file path if file output is enabled.
	var outputFile string
	if settings.Output.File.Enabled && settings.Output.File.Path != "" {
		// Safely concatenate file paths using filepath.Join to avoid cross-platform issues.
		outputFile = filepath.Join(settings.Output.File.Path, filepath.Base(settings.Input.Path))
	}

	// If OutputType is not specified or if it's set to "table", output as a table format.
	if settings.Output.File.Type == "" || settings.Output.File.Type == "table" {
		if err := writeVitalsTable(records, outputFile); err != nil {
			return fmt.Errorf("failed to write vitals table: %w", err)
		}
	}
	// If OutputType is set to "csv", output as CSV format.
	if settings.Output.File.Type == "csv" {
		if err := writeVitalsCsv(records, outputFile); err != nil {
			return fmt.Errorf("failed to write vitals CSV: %w", err)
		}
	}
	return nil
}

// writeVitalsTable renders the timeline as a tab-separated table to
// stdout, or to filename when one is given.
func writeVitalsTable(records []VitalRecord, filename string) error {
	var w io.Writer
	// Determine the output destination based on the filename argument.
	if filename == "" {
		w = os.Stdout
	} else {
		// Ensure the filename has a .txt extension.
		if !strings.HasSuffix(filename, ".txt") {
			filename += ".txt"
		}
		file, err := os.Create(filename)
		if err != nil {
			return fmt.Errorf("failed to create file: %w", err)
		}
		defer file.Close()
		w = file
	}

	header := "Time (s)\tBPM\tCycle\tBuffer Fill\n"
	if _, err := w.Write([]byte(header)); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	var err error
	for i := range records {
		rec := &records[i]
		bpm := "-"
		if rec.Valid {
			bpm = fmt.Sprintf("%.1f", rec.BPM)
		}
		line := fmt.Sprintf("%.1f\t%s\t%s\t%.2f\n", rec.Offset, bpm, rec.Cycle, rec.BufferFill)
		if _, err = w.Write([]byte(line)); err != nil {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// writeVitalsCsv renders the timeline as CSV to stdout, or to filename
// when one is given.
func writeVitalsCsv(records []VitalRecord, filename string) error {
	var w io.Writer
	if filename == "" {
		w = os.Stdout
	} else {
		// Ensure the filename has a .csv extension.
		if !strings.HasSuffix(filename, ".csv") {
			filename += ".csv"
		}
		file, err := os.Create(filename)
		if err != nil {
			return fmt.Errorf("failed to create file %s: %w", filename, err)
		}
		defer file.Close()
		w = file
	}

	header := "Time (s),BPM,Valid,Cycle,Buffer Fill\n"
	if _, err := w.Write([]byte(header)); err != nil {
		return fmt.Errorf("failed to write header to CSV: %w", err)
	}

	var err error
	for i := range records {
		rec := &records[i]
		line := fmt.Sprintf("%.1f,%.1f,%t,%s,%.2f\n", rec.Offset, rec.BPM, rec.Valid, rec.Cycle, rec.BufferFill)
		if _, err = w.Write([]byte(line)); err != nil {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("failed to write record to CSV: %w", err)
	}
	return nil
}
