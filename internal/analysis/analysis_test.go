package analysis

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Aanishnithin07/Project-Aura/internal/conf"
	"github.com/Aanishnithin07/Project-Aura/internal/observability"
	"github.com/Aanishnithin07/Project-Aura/internal/pulse"
	"github.com/Aanishnithin07/Project-Aura/internal/sampler"
)

// TestMain verifies no goroutines leak from the pipeline helpers.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("testing.(*T).Run"),
		goleak.IgnoreTopFunction("gopkg.in/natefinch/lumberjack%2ev2.(*Logger).millRun"),
	)
}

func testSettings(t *testing.T) *conf.Settings {
	t.Helper()
	settings := &conf.Settings{}
	settings.Main.Name = "AuraScan"
	settings.Pulse = conf.PulseSettings{
		SampleRate: 30, BufferSize: 150, WaveformSize: 150,
		LowCut: 0.7, HighCut: 4.0, FilterOrder: 4,
	}
	return settings
}

// sineSamples returns n samples of a clean sinusoid at freq Hz.
func sineSamples(n int, freq, rate float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / rate)
	}
	return out
}

func TestPulseConfig_MapsSettings(t *testing.T) {
	settings := testSettings(t)
	settings.Pulse.LowCut = 0.9
	settings.Pulse.BufferSize = 90

	cfg := pulseConfig(settings)
	assert.InDelta(t, 0.9, cfg.LowCut, 0.001)
	assert.Equal(t, 90, cfg.BufferSize)
	assert.InDelta(t, 30.0, cfg.SampleRate, 0.001)
	assert.Equal(t, 4, cfg.FilterOrder)
}

func TestProcessTrace_Timeline(t *testing.T) {
	settings := testSettings(t)
	estimator, err := pulse.NewEstimator(pulseConfig(settings))
	require.NoError(t, err)

	// Ten seconds of 1.2 Hz signal, the window fills after five.
	samples := sineSamples(300, 1.2, 30)
	records, final := processTrace(estimator, samples)

	require.Len(t, records, 10)
	assert.InDelta(t, 1.0, records[0].Offset, 0.001)
	assert.InDelta(t, 10.0, records[9].Offset, 0.001)

	// Nothing before the window fills, 72 BPM everywhere after.
	assert.False(t, records[3].Valid)
	for _, rec := range records[4:] {
		require.True(t, rec.Valid, "offset %.1f", rec.Offset)
		assert.InDelta(t, 72.0, rec.BPM, 0.5)
	}

	assert.True(t, final.Valid)
	assert.InDelta(t, 72.0, final.BPM, 0.5)
	assert.Equal(t, uint64(300), estimator.Accepted())
}

func TestProcessTrace_ShortTrace(t *testing.T) {
	settings := testSettings(t)
	estimator, err := pulse.NewEstimator(pulseConfig(settings))
	require.NoError(t, err)

	records, final := processTrace(estimator, sineSamples(60, 1.2, 30))

	require.Len(t, records, 2)
	assert.False(t, final.Valid)
	for _, rec := range records {
		assert.False(t, rec.Valid)
		assert.Equal(t, pulse.CycleFilling, rec.Cycle)
	}
}

func TestProcessTrace_PartialFinalRow(t *testing.T) {
	settings := testSettings(t)
	estimator, err := pulse.NewEstimator(pulseConfig(settings))
	require.NoError(t, err)

	// 45 samples is one and a half seconds, expect a partial last row.
	records, _ := processTrace(estimator, sineSamples(45, 1.2, 30))
	require.Len(t, records, 2)
	assert.InDelta(t, 1.5, records[1].Offset, 0.001)
}

func TestTraceAnalysis_EndToEnd(t *testing.T) {
	settings := testSettings(t)

	dir := t.TempDir()
	tracePath := filepath.Join(dir, "trace.csv")
	var sb strings.Builder
	sb.WriteString("# synthetic capture\n")
	for _, x := range sineSamples(240, 1.2, 30) {
		sb.WriteString(strconv.FormatFloat(x, 'f', 8, 64) + "\n")
	}
	require.NoError(t, os.WriteFile(tracePath, []byte(sb.String()), 0o644))

	outDir := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(outDir, 0o755))

	settings.Input.Path = tracePath
	settings.Output.File.Enabled = true
	settings.Output.File.Path = outDir
	settings.Output.File.Type = "csv"

	require.NoError(t, TraceAnalysis(settings))

	data, err := os.ReadFile(filepath.Join(outDir, "trace.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, "Time (s),BPM,Valid,Cycle,Buffer Fill", lines[0])
	assert.Len(t, lines, 9) // header plus one row per second
	assert.Contains(t, lines[len(lines)-1], "true")
}

func TestTraceAnalysis_MissingFile(t *testing.T) {
	settings := testSettings(t)
	settings.Input.Path = filepath.Join(t.TempDir(), "absent.csv")

	err := TraceAnalysis(settings)
	require.Error(t, err)
}

func TestTraceAnalysis_DirectoryInput(t *testing.T) {
	settings := testSettings(t)
	settings.Input.Path = t.TempDir()

	err := TraceAnalysis(settings)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "directory")
}

func TestWriteVitalsTable_File(t *testing.T) {
	records := []VitalRecord{
		{Offset: 1.0, Valid: false, Cycle: pulse.CycleFilling, BufferFill: 0.2},
		{Offset: 5.0, BPM: 72.0, Valid: true, Cycle: pulse.CycleNew, BufferFill: 1.0},
	}

	target := filepath.Join(t.TempDir(), "vitals")
	require.NoError(t, writeVitalsTable(records, target))

	data, err := os.ReadFile(target + ".txt")
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "Time (s)\tBPM\tCycle\tBuffer Fill")
	assert.Contains(t, content, "1.0\t-\tfilling\t0.20")
	assert.Contains(t, content, "5.0\t72.0\tnew\t1.00")
}

func TestStartSamplePump_DrainsFiniteSource(t *testing.T) {
	settings := testSettings(t)
	monitor, err := pulse.NewMonitor(pulseConfig(settings))
	require.NoError(t, err)
	metrics, err := observability.NewMetrics()
	require.NoError(t, err)

	source := sampler.NewReader(strings.NewReader("0.1\n0.2\n0.3\n"), "test")
	estimates := make(chan pulse.Estimate, 10)

	var wg sync.WaitGroup
	startSamplePump(context.Background(), &wg, source, monitor, metrics, estimates)
	wg.Wait()

	accepted, dropped := monitor.Stats()
	assert.Equal(t, uint64(3), accepted)
	assert.Equal(t, uint64(0), dropped)
	assert.Len(t, estimates, 3)
}

func TestStartSamplePump_CancelStopsPacedSource(t *testing.T) {
	settings := testSettings(t)
	settings.Realtime.Source.Type = "synthetic"
	settings.Realtime.Source.Synthetic = conf.SyntheticSettings{BPM: 72, Seed: 1}

	monitor, err := pulse.NewMonitor(pulseConfig(settings))
	require.NoError(t, err)
	metrics, err := observability.NewMetrics()
	require.NoError(t, err)

	source, err := sampler.New(settings)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	estimates := make(chan pulse.Estimate, estimateChannelBuffer)

	var wg sync.WaitGroup
	startSamplePump(ctx, &wg, source, monitor, metrics, estimates)

	time.Sleep(150 * time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sample pump did not stop after cancellation")
	}

	accepted, _ := monitor.Stats()
	assert.Positive(t, accepted)
}

func TestStartStatusLogger_StopsOnQuit(t *testing.T) {
	settings := testSettings(t)
	settings.Realtime.Interval = 1

	monitor, err := pulse.NewMonitor(pulseConfig(settings))
	require.NoError(t, err)

	quitChan := make(chan struct{})
	var wg sync.WaitGroup
	startStatusLogger(&wg, settings, monitor, quitChan)
	close(quitChan)

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("status logger did not stop on quit")
	}
}

func TestStartStatusLogger_DisabledWhenIntervalZero(t *testing.T) {
	settings := testSettings(t)
	settings.Realtime.Interval = 0

	monitor, err := pulse.NewMonitor(pulseConfig(settings))
	require.NoError(t, err)

	var wg sync.WaitGroup
	startStatusLogger(&wg, settings, monitor, make(chan struct{}))
	wg.Wait() // returns immediately, nothing was started
}

