package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// defaultTestSettings returns a settings struct mirroring the shipped
// defaults, valid by construction.
func defaultTestSettings() *Settings {
	s := &Settings{}
	s.Main.Name = "AuraScan"
	s.Pulse = PulseSettings{
		SampleRate:   30,
		BufferSize:   150,
		WaveformSize: 150,
		LowCut:       0.7,
		HighCut:      4.0,
		FilterOrder:  4,
	}
	s.Realtime.Interval = 5
	s.Realtime.Source.Type = "synthetic"
	s.Realtime.Source.Synthetic = SyntheticSettings{BPM: 72, Noise: 0.05, Drift: 0.5}
	s.Realtime.MQTT = MQTTSettings{
		Broker:   "tcp://localhost:1883",
		Topic:    "aurascan/vitals",
		ClientID: "aurascan",
		Interval: 5,
	}
	s.Realtime.Telemetry.Listen = "0.0.0.0:8090"
	s.WebServer.Enabled = true
	s.WebServer.Port = "8080"
	s.Output.File.Type = "table"
	return s
}

func TestValidateSettings_Defaults(t *testing.T) {
	require.NoError(t, ValidateSettings(defaultTestSettings()))
}

func TestValidatePulseSettings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PulseSettings)
		errMsg string
	}{
		{
			name:   "zero_sample_rate",
			mutate: func(p *PulseSettings) { p.SampleRate = 0 },
			errMsg: "samplerate",
		},
		{
			name:   "negative_buffer_size",
			mutate: func(p *PulseSettings) { p.BufferSize = -1 },
			errMsg: "buffersize",
		},
		{
			name:   "zero_waveform_size",
			mutate: func(p *PulseSettings) { p.WaveformSize = 0 },
			errMsg: "waveformsize",
		},
		{
			name:   "low_cut_not_positive",
			mutate: func(p *PulseSettings) { p.LowCut = 0 },
			errMsg: "lowcut",
		},
		{
			name:   "high_cut_at_nyquist",
			mutate: func(p *PulseSettings) { p.HighCut = 15 },
			errMsg: "Nyquist",
		},
		{
			name:   "band_edges_inverted",
			mutate: func(p *PulseSettings) { p.LowCut, p.HighCut = 4.0, 0.7 },
			errMsg: "below",
		},
		{
			name:   "odd_filter_order",
			mutate: func(p *PulseSettings) { p.FilterOrder = 3 },
			errMsg: "even",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := defaultTestSettings()
			tt.mutate(&s.Pulse)
			err := ValidateSettings(s)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestValidateRealtimeSettings(t *testing.T) {
	t.Run("unknown_source_type", func(t *testing.T) {
		s := defaultTestSettings()
		s.Realtime.Source.Type = "webcam"
		err := ValidateSettings(s)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "source.type")
	})

	t.Run("trace_without_path", func(t *testing.T) {
		s := defaultTestSettings()
		s.Realtime.Source.Type = "trace"
		s.Realtime.Source.Path = ""
		require.Error(t, ValidateSettings(s))
	})

	t.Run("synthetic_bpm_outside_band", func(t *testing.T) {
		s := defaultTestSettings()
		s.Realtime.Source.Synthetic.BPM = 300
		err := ValidateSettings(s)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "pass band")
	})
}

func TestValidateMQTTSettings(t *testing.T) {
	t.Run("disabled_skips_checks", func(t *testing.T) {
		s := defaultTestSettings()
		s.Realtime.MQTT.Enabled = false
		s.Realtime.MQTT.Broker = ""
		require.NoError(t, ValidateSettings(s))
	})

	t.Run("bad_broker_scheme", func(t *testing.T) {
		s := defaultTestSettings()
		s.Realtime.MQTT.Enabled = true
		s.Realtime.MQTT.Broker = "localhost:1883"
		err := ValidateSettings(s)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "broker")
	})

	t.Run("empty_topic", func(t *testing.T) {
		s := defaultTestSettings()
		s.Realtime.MQTT.Enabled = true
		s.Realtime.MQTT.Topic = ""
		require.Error(t, ValidateSettings(s))
	})
}

func TestValidateWebServerSettings(t *testing.T) {
	t.Run("port_not_numeric", func(t *testing.T) {
		s := defaultTestSettings()
		s.WebServer.Port = "http"
		err := ValidateSettings(s)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "port")
	})

	t.Run("autotls_requires_host", func(t *testing.T) {
		s := defaultTestSettings()
		s.WebServer.AutoTLS = true
		s.WebServer.Host = ""
		require.Error(t, ValidateSettings(s))
	})

	t.Run("disabled_skips_checks", func(t *testing.T) {
		s := defaultTestSettings()
		s.WebServer.Enabled = false
		s.WebServer.Port = ""
		require.NoError(t, ValidateSettings(s))
	})
}

func TestValidateSettings_CollectsAllErrors(t *testing.T) {
	s := defaultTestSettings()
	s.Pulse.SampleRate = 0
	s.WebServer.Port = "bogus"
	s.Sentry.Enabled = true
	s.Sentry.DSN = ""

	err := ValidateSettings(s)
	require.Error(t, err)

	var ve ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Errors, 3)
}
