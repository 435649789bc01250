// validate.go: validation of user provided settings.
package conf

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ValidationError collects all validation failures so the user sees
// every problem at once instead of fixing them one by one.
type ValidationError struct {
	Errors []string
}

func (ve ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(ve.Errors, "; "))
}

// ValidateSettings validates the entire settings struct. A non-nil
// return is fatal, invalid values are never clamped or corrected.
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	validators := []func() error{
		func() error { return validatePulseSettings(&settings.Pulse) },
		func() error { return validateRealtimeSettings(&settings.Realtime, &settings.Pulse) },
		func() error { return validateMQTTSettings(&settings.Realtime.MQTT) },
		func() error { return validateTelemetrySettings(&settings.Realtime.Telemetry) },
		func() error { return validateWebServerSettings(&settings.WebServer) },
		func() error { return validateSentrySettings(&settings.Sentry) },
		func() error { return validateOutputSettings(&settings.Output.File) },
	}

	for _, validate := range validators {
		if err := validate(); err != nil {
			ve.Errors = append(ve.Errors, err.Error())
		}
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

// validatePulseSettings checks the estimator construction parameters.
// These mirror the checks performed at estimator construction so a bad
// config file fails before any monitoring starts.
func validatePulseSettings(settings *PulseSettings) error {
	var errs []string

	if settings.SampleRate <= 0 {
		errs = append(errs, fmt.Sprintf("pulse.samplerate must be positive, got %g", settings.SampleRate))
	}
	if settings.BufferSize <= 0 {
		errs = append(errs, fmt.Sprintf("pulse.buffersize must be positive, got %d", settings.BufferSize))
	}
	if settings.WaveformSize <= 0 {
		errs = append(errs, fmt.Sprintf("pulse.waveformsize must be positive, got %d", settings.WaveformSize))
	}
	if settings.LowCut <= 0 {
		errs = append(errs, fmt.Sprintf("pulse.lowcut must be positive, got %g", settings.LowCut))
	}
	if settings.SampleRate > 0 && settings.HighCut >= settings.SampleRate/2 {
		errs = append(errs, fmt.Sprintf("pulse.highcut %g must be below the Nyquist frequency %g",
			settings.HighCut, settings.SampleRate/2))
	}
	if settings.LowCut >= settings.HighCut {
		errs = append(errs, fmt.Sprintf("pulse.lowcut %g must be below pulse.highcut %g",
			settings.LowCut, settings.HighCut))
	}
	if settings.FilterOrder < 2 || settings.FilterOrder%2 != 0 {
		errs = append(errs, fmt.Sprintf("pulse.filterorder must be an even number of at least 2, got %d",
			settings.FilterOrder))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// validateRealtimeSettings checks realtime monitoring settings.
func validateRealtimeSettings(settings *RealtimeSettings, pulse *PulseSettings) error {
	if settings.Interval < 0 {
		return fmt.Errorf("realtime.interval must not be negative, got %d", settings.Interval)
	}

	switch settings.Source.Type {
	case "synthetic":
		s := settings.Source.Synthetic
		if s.BPM <= 0 {
			return fmt.Errorf("realtime.source.synthetic.bpm must be positive, got %g", s.BPM)
		}
		if hz := s.BPM / 60.0; hz < pulse.LowCut || hz > pulse.HighCut {
			return fmt.Errorf("realtime.source.synthetic.bpm %g is outside the pass band %g-%g BPM",
				s.BPM, pulse.LowCut*60, pulse.HighCut*60)
		}
	case "stdin":
		// nothing to check
	case "trace":
		if settings.Source.Path == "" {
			return errors.New("realtime.source.path is required when source type is trace")
		}
	default:
		return fmt.Errorf("realtime.source.type must be synthetic, stdin or trace, got %q", settings.Source.Type)
	}

	return nil
}

// validateMQTTSettings checks MQTT publishing settings.
func validateMQTTSettings(settings *MQTTSettings) error {
	if !settings.Enabled {
		return nil
	}

	if settings.Broker == "" {
		return errors.New("MQTT broker URL is required when MQTT is enabled")
	}
	validScheme := false
	for _, scheme := range []string{"tcp://", "ssl://", "ws://", "wss://", "mqtt://", "mqtts://"} {
		if strings.HasPrefix(settings.Broker, scheme) {
			validScheme = true
			break
		}
	}
	if !validScheme {
		return fmt.Errorf("MQTT broker URL %q must start with tcp://, ssl://, ws://, wss://, mqtt:// or mqtts://",
			settings.Broker)
	}
	if settings.Topic == "" {
		return errors.New("MQTT topic is required when MQTT is enabled")
	}
	if settings.Interval < 1 {
		return fmt.Errorf("MQTT publish interval must be at least 1 second, got %d", settings.Interval)
	}

	return nil
}

// validateTelemetrySettings checks the telemetry endpoint settings.
func validateTelemetrySettings(settings *TelemetrySettings) error {
	if settings.Enabled && settings.Listen == "" {
		return errors.New("telemetry listen address is required when telemetry is enabled")
	}
	return nil
}

// validateWebServerSettings checks the web server settings.
func validateWebServerSettings(settings *WebServerSettings) error {
	if !settings.Enabled {
		return nil
	}

	if settings.Port == "" {
		return errors.New("web server port is required when the web server is enabled")
	}
	port, err := strconv.Atoi(settings.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("web server port must be a number between 1 and 65535, got %q", settings.Port)
	}
	if settings.AutoTLS && settings.Host == "" {
		return errors.New("web server host is required when AutoTLS is enabled")
	}

	return nil
}

// validateSentrySettings checks the error telemetry settings.
func validateSentrySettings(settings *SentrySettings) error {
	if settings.Enabled && settings.DSN == "" {
		return errors.New("sentry DSN is required when sentry is enabled")
	}
	return nil
}

// validateOutputSettings checks the file output settings.
func validateOutputSettings(settings *FileOutputSettings) error {
	if !settings.Enabled {
		return nil
	}
	if settings.Type != "table" && settings.Type != "csv" {
		return fmt.Errorf("output.file.type must be table or csv, got %q", settings.Type)
	}
	return nil
}
