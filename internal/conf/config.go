// config.go: settings struct and the functions to load and save the
// AuraScan configuration.
package conf

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

//go:embed config.yaml
var configFiles embed.FS

// PulseSettings holds the estimator construction parameters. They are
// immutable for the lifetime of a monitoring session.
type PulseSettings struct {
	SampleRate   float64 // capture rate in frames per second
	BufferSize   int     // sample window length in frames
	WaveformSize int     // display waveform history length
	LowCut       float64 // lower pass-band edge in Hz
	HighCut      float64 // upper pass-band edge in Hz
	FilterOrder  int     // Butterworth prototype order, must be even
}

// SyntheticSettings parameterizes the built-in pulse signal simulator.
type SyntheticSettings struct {
	BPM   float64 // simulated heart rate
	Noise float64 // gaussian noise amplitude
	Drift float64 // slow baseline drift amplitude
	Seed  int64   // RNG seed, 0 seeds from the clock
}

// SourceSettings selects where raw samples come from.
type SourceSettings struct {
	Type      string            // "synthetic", "stdin" or "trace"
	Path      string            // trace file path when type is "trace"
	Synthetic SyntheticSettings // synthetic source parameters
}

// MQTTSettings contains settings for MQTT vitals publishing.
type MQTTSettings struct {
	Enabled  bool   // true to enable MQTT
	Broker   string // broker URL (tcp://host:port)
	Topic    string // topic vitals are published to
	ClientID string // client identifier presented to the broker
	Username string // broker username
	Password string // broker password
	Interval int    // seconds between publishes
	Retain   bool   // true to publish retained messages
}

// TelemetrySettings contains settings for the metrics endpoint.
type TelemetrySettings struct {
	Enabled bool   // true to enable Prometheus compatible telemetry endpoint
	Listen  string // IP address and port to listen on
}

// RealtimeSettings contains all settings related to realtime monitoring.
type RealtimeSettings struct {
	Interval  int               // seconds between status log lines
	Source    SourceSettings    // sample source selection
	MQTT      MQTTSettings      // MQTT publishing settings
	Telemetry TelemetrySettings // telemetry endpoint settings
}

// WebServerSettings contains settings for the vitals HTTP API.
type WebServerSettings struct {
	Debug   bool      // true to enable debug mode
	Enabled bool      // true to enable the web server
	Port    string    // port for the web server
	Host    string    // hostname for TLS certificates, required with AutoTLS
	AutoTLS bool      // true to manage TLS certificates automatically
	Log     LogConfig // web server log configuration
}

// SentrySettings contains settings for opt-in error telemetry.
type SentrySettings struct {
	Enabled     bool   // true to enable Sentry reporting, disabled by default
	DSN         string // Sentry project DSN
	Environment string // environment tag attached to events
}

// InputConfig holds the trace path for offline analysis, set from the
// command line rather than the config file.
type InputConfig struct {
	Path string `yaml:"-"`
}

// FileOutputSettings controls result export of offline analysis.
type FileOutputSettings struct {
	Enabled bool   `yaml:"-"` // true to write results to a file
	Path    string `yaml:"-"` // directory to write results to
	Type    string `yaml:"-"` // "table" or "csv"
}

// Settings contains all configuration options for AuraScan.
type Settings struct {
	Debug bool // true to enable debug mode

	// Runtime values, not stored in the config file
	Version   string `yaml:"-"`
	BuildDate string `yaml:"-"`

	Main struct {
		Name string    // instance name, identifies this monitor in published payloads
		Log  LogConfig // main log configuration
	}

	Pulse PulseSettings // estimator configuration

	Input InputConfig `yaml:"-"`

	Realtime RealtimeSettings // realtime monitoring settings

	WebServer WebServerSettings // web server settings

	Sentry SentrySettings // error telemetry settings

	Output struct {
		File FileOutputSettings // file output settings
	}
}

// LogConfig defines the configuration for a log file.
type LogConfig struct {
	Enabled     bool         // true to enable this log
	Path        string       // path to the log file
	Rotation    RotationType // type of log rotation
	MaxSize     int64        // max size in bytes for RotationSize
	RotationDay string       // day of the week for RotationWeekly
}

// RotationType defines different types of log rotations.
type RotationType string

const (
	RotationDaily  RotationType = "daily"
	RotationWeekly RotationType = "weekly"
	RotationSize   RotationType = "size"
)

var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment into a Settings
// instance, validating it before it becomes visible to callers.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with defaults and reads the
// configuration file, creating one from the embedded template when
// none exists yet.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}

	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	// defined in defaults.go
	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return createDefaultConfig()
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig writes the embedded default config to the first
// default config path and loads it.
func createDefaultConfig() error {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")
	defaultConfig := getDefaultConfig()

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	fmt.Println("Created default config file at:", configPath)
	return viper.ReadInConfig()
}

// getDefaultConfig reads the default configuration from the embedded
// config.yaml template.
func getDefaultConfig() string {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		log.Fatalf("Error reading embedded config file: %v", err)
	}
	return string(data)
}

// GetSettings returns the current settings instance.
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// Setting returns the current settings instance, loading it first if
// necessary.
func Setting() *Settings {
	once.Do(func() {
		if settingsInstance == nil {
			if _, err := Load(); err != nil {
				log.Fatalf("Error loading settings: %v", err)
			}
		}
	})
	return GetSettings()
}

// SaveSettings writes the current settings back to the config file.
func SaveSettings() error {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()

	settingsCopy := *settingsInstance

	configPath, err := FindConfigFile()
	if err != nil {
		return fmt.Errorf("error finding config file: %w", err)
	}

	if err := SaveYAMLConfig(configPath, &settingsCopy); err != nil {
		return fmt.Errorf("error saving config: %w", err)
	}

	log.Printf("Settings saved successfully to %s", configPath)
	return nil
}

// SaveYAMLConfig marshals the settings and atomically replaces the
// configuration file. Comments in the existing file are not preserved.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	// Write to a temporary file first so the replacement is atomic.
	tempFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	tempFileName := tempFile.Name()
	defer os.Remove(tempFileName)

	if _, err := tempFile.Write(yamlData); err != nil {
		tempFile.Close()
		return fmt.Errorf("error writing to temporary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("error closing temporary file: %w", err)
	}

	if err := os.Rename(tempFileName, configPath); err != nil {
		// Rename can fail across filesystems, fall back to copy and
		// delete.
		if err := moveFile(tempFileName, configPath); err != nil {
			return fmt.Errorf("error copying config file: %w", err)
		}
	}

	return nil
}
