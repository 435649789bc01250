// defaults.go: viper defaults for AuraScan configuration.
package conf

import (
	"github.com/spf13/viper"
)

// setDefaultConfig registers the default value of every configuration
// option with viper. Values in the config file and environment
// override these.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	// Main configuration
	viper.SetDefault("main.name", "AuraScan")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "logs/aurascan.log")
	viper.SetDefault("main.log.rotation", RotationDaily)
	viper.SetDefault("main.log.maxsize", 1048576)
	viper.SetDefault("main.log.rotationday", "Sunday")

	// Pulse estimator configuration
	viper.SetDefault("pulse.samplerate", 30.0)
	viper.SetDefault("pulse.buffersize", 150)
	viper.SetDefault("pulse.waveformsize", 150)
	viper.SetDefault("pulse.lowcut", 0.7)
	viper.SetDefault("pulse.highcut", 4.0)
	viper.SetDefault("pulse.filterorder", 4)

	// Realtime configuration
	viper.SetDefault("realtime.interval", 5)
	viper.SetDefault("realtime.source.type", "synthetic")
	viper.SetDefault("realtime.source.path", "")
	viper.SetDefault("realtime.source.synthetic.bpm", 72.0)
	viper.SetDefault("realtime.source.synthetic.noise", 0.05)
	viper.SetDefault("realtime.source.synthetic.drift", 0.5)
	viper.SetDefault("realtime.source.synthetic.seed", 0)

	// MQTT configuration
	viper.SetDefault("realtime.mqtt.enabled", false)
	viper.SetDefault("realtime.mqtt.broker", "tcp://localhost:1883")
	viper.SetDefault("realtime.mqtt.topic", "aurascan/vitals")
	viper.SetDefault("realtime.mqtt.clientid", "aurascan")
	viper.SetDefault("realtime.mqtt.username", "")
	viper.SetDefault("realtime.mqtt.password", "")
	viper.SetDefault("realtime.mqtt.interval", 5)
	viper.SetDefault("realtime.mqtt.retain", false)

	// Telemetry configuration
	viper.SetDefault("realtime.telemetry.enabled", false)
	viper.SetDefault("realtime.telemetry.listen", "0.0.0.0:8090")

	// Webserver configuration
	viper.SetDefault("webserver.debug", false)
	viper.SetDefault("webserver.enabled", true)
	viper.SetDefault("webserver.port", "8080")
	viper.SetDefault("webserver.host", "")
	viper.SetDefault("webserver.autotls", false)
	viper.SetDefault("webserver.log.enabled", false)
	viper.SetDefault("webserver.log.path", "logs/webserver.log")
	viper.SetDefault("webserver.log.rotation", RotationDaily)
	viper.SetDefault("webserver.log.maxsize", 1048576)
	viper.SetDefault("webserver.log.rotationday", "Sunday")

	// Sentry configuration, disabled unless explicitly opted in
	viper.SetDefault("sentry.enabled", false)
	viper.SetDefault("sentry.dsn", "")
	viper.SetDefault("sentry.environment", "production")

	// Output configuration
	viper.SetDefault("output.file.enabled", false)
	viper.SetDefault("output.file.path", "output/")
	viper.SetDefault("output.file.type", "table")
}
