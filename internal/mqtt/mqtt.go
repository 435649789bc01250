// mqtt.go: Package mqtt provides an abstraction for MQTT client functionality.
package mqtt

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Aanishnithin07/Project-Aura/internal/logging"
)

// Client defines the interface for MQTT client operations.
type Client interface {
	// Connect attempts to connect to the MQTT broker.
	// It returns an error if the connection fails.
	Connect(ctx context.Context) error

	// Publish sends a message to the specified topic on the MQTT broker.
	// It returns an error if the publish operation fails.
	Publish(ctx context.Context, topic string, payload string) error

	// IsConnected returns true if the client is currently connected to the MQTT broker.
	IsConnected() bool

	// Disconnect closes the connection to the MQTT broker.
	Disconnect()

	// TestConnection performs a multi-stage test of the MQTT connection
	// and functionality. It streams test results through the provided channel.
	TestConnection(ctx context.Context, resultChan chan<- TestResult)
}

// Config holds the configuration for the MQTT client.
type Config struct {
	Broker            string
	ClientID          string
	Username          string
	Password          string
	Topic             string // Default topic for publishing messages
	Retain            bool   // true to retain messages at the broker
	ReconnectCooldown time.Duration
	ReconnectDelay    time.Duration
	// Connection timeouts
	ConnectTimeout    time.Duration
	PublishTimeout    time.Duration
	DisconnectTimeout time.Duration
}

// DefaultConfig returns a Config with reasonable default values.
func DefaultConfig() Config {
	return Config{
		ReconnectCooldown: 5 * time.Second,
		ReconnectDelay:    1 * time.Second,
		ConnectTimeout:    30 * time.Second,
		PublishTimeout:    10 * time.Second,
		DisconnectTimeout: 250 * time.Millisecond,
	}
}

var (
	mqttLogger     *slog.Logger
	mqttLoggerOnce sync.Once
)

// getLogger returns the MQTT service logger, writing to its own log
// file when possible and falling back to the shared structured logger.
func getLogger() *slog.Logger {
	mqttLoggerOnce.Do(func() {
		var err error
		mqttLogger, _, err = logging.NewFileLogger("logs/mqtt.log", "mqtt", slog.LevelInfo)
		if err != nil {
			mqttLogger = logging.ForService("mqtt")
			if mqttLogger == nil {
				mqttLogger = slog.Default().With("service", "mqtt")
			}
			mqttLogger.Warn("MQTT file logger unavailable, using shared logger", "error", err)
		}
	})
	return mqttLogger
}
