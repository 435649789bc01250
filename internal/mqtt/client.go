// client.go: paho based implementation of the Client interface.
package mqtt

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/Aanishnithin07/Project-Aura/internal/conf"
	"github.com/Aanishnithin07/Project-Aura/internal/observability"
	"github.com/Aanishnithin07/Project-Aura/internal/observability/metrics"
	"github.com/Aanishnithin07/Project-Aura/internal/privacy"
)

// client implements the Client interface.
type client struct {
	config          Config
	internalClient  mqtt.Client
	lastConnAttempt time.Time
	mu              sync.Mutex
	reconnectTimer  *time.Timer
	reconnectStop   chan struct{}
	metrics         *metrics.MQTTMetrics
}

// NewClient creates a new MQTT client from the settings.
func NewClient(settings *conf.Settings, observed *observability.Metrics) (Client, error) {
	config := DefaultConfig()
	config.Broker = settings.Realtime.MQTT.Broker
	config.ClientID = settings.Realtime.MQTT.ClientID
	config.Username = settings.Realtime.MQTT.Username
	config.Password = settings.Realtime.MQTT.Password
	config.Topic = settings.Realtime.MQTT.Topic
	config.Retain = settings.Realtime.MQTT.Retain

	return &client{
		config:        config,
		reconnectStop: make(chan struct{}),
		metrics:       observed.MQTT,
	}, nil
}

// Connect attempts to establish a connection to the MQTT broker.
// The broker hostname is resolved first so DNS problems surface as
// such instead of a generic connect timeout.
func (c *client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if time.Since(c.lastConnAttempt) < c.config.ReconnectCooldown {
		return fmt.Errorf("connection attempt too recent, last attempt was %v ago", time.Since(c.lastConnAttempt))
	}
	c.lastConnAttempt = time.Now()

	u, err := url.Parse(c.config.Broker)
	if err != nil {
		return fmt.Errorf("invalid broker URL: %w", err)
	}

	host := u.Hostname()
	if net.ParseIP(host) == nil {
		if _, err := net.DefaultResolver.LookupHost(ctx, host); err != nil {
			var dnsErr *net.DNSError
			if errors.As(err, &dnsErr) {
				return dnsErr
			}
			return fmt.Errorf("failed to resolve hostname %s: %w", host, err)
		}
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(c.config.Broker)
	opts.SetClientID(c.config.ClientID)
	opts.SetUsername(c.config.Username)
	opts.SetPassword(c.config.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(c.onConnectionLost)
	opts.SetConnectRetry(true)

	c.internalClient = mqtt.NewClient(opts)

	token := c.internalClient.Connect()
	if !token.WaitTimeout(c.config.ConnectTimeout) {
		return fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connection error: %w", err)
	}

	c.metrics.UpdateConnectionStatus(true)
	return nil
}

// Publish sends a message to the specified topic on the MQTT broker.
func (c *client) Publish(ctx context.Context, topic, payload string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.IsConnected() {
		return fmt.Errorf("not connected to MQTT broker")
	}

	timer := c.metrics.StartPublishTimer()
	defer timer.ObserveDuration()

	token := c.internalClient.Publish(topic, 0, c.config.Retain, payload)
	if !token.WaitTimeout(c.config.PublishTimeout) {
		c.metrics.IncrementErrors()
		getLogger().Warn("Publish timeout", "topic", topic)
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		c.metrics.IncrementErrors()
		return err
	}

	c.metrics.IncrementMessagesDelivered()
	c.metrics.ObserveMessageSize(float64(len(payload)))
	getLogger().Debug("Published message", "topic", topic, "bytes", len(payload))

	return nil
}

// IsConnected returns true if the client is currently connected to the
// MQTT broker.
func (c *client) IsConnected() bool {
	return c.internalClient != nil && c.internalClient.IsConnected()
}

// Disconnect closes the connection to the MQTT broker and stops any
// pending reconnect.
func (c *client) Disconnect() {
	if c.internalClient != nil && c.internalClient.IsConnected() {
		c.internalClient.Disconnect(uint(c.config.DisconnectTimeout.Milliseconds()))
		c.metrics.UpdateConnectionStatus(false)
	}
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
	}
	close(c.reconnectStop)
}

func (c *client) onConnect(_ mqtt.Client) {
	getLogger().Info("Connected to MQTT broker", "broker", privacy.SanitizeBrokerURL(c.config.Broker))
	c.metrics.UpdateConnectionStatus(true)
}

func (c *client) onConnectionLost(_ mqtt.Client, err error) {
	getLogger().Warn("Connection to MQTT broker lost", "broker", privacy.SanitizeBrokerURL(c.config.Broker), "error", err)
	c.metrics.UpdateConnectionStatus(false)
	c.metrics.IncrementErrors()
	c.startReconnectTimer()
}

func (c *client) startReconnectTimer() {
	c.reconnectTimer = time.AfterFunc(c.config.ReconnectDelay, func() {
		select {
		case <-c.reconnectStop:
			return
		default:
			c.reconnectWithBackoff()
		}
	})
}

func (c *client) reconnectWithBackoff() {
	backoff := time.Second
	maxBackoff := 5 * time.Minute

	for {
		c.metrics.IncrementReconnectAttempts()
		ctx, cancel := context.WithTimeout(context.Background(), c.config.ConnectTimeout)
		err := c.Connect(ctx)
		cancel()

		if err == nil {
			getLogger().Info("Reconnected to MQTT broker", "broker", privacy.SanitizeBrokerURL(c.config.Broker))
			return
		}

		c.metrics.IncrementErrors()
		getLogger().Warn("Failed to reconnect to MQTT broker",
			"broker", privacy.SanitizeBrokerURL(c.config.Broker), "error", err, "retry_in", backoff)

		select {
		case <-time.After(backoff):
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		case <-c.reconnectStop:
			return
		}
	}
}
