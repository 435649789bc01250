// testing.go provides MQTT connection and functionality testing capabilities
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"
)

// TestResult represents the result of one MQTT test stage.
type TestResult struct {
	Success   bool   `json:"success"`
	Stage     string `json:"stage"`
	Message   string `json:"message"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp,omitempty"` // ISO8601 timestamp of the result
}

// TestStage represents a stage in the MQTT test process.
type TestStage int

const (
	DNSResolution TestStage = iota
	TCPConnection
	MQTTConnection
	MessagePublish
)

// String returns the string representation of a test stage.
func (s TestStage) String() string {
	switch s {
	case DNSResolution:
		return "DNS Resolution"
	case TCPConnection:
		return "TCP Connection"
	case MQTTConnection:
		return "MQTT Connection"
	case MessagePublish:
		return "Message Publishing"
	default:
		return "Unknown Stage"
	}
}

// Timeout constants for the individual test stages.
const (
	dnsTimeout  = 5 * time.Second
	tcpTimeout  = 5 * time.Second
	mqttTimeout = 10 * time.Second
	pubTimeout  = 5 * time.Second
)

// networkTest represents a generic network test function.
type networkTest func(context.Context) error

// runNetworkTest executes a network test with timeout handling and
// reports the outcome as a TestResult.
func runNetworkTest(ctx context.Context, stage TestStage, test networkTest) TestResult {
	resultChan := make(chan error, 1)

	go func() {
		resultChan <- test(ctx)
	}()

	select {
	case <-ctx.Done():
		return TestResult{
			Success: false,
			Stage:   stage.String(),
			Error:   "operation timeout",
			Message: fmt.Sprintf("%s operation timed out", stage),
		}
	case err := <-resultChan:
		if err != nil {
			return TestResult{
				Success: false,
				Stage:   stage.String(),
				Error:   err.Error(),
				Message: fmt.Sprintf("Failed to perform %s", stage),
			}
		}
	}

	return TestResult{
		Success: true,
		Stage:   stage.String(),
		Message: fmt.Sprintf("Successfully completed %s", stage),
	}
}

// extractHostPort returns the host:port part of a broker URL, adding
// the default MQTT port when none is given.
func extractHostPort(broker string) string {
	u, err := url.Parse(broker)
	if err != nil || u.Host == "" {
		// Not a URL, assume it is already host[:port].
		host := broker
		if !strings.Contains(host, ":") {
			host += ":1883"
		}
		return host
	}
	if u.Port() == "" {
		return net.JoinHostPort(u.Hostname(), "1883")
	}
	return u.Host
}

// testDNSStage performs DNS resolution testing.
func (c *client) testDNSStage(ctx context.Context, brokerHost string) TestResult {
	dnsCtx, dnsCancel := context.WithTimeout(ctx, dnsTimeout)
	defer dnsCancel()

	return runNetworkTest(dnsCtx, DNSResolution, func(ctx context.Context) error {
		_, err := net.DefaultResolver.LookupHost(ctx, brokerHost)
		return err
	})
}

// testTCPStage performs TCP connection testing.
func (c *client) testTCPStage(ctx context.Context) TestResult {
	tcpCtx, tcpCancel := context.WithTimeout(ctx, tcpTimeout)
	defer tcpCancel()

	return runNetworkTest(tcpCtx, TCPConnection, func(ctx context.Context) error {
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", extractHostPort(c.config.Broker))
		if err != nil {
			return err
		}
		defer conn.Close()
		return nil
	})
}

// testMQTTStage performs MQTT connection testing.
func (c *client) testMQTTStage(ctx context.Context) TestResult {
	if c.IsConnected() {
		return TestResult{
			Success: true,
			Stage:   MQTTConnection.String(),
			Message: "Already connected to MQTT broker",
		}
	}

	mqttCtx, mqttCancel := context.WithTimeout(ctx, mqttTimeout)
	defer mqttCancel()

	return runNetworkTest(mqttCtx, MQTTConnection, func(ctx context.Context) error {
		return c.Connect(ctx)
	})
}

// testPublishStage publishes a sample vitals payload to a test topic.
func (c *client) testPublishStage(ctx context.Context) TestResult {
	pubCtx, pubCancel := context.WithTimeout(ctx, pubTimeout)
	defer pubCancel()

	return runNetworkTest(pubCtx, MessagePublish, func(ctx context.Context) error {
		testVitals := VitalsDTO{
			Timestamp: time.Now().Format(time.RFC3339),
			Instance:  "MQTT Test",
			SessionID: "test",
			BPM:       72.0,
			Valid:     true,
		}

		payload, err := json.Marshal(&testVitals)
		if err != nil {
			return fmt.Errorf("failed to create test message: %w", err)
		}

		return c.Publish(ctx, constructTestTopic(c.config.Topic), string(payload))
	})
}

// constructTestTopic appends the test suffix to the configured topic.
func constructTestTopic(topic string) string {
	base := strings.TrimSuffix(topic, "/")
	if base == "" {
		base = "aurascan"
	}
	return base + "/test"
}

// TestConnection performs a multi-stage test of the MQTT connection
// and functionality, stopping at the first failed stage. Results are
// streamed through resultChan as they complete.
func (c *client) TestConnection(ctx context.Context, resultChan chan<- TestResult) {
	sendResult := func(result TestResult) {
		result.Timestamp = time.Now().Format(time.RFC3339)
		select {
		case resultChan <- result:
		case <-ctx.Done():
		}
	}

	u, err := url.Parse(c.config.Broker)
	if err != nil {
		sendResult(TestResult{
			Success: false,
			Stage:   DNSResolution.String(),
			Error:   err.Error(),
			Message: "Invalid broker URL",
		})
		return
	}

	// Stage 1: DNS resolution, skipped for raw IP addresses.
	if host := u.Hostname(); net.ParseIP(host) == nil {
		result := c.testDNSStage(ctx, host)
		sendResult(result)
		if !result.Success {
			return
		}
	}

	// Stage 2: TCP connectivity.
	result := c.testTCPStage(ctx)
	sendResult(result)
	if !result.Success {
		return
	}

	// Stage 3: MQTT connection.
	result = c.testMQTTStage(ctx)
	sendResult(result)
	if !result.Success {
		return
	}

	// Stage 4: publish a test message.
	sendResult(c.testPublishStage(ctx))
}
