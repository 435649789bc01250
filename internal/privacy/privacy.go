// Package privacy scrubs sensitive values out of anything that leaves
// the process: broker URLs in log lines and filesystem paths or
// endpoints in telemetry reports.
package privacy

import (
	"crypto/sha256"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Patterns are compiled once, scrubbing runs on every outgoing
// telemetry event.
var (
	// URL schemes this application actually emits in errors: MQTT
	// broker endpoints and web addresses.
	urlPattern = regexp.MustCompile(`\b(?:mqtts?|tcp|ssl|wss?|https?)://\S+`)

	// Absolute POSIX paths at least two segments deep. Single-segment
	// paths like /tmp carry nothing personal.
	pathPattern = regexp.MustCompile(`(?:^|[\s"'=(\[])(/[\w.@~+-]+(?:/[\w.@~+-]+)+)`)
)

// ScrubMessage replaces URLs and absolute filesystem paths in a
// message with anonymized placeholders. Trace file errors embed the
// user's directory layout and broker errors can embed credentials;
// neither belongs in a crash report.
func ScrubMessage(message string) string {
	scrubbed := urlPattern.ReplaceAllStringFunc(message, AnonymizeURL)
	return pathPattern.ReplaceAllStringFunc(scrubbed, func(match string) string {
		slash := strings.Index(match, "/")
		return match[:slash] + AnonymizePath(match[slash:])
	})
}

// AnonymizeURL reduces a URL to its scheme plus a stable hash of
// scheme, host and port. Reports from the same endpoint still
// correlate, but host, credentials and path never leave the machine.
func AnonymizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		hash := sha256.Sum256([]byte(rawURL))
		return fmt.Sprintf("url-%x", hash[:8])
	}

	parts := []string{u.Scheme, u.Hostname()}
	if port := u.Port(); port != "" {
		parts = append(parts, port)
	}
	hash := sha256.Sum256([]byte(strings.Join(parts, ":")))

	scheme := u.Scheme
	if scheme == "" {
		scheme = "url"
	}
	return fmt.Sprintf("%s-%x", scheme, hash[:8])
}

// AnonymizePath keeps only the final path element, the part that says
// what the file is rather than where the user keeps it.
func AnonymizePath(path string) string {
	return ".../" + path[strings.LastIndex(path, "/")+1:]
}

// SanitizeBrokerURL strips inline credentials from a broker URL so it
// can appear in log lines. Host and port stay, they are what an
// operator needs to debug connectivity.
func SanitizeBrokerURL(broker string) string {
	u, err := url.Parse(broker)
	if err != nil || u.User == nil {
		return broker
	}
	u.User = nil
	return u.String()
}
