// Package buildinfo contains build-time metadata separate from user
// configuration.
package buildinfo

import "fmt"

// UnknownValue is returned by accessors when the field was never
// injected, local `go run` builds carry no ldflags.
const UnknownValue = "unknown"

// BuildInfo provides an interface for accessing build-time metadata.
type BuildInfo interface {
	// GetVersion returns the build version string
	GetVersion() string
	// GetBuildDate returns the build date string
	GetBuildDate() string
}

// Context contains build-time metadata that is not user-configurable.
// It is injected at application startup and stays out of the
// configuration system.
type Context struct {
	// Version holds the Git version tag from build
	Version string

	// BuildDate is the time when the binary was built
	BuildDate string
}

// NewContext builds a Context from the raw ldflags values.
func NewContext(version, buildDate string) *Context {
	return &Context{Version: version, BuildDate: buildDate}
}

// GetVersion implements BuildInfo.GetVersion
func (c *Context) GetVersion() string {
	if c == nil || c.Version == "" {
		return UnknownValue
	}
	return c.Version
}

// GetBuildDate implements BuildInfo.GetBuildDate
func (c *Context) GetBuildDate() string {
	if c == nil || c.BuildDate == "" {
		return UnknownValue
	}
	return c.BuildDate
}

// String renders the context for version banners.
func (c *Context) String() string {
	return fmt.Sprintf("%s (built %s)", c.GetVersion(), c.GetBuildDate())
}
