package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Default values for configuration.
const (
	DefaultTimeout         = 30 // minutes
	DefaultWebhookTimeout  = 10 * time.Second
	DefaultTimestampLayout = "Mon Jan 2 2006 15:04:05 -0700"
	DefaultLogLevel        = "warn"
	DefaultLogFormat       = "text"
)

// Default Teams log markers.
const (
	DefaultStartupMarker  = "StatusIndicatorStateService: initialized"
	DefaultShutdownMarker = "session-end fired"
	DefaultKilledMarker   = `"exitCode":1073807364`
	DefaultLockedMarker   = "Machine is locked"
	DefaultUnlockedMarker = "Machine is unlocked"
	DefaultIdleMarker     = "Machine has been idle for"
)

// Environment variable names.
const (
	EnvLogDir  = "TEAMSACTIVITY_LOG_DIR"
	EnvTimeout = "TEAMSACTIVITY_TIMEOUT"
)

// DefaultMarkers returns the markers written by the Teams desktop client.
func DefaultMarkers() MarkerConfig {
	return MarkerConfig{
		Startup:  DefaultStartupMarker,
		Shutdown: DefaultShutdownMarker,
		Killed:   DefaultKilledMarker,
		Locked:   DefaultLockedMarker,
		Unlocked: DefaultUnlockedMarker,
		Idle:     DefaultIdleMarker,
	}
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LogPatterns:     []string{"old_logs_*.txt", "logs.txt"},
		Timeout:         DefaultTimeout,
		TimestampLayout: DefaultTimestampLayout,
		Markers:         DefaultMarkers(),
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
func (c *Config) applyEnvironmentOverrides() error {
	if dir := os.Getenv(EnvLogDir); dir != "" {
		c.LogDir = dir
	}

	if v := os.Getenv(EnvTimeout); v != "" {
		minutes, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: invalid minutes %q: %w", EnvTimeout, v, err)
		}
		c.Timeout = minutes
	}

	return nil
}
