// Package config defines the runtime configuration of the ehome SSH
// server: where it listens, how clients authenticate, and which home
// automation backends the shell commands talk to.
package config

import (
	"fmt"
	"time"

	ehomeerrors "ehome/internal/errors"
	"ehome/util"
)

// Config holds every tuneable of a server process.
type Config struct {
	// ── Server ───────────────────────────────────────────────────────
	ListenAddress      string        `yaml:"listen_address"`
	Port               int           `yaml:"port"`
	HostKeyPath        string        `yaml:"host_key"`        // empty → ephemeral key
	AuthorizedKeysPath string        `yaml:"authorized_keys"` // empty → no client auth
	HandshakeTimeout   time.Duration `yaml:"handshake_timeout"`
	GracePeriod        time.Duration `yaml:"grace_period"`

	// ── Shell ────────────────────────────────────────────────────────
	WelcomeText          string `yaml:"welcome_text"`
	HistoryDB            string `yaml:"history_db"` // empty → in memory
	PersistedHistorySize int    `yaml:"persisted_history_size"`

	// ── Home ─────────────────────────────────────────────────────────
	Inventory            []ControllerConfig `yaml:"inventory"`
	NotificationsEnabled bool               `yaml:"notifications"`

	// ── Output ───────────────────────────────────────────────────────
	Verbose int `yaml:"verbose"`
}

// ControllerConfig describes a Z-Wave controller and the devices known
// to be paired with it.
type ControllerConfig struct {
	Name       string         `yaml:"name"`
	SerialPort string         `yaml:"serial_port"`
	Devices    []DeviceConfig `yaml:"devices"`
}

// DeviceConfig is one node of a controller.
type DeviceConfig struct {
	NodeID uint8  `yaml:"node_id"`
	Type   string `yaml:"type"`
	Meter  bool   `yaml:"meter"`
}

// Default returns a Config populated from defaults.go.
func Default() *Config {
	return &Config{
		Port:                 DefaultPort,
		HandshakeTimeout:     DefaultHandshakeTimeout,
		GracePeriod:          DefaultGracePeriod,
		WelcomeText:          DefaultWelcomeText,
		PersistedHistorySize: DefaultPersistedHistorySize,
		Verbose:              DefaultVerbosity,
	}
}

// Address returns the host:port the server binds.
func (c *Config) Address() string {
	return util.FormatAddr(c.ListenAddress, c.Port)
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return &ehomeerrors.ConfigError{
			Field:   "port",
			Value:   c.Port,
			Message: "port out of range 1-65535",
			Hint:    fmt.Sprintf("the default is %d", DefaultPort),
		}
	}
	if c.PersistedHistorySize < 1 {
		return &ehomeerrors.ConfigError{
			Field:   "history-size",
			Value:   c.PersistedHistorySize,
			Message: "must be positive",
		}
	}
	if c.HandshakeTimeout < 0 {
		return &ehomeerrors.ConfigError{
			Field:   "handshake-timeout",
			Value:   c.HandshakeTimeout,
			Message: "must not be negative",
			Hint:    "use 0 to wait forever",
		}
	}

	seen := make(map[string]bool, len(c.Inventory))
	for _, ctrl := range c.Inventory {
		if ctrl.Name == "" {
			return &ehomeerrors.ConfigError{
				Field:   "inventory",
				Message: "controller name is required",
			}
		}
		if seen[ctrl.Name] {
			return &ehomeerrors.ConfigError{
				Field:   "inventory",
				Value:   ctrl.Name,
				Message: "duplicate controller name",
			}
		}
		seen[ctrl.Name] = true
	}
	return nil
}
