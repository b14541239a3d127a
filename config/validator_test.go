package config

import (
	"strings"
	"testing"
)

// TestValidate_ErrorMessages verifies that Validate returns actionable
// error messages naming the offending flag.
func TestValidate_ErrorMessages(t *testing.T) {
	valid := func(mut func(*Config)) Config {
		cfg := Default()
		mut(cfg)
		return *cfg
	}

	tests := []struct {
		name    string
		cfg     Config
		wantSub string
	}{
		{
			name:    "port zero has hint",
			cfg:     valid(func(c *Config) { c.Port = 0 }),
			wantSub: "hint: the default is 8022",
		},
		{
			name:    "port too large",
			cfg:     valid(func(c *Config) { c.Port = 70000 }),
			wantSub: "--port=70000",
		},
		{
			name:    "history size",
			cfg:     valid(func(c *Config) { c.PersistedHistorySize = 0 }),
			wantSub: "--history-size=0: must be positive",
		},
		{
			name:    "negative handshake timeout",
			cfg:     valid(func(c *Config) { c.HandshakeTimeout = -1 }),
			wantSub: "use 0 to wait forever",
		},
		{
			name: "duplicate controller",
			cfg: valid(func(c *Config) {
				c.Inventory = []ControllerConfig{{Name: "main"}, {Name: "main"}}
			}),
			wantSub: "--inventory=main: duplicate controller name",
		},
		{
			name: "unnamed controller",
			cfg: valid(func(c *Config) {
				c.Inventory = []ControllerConfig{{SerialPort: "/dev/ttyACM0"}}
			}),
			wantSub: "controller name is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q should contain %q", err.Error(), tt.wantSub)
			}
		})
	}
}

func TestValidate_Inventory(t *testing.T) {
	cfg := Default()
	cfg.Inventory = []ControllerConfig{
		{Name: "main", SerialPort: "/dev/ttyACM0"},
		{Name: "attic", SerialPort: "/dev/ttyUSB0"},
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
