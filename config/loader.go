package config

// loader.go - configuration loading from a YAML file and environment
// variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables
//   3. YAML file  (--config)
//   4. Defaults   (defaults.go)

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ── YAML file ────────────────────────────────────────────────────────

// LoadFile overlays the YAML file at path onto cfg.  Keys missing from
// the file keep their current value; unknown keys are an error so a
// typo does not silently fall back to a default.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config file: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	return nil
}

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the EHOME_ prefix.  Boolean values
// accept "1", "true", "yes" (case-insensitive).

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty
// env vars override the existing value.  Call it after LoadFile and
// before CLI flag parsing so that flags take precedence.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("EHOME_LISTEN_ADDRESS"); v != "" {
		cfg.ListenAddress = v
	}
	if v := envInt("EHOME_PORT"); v > 0 {
		cfg.Port = v
	}
	if v := os.Getenv("EHOME_HOST_KEY"); v != "" {
		cfg.HostKeyPath = v
	}
	if v := os.Getenv("EHOME_AUTHORIZED_KEYS"); v != "" {
		cfg.AuthorizedKeysPath = v
	}
	if v := envInt("EHOME_HANDSHAKE_TIMEOUT"); v > 0 {
		cfg.HandshakeTimeout = secondsDuration(v)
	}

	// Shell
	if v := os.Getenv("EHOME_WELCOME_TEXT"); v != "" {
		cfg.WelcomeText = v
	}
	if v := os.Getenv("EHOME_HISTORY_DB"); v != "" {
		cfg.HistoryDB = v
	}
	if v := envInt("EHOME_HISTORY_SIZE"); v > 0 {
		cfg.PersistedHistorySize = v
	}

	// Home
	if envBool("EHOME_NOTIFICATIONS") {
		cfg.NotificationsEnabled = true
	}

	// Output
	if v := envInt("EHOME_VERBOSE"); v > 0 {
		cfg.Verbose = v
	}
}

// ── helpers ──────────────────────────────────────────────────────────

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes"
}

func secondsDuration(sec int) time.Duration {
	return time.Duration(sec) * time.Second
}
