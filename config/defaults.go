package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags, config file parsing, and environment variable
// loading.

const (
	// DefaultPort is the SSH port the home server has always used.
	DefaultPort = 8022

	// DefaultWelcomeText greets every session; ${user} is replaced
	// with the login name.
	DefaultWelcomeText = "Welcome to eHome, ${user}!"

	// DefaultPersistedHistorySize is how many command lines per user
	// the history backend keeps.
	DefaultPersistedHistorySize = 100

	// DefaultHandshakeTimeout bounds the SSH handshake so a silent
	// client cannot hold a connection slot.
	DefaultHandshakeTimeout = 10 * time.Second

	// DefaultGracePeriod is how long shutdown waits for sessions.
	DefaultGracePeriod = 5 * time.Second

	// DefaultVerbosity logs warnings and informational messages.
	DefaultVerbosity = 1
)
