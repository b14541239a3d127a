// Package errors provides domain-specific error types for ehome.
//
// These types carry structured context (command, option, address) that
// helps the dispatcher and the server decide how to report a failure,
// and give better diagnostics than plain string wrapping.
package errors

import (
	"errors"
	"fmt"
	"net"
	"syscall"
)

// ── Sentinel errors ──────────────────────────────────────────────────

var (
	ErrCommandNotFound = errors.New("command not found")
	ErrNotImplemented  = errors.New("not yet implemented")
	ErrSessionClosed   = errors.New("session is closed")
	ErrAuthFailed      = errors.New("authentication failed")
)

// ── Structured error types ───────────────────────────────────────────

// UnknownOptionError is raised while binding tokens when a --name
// token does not match any option the command declares.
type UnknownOptionError struct {
	Name string
}

func (e *UnknownOptionError) Error() string {
	return fmt.Sprintf("unknown option: --%s", e.Name)
}

// ConversionError reports a token that could not be converted to the
// declared value type of an option or argument.
type ConversionError struct {
	Name  string // option or argument name
	Value string // raw token
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("invalid value %q for %s: %v", e.Value, e.Name, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// DescriptorError is a startup-time configuration error found while
// building the command registry.
type DescriptorError struct {
	Command string // command key, may be empty when the name is missing
	Message string
}

func (e *DescriptorError) Error() string {
	if e.Command == "" {
		return "command descriptor: " + e.Message
	}
	return fmt.Sprintf("command %s: %s", e.Command, e.Message)
}

// NetworkError represents a failure in a network operation.
type NetworkError struct {
	Op        string // operation: "listen", "accept", "read", "write"
	Addr      string // network address involved
	Err       error  // underlying error
	Retryable bool   // whether the caller should retry
}

func (e *NetworkError) Error() string {
	s := fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
	if e.Retryable {
		s += " (retryable)"
	}
	return s
}

func (e *NetworkError) Unwrap() error { return e.Err }

// SSHError represents an SSH-specific failure with peer context.
type SSHError struct {
	Op   string // "handshake", "hostkey", "channel", "request"
	Addr string
	Err  error
}

func (e *SSHError) Error() string {
	return fmt.Sprintf("ssh %s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *SSHError) Unwrap() error { return e.Err }

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	Field   string      // config field name
	Value   interface{} // the invalid value (nil if missing)
	Message string      // human-readable explanation
	Hint    string      // suggestion for the user (optional)
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config: --%s", e.Field)
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	msg += ": " + e.Message
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

// ── Constructors ─────────────────────────────────────────────────────

// Wrap creates a NetworkError, automatically detecting retryability
// from the underlying error.
func Wrap(op, addr string, err error) *NetworkError {
	return &NetworkError{
		Op:        op,
		Addr:      addr,
		Err:       err,
		Retryable: classifyRetryable(err),
	}
}

// WrapSSH creates an SSHError.
func WrapSSH(op, addr string, err error) *SSHError {
	return &SSHError{Op: op, Addr: addr, Err: err}
}

// NotImplemented wraps ErrNotImplemented with the feature that is missing.
func NotImplemented(feature string) error {
	return fmt.Errorf("%s: %w", feature, ErrNotImplemented)
}

// ── Classification helpers ───────────────────────────────────────────

// IsRetryable reports whether err is worth retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return ne.Retryable
	}
	return classifyRetryable(err)
}

// IsUserError reports whether err stems from what the user typed
// rather than from the command or the transport.
func IsUserError(err error) bool {
	var uo *UnknownOptionError
	var ce *ConversionError
	return errors.Is(err, ErrCommandNotFound) ||
		errors.Is(err, ErrNotImplemented) ||
		errors.As(err, &uo) ||
		errors.As(err, &ce)
}

// classifyRetryable inspects standard library error types.
func classifyRetryable(err error) bool {
	if err == nil {
		return false
	}
	// Another process, often the previous instance, still holds the port.
	if errors.Is(err, syscall.EADDRINUSE) {
		return true
	}
	// net.OpError with Temporary() hint
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Temporary() //nolint:staticcheck // Temporary is deprecated but still useful
	}
	return false
}

// ── Re-exports for convenience ───────────────────────────────────────
//
// These allow callers to use ehome/internal/errors as a drop-in
// replacement for the standard library in common operations.

// As is [errors.As].
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Is is [errors.Is].
func Is(err, target error) bool { return errors.Is(err, target) }

// New is [errors.New].
func New(text string) error { return errors.New(text) }

// Unwrap is [errors.Unwrap].
func Unwrap(err error) error { return errors.Unwrap(err) }

// Join is [errors.Join].
func Join(errs ...error) error { return errors.Join(errs...) }
