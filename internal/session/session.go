// Package session represents one SSH session channel: the byte stream
// to the client plus what the client told us about itself before it
// asked for a shell.
//
// Capabilities work on a Session rather than on an ssh.Channel, so a
// test can drive them with an in-memory pipe.
package session

import (
	"io"
	"net"

	"ehome/util"
)

// PTY is the terminal a client requested with pty-req.
type PTY struct {
	Term   string
	Width  uint32
	Height uint32
}

// Session is the runtime context of a single session channel.  The
// fields are filled in by the request handler before the capability
// starts and are not changed afterwards.
type Session struct {
	Channel io.ReadWriteCloser
	User    string
	Remote  net.Addr
	Env     map[string]string
	PTY     *PTY // nil when the client did not ask for one
	Logger  *util.Logger
}

// New creates a Session for the given channel and authenticated user.
// The logger is tagged with the user and remote address.
func New(ch io.ReadWriteCloser, user string, remote net.Addr, logger *util.Logger) *Session {
	l := logger.With("user", user)
	if remote != nil {
		l = l.With("remote", remote.String())
	}
	return &Session{
		Channel: ch,
		User:    user,
		Remote:  remote,
		Env:     make(map[string]string),
		Logger:  l,
	}
}

// SetEnv records an environment variable sent with an env request.
func (s *Session) SetEnv(name, value string) {
	s.Env[name] = value
}
