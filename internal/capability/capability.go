// Package capability defines what happens over an established session
// channel.  Each Capability encapsulates a single behaviour and operates
// on a Session rather than a raw ssh.Channel, which keeps capabilities
// testable and decoupled from transport details.
package capability

import (
	"context"
	"errors"
	"io"

	"ehome/internal/command"
	"ehome/internal/history"
	"ehome/internal/metrics"
	"ehome/internal/session"
	"ehome/internal/shell"
)

// Capability handles a single session channel.
type Capability interface {
	// Handle runs the capability against the given session.  It blocks
	// until the session is over or the context is cancelled.  A nil
	// error means the session ended normally.
	Handle(ctx context.Context, sess *session.Session) error
}

// Shell runs the interactive command shell.  One Shell value serves
// every session; the per-session state lives in the shell.Shell it
// creates.
type Shell struct {
	Dispatcher *command.Dispatcher
	History    history.Backend
	Welcome    string
	Metrics    *metrics.Collector
}

// Handle runs the shell until the user leaves or the channel fails.
// A channel closed by the client is reported as a normal end.
func (c *Shell) Handle(ctx context.Context, sess *session.Session) error {
	sh := shell.New(shell.Config{
		User:       sess.User,
		Welcome:    c.Welcome,
		Dispatcher: c.Dispatcher,
		History:    c.History,
		Logger:     sess.Logger,
		Metrics:    c.Metrics,
	}, sess.Channel, sess.Channel)

	err := sh.Run(ctx)
	if errors.Is(err, io.EOF) {
		sess.Logger.Info("client closed the channel")
		return nil
	}
	return err
}
