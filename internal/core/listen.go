package core

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	"ehome/internal/capability"
	ehomeerrors "ehome/internal/errors"
	"ehome/internal/metrics"
	"ehome/internal/retry"
	"ehome/internal/session"
	"ehome/util"
)

// ListenMode accepts SSH connections and runs the capability on every
// session channel that asks for a shell.  Each connection is served by
// its own goroutine, and each session channel by one more.
type ListenMode struct {
	Address          string // "host:port"
	SSHConfig        *ssh.ServerConfig
	Capability       capability.Capability
	Logger           *util.Logger
	Metrics          *metrics.Collector // may be nil
	HandshakeTimeout time.Duration      // 0 disables the deadline
	GracePeriod      time.Duration      // how long Run waits for sessions on shutdown

	// Bind retries the initial listen, e.g. while a previous instance
	// still holds the port.  Nil uses retry.DefaultBackoff.
	Bind *retry.Backoff

	// Ready, when set, receives the bound address once the server is
	// accepting connections.
	Ready chan<- net.Addr
}

// ── SSH payloads ─────────────────────────────────────────────────────

type ptyRequest struct {
	Term    string
	Columns uint32
	Rows    uint32
	Width   uint32
	Height  uint32
	Modes   string
}

type envRequest struct {
	Name  string
	Value string
}

type windowChange struct {
	Columns uint32
	Rows    uint32
	Width   uint32
	Height  uint32
}

type exitStatus struct {
	Status uint32
}

// Run listens until ctx is cancelled, then closes every connection and
// waits up to GracePeriod for the sessions to finish.
func (m *ListenMode) Run(ctx context.Context) error {
	ln, err := m.listen(ctx)
	if err != nil {
		return err
	}
	defer ln.Close()

	m.Logger.Info("listening on %s", ln.Addr())
	if m.Ready != nil {
		select {
		case m.Ready <- ln.Addr():
		case <-ctx.Done():
		}
	}

	// Shut the listener down when the context expires.
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	var wg sync.WaitGroup
	pace := retry.AcceptBackoff()
	failures := 0
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			if errors.Is(err, net.ErrClosed) {
				return ehomeerrors.Wrap("accept", m.Address, err)
			}
			failures++
			m.Logger.Warn("accept: %v; retrying in %v", err, pace.Delay(failures))
			if pace.Wait(ctx, failures) != nil {
				break
			}
			continue
		}
		failures = 0

		wg.Add(1)
		go func() {
			defer wg.Done()
			m.serveConn(ctx, conn)
		}()
	}

	m.Logger.Info("shutting down")
	return m.drain(&wg)
}

func (m *ListenMode) listen(ctx context.Context) (net.Listener, error) {
	bind := m.Bind
	if bind == nil {
		bind = retry.DefaultBackoff()
	}
	var ln net.Listener
	err := bind.Do(ctx, func(attempt int) error {
		var err error
		ln, err = net.Listen("tcp", m.Address)
		if err == nil {
			return nil
		}
		nerr := ehomeerrors.Wrap("listen", m.Address, err)
		if !nerr.Retryable {
			return retry.Permanent(nerr)
		}
		m.Logger.Warn("%v (attempt %d)", nerr, attempt)
		return nerr
	})
	if err != nil {
		return nil, err
	}
	return ln, nil
}

func (m *ListenMode) drain(wg *sync.WaitGroup) error {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	if m.GracePeriod <= 0 {
		<-done
		return nil
	}
	t := time.NewTimer(m.GracePeriod)
	defer t.Stop()
	select {
	case <-done:
		return nil
	case <-t.C:
		return fmt.Errorf("sessions still running after %v", m.GracePeriod)
	}
}

// ── connections ──────────────────────────────────────────────────────

func (m *ListenMode) serveConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	remote := conn.RemoteAddr().String()
	logger := m.Logger.With("remote", remote)
	logger.Verbose("connection accepted")

	if m.HandshakeTimeout > 0 {
		conn.SetDeadline(time.Now().Add(m.HandshakeTimeout)) //nolint:errcheck
	}
	sconn, chans, reqs, err := ssh.NewServerConn(conn, m.SSHConfig)
	if err != nil {
		herr := ehomeerrors.WrapSSH("handshake", remote, err)
		logger.Verbose("%v", herr)
		m.Metrics.RecordError(herr.Error())
		return
	}
	conn.SetDeadline(time.Time{}) //nolint:errcheck
	defer sconn.Close()

	logger.Info("user %s logged in with %s", sconn.User(), sconn.ClientVersion())
	go ssh.DiscardRequests(reqs)

	stop := context.AfterFunc(ctx, func() { sconn.Close() })
	defer stop()

	var wg sync.WaitGroup
	for nc := range chans {
		if nc.ChannelType() != "session" {
			logger.Debug("rejecting %s channel", nc.ChannelType())
			nc.Reject(ssh.UnknownChannelType, "unknown channel type") //nolint:errcheck
			continue
		}
		ch, requests, err := nc.Accept()
		if err != nil {
			logger.Warn("could not accept channel: %v", err)
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.serveSession(ctx, session.New(ch, sconn.User(), sconn.RemoteAddr(), m.Logger), ch, requests)
		}()
	}
	wg.Wait()
	logger.Verbose("connection closed")
}

// serveSession answers the channel requests of one session and runs
// the capability once the client asks for a shell.
func (m *ListenMode) serveSession(ctx context.Context, sess *session.Session, ch ssh.Channel, requests <-chan *ssh.Request) {
	var done chan struct{}

	for req := range requests {
		ok := false
		switch req.Type {
		case "pty-req":
			var p ptyRequest
			if done == nil && ssh.Unmarshal(req.Payload, &p) == nil {
				sess.PTY = &session.PTY{Term: p.Term, Width: p.Columns, Height: p.Rows}
				sess.Logger.Debug("pty %s %dx%d", p.Term, p.Columns, p.Rows)
				ok = true
			}
		case "env":
			var e envRequest
			if done == nil && ssh.Unmarshal(req.Payload, &e) == nil {
				sess.SetEnv(e.Name, e.Value)
				ok = true
			}
		case "window-change":
			var w windowChange
			if ssh.Unmarshal(req.Payload, &w) == nil {
				sess.Logger.Debug("window changed to %dx%d", w.Columns, w.Rows)
				ok = true
			}
		case "shell":
			if done == nil {
				ok = true
				done = make(chan struct{})
				go m.runShell(ctx, sess, ch, done)
			}
		case "exec", "subsystem":
			sess.Logger.Info("refusing %s request", req.Type)
		default:
			sess.Logger.Debug("ignoring %s request", req.Type)
		}
		if req.WantReply {
			req.Reply(ok, nil) //nolint:errcheck
		}
	}

	if done != nil {
		<-done
		return
	}
	ch.Close()
}

func (m *ListenMode) runShell(ctx context.Context, sess *session.Session, ch ssh.Channel, done chan<- struct{}) {
	defer close(done)
	m.Metrics.SessionOpened()
	defer m.Metrics.SessionClosed()

	sess.Logger.Info("shell started")
	err := m.Capability.Handle(ctx, sess)

	var status uint32
	switch {
	case err == nil:
		sess.Logger.Info("session ended")
	case ctx.Err() != nil:
		sess.Logger.Info("session closed by server shutdown")
	case util.IsHarmless(err):
		sess.Logger.Info("session closed: %v", err)
	default:
		status = 1
		sess.Logger.Warn("session closed abruptly: %v", err)
		m.Metrics.RecordError(err.Error())
	}

	ch.SendRequest("exit-status", false, ssh.Marshal(&exitStatus{Status: status})) //nolint:errcheck
	ch.Close()
}
