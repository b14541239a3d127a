// Package shell runs one interactive session: it reads raw bytes from a
// channel, keeps the input line and history in step with the remote
// terminal, and hands submitted lines to the command dispatcher.
//
// A Shell is driven by exactly one goroutine, the one calling Run.  The
// command registry behind the dispatcher is the only state shared with
// other sessions and it is read-only.
package shell

import (
	"bufio"
	"context"
	"io"
	"strings"

	"ehome/internal/command"
	"ehome/internal/history"
	"ehome/internal/metrics"
	"ehome/internal/terminal"
	"ehome/util"
)

const (
	promptSymbol = "➜  "
	goodbye      = "\r\nGood-bye!\r\n"
	blankLine    = "\r\n\r\n"
)

// Config wires a Shell to its collaborators.
type Config struct {
	User       string
	Welcome    string // ${user} is replaced with User
	Dispatcher *command.Dispatcher
	History    history.Backend // may be nil
	Logger     *util.Logger
	Metrics    *metrics.Collector // may be nil
}

// Shell is the state of one session.
type Shell struct {
	user     string
	welcome  string
	dispatch *command.Dispatcher
	keys     []string
	logger   *util.Logger
	metrics  *metrics.Collector

	in      *terminal.Decoder
	out     *command.StreamCommunicator
	line    terminal.LineBuffer
	history *history.Store
	lastOK  bool
}

// New returns a Shell reading from in and echoing to out.
func New(cfg Config, in io.Reader, out io.Writer) *Shell {
	return &Shell{
		user:     cfg.User,
		welcome:  cfg.Welcome,
		dispatch: cfg.Dispatcher,
		keys:     cfg.Dispatcher.Registry().Keys(),
		logger:   cfg.Logger.With("user", cfg.User),
		metrics:  cfg.Metrics,
		in:       terminal.NewDecoder(bufio.NewReader(&meteredReader{r: in, m: cfg.Metrics})),
		out:      command.NewCommunicator(&meteredWriter{w: out, m: cfg.Metrics}),
		history:  history.New(cfg.User, cfg.History),
		lastOK:   true,
	}
}

// Run shows the welcome text and prompt, then processes input until the
// user leaves, the channel fails, or ctx is cancelled.  A nil error means
// the user ended the session and it should close with exit status 0.
//
// Run does not watch ctx while blocked on a read; the caller unblocks it
// by closing the channel.
func (s *Shell) Run(ctx context.Context) error {
	if err := s.history.Load(); err != nil {
		s.logger.Warn("could not load command history: %v", err)
	}
	s.out.Write(strings.ReplaceAll(s.welcome, "${user}", s.user) + terminal.CRLF)
	s.prompt()
	if err := s.out.Err(); err != nil {
		return err
	}

	for {
		ev, err := s.in.Next()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		done := s.handle(ctx, ev)
		if err := s.out.Err(); err != nil {
			return err
		}
		if done {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// LastCommandSucceeded reports the state that colours the prompt.
func (s *Shell) LastCommandSucceeded() bool { return s.lastOK }

// Line returns the current input line.
func (s *Shell) Line() string { return s.line.String() }

// handle applies one event and reports whether the session is over.
func (s *Shell) handle(ctx context.Context, ev terminal.Event) bool {
	keepCycling := false
	defer func() {
		if !keepCycling {
			s.history.Cancel()
		}
	}()

	switch ev.Kind {
	case terminal.Printable:
		s.echo(s.line.Insert(ev.Char), true)

	case terminal.EscapeSequence:
		keepCycling = s.escape(ev.Seq)

	case terminal.ControlETX:
		s.lastOK = false
		s.line.Reset()
		s.out.Write(blankLine)
		s.prompt()
		s.trace()

	case terminal.ControlEOT:
		s.out.Write(goodbye)
		s.logger.Info("user ended the session")
		return true

	case terminal.ControlCR:
		return s.submit(ctx)

	case terminal.ControlLF:
		s.logger.Debug("ignoring line feed")

	case terminal.ControlBackspace:
		s.echo(s.line.DeleteBefore())

	case terminal.ControlTab:
		s.complete()

	default:
		s.logger.Debug("unhandled byte received: 0x%02x", ev.Byte)
	}
	return false
}

// escape handles an escape sequence and reports whether it was a
// history key, which keeps cycling alive.
func (s *Shell) escape(seq string) bool {
	switch {
	case seq == terminal.KeyUp:
		if text, ok := s.history.CycleUp(s.line.String()); ok {
			s.echo(s.line.Replace(text), true)
		}
		return true
	case seq == terminal.KeyDown:
		if text, ok := s.history.CycleDown(); ok {
			s.echo(s.line.Replace(text), true)
		}
		return true
	case seq == terminal.KeyRight:
		s.echo(s.line.MoveRight())
	case seq == terminal.KeyLeft:
		s.echo(s.line.MoveLeft())
	case seq == terminal.KeyWordRight:
		s.echo(s.line.JumpWordRight())
	case seq == terminal.KeyWordLeft:
		s.echo(s.line.JumpWordLeft())
	case seq == terminal.KeyDelete:
		s.echo(s.line.DeleteAt())
	case terminal.IsHome(seq):
		s.echo(s.line.Home())
	case terminal.IsEnd(seq):
		s.echo(s.line.End())
	default:
		s.logger.Debug("unhandled escape sequence: %q", seq)
	}
	return false
}

// submit runs the current line and shows the next prompt.
func (s *Shell) submit(ctx context.Context) bool {
	text := s.line.String()
	s.line.Reset()
	if err := s.history.Add(text); err != nil {
		s.logger.Warn("could not persist command history: %v", err)
	}

	res := s.dispatch.Execute(ctx, text, s.user, s.out)
	switch res.Outcome {
	case command.OK:
		s.lastOK = true
	case command.UserError:
		s.lastOK = false
		s.out.Write(terminal.CRLF + res.Message)
	case command.Fatal:
		s.lastOK = false
		s.out.Write(terminal.CRLF + "Unknown error occurred: " + errText(res.Err))
		s.metrics.RecordError(errText(res.Err))
	case command.Disconnect:
		s.metrics.CommandExecuted(true)
		return true
	}
	if res.Outcome != command.Blank {
		s.metrics.CommandExecuted(res.Succeeded())
	}

	s.out.Write(blankLine)
	s.prompt()
	return false
}

// complete extends a lone command name typed so far.
func (s *Shell) complete() {
	tokens := strings.Fields(s.line.String())
	switch {
	case len(tokens) == 1 && !s.line.PrevIsSpace():
		ext, ok := command.Complete(s.line.String(), s.keys)
		if !ok {
			s.logger.Debug("nothing to complete for %q", tokens[0])
			return
		}
		trim, _ := s.line.TrimRight()
		s.echo(trim+s.line.Append(ext), true)
	case len(tokens) > 1:
		s.logger.Debug("completing options of %s is not supported", tokens[0])
	}
}

func (s *Shell) prompt() {
	color := terminal.Green
	if !s.lastOK {
		color = terminal.Red
	}
	s.out.Write(color + promptSymbol + terminal.Reset)
}

func (s *Shell) echo(data string, changed bool) {
	if !changed {
		return
	}
	s.out.Write(data)
	s.trace()
}

func (s *Shell) trace() {
	s.logger.Debug("current command: %s", s.line.Debug())
}

func errText(err error) string {
	if err == nil {
		return "unknown"
	}
	return err.Error()
}

type meteredReader struct {
	r io.Reader
	m *metrics.Collector
}

func (r *meteredReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	r.m.BytesReceived(int64(n))
	return n, err
}

type meteredWriter struct {
	w io.Writer
	m *metrics.Collector
}

func (w *meteredWriter) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	w.m.BytesSent(int64(n))
	return n, err
}
