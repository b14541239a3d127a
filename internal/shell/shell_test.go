package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"ehome/internal/command"
	"ehome/internal/command/builtin"
	"ehome/internal/history"
	"ehome/internal/metrics"
	"ehome/internal/store"
	"ehome/util"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	green   = "\x1b[32m➜  \x1b[0m"
	red     = "\x1b[31m➜  \x1b[0m"
	welcome = "Welcome anton\r\n" + green
	bye     = "\r\nGood-bye!\r\n"
)

var listing = []struct{ key, desc string }{
	{"boom", "Always crashes"},
	{"disconnect", "Disconnects from the SSH server session"},
	{"fail", "Always fails"},
	{"help", "Shows available commands"},
	{"stats", "Shows server statistics"},
	{"uptime", "Gets the servers current uptime"},
	{"version", "Shows the server version"},
}

func helpOutput() string {
	var b strings.Builder
	for _, l := range listing {
		fmt.Fprintf(&b, "\r\n%-10s   %s", l.key, l.desc)
	}
	return b.String()
}

type harness struct {
	metrics *metrics.Collector
	shell   *Shell
	out     bytes.Buffer
}

func newHarness(t *testing.T, input string, backend history.Backend) *harness {
	t.Helper()
	h := &harness{metrics: metrics.New()}

	descs := builtin.Descriptors(builtin.Deps{Metrics: h.metrics})
	descs = append(descs,
		command.Descriptor{
			Name:        "fail",
			Description: "Always fails",
			New: func(*command.Invocation) command.Command {
				return command.Func(func(context.Context, string, command.Communicator) command.Result {
					return command.Failf("it failed")
				})
			},
		},
		command.Descriptor{
			Name:        "boom",
			Description: "Always crashes",
			New: func(*command.Invocation) command.Command {
				return command.Func(func(context.Context, string, command.Communicator) command.Result {
					return command.Crash(errors.New("kaput"))
				})
			},
		},
	)
	reg, err := command.NewRegistry(descs...)
	require.NoError(t, err)

	h.shell = New(Config{
		User:       "anton",
		Welcome:    "Welcome ${user}",
		Dispatcher: command.NewDispatcher(reg, util.NewLogger(0)),
		History:    backend,
		Logger:     util.NewLogger(0),
		Metrics:    h.metrics,
	}, strings.NewReader(input), &h.out)
	return h
}

func (h *harness) run() error {
	return h.shell.Run(context.Background())
}

func TestRun_WelcomeAndGoodbye(t *testing.T) {
	h := newHarness(t, "\x04", nil)
	require.NoError(t, h.run())
	assert.Equal(t, welcome+bye, h.out.String())
}

func TestRun_TypingHelp(t *testing.T) {
	h := newHarness(t, "help\r\x04", nil)
	require.NoError(t, h.run())
	assert.Equal(t, welcome+"help"+helpOutput()+"\r\n\r\n"+green+bye, h.out.String())
}

func TestRun_Outcomes(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		lastOK bool
	}{
		{"blank line keeps colour", "\r",
			"\r\n\r\n" + green, true},
		{"unknown command", "foo\r",
			"foo\r\ncommand not found: foo\r\n\r\n" + red, false},
		{"user error", "fail\r",
			"fail\r\nit failed\r\n\r\n" + red, false},
		{"fatal", "boom\r",
			"boom\r\nUnknown error occurred: kaput\r\n\r\n" + red, false},
		{"success after failure", "fail\rversion\r",
			"fail\r\nit failed\r\n\r\n" + red + "version\r\nDevelopment\r\n\r\n" + green, true},
		{"blank line after failure", "fail\r\r",
			"fail\r\nit failed\r\n\r\n" + red + "\r\n\r\n" + red, false},
		{"unsupported option", "help --all\r",
			"help --all\r\nunknown option: --all\r\n\r\n" + red, false},
		{"line feed ignored", "version\n\r",
			"version\r\nDevelopment\r\n\r\n" + green, true},
		{"ctrl-c", "abc\x03",
			"abc\r\n\r\n" + red, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.input+"\x04", nil)
			require.NoError(t, h.run())
			assert.Equal(t, welcome+tt.want+bye, h.out.String())
			assert.Equal(t, tt.lastOK, h.shell.LastCommandSucceeded())
			assert.Empty(t, h.shell.Line())
		})
	}
}

func TestRun_DisconnectCommand(t *testing.T) {
	h := newHarness(t, "disconnect\rversion\r", nil)
	require.NoError(t, h.run())
	assert.Equal(t, welcome+"disconnect\r\nGood-bye!\r\n", h.out.String())
	assert.Equal(t, int64(1), h.metrics.CommandCount())
}

func TestRun_Completion(t *testing.T) {
	tests := []struct {
		name  string
		input string
		echo  string
	}{
		{"unique match", "he\t", "help "},
		{"unique match with longer key", "d\t", "disconnect "},
		{"no match", "zz\t", "zz"},
		{"after whitespace", "help \t", "help "},
		{"arguments are not completed", "help x\t", "help x"},
		{"shared prefix", "\t", ""},
		{"trailing whitespace after the cursor", "he  \x1b[D\x1b[D\t", "he  \x1b[D\x1b[D  \x1b[2Dlp "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.input+"\x04", nil)
			require.NoError(t, h.run())
			assert.Equal(t, welcome+tt.echo+bye, h.out.String())
		})
	}
}

func TestRun_CompletionRunsCommand(t *testing.T) {
	h := newHarness(t, "ver\t\r\x04", nil)
	require.NoError(t, h.run())
	assert.Equal(t, welcome+"version \r\nDevelopment\r\n\r\n"+green+bye, h.out.String())
}

func TestRun_EditingBeforeSubmit(t *testing.T) {
	// "hlp", two steps left, insert "e", then Enter runs "help".
	h := newHarness(t, "hlp\x1b[D\x1b[De\r\x04", nil)
	require.NoError(t, h.run())
	want := welcome + "hlp" + "\x1b[D\x1b[D" + "elp\x1b[2D" + helpOutput() + "\r\n\r\n" + green + bye
	assert.Equal(t, want, h.out.String())
}

func TestRun_HistoryCycling(t *testing.T) {
	backend := store.NewMemoryHistory(history.Capacity)
	h := newHarness(t, "version\r\x1b[A\x1b[B\x04", backend)
	require.NoError(t, h.run())

	want := welcome +
		"version\r\nDevelopment\r\n\r\n" + green +
		"version" + // up shows the last line
		"\x1b[7D" + "       " + "\x1b[7D" + // down past the newest blanks it
		bye
	assert.Equal(t, want, h.out.String())

	lines, err := backend.History("anton")
	require.NoError(t, err)
	assert.Equal(t, []string{"version"}, lines)
}

func TestRun_HistoryLoadedFromBackend(t *testing.T) {
	backend := store.NewMemoryHistory(history.Capacity)
	require.NoError(t, backend.Append("anton", "uptime"))
	require.NoError(t, backend.Append("anton", "version"))

	h := newHarness(t, "\x1b[A\x1b[A\r\x04", backend)
	require.NoError(t, h.run())
	assert.True(t, strings.HasPrefix(h.out.String(), welcome+"version\x1b[7Duptime \x1b[1D\r\n"))
}

func TestRun_HistoryCancelledByTyping(t *testing.T) {
	backend := store.NewMemoryHistory(history.Capacity)
	require.NoError(t, backend.Append("anton", "uptime"))
	require.NoError(t, backend.Append("anton", "version"))

	// After typing, Up no longer cycles because the live line is not empty.
	h := newHarness(t, "\x1b[Ax\x1b[A\x04", backend)
	require.NoError(t, h.run())
	assert.Equal(t, welcome+"versionx"+bye, h.out.String())
}

func TestRun_UpWithoutHistoryDoesNothing(t *testing.T) {
	h := newHarness(t, "\x1b[A\x1b[B\x04", nil)
	require.NoError(t, h.run())
	assert.Equal(t, welcome+bye, h.out.String())
}

func TestRun_Metrics(t *testing.T) {
	input := "fail\rversion\r\r\x04"
	h := newHarness(t, input, nil)
	require.NoError(t, h.run())

	assert.Equal(t, int64(2), h.metrics.CommandCount())
	assert.Equal(t, int64(1), h.metrics.FailedCommandCount())
	assert.Equal(t, int64(len(input)), h.metrics.TotalBytesIn())
	assert.Equal(t, int64(h.out.Len()), h.metrics.TotalBytesOut())
}

func TestRun_ChannelClosed(t *testing.T) {
	h := newHarness(t, "vers", nil)
	err := h.run()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "vers", h.shell.Line())
}

func TestRun_ContextCancelled(t *testing.T) {
	h := newHarness(t, "version\rversion\r", nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := h.shell.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, welcome+"v", h.out.String())
}

type failingWriter struct{ after int }

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.after <= 0 {
		return 0, errors.New("broken pipe")
	}
	w.after--
	return len(p), nil
}

func TestRun_WriteFailureEndsSession(t *testing.T) {
	reg, err := command.NewRegistry(builtin.Descriptors(builtin.Deps{Metrics: metrics.New()})...)
	require.NoError(t, err)
	s := New(Config{
		User:       "anton",
		Dispatcher: command.NewDispatcher(reg, util.NewLogger(0)),
		Logger:     util.NewLogger(0),
	}, strings.NewReader("version\r"), &failingWriter{after: 2})

	err = s.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken pipe")
}
