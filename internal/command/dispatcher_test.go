package command

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ehome/internal/errors"
	"ehome/util"
)

type recorder struct {
	calls int
	inv   *Invocation
	user  string
}

func (r *recorder) factory(res Result) Factory {
	return func(inv *Invocation) Command {
		r.inv = inv
		return Func(func(_ context.Context, user string, c Communicator) Result {
			r.calls++
			r.user = user
			c.Write("ran")
			return res
		})
	}
}

func newTestDispatcher(t *testing.T, descs ...Descriptor) *Dispatcher {
	t.Helper()
	reg, err := NewRegistry(descs...)
	require.NoError(t, err)
	return NewDispatcher(reg, util.NewLogger(0))
}

func TestDispatcher_BlankLine(t *testing.T) {
	d := newTestDispatcher(t)
	var out bytes.Buffer
	res := d.Execute(context.Background(), "   ", "anton", NewCommunicator(&out))
	assert.Equal(t, Blank, res.Outcome)
	assert.Empty(t, out.String())
}

func TestDispatcher_RunsCommand(t *testing.T) {
	rec := &recorder{}
	d := newTestDispatcher(t, Descriptor{Name: "help", New: rec.factory(Done())})

	var out bytes.Buffer
	res := d.Execute(context.Background(), "  help  ", "anton", NewCommunicator(&out))
	assert.Equal(t, OK, res.Outcome)
	assert.True(t, res.Succeeded())
	assert.Equal(t, 1, rec.calls)
	assert.Equal(t, "anton", rec.user)
	assert.Equal(t, "ran", out.String())
}

func TestDispatcher_CommandNotFound(t *testing.T) {
	d := newTestDispatcher(t, Descriptor{Name: "help", New: noop})

	res := d.Execute(context.Background(), "unknown-cmd --x", "anton", NewCommunicator(&bytes.Buffer{}))
	assert.Equal(t, UserError, res.Outcome)
	assert.Equal(t, "command not found: unknown-cmd", res.Message)
	assert.ErrorIs(t, res.Err, errors.ErrCommandNotFound)
}

func TestDispatcher_UnknownOptionDoesNotRun(t *testing.T) {
	rec := &recorder{}
	d := newTestDispatcher(t, Descriptor{Name: "help", New: rec.factory(Done())})

	res := d.Execute(context.Background(), "help --bogus-flag", "anton", NewCommunicator(&bytes.Buffer{}))
	assert.Equal(t, UserError, res.Outcome)
	assert.Equal(t, "unknown option: --bogus-flag", res.Message)
	var uo *errors.UnknownOptionError
	assert.ErrorAs(t, res.Err, &uo)
	assert.Zero(t, rec.calls)
}

func TestDispatcher_BindsFlag(t *testing.T) {
	rec := &recorder{}
	d := newTestDispatcher(t, Descriptor{
		Name: "stats", New: rec.factory(Done()),
		Options: []Option{{Name: "reset", Kind: Bool}},
	})

	d.Execute(context.Background(), "stats", "anton", NewCommunicator(&bytes.Buffer{}))
	require.NotNil(t, rec.inv)
	assert.False(t, rec.inv.Bool("reset"))

	d.Execute(context.Background(), "stats --reset", "anton", NewCommunicator(&bytes.Buffer{}))
	assert.True(t, rec.inv.Bool("reset"))
}

func TestDispatcher_ValueOptionFailsClosed(t *testing.T) {
	rec := &recorder{}
	d := newTestDispatcher(t, Descriptor{
		Group: "z-wave", Name: "devices", New: rec.factory(Done()),
		Options: []Option{{Name: "controller", Kind: String}},
	})

	res := d.Execute(context.Background(), "z-wave:devices --controller", "anton", NewCommunicator(&bytes.Buffer{}))
	assert.Equal(t, UserError, res.Outcome)
	assert.ErrorIs(t, res.Err, errors.ErrNotImplemented)
	assert.Zero(t, rec.calls)
}

func TestDispatcher_BindsArgument(t *testing.T) {
	rec := &recorder{}
	d := newTestDispatcher(t, Descriptor{
		Group: "z-wave", Name: "add-monitored-value", New: rec.factory(Done()),
		Options:   []Option{{Name: "controller", Kind: String}},
		Arguments: []Argument{{Name: "node", Kind: Byte}},
	})

	res := d.Execute(context.Background(), "z-wave:add-monitored-value 12", "anton", NewCommunicator(&bytes.Buffer{}))
	require.Equal(t, OK, res.Outcome)
	assert.Equal(t, uint8(12), rec.inv.Byte("node"))
}

func TestDispatcher_ArgumentErrors(t *testing.T) {
	rec := &recorder{}
	d := newTestDispatcher(t,
		Descriptor{
			Name: "node", New: rec.factory(Done()),
			Arguments: []Argument{{Name: "node", Kind: Byte}},
		},
		Descriptor{Name: "bare", New: rec.factory(Done())},
	)

	tests := []struct {
		name string
		line string
		want error
	}{
		{"too many", "node 1 2", errors.ErrNotImplemented},
		{"no slot", "bare extra", errors.ErrNotImplemented},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := d.Execute(context.Background(), tt.line, "anton", NewCommunicator(&bytes.Buffer{}))
			assert.Equal(t, UserError, res.Outcome)
			assert.ErrorIs(t, res.Err, tt.want)
		})
	}

	res := d.Execute(context.Background(), "node 256", "anton", NewCommunicator(&bytes.Buffer{}))
	assert.Equal(t, UserError, res.Outcome)
	var ce *errors.ConversionError
	require.ErrorAs(t, res.Err, &ce)
	assert.Equal(t, "256", ce.Value)
	assert.Zero(t, rec.calls)
}

func TestDispatcher_PanicBecomesFatal(t *testing.T) {
	d := newTestDispatcher(t, Descriptor{Name: "boom", New: func(*Invocation) Command {
		return Func(func(context.Context, string, Communicator) Result { panic("kaboom") })
	}})

	res := d.Execute(context.Background(), "boom", "anton", NewCommunicator(&bytes.Buffer{}))
	assert.Equal(t, Fatal, res.Outcome)
	assert.EqualError(t, res.Err, "kaboom")
}

func TestDispatcher_PassesThroughOutcomes(t *testing.T) {
	for _, want := range []Result{Quit(), Failf("'message' can't be blank"), Crash(errors.New("db down"))} {
		rec := &recorder{}
		d := newTestDispatcher(t, Descriptor{Name: "x", New: rec.factory(want)})
		res := d.Execute(context.Background(), "x", "anton", NewCommunicator(&bytes.Buffer{}))
		assert.Equal(t, want, res)
	}
}
