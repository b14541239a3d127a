package command

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComplete(t *testing.T) {
	keys := []string{"config:history", "config:show-current", "disconnect", "help", "z-wave:controllers", "z-wave:devices"}

	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"unique", "h", "elp ", true},
		{"unique after group", "z-wave:c", "ontrollers ", true},
		{"mutual prefix", "z", "-wave:", true},
		{"mutual prefix of group", "con", "fig:", true},
		{"ambiguous without extension", "z-wave:", "", false},
		{"no match", "x", "", false},
		{"only the trailing space left", "help", " ", true},
		{"trimmed input", " h", "elp ", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Complete(tt.input, keys)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMutualPrefix(t *testing.T) {
	assert.Equal(t, "", MutualPrefix(nil, 0))
	assert.Equal(t, "abc", MutualPrefix([]string{"abc"}, 0))
	assert.Equal(t, "ntrol", MutualPrefix([]string{"controller", "control", "controls"}, 2))
	assert.Equal(t, "", MutualPrefix([]string{"ab", "ac"}, 1))
	assert.Equal(t, "", MutualPrefix([]string{"ab", "abc"}, 5))
}

func TestStreamCommunicator_StickyError(t *testing.T) {
	w := &failingWriter{after: 1}
	c := NewCommunicator(w)
	c.Write("one").NewLine().Write("three")
	assert.EqualError(t, c.Err(), "broken pipe")
	assert.Equal(t, 2, w.calls, "writes stop after the first failure")
	assert.Equal(t, int64(3), c.Written())
}

type failingWriter struct {
	after int
	calls int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	w.calls++
	if w.calls > w.after {
		return 0, errors.New("broken pipe")
	}
	return len(p), nil
}
