package terminal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typed(s string) *LineBuffer {
	b := &LineBuffer{}
	for _, r := range s {
		b.Insert(r)
	}
	return b
}

func TestLineBuffer_InsertAtEnd(t *testing.T) {
	b := &LineBuffer{}
	assert.Equal(t, "h", b.Insert('h'))
	assert.Equal(t, "i", b.Insert('i'))
	assert.Equal(t, "hi", b.String())
	assert.Equal(t, 2, b.Cursor())
}

func TestLineBuffer_InsertInMiddle(t *testing.T) {
	b := typed("hlp")
	b.MoveLeft()
	b.MoveLeft()

	echo := b.Insert('e')
	assert.Equal(t, "elp\x1b[2D", echo)
	assert.Equal(t, "help", b.String())
	assert.Equal(t, 2, b.Cursor())
}

func TestLineBuffer_DeleteBefore(t *testing.T) {
	b := &LineBuffer{}
	_, ok := b.DeleteBefore()
	assert.False(t, ok, "no-op at cursor 0")

	b = typed("help")
	b.MoveLeft() // cursor on 'p'
	echo, ok := b.DeleteBefore()
	require.True(t, ok)
	assert.Equal(t, "\x1b[1Dp \x1b[2D", echo)
	assert.Equal(t, "hep", b.String())
	assert.Equal(t, 2, b.Cursor())
}

func TestLineBuffer_DeleteBeforeAtEnd(t *testing.T) {
	b := typed("ab")
	echo, ok := b.DeleteBefore()
	require.True(t, ok)
	assert.Equal(t, "\x1b[1D \x1b[1D", echo)
	assert.Equal(t, "a", b.String())
}

func TestLineBuffer_DeleteAt(t *testing.T) {
	b := typed("help")
	_, ok := b.DeleteAt()
	assert.False(t, ok, "no-op at end")

	b.Home()
	echo, ok := b.DeleteAt()
	require.True(t, ok)
	assert.Equal(t, "elp \x1b[4D", echo)
	assert.Equal(t, "elp", b.String())
	assert.Equal(t, 0, b.Cursor())
}

func TestLineBuffer_Moves(t *testing.T) {
	b := typed("ab")

	_, ok := b.MoveRight()
	assert.False(t, ok)

	echo, ok := b.MoveLeft()
	assert.True(t, ok)
	assert.Equal(t, KeyLeft, echo)

	echo, ok = b.MoveRight()
	assert.True(t, ok)
	assert.Equal(t, KeyRight, echo)

	b.Home()
	_, ok = b.MoveLeft()
	assert.False(t, ok)
}

func TestLineBuffer_WordJumps(t *testing.T) {
	b := typed("My name is Anton")

	echo, ok := b.JumpWordLeft()
	require.True(t, ok)
	assert.Equal(t, "\x1b[5D", echo)
	assert.Equal(t, 11, b.Cursor())

	echo, ok = b.JumpWordRight()
	require.True(t, ok)
	assert.Equal(t, "\x1b[5C", echo)
	assert.Equal(t, 16, b.Cursor())

	_, ok = b.JumpWordRight()
	assert.False(t, ok)
}

func TestLineBuffer_HomeEnd(t *testing.T) {
	b := typed("status")

	echo, ok := b.Home()
	require.True(t, ok)
	assert.Equal(t, "\x1b[6D", echo)

	_, ok = b.Home()
	assert.False(t, ok)

	echo, ok = b.End()
	require.True(t, ok)
	assert.Equal(t, "\x1b[6C", echo)
}

func TestLineBuffer_ReplaceShorter(t *testing.T) {
	b := typed("disconnect")
	echo := b.Replace("help")
	assert.Equal(t, "\x1b[10Dhelp      \x1b[6D", echo)
	assert.Equal(t, "help", b.String())
	assert.Equal(t, 4, b.Cursor())
}

func TestLineBuffer_ReplaceFromEmpty(t *testing.T) {
	b := &LineBuffer{}
	assert.Equal(t, "version", b.Replace("version"))
	assert.Equal(t, 7, b.Cursor())
}

func TestLineBuffer_Append(t *testing.T) {
	b := typed("he")
	b.MoveLeft()
	echo := b.Append("lp ")
	assert.Equal(t, "\x1b[1Clp ", echo)
	assert.Equal(t, "help ", b.String())
	assert.Equal(t, 5, b.Cursor())
}

func TestLineBuffer_TrimRight(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		left   int
		echo   string
		result string
	}{
		{"cursor inside the whitespace", "he  ", 2, "  \x1b[2D", "he"},
		{"cursor at the end", "he  ", 0, "\x1b[2D  \x1b[2D", "he"},
		{"cursor before the word end", "help ", 4, "\x1b[3C \x1b[1D", "help"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := typed(tt.text)
			for i := 0; i < tt.left; i++ {
				b.MoveLeft()
			}
			echo, changed := b.TrimRight()
			assert.True(t, changed)
			assert.Equal(t, tt.echo, echo)
			assert.Equal(t, tt.result, b.String())
			assert.Equal(t, len(tt.result), b.Cursor())
		})
	}

	b := typed("help")
	echo, changed := b.TrimRight()
	assert.False(t, changed)
	assert.Empty(t, echo)
}

func TestLineBuffer_InsertThenDeleteRoundTrip(t *testing.T) {
	for _, start := range []int{0, 2, 5} {
		b := typed("hello")
		for b.Cursor() > start {
			b.MoveLeft()
		}
		b.Insert('X')
		b.DeleteBefore()
		assert.Equal(t, "hello", b.String())
		assert.Equal(t, start, b.Cursor())
	}
}

func TestLineBuffer_CursorInvariant(t *testing.T) {
	b := &LineBuffer{}
	ops := []func(){
		func() { b.Insert('a') },
		func() { b.DeleteBefore() },
		func() { b.DeleteAt() },
		func() { b.MoveLeft() },
		func() { b.MoveRight() },
		func() { b.JumpWordLeft() },
		func() { b.JumpWordRight() },
		func() { b.Insert(' ') },
		func() { b.Home() },
		func() { b.End() },
	}
	// deterministic pseudo-random walk over the operations
	seed := uint32(7)
	for i := 0; i < 2000; i++ {
		seed = seed*1103515245 + 12345
		ops[int(seed>>16)%len(ops)]()
		require.True(t, b.Cursor() >= 0 && b.Cursor() <= b.Len(),
			"cursor %d outside [0,%d] after step %d", b.Cursor(), b.Len(), i)
	}
}

func TestLineBuffer_Debug(t *testing.T) {
	b := typed("ab")
	assert.Equal(t, "ab[]", b.Debug())
	b.MoveLeft()
	assert.Equal(t, "a[b]", b.Debug())
}

func TestLineBuffer_PrevIsSpace(t *testing.T) {
	b := typed("help ")
	assert.True(t, b.PrevIsSpace())
	b.MoveLeft()
	assert.False(t, b.PrevIsSpace())
}
