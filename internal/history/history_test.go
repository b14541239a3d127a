package history

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	seed     []string
	appended []string
	err      error
}

func (f *fakeBackend) History(string) ([]string, error) { return f.seed, f.err }

func (f *fakeBackend) Append(_, line string) error {
	f.appended = append(f.appended, line)
	return f.err
}

func TestStore_AddCollapsesConsecutiveDuplicates(t *testing.T) {
	s := New("anton", nil)
	require.NoError(t, s.Add("help"))
	require.NoError(t, s.Add("help"))
	assert.Equal(t, []string{"help"}, s.Entries())

	require.NoError(t, s.Add("version"))
	require.NoError(t, s.Add("help"))
	assert.Equal(t, []string{"help", "version", "help"}, s.Entries())
}

func TestStore_AddIgnoresBlank(t *testing.T) {
	b := &fakeBackend{}
	s := New("anton", b)
	require.NoError(t, s.Add(""))
	require.NoError(t, s.Add("   "))
	assert.Zero(t, s.Len())
	assert.Empty(t, b.appended)
}

func TestStore_EvictsOldest(t *testing.T) {
	s := New("anton", nil)
	for i := 1; i <= Capacity+1; i++ {
		require.NoError(t, s.Add(fmt.Sprintf("cmd-%d", i)))
	}
	entries := s.Entries()
	require.Len(t, entries, Capacity)
	assert.Equal(t, "cmd-11", entries[0])
	assert.Equal(t, "cmd-2", entries[Capacity-1])
	assert.NotContains(t, entries, "cmd-1")
}

func TestStore_ForwardsToBackend(t *testing.T) {
	b := &fakeBackend{}
	s := New("anton", b)
	require.NoError(t, s.Add("help"))
	require.NoError(t, s.Add("help"))
	require.NoError(t, s.Add("uptime"))
	assert.Equal(t, []string{"help", "uptime"}, b.appended)
}

func TestStore_BackendErrorKeepsMemoryEntry(t *testing.T) {
	b := &fakeBackend{err: errors.New("disk full")}
	s := New("anton", b)
	err := s.Add("help")
	assert.EqualError(t, err, "disk full")
	assert.Equal(t, []string{"help"}, s.Entries())
}

func TestStore_Load(t *testing.T) {
	seed := []string{"a", "a", "", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"}
	s := New("anton", &fakeBackend{seed: seed})
	require.NoError(t, s.Load())
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}, s.Entries())
}

func TestStore_CycleUpFromEmpty(t *testing.T) {
	s := New("anton", nil)
	require.NoError(t, s.Add("help"))
	require.NoError(t, s.Add("version"))

	got, ok := s.CycleUp("")
	require.True(t, ok)
	assert.Equal(t, "version", got)

	got, ok = s.CycleUp(got)
	require.True(t, ok)
	assert.Equal(t, "help", got)

	got, ok = s.CycleUp(got)
	assert.False(t, ok, "already at the oldest entry")
	assert.Equal(t, "help", got)
}

func TestStore_CycleUpNeedsEmptyLine(t *testing.T) {
	s := New("anton", nil)
	require.NoError(t, s.Add("help"))

	got, ok := s.CycleUp("he")
	assert.False(t, ok)
	assert.Equal(t, "he", got)
	assert.False(t, s.Cycling())
}

func TestStore_CycleUpEmptyHistory(t *testing.T) {
	s := New("anton", nil)
	_, ok := s.CycleUp("")
	assert.False(t, ok)
	assert.False(t, s.Cycling())
}

func TestStore_CycleDown(t *testing.T) {
	s := New("anton", nil)
	require.NoError(t, s.Add("help"))
	require.NoError(t, s.Add("version"))

	_, ok := s.CycleDown()
	assert.False(t, ok, "not cycling")

	s.CycleUp("")
	s.CycleUp("version")

	got, ok := s.CycleDown()
	require.True(t, ok)
	assert.Equal(t, "version", got)

	got, ok = s.CycleDown()
	require.True(t, ok)
	assert.Equal(t, "", got)
	assert.False(t, s.Cycling())
}

func TestStore_Cancel(t *testing.T) {
	s := New("anton", nil)
	require.NoError(t, s.Add("help"))
	s.CycleUp("")
	require.True(t, s.Cycling())
	s.Cancel()
	assert.False(t, s.Cycling())
}
