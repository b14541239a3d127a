// Package history keeps the short, most-recent-first list of command
// lines a session can cycle through with the Up and Down keys.
package history

import "strings"

// Capacity is the number of lines kept in memory per session.  The
// backend may keep a longer backlog.
const Capacity = 10

// Backend persists command lines beyond the lifetime of one session.
type Backend interface {
	History(user string) ([]string, error)
	Append(user, line string) error
}

// Store is the per-session history.  It is owned by one session worker
// and is not safe for concurrent use.
type Store struct {
	user    string
	backend Backend
	entries []string // most recent first
	index   int      // -1 when not cycling
}

// New returns an empty store that forwards added lines to backend.
// backend may be nil.
func New(user string, backend Backend) *Store {
	return &Store{
		user:    user,
		backend: backend,
		entries: make([]string, 0, Capacity),
		index:   -1,
	}
}

// Load seeds the store from the backend, most recent first, keeping at
// most Capacity entries.
func (s *Store) Load() error {
	if s.backend == nil {
		return nil
	}
	lines, err := s.backend.History(s.user)
	if err != nil {
		return err
	}
	s.entries = s.entries[:0]
	for _, line := range lines {
		if len(s.entries) == Capacity {
			break
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		if n := len(s.entries); n > 0 && s.entries[n-1] == line {
			continue
		}
		s.entries = append(s.entries, line)
	}
	return nil
}

// Add records line as the most recent entry.  Blank lines and a repeat
// of the most recent entry are ignored.  New entries are forwarded to
// the backend; a backend failure is returned after the in-memory list
// has been updated.
func (s *Store) Add(line string) error {
	if strings.TrimSpace(line) == "" {
		return nil
	}
	if len(s.entries) > 0 && s.entries[0] == line {
		return nil
	}
	if len(s.entries) == Capacity {
		s.entries = s.entries[:Capacity-1]
	}
	s.entries = append(s.entries, "")
	copy(s.entries[1:], s.entries)
	s.entries[0] = line

	if s.backend == nil {
		return nil
	}
	return s.backend.Append(s.user, line)
}

// Entries returns a copy of the history, most recent first.
func (s *Store) Entries() []string {
	return append([]string(nil), s.entries...)
}

// Len returns the number of entries.
func (s *Store) Len() int { return len(s.entries) }

// Cycling reports whether the session is walking the history.
func (s *Store) Cycling() bool { return s.index >= 0 }

// Cancel stops cycling.  The line shown stays as it is.
func (s *Store) Cancel() { s.index = -1 }

// CycleUp steps to the next older entry.  Cycling only starts from an
// empty live line.  It reports false when the index did not move, in
// which case live is returned unchanged.
func (s *Store) CycleUp(live string) (string, bool) {
	prev := s.index
	switch {
	case s.index < 0:
		if live == "" && len(s.entries) > 0 {
			s.index = 0
		}
	case s.index < len(s.entries)-1:
		s.index++
	}
	if s.index == prev {
		return live, false
	}
	return s.entries[s.index], true
}

// CycleDown steps to the next newer entry.  Stepping past the newest
// entry stops cycling and yields the empty line.  It reports false when
// not cycling.
func (s *Store) CycleDown() (string, bool) {
	if s.index < 0 {
		return "", false
	}
	s.index--
	if s.index < 0 {
		return "", true
	}
	return s.entries[s.index], true
}
