// Package session tracks which member and event the current user is acting
// as. The selection is persisted as JSON in the user's config directory and
// read once at startup; it never expires on its own. The identity flow is
// the only writer.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/kasoa/confirmation-tracker/pkg/db"
)

// ErrNoCurrentMember is returned when an operation needs a selected member
// and none has been chosen yet.
var ErrNoCurrentMember = errors.New("no current member selected")

// ErrNoCurrentEvent is returned when an operation needs a selected event and
// none has been chosen yet.
var ErrNoCurrentEvent = errors.New("no current event selected")

type state struct {
	CurrentMember *db.Member `json:"current_member,omitempty"`
	CurrentEvent  *db.Event  `json:"current_event,omitempty"`
}

// Session is the injectable identity/session state. Safe for concurrent
// reads; writes go through the setter methods, which persist immediately.
type Session struct {
	mu   sync.RWMutex
	path string
	st   state
}

// DefaultPath returns the session file location under the user config dir.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user config dir: %w", err)
	}
	return filepath.Join(dir, "confirmation-tracker", "session.json"), nil
}

// Load reads the persisted session from path. A missing file yields an empty
// session; a corrupt file is treated as empty rather than fatal, matching
// how an unreadable stored selection simply forces re-selection.
func Load(path string) (*Session, error) {
	s := &Session{path: path}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	var st state
	if err := json.Unmarshal(raw, &st); err != nil {
		return s, nil
	}
	// Discard partial records that lack the fields identity selection
	// always writes.
	if st.CurrentMember != nil && st.CurrentMember.ID == "" {
		st.CurrentMember = nil
	}
	if st.CurrentEvent != nil && (st.CurrentEvent.ID == "" || st.CurrentEvent.Name == "") {
		st.CurrentEvent = nil
	}
	s.st = st
	return s, nil
}

// Member returns the current member, or nil when none is selected.
func (s *Session) Member() *db.Member {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.CurrentMember
}

// Event returns the current event, or nil when none is selected.
func (s *Session) Event() *db.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.CurrentEvent
}

// RequireEvent returns the current event or ErrNoCurrentEvent.
func (s *Session) RequireEvent() (*db.Event, error) {
	if e := s.Event(); e != nil {
		return e, nil
	}
	return nil, ErrNoCurrentEvent
}

// RequireMember returns the current member or ErrNoCurrentMember.
func (s *Session) RequireMember() (*db.Member, error) {
	if m := s.Member(); m != nil {
		return m, nil
	}
	return nil, ErrNoCurrentMember
}

// SetIdentity stores the chosen member and event and persists the session.
func (s *Session) SetIdentity(member *db.Member, event *db.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.CurrentMember = member
	s.st.CurrentEvent = event
	return s.persist()
}

// SetEvent replaces only the current event selection.
func (s *Session) SetEvent(event *db.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.CurrentEvent = event
	return s.persist()
}

// Clear forgets both selections and persists the empty session.
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st = state{}
	return s.persist()
}

func (s *Session) persist() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	raw, err := json.MarshalIndent(s.st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}
