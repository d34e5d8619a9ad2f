// Package session tracks who is logged in and which patient is selected.
// It performs no I/O; callers pass an existence check backed by the record
// store wherever a selection has to be validated.
package session

import (
	"fmt"
	"sync"

	"github.com/dmitrijs2005/patientkeeper/internal/common"
)

type State int

const (
	Unauthenticated State = iota
	NoSelection
	PatientSelected
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case NoSelection:
		return "no-selection"
	case PatientSelected:
		return "patient-selected"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Session is one interactive session. The zero value is Unauthenticated.
type Session struct {
	mu       sync.Mutex
	identity string
	selected string
	state    State
}

func New() *Session {
	return &Session{}
}

// Authenticate binds identity and moves to NoSelection. Any previous
// selection is dropped.
func (s *Session) Authenticate(identity string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = identity
	s.selected = ""
	s.state = NoSelection
}

// Select moves to PatientSelected(name) if exists reports the patient.
// Selecting from the detail view switches patients directly.
func (s *Session) Select(name string, exists func(string) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Unauthenticated {
		return common.ErrNotAuthenticated
	}
	if !exists(name) {
		return fmt.Errorf("select %q: %w", name, common.ErrUnknownPatient)
	}
	s.selected = name
	s.state = PatientSelected
	return nil
}

// Back returns from the detail view. It is a no-op in other states.
func (s *Session) Back() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == PatientSelected {
		s.selected = ""
		s.state = NoSelection
	}
}

// PatientRemoved must be called after name was removed from the store.
// A selection of name cannot survive it.
func (s *Session) PatientRemoved(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == PatientSelected && s.selected == name {
		s.selected = ""
		s.state = NoSelection
	}
}

// Current returns the selected patient. A selection that no longer exists
// is cleared and reported as common.ErrUnknownPatient.
func (s *Session) Current(exists func(string) bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case Unauthenticated:
		return "", common.ErrNotAuthenticated
	case NoSelection:
		return "", common.ErrNoSelection
	}

	if !exists(s.selected) {
		name := s.selected
		s.selected = ""
		s.state = NoSelection
		return "", fmt.Errorf("selected %q: %w", name, common.ErrUnknownPatient)
	}
	return s.selected, nil
}

// Logout clears identity and selection.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = ""
	s.selected = ""
	s.state = Unauthenticated
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Identity returns the authenticated identity and whether there is one.
func (s *Session) Identity() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity, s.state != Unauthenticated
}

// Selected returns the selected patient without checking that it exists.
func (s *Session) Selected() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected, s.state == PatientSelected
}
