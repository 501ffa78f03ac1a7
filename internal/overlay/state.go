// Package overlay holds the ordered list of overlay components drawn on top
// of the host's screens. Every change is pushed to a notifier so the page can
// re-render without polling.
package overlay

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	ErrDuplicate = errors.New("component already exists")
	ErrNotFound  = errors.New("component not found")
)

// Notifier receives a snapshot of the list after every change. Calls never
// overlap. A Notifier must not mutate the State it is attached to.
type Notifier func(components []*Component)

// State is the process-wide component list. Order is draw order: later
// components are drawn on top.
type State struct {
	mu         sync.Mutex
	components []*Component
	notify     Notifier

	// notifyMu orders notifications. Each one snapshots the list after
	// acquiring it, so the last notification always carries the current list.
	notifyMu sync.Mutex
}

func NewState(notify Notifier) *State {
	if notify == nil {
		notify = func([]*Component) {}
	}
	return &State{notify: notify}
}

// SetNotifier replaces the notifier. Used when the consumer is built after
// the state.
func (s *State) SetNotifier(notify Notifier) {
	s.mu.Lock()
	s.notify = notify
	s.mu.Unlock()
}

// Add appends c. Names are unique, compared case-insensitively.
func (s *State) Add(c *Component) error {
	s.mu.Lock()
	if s.indexOf(c.Name()) >= 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrDuplicate, c.Name())
	}
	s.components = append(s.components, c)
	s.mu.Unlock()

	s.broadcast()
	return nil
}

// Remove deletes the first component whose name matches case-insensitively.
// The list is left untouched when nothing matches.
func (s *State) Remove(name string) error {
	s.mu.Lock()
	i := s.indexOf(name)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	s.components = append(s.components[:i:i], s.components[i+1:]...)
	s.mu.Unlock()

	s.broadcast()
	return nil
}

// Clear removes every component.
func (s *State) Clear() {
	s.mu.Lock()
	s.components = nil
	s.mu.Unlock()

	s.broadcast()
}

// Update re-broadcasts the current list, e.g. after a setting changed.
func (s *State) Update() {
	s.broadcast()
}

// Replace swaps in a theme's components. Components the user created are
// kept after them unless a theme component already uses the name.
func (s *State) Replace(themeComponents []*Component) {
	s.mu.Lock()
	next := make([]*Component, 0, len(themeComponents)+len(s.components))
	seen := make(map[string]struct{}, len(themeComponents))
	for _, c := range themeComponents {
		key := strings.ToLower(c.Name())
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		next = append(next, c)
	}
	for _, c := range s.components {
		if c.Origin() != OriginUser {
			continue
		}
		if _, dup := seen[strings.ToLower(c.Name())]; dup {
			continue
		}
		next = append(next, c)
	}
	s.components = next
	s.mu.Unlock()

	s.broadcast()
}

// Restore loads components without notifying. Used at startup.
func (s *State) Restore(components []*Component) {
	s.mu.Lock()
	s.components = append([]*Component(nil), components...)
	s.mu.Unlock()
}

// List returns a copy of the components in draw order.
func (s *State) List() []*Component {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Component(nil), s.components...)
}

// Get finds a component by name, case-insensitively.
func (s *State) Get(name string) (*Component, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(name); i >= 0 {
		return s.components[i], true
	}
	return nil, false
}

// NextName returns the first free name of the form "Text", "Text 2", ...
func (s *State) NextName(t Type) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	base := t.DisplayName()
	if s.indexOf(base) < 0 {
		return base
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s %d", base, n)
		if s.indexOf(candidate) < 0 {
			return candidate
		}
	}
}

func (s *State) indexOf(name string) int {
	for i, c := range s.components {
		if strings.EqualFold(c.Name(), name) {
			return i
		}
	}
	return -1
}

func (s *State) broadcast() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	snapshot := append([]*Component(nil), s.components...)
	notify := s.notify
	s.mu.Unlock()

	notify(snapshot)
}
