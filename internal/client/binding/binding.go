// Package binding tracks which owner's cellar this device is bound to.
//
// The state is either Unbound or Bound(ownerID). It is created once at
// startup and handed to every component that needs it, instead of living in
// a package-level variable.
package binding

import "sync"

// State is safe for concurrent use.
type State struct {
	mu      sync.RWMutex
	ownerID string
}

func New() *State { return &State{} }

// OwnerID returns the bound owner and true, or "" and false when unbound.
func (s *State) OwnerID() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ownerID, s.ownerID != ""
}

// Bind moves to Bound(ownerID). Binding to "" is the same as Unbind.
func (s *State) Bind(ownerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ownerID = ownerID
}

func (s *State) Unbind() {
	s.Bind("")
}

func (s *State) IsBound() bool {
	_, ok := s.OwnerID()
	return ok
}
