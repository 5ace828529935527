package a2a

import "sync"

// State is the single shared key-value map visible to every step of a chain.
// Writes follow last-write-wins semantics; the mutex only keeps concurrent
// map access from crashing the runtime. Callers that need atomic
// read-modify-write sequences must serialize their own access.
type State struct {
	mu     sync.RWMutex
	values map[string]interface{}
}

// NewState creates an empty shared-state map.
func NewState() *State {
	return &State{values: make(map[string]interface{})}
}

// Get returns the value stored under key.
func (s *State) Get(key string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key, replacing any previous value.
func (s *State) Set(key string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
}

// Delete removes key from the state.
func (s *State) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
}

// Len returns the number of stored keys.
func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.values)
}

// Snapshot returns a shallow copy of the current state. The copy is safe to
// read without further locking; nested values are shared.
func (s *State) Snapshot() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]interface{}, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}
