package strip

import "sync"

// DefaultBrightness is the scale factor a new State starts with.
const DefaultBrightness = 1.0

// State holds the settings every transmission reads: the brightness
// factor and the optional remap table. It is safe for concurrent use.
type State struct {
	mu         sync.RWMutex
	brightness float64
	remap      []byte
}

func NewState() *State {
	return &State{brightness: DefaultBrightness}
}

// SetBrightness stores v without validation and returns it.
func (s *State) SetBrightness(v float64) float64 {
	s.mu.Lock()
	s.brightness = v
	s.mu.Unlock()
	return v
}

func (s *State) Brightness() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.brightness
}

// SetRemap replaces the remap table with a copy of table. The copy is
// made before the old table is dropped, so State never points at a
// released or partially written table.
func (s *State) SetRemap(table []byte) {
	next := make([]byte, len(table))
	copy(next, table)

	s.mu.Lock()
	s.remap = next
	s.mu.Unlock()
}

// ClearRemap drops the remap table and reports whether one was set.
func (s *State) ClearRemap() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	had := s.remap != nil
	s.remap = nil
	return had
}

// Remap returns a copy of the remap table, or false when none is set.
func (s *State) Remap() ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.remap == nil {
		return nil, false
	}
	return append([]byte{}, s.remap...), true
}

// snapshot reads both settings under one lock. The table is never
// mutated after SetRemap stores it, so it is returned without copying.
func (s *State) snapshot() (float64, []byte) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.brightness, s.remap
}
