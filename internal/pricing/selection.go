package pricing

import (
	"errors"
	"sync"
)

var ErrSelectionInFlight = errors.New("a checkout is already in progress")

// Selections tracks, per visitor, the plan whose checkout request is in flight.
// A visitor has at most one plan processing at a time.
type Selections struct {
	mu       sync.Mutex
	inFlight map[string]string
}

func NewSelections() *Selections {
	return &Selections{inFlight: make(map[string]string)}
}

func (s *Selections) Begin(visitorID, planID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.inFlight[visitorID]; busy {
		return ErrSelectionInFlight
	}
	s.inFlight[visitorID] = planID
	return nil
}

// Processing returns the plan in flight for the visitor, or "".
func (s *Selections) Processing(visitorID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight[visitorID]
}

func (s *Selections) End(visitorID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, visitorID)
}
