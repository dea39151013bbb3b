// Package memory provides an in-process event sink.
package memory

import (
	"context"
	"sync"

	"github.com/scrm/trolley/pkg/domain"
)

// Sink keeps events in a slice. Safe for concurrent use.
type Sink struct {
	mu     sync.RWMutex
	events []domain.Event
	limit  int
}

// New creates an unbounded sink.
func New() *Sink {
	return &Sink{}
}

// NewRing keeps only the most recent limit events.
func NewRing(limit int) *Sink {
	return &Sink{limit: limit}
}

func (s *Sink) Record(_ context.Context, event domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	if s.limit > 0 && len(s.events) > s.limit {
		s.events = append([]domain.Event(nil), s.events[len(s.events)-s.limit:]...)
	}
	return nil
}

// Events returns a copy of the recorded events, oldest first.
func (s *Sink) Events() []domain.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Event(nil), s.events...)
}
