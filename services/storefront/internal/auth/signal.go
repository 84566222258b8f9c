package auth

import (
	"slices"
	"sync"

	"github.com/sakashimaa/storefront/services/storefront/internal/domain"
)

type Listener func(prev, next domain.Session)

// Signal holds the auth state of one browser session and fans out every change.
type Signal struct {
	setMu     sync.Mutex
	mu        sync.Mutex
	current   domain.Session
	nextID    int
	listeners map[int]Listener
}

func NewSignal(initial domain.Session) *Signal {
	return &Signal{
		current:   initial,
		listeners: make(map[int]Listener),
	}
}

func (s *Signal) Current() domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.current
}

// Subscribe registers fn and returns the session it was registered against.
// Calling the returned func more than once is harmless.
func (s *Signal) Subscribe(fn Listener) (domain.Session, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = fn

	return s.current, func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Set replaces the session and notifies listeners synchronously, in registration order.
// Listeners must not call Set.
func (s *Signal) Set(next domain.Session) {
	s.setMu.Lock()
	defer s.setMu.Unlock()

	s.mu.Lock()
	prev := s.current
	s.current = next

	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	listeners := make([]Listener, 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, s.listeners[id])
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(prev, next)
	}
}
