package state

import (
	"sync"

	"go.uber.org/zap"
)

// Store holds the current State. Dispatch is serialized; subscribers are
// called synchronously after each transition with the new snapshot.
type Store struct {
	mu     sync.RWMutex
	state  State
	subs   map[int]func(State)
	nextID int
	logger *zap.Logger
}

// NewStore creates a store holding the initial state
func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		state:  Initial(),
		subs:   make(map[int]func(State)),
		logger: logger,
	}
}

// Dispatch applies a and notifies subscribers
func (s *Store) Dispatch(a Action) State {
	s.mu.Lock()
	s.state = Reduce(s.state, a)
	snapshot := s.state.clone()
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	s.logger.Debug("action dispatched", zap.String("action", a.Name()))
	for _, fn := range subs {
		fn(snapshot.clone())
	}
	return snapshot
}

// Snapshot returns a copy of the current state
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Subscribe registers fn and returns a function that removes it
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Notify dispatches a notification
func (s *Store) Notify(level Level, message string) {
	s.Dispatch(NotificationRaised{Notification: Notify(level, message)})
}

// NotifyError dispatches the notification of an operation failure
func (s *Store) NotifyError(err error) {
	s.Dispatch(NotificationRaised{Notification: ErrorNotification(err)})
}
