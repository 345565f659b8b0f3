package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"statescan/internal/model"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrTerminal = errors.New("session already in a terminal state")
)

// Event is published whenever a session changes: one per result written and
// one per status transition. Entry is nil on status-only events.
type Event struct {
	SessionID int64
	State     model.StateCode
	Entry     *model.ResultEntry
	Status    model.Status
}

// Store is the mutable, observable session record. All mutations are
// visible to readers immediately; a UI polling Get or subscribed to events
// sees true in-flight progress.
type Store interface {
	Create(query string) *model.Session
	Get(id int64) (*model.Session, error)
	StatusOf(id int64) (model.Status, error)
	SetResult(id int64, code model.StateCode, entry model.ResultEntry) error
	Finalize(id int64, status model.Status, successCount, errorCount int) error
	MarkCancelled(id int64) error
	Running() int
	Len() int
}

// subscriber is one observer of a session's events.
type subscriber struct {
	ch chan Event
}

// MemoryStore is the in-process Store. Session ids are monotonically
// increasing. Concurrent writers within a batch touch disjoint result keys;
// the single mutex makes them race-safe against readers iterating the map.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]*model.Session
	nextID   int64
	subs     map[int64][]*subscriber
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[int64]*model.Session),
		subs:     make(map[int64][]*subscriber),
	}
}

// Create registers a new running session and returns its snapshot.
func (s *MemoryStore) Create(query string) *model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	sess := &model.Session{
		ID:        s.nextID,
		Query:     query,
		Status:    model.StatusRunning,
		StartedAt: time.Now().UTC(),
		Results:   make(map[model.StateCode]model.ResultEntry),
	}
	s.sessions[sess.ID] = sess
	return sess.Clone()
}

// Restore inserts an existing session (for example one loaded from the
// archive) under its original id, so operations that key on session id keep
// working across process restarts. The id counter advances past it.
func (s *MemoryStore) Restore(sess *model.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sess.ID] = sess.Clone()
	if sess.ID > s.nextID {
		s.nextID = sess.ID
	}
}

// Get returns a deep copy of the session.
func (s *MemoryStore) Get(id int64) (*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %d: %w", id, ErrNotFound)
	}
	return sess.Clone(), nil
}

// StatusOf returns just the session's status, cheaper than a full Get.
func (s *MemoryStore) StatusOf(id int64) (model.Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return "", fmt.Errorf("session %d: %w", id, ErrNotFound)
	}
	return sess.Status, nil
}

// SetResult writes one jurisdiction's entry. Entries are written as each
// jurisdiction resolves, never batched.
func (s *MemoryStore) SetResult(id int64, code model.StateCode, entry model.ResultEntry) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("session %d: %w", id, ErrNotFound)
	}
	sess.Results[code] = entry
	status := sess.Status
	s.mu.Unlock()

	e := entry
	s.publish(id, Event{SessionID: id, State: code, Entry: &e, Status: status})
	return nil
}

// Finalize performs the single terminal transition, recording the tallies
// and completion timestamp.
func (s *MemoryStore) Finalize(id int64, status model.Status, successCount, errorCount int) error {
	if !status.Terminal() {
		return fmt.Errorf("finalize with non-terminal status %s", status)
	}

	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("session %d: %w", id, ErrNotFound)
	}
	if sess.Status.Terminal() {
		s.mu.Unlock()
		return fmt.Errorf("session %d: %w", id, ErrTerminal)
	}

	now := time.Now().UTC()
	sess.Status = status
	sess.CompletedAt = &now
	sess.SuccessCount = successCount
	sess.ErrorCount = errorCount
	s.mu.Unlock()

	s.publish(id, Event{SessionID: id, Status: status})
	return nil
}

// MarkCancelled requests early termination. It is a no-op (with ErrTerminal)
// once the session is already terminal, so cancelling twice is harmless to
// callers that ignore the error. Counts are left untouched.
func (s *MemoryStore) MarkCancelled(id int64) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("session %d: %w", id, ErrNotFound)
	}
	if sess.Status.Terminal() {
		s.mu.Unlock()
		return fmt.Errorf("session %d: %w", id, ErrTerminal)
	}

	now := time.Now().UTC()
	sess.Status = model.StatusCancelled
	sess.CompletedAt = &now
	s.mu.Unlock()

	s.publish(id, Event{SessionID: id, Status: model.StatusCancelled})
	return nil
}

// Running returns the number of sessions not yet in a terminal state.
func (s *MemoryStore) Running() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, sess := range s.sessions {
		if !sess.Status.Terminal() {
			n++
		}
	}
	return n
}

// Len returns the number of sessions ever created in this store.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Subscribe registers an observer for one session's events. The returned
// cancel function must be called to release the channel.
func (s *MemoryStore) Subscribe(id int64) (<-chan Event, func()) {
	sub := &subscriber{ch: make(chan Event, 64)}

	s.mu.Lock()
	s.subs[id] = append(s.subs[id], sub)
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		subs := s.subs[id]
		for i, candidate := range subs {
			if candidate == sub {
				s.subs[id] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
	}
	return sub.ch, cancel
}

// publish fans an event out to the session's subscribers. Slow consumers
// miss events rather than blocking writers; they can re-read via Get.
func (s *MemoryStore) publish(id int64, event Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sub := range s.subs[id] {
		select {
		case sub.ch <- event:
		default:
		}
	}
}
