package cache

import (
	"slices"
	"sync"
)

// Store owns one collection's State and applies results atomically. It is
// safe for concurrent use: two fulfilments racing from different goroutines
// are both applied, one after the other.
//
// Subscribers see states in the order they were produced. While one
// goroutine is notifying, a concurrent Apply only records its change; the
// notifying goroutine then delivers the newest state, so intermediate states
// may be skipped but the last delivery always matches Snapshot.
type Store[T any] struct {
	mu        sync.Mutex
	state     State[T]
	key       KeyFunc[T]
	listeners map[int]func(State[T])
	nextID    int

	version   uint64
	delivered uint64
	notifying bool
}

// NewStore returns an empty store keyed by key.
func NewStore[T any](key KeyFunc[T]) *Store[T] {
	return &Store[T]{
		state:     State[T]{Items: []T{}},
		key:       key,
		listeners: make(map[int]func(State[T])),
	}
}

// Apply reduces r into the state and notifies subscribers. Listeners run
// without the lock held, so they may call Snapshot or Apply.
func (s *Store[T]) Apply(r Result[T]) State[T] {
	s.mu.Lock()
	s.state = Reduce(s.state, r, s.key)
	s.version++
	snap := s.snapshotLocked()
	if s.notifying {
		s.mu.Unlock()
		return snap
	}
	s.notifying = true
	s.mu.Unlock()

	s.notify()
	return snap
}

// notify delivers the newest state until every version has been seen.
func (s *Store[T]) notify() {
	finished := false
	defer func() {
		if !finished {
			// A listener panicked; let the next Apply deliver again.
			s.mu.Lock()
			s.notifying = false
			s.mu.Unlock()
		}
	}()

	for {
		s.mu.Lock()
		if s.delivered == s.version {
			s.notifying = false
			s.mu.Unlock()
			finished = true
			return
		}
		s.delivered = s.version
		snap := s.snapshotLocked()
		listeners := make([]func(State[T]), 0, len(s.listeners))
		for _, id := range s.sortedListenerIDs() {
			listeners = append(listeners, s.listeners[id])
		}
		s.mu.Unlock()

		for _, fn := range listeners {
			fn(snap)
		}
	}
}

// Snapshot returns a copy of the current state. The Items slice and Current
// are copies; values inside the items, such as photo slices and budget maps,
// are shared with the store and must be treated as read-only.
func (s *Store[T]) Snapshot() State[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers fn to receive every new state. The returned function
// removes the subscription and is safe to call more than once.
func (s *Store[T]) Subscribe(fn func(State[T])) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store[T]) snapshotLocked() State[T] {
	snap := State[T]{
		Items:   slices.Clone(s.state.Items),
		Loading: s.state.Loading,
		Error:   s.state.Error,
	}
	if snap.Items == nil {
		snap.Items = []T{}
	}
	if s.state.Current != nil {
		cur := *s.state.Current
		snap.Current = &cur
	}
	return snap
}

// sortedListenerIDs keeps notification order equal to subscription order.
func (s *Store[T]) sortedListenerIDs() []int {
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
