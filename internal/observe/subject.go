// Package observe provides a latest-value subject for state containers.
//
// Subscribers receive values on a channel with a single slot. Publishing never
// blocks: if a subscriber has not consumed the previous value it is replaced,
// so a reader always sees a value at least as new as the last Publish that
// returned before its receive.
package observe

import "sync"

// Subject fans out the latest value of T to subscribers.
type Subject[T any] struct {
	mu     sync.Mutex
	latest T
	subs   map[uint64]chan T
	nextID uint64
	closed bool
}

// NewSubject returns a Subject whose new subscribers first see initial.
func NewSubject[T any](initial T) *Subject[T] {
	return &Subject[T]{
		latest: initial,
		subs:   make(map[uint64]chan T),
	}
}

// Publish records v as the latest value and offers it to every subscriber.
func (s *Subject[T]) Publish(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.latest = v
	for _, ch := range s.subs {
		offer(ch, v)
	}
}

// Latest returns the most recently published value.
func (s *Subject[T]) Latest() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// Subscribe returns a channel primed with the latest value and a cancel func
// that closes it. Cancel is safe to call more than once.
func (s *Subject[T]) Subscribe() (<-chan T, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan T, 1)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	ch <- s.latest

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if sub, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(sub)
			}
		})
	}
}

// Close closes every subscriber channel. Later Publish calls are ignored.
func (s *Subject[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

// offer replaces any unread value in ch with v. Callers hold the subject lock,
// so no other sender can refill the slot between the drain and the send.
func offer[T any](ch chan T, v T) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	ch <- v
}
