// Package toast holds transient user-facing notifications.
//
// The Queue only stores entries. How long a toast stays on screen is decided
// by whoever renders it; that caller removes the entry when its time is up.
package toast

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/naveenspark/quill/internal/observe"
)

// Severity classifies a toast for display.
type Severity string

const (
	Success Severity = "success"
	Error   Severity = "error"
	Info    Severity = "info"
)

// ParseSeverity maps a string to a Severity.
func ParseSeverity(s string) (Severity, error) {
	switch Severity(s) {
	case Success, Error, Info:
		return Severity(s), nil
	}
	return "", fmt.Errorf("unknown severity %q", s)
}

// Toast is one queued notification.
type Toast struct {
	ID        string
	Message   string
	Severity  Severity
	CreatedAt time.Time
}

// Queue is an insertion-ordered set of toasts, oldest first.
type Queue struct {
	mu      sync.Mutex
	toasts  []Toast
	subject *observe.Subject[[]Toast]
	now     func() time.Time
}

// NewQueue returns an empty Queue.
func NewQueue() *Queue {
	return &Queue{
		subject: observe.NewSubject[[]Toast](nil),
		now:     time.Now,
	}
}

// Add appends a toast with a fresh id and returns that id.
func (q *Queue) Add(message string, sev Severity) string {
	q.mu.Lock()
	defer q.mu.Unlock()

	t := Toast{
		ID:        uuid.NewString(),
		Message:   message,
		Severity:  sev,
		CreatedAt: q.now(),
	}
	q.toasts = append(q.toasts, t)
	q.publishLocked()
	return t.ID
}

// Success is shorthand for Add(message, Success).
func (q *Queue) Success(message string) string { return q.Add(message, Success) }

// Error is shorthand for Add(message, Error).
func (q *Queue) Error(message string) string { return q.Add(message, Error) }

// Info is shorthand for Add(message, Info).
func (q *Queue) Info(message string) string { return q.Add(message, Info) }

// Remove drops the toast with id. Unknown ids are ignored.
func (q *Queue) Remove(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, t := range q.toasts {
		if t.ID == id {
			q.toasts = append(q.toasts[:i:i], q.toasts[i+1:]...)
			q.publishLocked()
			return
		}
	}
}

// Toasts returns a copy of the queue, oldest first.
func (q *Queue) Toasts() []Toast {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.snapshotLocked()
}

// Len reports how many toasts are queued.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.toasts)
}

// Subscribe delivers the newest queue snapshot after every change.
func (q *Queue) Subscribe() (<-chan []Toast, func()) {
	return q.subject.Subscribe()
}

// Close ends all subscriptions.
func (q *Queue) Close() {
	q.subject.Close()
}

func (q *Queue) snapshotLocked() []Toast {
	out := make([]Toast, len(q.toasts))
	copy(out, q.toasts)
	return out
}

func (q *Queue) publishLocked() {
	q.subject.Publish(q.snapshotLocked())
}
