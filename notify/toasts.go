// Package notify provides ephemeral user-facing notices (toasts) and the
// realtime notification stream. The state containers push toasts here when
// an optimistic mutation fails.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is how long the newest toast stays up before expiring.
const DefaultTTL = 5 * time.Second

// Level classifies a toast for presentation.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
)

// Toast is one ephemeral notice.
type Toast struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Level   Level  `json:"level"`
}

type entry struct {
	toast Toast
	timer *time.Timer
}

// Queue is an ordered toast queue. At most one expiry timer runs at any
// time, always anchored to the tail: pushing a toast suspends the previous
// tail's countdown, and removing the tail re-arms the new tail.
type Queue struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries []*entry
}

// NewQueue creates a toast queue. A zero ttl uses DefaultTTL.
func NewQueue(ttl time.Duration) *Queue {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Queue{ttl: ttl}
}

// Push appends a toast and moves the expiry countdown to it.
func (q *Queue) Push(level Level, title, message string) Toast {
	q.mu.Lock()
	defer q.mu.Unlock()

	toast := Toast{
		ID:      uuid.NewString(),
		Title:   title,
		Message: message,
		Level:   level,
	}

	// Suspend the old tail; only the newest toast counts down.
	if tail := q.tail(); tail != nil && tail.timer != nil {
		tail.timer.Stop()
		tail.timer = nil
	}

	e := &entry{toast: toast}
	e.timer = q.armLocked(toast.ID)
	q.entries = append(q.entries, e)
	return toast
}

// Success pushes a success toast.
func (q *Queue) Success(title, message string) Toast {
	return q.Push(LevelSuccess, title, message)
}

// Error pushes an error toast.
func (q *Queue) Error(title, message string) Toast {
	return q.Push(LevelError, title, message)
}

// Warning pushes a warning toast.
func (q *Queue) Warning(title, message string) Toast {
	return q.Push(LevelWarning, title, message)
}

// Info pushes an info toast.
func (q *Queue) Info(title, message string) Toast {
	return q.Push(LevelInfo, title, message)
}

// Remove deletes a toast by ID. Removing the tail re-arms the countdown on
// the new tail; removing any other toast leaves timers untouched.
func (q *Queue) Remove(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	idx := -1
	for i, e := range q.entries {
		if e.toast.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	e := q.entries[idx]
	wasTail := idx == len(q.entries)-1
	if e.timer != nil {
		e.timer.Stop()
	}
	q.entries = append(q.entries[:idx], q.entries[idx+1:]...)

	if wasTail {
		if tail := q.tail(); tail != nil && tail.timer == nil {
			tail.timer = q.armLocked(tail.toast.ID)
		}
	}
	return true
}

// Toasts returns the queue contents in insertion order.
func (q *Queue) Toasts() []Toast {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Toast, len(q.entries))
	for i, e := range q.entries {
		out[i] = e.toast
	}
	return out
}

// Len returns the number of queued toasts.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Close stops all timers and empties the queue.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, e := range q.entries {
		if e.timer != nil {
			e.timer.Stop()
		}
	}
	q.entries = nil
}

// hasArmedTimer reports whether the toast's countdown is running. Test hook.
func (q *Queue) hasArmedTimer(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, e := range q.entries {
		if e.toast.ID == id {
			return e.timer != nil
		}
	}
	return false
}

func (q *Queue) tail() *entry {
	if len(q.entries) == 0 {
		return nil
	}
	return q.entries[len(q.entries)-1]
}

func (q *Queue) armLocked(id string) *time.Timer {
	return time.AfterFunc(q.ttl, func() {
		q.Remove(id)
	})
}
