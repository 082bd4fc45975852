package pipeline

import (
	"sync"
	"time"
)

// Tracker records when the pipeline last checked the configured sites.
// The scheduler touches it after every discovery run; the status
// endpoint reads it.
type Tracker struct {
	mu   sync.RWMutex
	last time.Time
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Touch records t as the most recent check.
func (t *Tracker) Touch(at time.Time) {
	t.mu.Lock()
	t.last = at
	t.mu.Unlock()
}

// Last returns the most recent check time and whether one was recorded.
func (t *Tracker) Last() (time.Time, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last, !t.last.IsZero()
}
