package store

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrEmpty is returned when there are no buffered events to hand out.
	ErrEmpty = errors.New("no buffered events")
)

// Event is a single telemetry event waiting to be shipped.
type Event struct {
	Timestamp time.Time
	Fields    map[string]any
}

// EventBuffer is a concurrency-safe in-memory queue of telemetry events.
// Events that would exceed the retention limits are dropped oldest-first.
type EventBuffer struct {
	mu sync.Mutex

	events []Event

	// retention configuration
	maxEvents int           // max number of buffered events
	maxAge    time.Duration // optional max age for buffered events
}

// NewEventBuffer creates a new EventBuffer with optional limits.
// If maxEvents is <= 0, it is treated as unlimited.
func NewEventBuffer(maxEvents int, maxAge time.Duration) *EventBuffer {
	return &EventBuffer{
		maxEvents: maxEvents,
		maxAge:    maxAge,
	}
}

// Append adds an event and enforces retention.
func (b *EventBuffer) Append(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events = append(b.events, ev)

	// Enforce retention by count.
	if b.maxEvents > 0 && len(b.events) > b.maxEvents {
		over := len(b.events) - b.maxEvents
		b.events = b.events[over:]
	}

	// Enforce retention by age.
	if b.maxAge > 0 {
		cutoff := time.Now().Add(-b.maxAge)
		i := 0
		for ; i < len(b.events); i++ {
			if !b.events[i].Timestamp.Before(cutoff) {
				break
			}
		}
		if i > 0 {
			b.events = b.events[i:]
		}
	}
}

// Drain removes and returns every buffered event, oldest first.
func (b *EventBuffer) Drain() ([]Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.events) == 0 {
		return nil, ErrEmpty
	}
	out := b.events
	b.events = nil
	return out, nil
}

// Requeue puts events back at the front of the buffer, e.g. after a failed
// send. Retention limits still apply.
func (b *EventBuffer) Requeue(events []Event) {
	if len(events) == 0 {
		return
	}

	b.mu.Lock()
	merged := make([]Event, 0, len(events)+len(b.events))
	merged = append(merged, events...)
	merged = append(merged, b.events...)
	b.events = nil
	b.mu.Unlock()

	for _, ev := range merged {
		b.Append(ev)
	}
}

// Len reports how many events are buffered.
func (b *EventBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}
