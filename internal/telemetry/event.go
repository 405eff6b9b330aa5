package telemetry

import (
	"context"
	"sync"
	"time"
)

type eventKey struct{}

// Event collects the fields describing one handled request.
type Event struct {
	mu     sync.Mutex
	start  time.Time
	fields map[string]any
}

// NewEvent starts a new event timed from now.
func NewEvent() *Event {
	return &Event{
		start:  time.Now(),
		fields: make(map[string]any),
	}
}

// AddField sets a field on the event.
func (e *Event) AddField(key string, value any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fields[key] = value
}

// Fields returns a copy of the event's fields.
func (e *Event) Fields() map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[string]any, len(e.fields))
	for k, v := range e.fields {
		out[k] = v
	}
	return out
}

// Start is when the event was created.
func (e *Event) Start() time.Time {
	return e.start
}

// WithEvent returns a context carrying ev.
func WithEvent(ctx context.Context, ev *Event) context.Context {
	return context.WithValue(ctx, eventKey{}, ev)
}

// FromContext returns the event carried by ctx, if any.
func FromContext(ctx context.Context) *Event {
	ev, _ := ctx.Value(eventKey{}).(*Event)
	return ev
}

// AddField sets a field on the event in ctx. It is a no-op when the context
// carries no event.
func AddField(ctx context.Context, key string, value any) {
	if ev := FromContext(ctx); ev != nil {
		ev.AddField(key, value)
	}
}
