package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	libhoney "github.com/honeycombio/libhoney-go"
	"github.com/honeycombio/libhoney-go/transmission"

	"github.com/pebble-dev/rebble-weather/internal/store"
)

// responseTimeout bounds how long a flush waits for send results.
const responseTimeout = 30 * time.Second

// Recorder accepts finished request events.
type Recorder interface {
	Record(ev *Event)
}

// NopRecorder discards events. Used when no observability sink is configured.
type NopRecorder struct{}

func (NopRecorder) Record(*Event) {}

// HoneycombConfig configures the Honeycomb events sink.
type HoneycombConfig struct {
	APIRoot     string
	WriteKey    string
	Dataset     string
	ServiceName string
	MaxRetries  uint64

	// Transmission replaces libhoney's batching sender when set.
	Transmission transmission.Sender
}

// Honeycomb buffers events and ships them through libhoney when Flush is
// called.
type Honeycomb struct {
	cfg    HoneycombConfig
	client *libhoney.Client
	buffer *store.EventBuffer

	flushMu sync.Mutex
}

func NewHoneycomb(cfg HoneycombConfig, buffer *store.EventBuffer) (*Honeycomb, error) {
	client, err := libhoney.NewClient(libhoney.ClientConfig{
		APIKey:       cfg.WriteKey,
		Dataset:      cfg.Dataset,
		APIHost:      cfg.APIRoot,
		Transmission: cfg.Transmission,
	})
	if err != nil {
		return nil, fmt.Errorf("create honeycomb client: %w", err)
	}
	if cfg.ServiceName != "" {
		client.AddField("service_name", cfg.ServiceName)
	}

	return &Honeycomb{
		cfg:    cfg,
		client: client,
		buffer: buffer,
	}, nil
}

// Record queues ev for the next flush.
func (h *Honeycomb) Record(ev *Event) {
	h.buffer.Append(store.Event{
		Timestamp: ev.Start(),
		Fields:    ev.Fields(),
	})
}

// Flush sends every buffered event. Events that fail with a transport error,
// 429 or 5xx are retried with backoff and put back in the buffer if they
// still fail. Events Honeycomb rejects outright are dropped.
func (h *Honeycomb) Flush(ctx context.Context) error {
	h.flushMu.Lock()
	defer h.flushMu.Unlock()

	events, err := h.buffer.Drain()
	if errors.Is(err, store.ErrEmpty) {
		return nil
	}

	pending := events
	rejected := 0
	operation := func() error {
		retry, dropped, err := h.send(ctx, pending)
		rejected += dropped
		pending = retry
		if err != nil {
			return backoff.Permanent(err)
		}
		if len(retry) > 0 {
			return fmt.Errorf("send events: %d of %d failed", len(retry), len(events))
		}
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), h.cfg.MaxRetries), ctx)
	err = backoff.Retry(operation, bo)

	if rejected > 0 {
		EventsDropped.Add(float64(rejected))
		log.Printf("WARN: honeycomb rejected %d of %d events", rejected, len(events))
	}
	if err != nil {
		h.buffer.Requeue(pending)
		return err
	}
	return nil
}

// send hands events to libhoney, flushes it and sorts the results into
// events worth retrying and a count of dropped ones.
func (h *Honeycomb) send(ctx context.Context, events []store.Event) ([]store.Event, int, error) {
	dropped := 0
	sent := 0
	for i, ev := range events {
		he := h.client.NewEvent()
		he.Timestamp = ev.Timestamp
		he.Metadata = i
		if err := he.Add(ev.Fields); err != nil {
			dropped++
			continue
		}
		if err := he.Send(); err != nil {
			dropped++
			continue
		}
		sent++
	}
	h.client.Flush()

	var retry []store.Event
	responses := h.client.TxResponses()
	timeout := time.NewTimer(responseTimeout)
	defer timeout.Stop()

	for n := 0; n < sent; n++ {
		select {
		case r := <-responses:
			i, ok := r.Metadata.(int)
			if !ok || i < 0 || i >= len(events) {
				continue
			}
			switch {
			case r.Err != nil, r.StatusCode == http.StatusTooManyRequests, r.StatusCode >= 500:
				retry = append(retry, events[i])
			case r.StatusCode != http.StatusAccepted:
				dropped++
			}
		case <-ctx.Done():
			return events, dropped, ctx.Err()
		case <-timeout.C:
			log.Printf("WARN: honeycomb: no result for %d events", sent-n)
			return retry, dropped, nil
		}
	}
	return retry, dropped, nil
}

// Close flushes libhoney and stops its sender.
func (h *Honeycomb) Close() {
	h.client.Close()
}
