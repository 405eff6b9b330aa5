package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// Flusher ships buffered telemetry somewhere.
type Flusher interface {
	Flush(ctx context.Context) error
}

// Scheduler periodically flushes buffered telemetry events.
type Scheduler struct {
	scheduler *gocron.Scheduler
	flusher   Flusher
	interval  time.Duration
}

// New creates a new Scheduler.
func New(interval time.Duration, flusher Flusher) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		flusher:   flusher,
		interval:  interval,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.flusher == nil {
		log.Println("scheduler: no telemetry sink configured; nothing to schedule")
		return nil
	}

	seconds := int(s.interval.Seconds())
	if seconds <= 0 {
		seconds = 10
	}

	_, err := s.scheduler.Every(seconds).Seconds().SingletonMode().Do(s.flush)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.flusher.Flush(ctx); err != nil {
		log.Printf("scheduler: telemetry flush failed: %v", err)
	}
}

// Stop stops the scheduler and makes one last flush so buffered events
// aren't lost on shutdown.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	if s.flusher != nil {
		s.flush()
	}
}
