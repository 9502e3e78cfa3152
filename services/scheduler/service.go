package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"cinebase/models"
)

// Ingestor runs the box-office pipeline for a date. An empty date means
// yesterday.
type Ingestor interface {
	IngestBoxOffice(ctx context.Context, date string) ([]models.IngestResult, error)
}

// Service runs the daily box-office ingest at a fixed local hour.
type Service struct {
	ingestor Ingestor
	hour     int

	mu      sync.Mutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewService creates a scheduler that triggers an ingest at the given hour
// (0-23) every day.
func NewService(ingestor Ingestor, hour int) *Service {
	if hour < 0 || hour > 23 {
		hour = 6
	}
	return &Service{ingestor: ingestor, hour: hour}
}

// Start begins the scheduler background loop.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running = true

	s.wg.Add(1)
	go s.loop()

	log.Printf("[scheduler] daily ingest scheduled for %02d:00", s.hour)
}

// Stop cancels the loop and waits for an in-flight ingest to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.cancel()
	s.wg.Wait()
	s.running = false

	log.Println("[scheduler] stopped")
}

func (s *Service) loop() {
	defer s.wg.Done()

	for {
		wait := time.Until(s.nextRun(time.Now()))
		timer := time.NewTimer(wait)

		select {
		case <-timer.C:
			s.runIngest()
		case <-s.ctx.Done():
			timer.Stop()
			return
		}
	}
}

// nextRun returns the next occurrence of the configured hour after now.
func (s *Service) nextRun(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (s *Service) runIngest() {
	log.Println("[scheduler] starting daily ingest")

	results, err := s.ingestor.IngestBoxOffice(s.ctx, "")
	if err != nil {
		log.Printf("[scheduler] daily ingest failed: %v", err)
		return
	}

	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		}
	}
	log.Printf("[scheduler] daily ingest finished: %d/%d saved", succeeded, len(results))
}
