package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// scheduledRunTimeout bounds a single scheduled sync.
const scheduledRunTimeout = 10 * time.Minute

// Scheduler runs the pipeline on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	mu      sync.Mutex
	started bool
	logger  *zap.Logger
}

// NewScheduler registers p under the cron expression schedule. Overlapping runs
// are skipped rather than queued.
func NewScheduler(ctx context.Context, schedule string, p *Pipeline, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := c.AddFunc(schedule, func() {
		r := p.RunWithTimeout(ctx, scheduledRunTimeout)
		for _, s := range r.Steps {
			if s.Err != nil {
				logger.Warn("scheduled sync step failed", zap.String("step", s.Name), zap.Error(s.Err))
				continue
			}
			logger.Info("scheduled sync step", zap.String("step", s.Name), zap.String("summary", s.Summary))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("parsing schedule %q: %w", schedule, err)
	}
	return &Scheduler{cron: c, logger: logger}, nil
}

// Next returns the next scheduled run after now.
func (s *Scheduler) Next(now time.Time) time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Schedule.Next(now)
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		s.cron.Start()
		s.started = true
		s.logger.Info("notes sync scheduled", zap.Time("next", s.Next(time.Now())))
	}
}

// Stop halts the scheduler and waits for a running sync to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		<-s.cron.Stop().Done()
		s.started = false
	}
}
