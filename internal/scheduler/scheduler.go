package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// BatchRunner is the interface the scheduler uses to trigger extraction runs.
// Satisfied by the batch driver (avoids import cycle).
type BatchRunner interface {
	RunBatch(ctx context.Context) error
}

// Scheduler re-runs a dataset extraction on a cron schedule, so results stay
// current when the dataset file is refreshed in place.
type Scheduler struct {
	runner   BatchRunner
	schedule cron.Schedule
	expr     string
	logger   *slog.Logger
	cancel   context.CancelFunc
	done     chan struct{}
	mu       sync.Mutex
	wg       sync.WaitGroup

	inflightMu sync.Mutex
	inflight   bool // a run is currently executing (dedup)
}

// NewScheduler parses the cron expression (standard 5-field format) and
// creates a Scheduler.
func NewScheduler(cronExpr string, runner BatchRunner, logger *slog.Logger) (*Scheduler, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(cronExpr)
	if err != nil {
		return nil, fmt.Errorf("parse cron expression %q: %w", cronExpr, err)
	}
	return &Scheduler{
		runner:   runner,
		schedule: schedule,
		expr:     cronExpr,
		logger:   logger,
	}, nil
}

// Start launches the background scheduling loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.done != nil {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already started")
	}

	schedCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.loop(schedCtx)
	s.logger.Info("scheduler started", slog.String("cron", s.expr))
	return nil
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	for {
		next := s.schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			// Fire asynchronously so a slow run does not delay arming the
			// next timer; overlapping fires are skipped by the dedup below.
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				s.fire(ctx)
			}()
		}
	}
}

// fire triggers one extraction run unless one is already in flight.
func (s *Scheduler) fire(ctx context.Context) {
	if !s.tryAcquire() {
		s.logger.Warn("skipping scheduled run, previous run still in progress")
		return
	}
	defer s.release()

	s.logger.Info("running scheduled extraction")
	if err := s.runner.RunBatch(ctx); err != nil {
		s.logger.Error("scheduled extraction failed", slog.String("error", err.Error()))
	}
}

// tryAcquire returns true and marks a run as in-flight if none is running.
func (s *Scheduler) tryAcquire() bool {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	if s.inflight {
		return false
	}
	s.inflight = true
	return true
}

func (s *Scheduler) release() {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	s.inflight = false
}

// NextRun computes the next run time after the given instant.
func (s *Scheduler) NextRun(from time.Time) time.Time {
	return s.schedule.Next(from)
}

// Stop shuts down the loop and waits for any in-flight run to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel == nil {
		return nil
	}

	s.cancel()
	<-s.done
	s.wg.Wait()
	s.cancel = nil
	s.done = nil

	s.logger.Info("scheduler stopped")
	return nil
}
