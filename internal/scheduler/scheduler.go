package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
)

const (
	defaultInterval = 15 * time.Minute
	defaultTimeout  = 2 * time.Minute
)

// Job is one dashboard refresh.
type Job func(ctx context.Context) error

// Scheduler periodically re-renders the dashboard.
type Scheduler struct {
	scheduler *gocron.Scheduler
	job       Job
	interval  time.Duration
	timeout   time.Duration
	log       zerolog.Logger
}

// New creates a new Scheduler. Runs never overlap; a tick that arrives while
// the previous run is still going is skipped.
func New(interval time.Duration, job Job, log zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = defaultInterval
	}
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		job:       job,
		interval:  interval,
		timeout:   defaultTimeout,
		log:       log.With().Str("component", "scheduler").Logger(),
	}
}

// Start schedules the job, runs it once immediately and returns.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(s.interval).Do(func() {
		s.log.Info().Dur("interval", s.interval).Msg("running dashboard refresh")

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if err := s.job(ctx); err != nil {
			s.log.Warn().Err(err).Msg("dashboard refresh finished with errors")
			return
		}
		s.log.Info().Msg("dashboard refresh completed")
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future runs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
