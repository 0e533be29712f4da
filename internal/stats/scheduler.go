// internal/stats/scheduler.go
//
// Periodic refresh of the cached statistic.
// Responsibilities:
//   - Run Recomputer.Trigger on a fixed gocron interval
//   - Stay inert when the interval is disabled

package stats

import (
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog/log"
)

// Scheduler triggers a recompute on a fixed interval.
type Scheduler struct {
	scheduler *gocron.Scheduler
	rc        *Recomputer
	every     time.Duration
}

// NewScheduler returns nil when every is not positive; a nil Scheduler is
// safe to Start and Stop.
func NewScheduler(rc *Recomputer, every time.Duration) *Scheduler {
	if every <= 0 {
		return nil
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		rc:        rc,
		every:     every,
	}
}

// Start schedules the refresh job and runs it without blocking.
func (s *Scheduler) Start() error {
	if s == nil {
		return nil
	}
	if _, err := s.scheduler.Every(s.every).Do(s.rc.Trigger); err != nil {
		return err
	}
	s.scheduler.StartAsync()
	log.Info().Dur("every", s.every).Msg("stats refresh scheduled")
	return nil
}

// Stop halts the scheduler.
func (s *Scheduler) Stop() {
	if s == nil {
		return
	}
	s.scheduler.Stop()
}
