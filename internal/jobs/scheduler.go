package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Purger removes shared reports older than a cutoff.
type Purger interface {
	Purge(ctx context.Context, cutoff time.Time) (int, error)
}

type Scheduler struct {
	cron      *cron.Cron
	purger    Purger
	retention time.Duration
	now       func() time.Time
	log       zerolog.Logger
}

func NewScheduler(purger Purger, retention time.Duration, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:      c,
		purger:    purger,
		retention: retention,
		now:       time.Now,
		log:       log,
	}
}

func (s *Scheduler) Start() error {
	if s.purger == nil || s.retention <= 0 {
		return nil
	}

	if _, err := s.cron.AddFunc("0 0 * * * *", s.sweep); err != nil { // hourly
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts the schedule and waits for a running sweep until ctx ends.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// Sweep purges once and reports how many files went.
func (s *Scheduler) Sweep(ctx context.Context) (int, error) {
	if s.purger == nil || s.retention <= 0 {
		return 0, nil
	}
	return s.purger.Purge(ctx, s.now().Add(-s.retention))
}

func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	removed, err := s.Sweep(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("share purge failed")
		return
	}
	if removed > 0 {
		s.log.Info().Int("removed", removed).Msg("expired shared reports purged")
	}
}
