package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type purger struct {
	cutoff time.Time
	calls  int
	err    error
}

func (p *purger) Purge(_ context.Context, cutoff time.Time) (int, error) {
	p.calls++
	p.cutoff = cutoff
	return 2, p.err
}

func TestSweepUsesRetention(t *testing.T) {
	p := &purger{}
	s := NewScheduler(p, 7*24*time.Hour, zerolog.Nop())
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	n, err := s.Sweep(context.Background())
	if err != nil || n != 2 {
		t.Fatalf("sweep = %d, %v", n, err)
	}
	if want := time.Date(2024, 5, 3, 12, 0, 0, 0, time.UTC); !p.cutoff.Equal(want) {
		t.Errorf("cutoff = %v, want %v", p.cutoff, want)
	}

	p.err = errors.New("disk")
	s.sweep()
	if p.calls != 2 {
		t.Errorf("calls = %d", p.calls)
	}
}

func TestSchedulerDisabled(t *testing.T) {
	p := &purger{}
	s := NewScheduler(p, 0, zerolog.Nop())
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	if n, err := s.Sweep(context.Background()); n != 0 || err != nil || p.calls != 0 {
		t.Errorf("disabled sweep = %d, %v, calls %d", n, err, p.calls)
	}

	if err := NewScheduler(nil, time.Hour, zerolog.Nop()).Start(); err != nil {
		t.Fatal(err)
	}
}

func TestSchedulerStartStop(t *testing.T) {
	s := NewScheduler(&purger{}, time.Hour, zerolog.Nop())
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	if n := len(s.cron.Entries()); n != 1 {
		t.Errorf("entries = %d", n)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
