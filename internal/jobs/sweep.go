package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/soulsguard/guard-bot-go/internal/model"
)

// sweepTracker is the slice of the tracker the sweep job drives
type sweepTracker interface {
	SweepIdle(ctx context.Context, threshold time.Duration) ([]model.ClosedSessionSummary, error)
}

// SweepJob polls for idle chat sessions on a fixed interval. A poll
// re-derives staleness from persisted last_activity_time, so it
// survives restarts and never needs the cancel-and-reschedule dance
// a per-session timer would.
type SweepJob struct {
	tracker   sweepTracker
	interval  time.Duration
	threshold time.Duration
	done      chan struct{}
}

func NewSweepJob(tracker sweepTracker, interval, threshold time.Duration) *SweepJob {
	return &SweepJob{
		tracker:   tracker,
		interval:  interval,
		threshold: threshold,
		done:      make(chan struct{}),
	}
}

func (j *SweepJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Dur("threshold", j.threshold).Msg("idle sweep started")
}

func (j *SweepJob) Stop() {
	close(j.done)
	log.Info().Msg("idle sweep stopped")
}

func (j *SweepJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.sweep()
		}
	}
}

func (j *SweepJob) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	closed, err := j.tracker.SweepIdle(ctx, j.threshold)
	if err != nil {
		log.Error().Err(err).Msg("idle sweep failed")
		return
	}
	if len(closed) > 0 {
		log.Info().Int("count", len(closed)).Msg("idle sessions closed")
	}
}
