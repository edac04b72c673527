package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/soulsguard/guard-bot-go/internal/clock"
)

// nightlyReporter builds and delivers the report for one local day
type nightlyReporter interface {
	SendNightlyReport(ctx context.Context, day string) error
}

// NightlyJob fires once per local midnight and reports on the day
// that just ended. The wait is recomputed after every run, so DST
// shifts and clock drift self-correct.
type NightlyJob struct {
	reporter nightlyReporter
	clock    clock.Clock
	done     chan struct{}
}

func NewNightlyJob(reporter nightlyReporter, clk clock.Clock) *NightlyJob {
	return &NightlyJob{
		reporter: reporter,
		clock:    clk,
		done:     make(chan struct{}),
	}
}

func (j *NightlyJob) Start() {
	go j.run()
	log.Info().Time("next", clock.NextMidnight(j.clock, j.clock.Now())).Msg("nightly report scheduled")
}

func (j *NightlyJob) Stop() {
	close(j.done)
	log.Info().Msg("nightly report stopped")
}

func (j *NightlyJob) run() {
	for {
		now := j.clock.Now()
		next := clock.NextMidnight(j.clock, now)
		timer := time.NewTimer(next.Sub(now))

		select {
		case <-j.done:
			timer.Stop()
			return
		case <-timer.C:
			j.report()
		}
	}
}

func (j *NightlyJob) report() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	// Just past midnight: the day being reported is yesterday's date.
	day := j.clock.DateOf(j.clock.Now().Add(-time.Hour))
	if err := j.reporter.SendNightlyReport(ctx, day); err != nil {
		log.Error().Err(err).Str("day", day).Msg("nightly report failed")
		return
	}
	log.Info().Str("day", day).Msg("nightly report sent")
}
