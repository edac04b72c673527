package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// poker picks and mentions one quiet member, honoring an owner toggle
type poker interface {
	PokeRandomMember(ctx context.Context) error
}

// PokeJob periodically nudges a member who has been active today but
// has gone quiet. Pure flavor; every failure is logged and forgotten.
type PokeJob struct {
	poker    poker
	interval time.Duration
	done     chan struct{}
}

func NewPokeJob(p poker, interval time.Duration) *PokeJob {
	return &PokeJob{
		poker:    p,
		interval: interval,
		done:     make(chan struct{}),
	}
}

func (j *PokeJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("poke job started")
}

func (j *PokeJob) Stop() {
	close(j.done)
	log.Info().Msg("poke job stopped")
}

func (j *PokeJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := j.poker.PokeRandomMember(ctx); err != nil {
				log.Warn().Err(err).Msg("poke failed")
			}
			cancel()
		}
	}
}
