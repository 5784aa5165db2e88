package worker

import (
	"context"
	"errors"
	"time"
	"workq/internal/ports"
	"workq/pkg/backoff"

	"github.com/rs/zerolog/log"
)

type Config struct {
	Interval    time.Duration
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// RunOnce runs one pass per sweeper in order. A store failure in one queue
// does not stop the others; the first such error is returned.
func RunOnce(ctx context.Context, sweepers []ports.Sweeper) error {
	var first error
	for _, s := range sweepers {
		res, err := s.Run(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Ctx(ctx).Error().Err(err).Str("kind", string(res.Kind)).Msg("sweep pass failed")
			if first == nil {
				first = err
			}
		}
	}
	return first
}

// Run is the periodic trigger: one round of passes per interval until ctx is
// canceled. After a failed round the next one waits at least Interval and
// backs off further while failures continue.
func Run(ctx context.Context, sweepers []ports.Sweeper, cfg Config) error {
	if cfg.Interval <= 0 {
		return errors.New("worker interval must be positive")
	}
	log.Ctx(ctx).Info().Dur("interval", cfg.Interval).Int("queues", len(sweepers)).Msg("worker started")

	timer := time.NewTimer(0)
	defer timer.Stop()
	failures := 0
	for {
		select {
		case <-ctx.Done():
			log.Ctx(ctx).Info().Msg("worker stopped")
			return nil
		case <-timer.C:
		}

		wait := cfg.Interval
		if err := RunOnce(ctx, sweepers); err != nil {
			if ctx.Err() != nil {
				continue
			}
			failures++
			wait = max(cfg.Interval, backoff.ExponentialJitter(cfg.BaseBackoff, cfg.MaxBackoff, failures))
			log.Ctx(ctx).Warn().Int("failures", failures).Dur("next_in", wait).Msg("backing off")
		} else {
			failures = 0
		}
		timer.Reset(wait)
	}
}
