package service

import (
	"context"
	"time"

	"github.com/userflow/userflow/internal/config"
	"github.com/userflow/userflow/internal/logger"
)

// ExpiredDeleter removes rows past their expiry
type ExpiredDeleter interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// Reaper periodically deletes expired sessions and reset tokens.
// Expiry is always enforced at read time; the reaper only reclaims
// storage and is disabled by default.
type Reaper struct {
	sessions ExpiredDeleter
	tokens   ExpiredDeleter
	cfg      config.ReaperConfig
	log      *logger.Logger
}

// NewReaper creates a new Reaper
func NewReaper(sessions, tokens ExpiredDeleter, cfg config.ReaperConfig, log *logger.Logger) *Reaper {
	return &Reaper{
		sessions: sessions,
		tokens:   tokens,
		cfg:      cfg,
		log:      log.WithComponent("reaper"),
	}
}

// Run sweeps on the configured interval until the context is cancelled
func (r *Reaper) Run(ctx context.Context) {
	interval := r.cfg.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Reaper) sweep(ctx context.Context) {
	if n, err := r.sessions.DeleteExpired(ctx); err != nil {
		r.log.Error().Err(err).Msg("failed to reap expired sessions")
	} else if n > 0 {
		r.log.Info().Int64("count", n).Msg("reaped expired sessions")
	}

	if n, err := r.tokens.DeleteExpired(ctx); err != nil {
		r.log.Error().Err(err).Msg("failed to reap expired reset tokens")
	} else if n > 0 {
		r.log.Info().Int64("count", n).Msg("reaped expired reset tokens")
	}
}
