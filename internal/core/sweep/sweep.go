package sweep

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jthickma/webapp/internal/core/event"
	"github.com/jthickma/webapp/internal/core/storage"
)

const (
	DefaultRetention = 7 * 24 * time.Hour
	DefaultInterval  = time.Hour
)

// Sweeper removes job directories that outlived the retention period.
type Sweeper struct {
	store     *storage.LocalProvider
	bus       event.Bus
	retention time.Duration
}

// New returns a Sweeper. bus may be nil.
func New(store *storage.LocalProvider, bus event.Bus, retention time.Duration) *Sweeper {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Sweeper{store: store, bus: bus, retention: retention}
}

// RunOnce deletes every job directory last modified before now minus the
// retention period and returns how many were removed. A directory that cannot
// be removed is logged and skipped.
func (s *Sweeper) RunOnce(ctx context.Context, now time.Time) (int, error) {
	dirs, err := s.store.ListJobDirs()
	if err != nil {
		return 0, err
	}

	cutoff := now.Add(-s.retention)
	removed := 0
	for _, d := range dirs {
		if ctx.Err() != nil {
			return removed, ctx.Err()
		}
		if !d.ModTime.Before(cutoff) {
			continue
		}
		if err := s.store.RemoveJobDir(d.Token); err != nil {
			log.Warn().Err(err).Str("job_id", d.Token).Msg("sweep: remove expired directory")
			continue
		}
		removed++
		age := now.Sub(d.ModTime)
		log.Info().Str("job_id", d.Token).Dur("age", age).Msg("sweep: removed expired directory")
		if s.bus != nil {
			_ = s.bus.Publish(ctx, event.Event{
				Type:    event.EventSweepRemoved,
				Payload: event.SweepEvent{JobID: d.Token, Age: age},
			})
		}
	}
	return removed, nil
}

// Run sweeps every interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if _, err := s.RunOnce(ctx, now); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("sweep failed")
			}
		}
	}
}
