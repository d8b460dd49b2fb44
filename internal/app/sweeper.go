package app

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"

	"github.com/genudine/ps2-discord-room-bot/internal/domain"
)

const DefaultSweepInterval = 150 * time.Second

// TriggerPruner is the part of RoomPruner the sweeper needs.
type TriggerPruner interface {
	PruneShared(ctx context.Context, trigger domain.ChannelID) (*PruneReport, error)
}

type SweepResult struct {
	Entry  WatchEntry
	Report *PruneReport
	Err    error
}

// Sweeper periodically prunes every watched guild, independent of event
// delivery. Only one loop runs per Sweeper no matter how often Start is
// called.
type Sweeper struct {
	Registry    *WatchRegistry
	Pruner      TriggerPruner
	Interval    time.Duration
	Parallelism int

	once sync.Once
	done chan struct{}
}

func NewSweeper(reg *WatchRegistry, pruner TriggerPruner, interval time.Duration, parallelism int) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if parallelism < 1 {
		parallelism = 1
	}
	return &Sweeper{
		Registry:    reg,
		Pruner:      pruner,
		Interval:    interval,
		Parallelism: parallelism,
		done:        make(chan struct{}),
	}
}

// Start launches the sweep loop. It reports whether this call started it.
func (s *Sweeper) Start(ctx context.Context) bool {
	started := false
	s.once.Do(func() {
		started = true
		go s.loop(ctx)
	})
	if !started {
		log.Debug().Str("module", "app.sweeper").Msg("sweeper already running")
	}
	return started
}

// Done is closed when the loop has exited.
func (s *Sweeper) Done() <-chan struct{} { return s.done }

func (s *Sweeper) loop(ctx context.Context) {
	defer close(s.done)
	log.Info().Str("module", "app.sweeper").Dur("interval", s.Interval).Msg("sweeper started")

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "app.sweeper").Msg("sweeper stopped")
			return
		case <-ticker.C:
			s.SweepNow(ctx)
		}
	}
}

// SweepNow runs one pass over the whole registry and waits for it.
// Individual prune failures are logged and returned, never raised.
func (s *Sweeper) SweepNow(ctx context.Context) []SweepResult {
	entries := s.Registry.Entries()
	results := make([]SweepResult, len(entries))
	logger := log.With().Str("module", "app.sweeper").Str("sweep", uuid.NewString()).Logger()
	logger.Trace().Int("guilds", len(entries)).Msg("pruning channels")

	p := pool.New().WithMaxGoroutines(s.Parallelism)
	for i, e := range entries {
		p.Go(func() {
			report, err := s.Pruner.PruneShared(ctx, e.TriggerID)
			results[i] = SweepResult{Entry: e, Report: report, Err: err}
			if err != nil {
				logger.Error().Err(err).Str("guild", string(e.GuildID)).Msg("sweep prune failed")
			}
		})
	}
	p.Wait()
	return results
}
