package orch

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/panics"

	"github.com/genudine/ps2-discord-room-bot/internal/app"
	"github.com/genudine/ps2-discord-room-bot/internal/core"
	"github.com/genudine/ps2-discord-room-bot/internal/domain"
)

type Creator interface {
	Create(ctx context.Context, guild domain.GuildID, trigger domain.ChannelID, user domain.UserID, displayName string) (domain.ChannelID, error)
}

type Pruner interface {
	Prune(ctx context.Context, trigger domain.ChannelID) (*app.PruneReport, error)
	PruneShared(ctx context.Context, trigger domain.ChannelID) (*app.PruneReport, error)
}

// Orchestrator reconciles voice transitions against the watch registry and
// decides whether to create a room, prune, or do nothing.
type Orchestrator struct {
	Registry *app.WatchRegistry
	Creator  Creator
	Pruner   Pruner

	inbox chan domain.VoiceTransition
}

func New(reg *app.WatchRegistry, creator Creator, pruner Pruner, buffer int) *Orchestrator {
	if buffer < 1 {
		buffer = 1
	}
	return &Orchestrator{
		Registry: reg,
		Creator:  creator,
		Pruner:   pruner,
		inbox:    make(chan domain.VoiceTransition, buffer),
	}
}

// Handle processes one transition. First matching rule wins:
// unknown guild is ignored, a disconnect prunes synchronously, a switch
// away from a non-trigger channel prunes in the background, and landing
// in the trigger creates a room.
func (o *Orchestrator) Handle(ctx context.Context, t domain.VoiceTransition) {
	if t.GuildID == "" {
		log.Debug().Str("module", "app.orch").Str("user", string(t.UserID)).Msg("no guild id, dropping")
		return
	}
	trigger, ok := o.Registry.Lookup(t.GuildID)
	if !ok {
		log.Debug().Str("module", "app.orch").Str("guild", string(t.GuildID)).Msg("no trigger channel for guild")
		return
	}
	logger := log.With().
		Str("module", "app.orch").
		Str("event", uuid.NewString()).
		Str("guild", string(t.GuildID)).
		Str("user", string(t.UserID)).
		Str("trigger", string(trigger)).
		Logger()
	logger.Trace().
		Str("previous", string(t.PreviousChannelID)).
		Str("new", string(t.NewChannelID)).
		Msg("voice transition")

	if t.Disconnected() {
		logger.Debug().Msg("user left voice, pruning")
		if _, err := o.Pruner.Prune(ctx, trigger); err != nil {
			logger.Error().Err(err).Msg("prune after disconnect failed")
		}
		return
	}

	switch {
	case t.PreviousChannelID == trigger:
		logger.Debug().Msg("user left the trigger channel")
	case t.Switched():
		logger.Debug().Str("previous", string(t.PreviousChannelID)).Msg("user changed channels, pruning in background")
		o.pruneDetached(ctx, trigger, logger)
	}

	if t.NewChannelID != trigger {
		return
	}
	logger.Debug().Msg("trigger channel hit, creating a room")
	room, err := o.Creator.Create(ctx, t.GuildID, trigger, t.UserID, t.DisplayName)
	switch {
	case errors.Is(err, core.ErrNotInTrigger):
		logger.Debug().Msg("stale trigger event, no room created")
	case err != nil:
		logger.Error().Err(err).Str("room", string(room)).Msg("room creation failed")
	}
}

// pruneDetached starts a prune nobody waits for.
func (o *Orchestrator) pruneDetached(ctx context.Context, trigger domain.ChannelID, logger zerolog.Logger) {
	go func() {
		var pc panics.Catcher
		pc.Try(func() {
			if _, err := o.Pruner.PruneShared(ctx, trigger); err != nil {
				logger.Error().Err(err).Msg("background prune failed")
			}
		})
		if r := pc.Recovered(); r != nil {
			logger.Error().Err(r.AsError()).Msg("background prune panicked")
		}
	}()
}
