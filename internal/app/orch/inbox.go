package orch

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/genudine/ps2-discord-room-bot/internal/domain"
)

// Submit queues a transition for Run. It blocks while the inbox is full.
func (o *Orchestrator) Submit(ctx context.Context, t domain.VoiceTransition) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case o.inbox <- t:
		return nil
	}
}

// Run drains the inbox one transition at a time until ctx is done, so a
// synchronous prune finishes before the next event is looked at.
func (o *Orchestrator) Run(ctx context.Context) {
	log.Info().Str("module", "app.orch").Msg("event loop started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "app.orch").Msg("event loop stopped")
			return
		case t := <-o.inbox:
			o.Handle(ctx, t)
		}
	}
}
