package app

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/genudine/ps2-discord-room-bot/internal/core"
	"github.com/genudine/ps2-discord-room-bot/internal/domain"
)

const DefaultPruneDelay = 5 * time.Second

// PruneReport summarizes one sweep over a trigger's category.
type PruneReport struct {
	Trigger  domain.ChannelID    `json:"trigger"`
	Category domain.ChannelID    `json:"category"`
	Checked  int                 `json:"checked"`
	Deleted  []domain.ChannelID  `json:"deleted"`
	Gone     []domain.ChannelID  `json:"gone,omitempty"`
	Failed   []*core.DeleteError `json:"-"`
}

type RoomPruner struct {
	Gateway core.Gateway
	// Delay is the pause after each deletion.
	Delay time.Duration

	inflight singleflight.Group
}

func NewRoomPruner(gw core.Gateway, delay time.Duration) *RoomPruner {
	return &RoomPruner{Gateway: gw, Delay: delay}
}

// Prune deletes every empty voice channel in the trigger's category except
// the trigger itself. Resolution failures abort and return a LookupError;
// failures on a single candidate are collected in the report and the sweep
// goes on.
func (p *RoomPruner) Prune(ctx context.Context, trigger domain.ChannelID) (*PruneReport, error) {
	logger := log.With().Str("module", "app.pruner").Str("trigger", string(trigger)).Logger()
	report := &PruneReport{Trigger: trigger}

	triggerCh, err := p.Gateway.Channel(ctx, trigger)
	if err != nil {
		return report, &core.LookupError{Op: "trigger", ID: trigger, Err: err}
	}
	if !triggerCh.HasParent() {
		return report, &core.LookupError{Op: "category", ID: trigger, Err: core.ErrNoCategory}
	}

	category, err := p.Gateway.Channel(ctx, triggerCh.ParentID)
	if err != nil {
		return report, &core.LookupError{Op: "category", ID: triggerCh.ParentID, Err: err}
	}
	if !category.IsCategory() {
		return report, &core.LookupError{Op: "category", ID: category.ID, Err: core.ErrNotCategory}
	}
	report.Category = category.ID

	guild := category.GuildID
	if guild == "" {
		guild = triggerCh.GuildID
	}
	siblings, err := p.Gateway.ChannelsInCategory(ctx, guild, category.ID)
	if err != nil {
		return report, &core.LookupError{Op: "channels", ID: category.ID, Err: err}
	}

	for _, ch := range siblings {
		if ch.ID == trigger || !ch.IsVoice() || ch.ParentID != category.ID {
			continue
		}
		report.Checked++

		n, err := p.Gateway.OccupantCount(ctx, guild, ch.ID)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				report.Gone = append(report.Gone, ch.ID)
				continue
			}
			logger.Warn().Err(err).Str("channel", string(ch.ID)).Msg("occupant count failed, skipping")
			report.Failed = append(report.Failed, &core.DeleteError{ChannelID: ch.ID, Err: err})
			continue
		}
		if n > 0 {
			continue
		}

		logger.Debug().Str("channel", string(ch.ID)).Msg("deleting empty room")
		if err := p.Gateway.DeleteChannel(ctx, ch.ID); err != nil {
			if errors.Is(err, core.ErrNotFound) {
				logger.Debug().Str("channel", string(ch.ID)).Msg("room already gone")
				report.Gone = append(report.Gone, ch.ID)
				continue
			}
			logger.Warn().Err(err).Str("channel", string(ch.ID)).Msg("delete failed, continuing sweep")
			report.Failed = append(report.Failed, &core.DeleteError{ChannelID: ch.ID, Err: err})
			continue
		}
		report.Deleted = append(report.Deleted, ch.ID)
		p.pause(ctx)
	}

	logger.Debug().
		Int("checked", report.Checked).
		Int("deleted", len(report.Deleted)).
		Int("failed", len(report.Failed)).
		Msg("prune done")
	return report, nil
}

// PruneShared is Prune with at most one shared sweep in flight per
// trigger. Callers arriving while a sweep runs get that sweep's result.
// The shared sweep is detached from the cancellation of the caller that
// started it.
func (p *RoomPruner) PruneShared(ctx context.Context, trigger domain.ChannelID) (*PruneReport, error) {
	owner := false
	v, err, _ := p.inflight.Do(string(trigger), func() (any, error) {
		owner = true
		return p.Prune(context.WithoutCancel(ctx), trigger)
	})
	if !owner {
		log.Debug().Str("module", "app.pruner").Str("trigger", string(trigger)).Msg("joined in-flight prune")
	}
	report, _ := v.(*PruneReport)
	return report, err
}

func (p *RoomPruner) pause(ctx context.Context) {
	if p.Delay <= 0 {
		return
	}
	t := time.NewTimer(p.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
