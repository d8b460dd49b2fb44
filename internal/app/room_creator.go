package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/genudine/ps2-discord-room-bot/internal/core"
	"github.com/genudine/ps2-discord-room-bot/internal/domain"
)

// RoomName is the name given to a user's personal room.
func RoomName(displayName string) string {
	return fmt.Sprintf("%s's room", displayName)
}

type RoomCreator struct {
	Gateway core.Gateway
}

func NewRoomCreator(gw core.Gateway) *RoomCreator {
	return &RoomCreator{Gateway: gw}
}

// Create makes a voice channel next to the trigger and moves the user into
// it. If the move fails the new channel is left behind empty and the
// pruner reclaims it later; its ID is still returned with the error.
func (c *RoomCreator) Create(
	ctx context.Context,
	guild domain.GuildID,
	trigger domain.ChannelID,
	user domain.UserID,
	displayName string,
) (domain.ChannelID, error) {
	logger := log.With().
		Str("module", "app.creator").
		Str("guild", string(guild)).
		Str("trigger", string(trigger)).
		Str("user", string(user)).
		Logger()

	// A duplicate or late event must not create a second room.
	current, err := c.Gateway.CurrentChannel(ctx, guild, user)
	if err != nil {
		return "", &core.CreateError{Stage: core.StageVoiceState, Err: err}
	}
	if current != trigger {
		logger.Debug().Str("current", string(current)).Msg("user already left the trigger")
		return "", core.ErrNotInTrigger
	}

	triggerCh, err := c.Gateway.Channel(ctx, trigger)
	if err != nil {
		return "", &core.CreateError{Stage: core.StageFetchTrigger, Err: err}
	}
	if !triggerCh.HasParent() {
		return "", &core.CreateError{
			Stage: core.StageFetchTrigger,
			Err:   &core.LookupError{Op: "category", ID: trigger, Err: core.ErrNoCategory},
		}
	}

	name := RoomName(displayName)
	room, err := c.Gateway.CreateVoiceChannel(ctx, guild, triggerCh.ParentID, name)
	if err != nil {
		return "", &core.CreateError{Stage: core.StageCreate, Err: err}
	}
	logger.Debug().Str("room", string(room)).Str("name", name).Msg("room created, moving user")

	if err := c.Gateway.MoveMember(ctx, guild, user, room); err != nil {
		return room, &core.CreateError{Stage: core.StageMove, Err: err}
	}
	logger.Info().Str("room", string(room)).Msg("user moved into new room")
	return room, nil
}
