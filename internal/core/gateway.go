package core

import (
	"context"

	"github.com/genudine/ps2-discord-room-bot/internal/domain"
)

//go:generate mockgen -source=gateway.go -destination=mock/gateway_mock.go -package=mock

// Gateway abstracts the chat platform. Every call is a network round trip;
// implementations return ErrNotFound (possibly wrapped) for unknown or
// already deleted objects.
type Gateway interface {
	Channel(ctx context.Context, id domain.ChannelID) (*domain.Channel, error)
	// ChannelsInCategory lists the direct children of a category.
	ChannelsInCategory(ctx context.Context, guild domain.GuildID, category domain.ChannelID) ([]*domain.Channel, error)
	OccupantCount(ctx context.Context, guild domain.GuildID, channel domain.ChannelID) (int, error)
	// CurrentChannel returns the voice channel the user is in, or "" when
	// the user is not connected.
	CurrentChannel(ctx context.Context, guild domain.GuildID, user domain.UserID) (domain.ChannelID, error)

	CreateVoiceChannel(ctx context.Context, guild domain.GuildID, category domain.ChannelID, name string) (domain.ChannelID, error)
	DeleteChannel(ctx context.Context, id domain.ChannelID) error
	MoveMember(ctx context.Context, guild domain.GuildID, user domain.UserID, channel domain.ChannelID) error
}
