package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"github.com/genudine/ps2-discord-room-bot/internal/core"
	"github.com/genudine/ps2-discord-room-bot/internal/domain"
)

// restSession is the subset of *discordgo.Session the gateway calls.
type restSession interface {
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	GuildChannels(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Channel, error)
	GuildChannelCreateComplex(guildID string, data discordgo.GuildChannelCreateData, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelDelete(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	GuildMemberMove(guildID string, userID string, channelID *string, options ...discordgo.RequestOption) error
}

// Gateway implements core.Gateway on top of discordgo. Channels always go
// through REST; voice occupancy comes from the session state, which the
// gateway keeps current from VOICE_STATE_UPDATE events.
type Gateway struct {
	rest  restSession
	state *discordgo.State
}

var _ core.Gateway = (*Gateway)(nil)

// ErrGuildNotCached means the session state holds no voice data for a guild
// yet. Occupancy is unknown, so it must not read as a missing channel.
var ErrGuildNotCached = errors.New("guild not in state cache")

func NewGateway(s *discordgo.Session) *Gateway {
	return &Gateway{rest: s, state: s.State}
}

func (g *Gateway) Channel(ctx context.Context, id domain.ChannelID) (*domain.Channel, error) {
	ch, err := g.rest.Channel(string(id), discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapErr(err)
	}
	return toChannel(ch), nil
}

func (g *Gateway) ChannelsInCategory(ctx context.Context, guild domain.GuildID, category domain.ChannelID) ([]*domain.Channel, error) {
	all, err := g.rest.GuildChannels(string(guild), discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapErr(err)
	}
	out := make([]*domain.Channel, 0, len(all))
	for _, ch := range all {
		if ch.ParentID == string(category) {
			out = append(out, toChannel(ch))
		}
	}
	return out, nil
}

func (g *Gateway) OccupantCount(_ context.Context, guild domain.GuildID, channel domain.ChannelID) (int, error) {
	g.state.RLock()
	defer g.state.RUnlock()
	gs, err := g.guildLocked(guild)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, vs := range gs.VoiceStates {
		if vs.ChannelID == string(channel) {
			n++
		}
	}
	return n, nil
}

func (g *Gateway) CurrentChannel(_ context.Context, guild domain.GuildID, user domain.UserID) (domain.ChannelID, error) {
	g.state.RLock()
	defer g.state.RUnlock()
	gs, err := g.guildLocked(guild)
	if err != nil {
		return "", err
	}
	for _, vs := range gs.VoiceStates {
		if vs.UserID == string(user) {
			return domain.ChannelID(vs.ChannelID), nil
		}
	}
	return "", nil
}

func (g *Gateway) CreateVoiceChannel(ctx context.Context, guild domain.GuildID, category domain.ChannelID, name string) (domain.ChannelID, error) {
	ch, err := g.rest.GuildChannelCreateComplex(string(guild), discordgo.GuildChannelCreateData{
		Name:     name,
		Type:     discordgo.ChannelTypeGuildVoice,
		ParentID: string(category),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", mapErr(err)
	}
	return domain.ChannelID(ch.ID), nil
}

func (g *Gateway) DeleteChannel(ctx context.Context, id domain.ChannelID) error {
	_, err := g.rest.ChannelDelete(string(id), discordgo.WithContext(ctx))
	return mapErr(err)
}

func (g *Gateway) MoveMember(ctx context.Context, guild domain.GuildID, user domain.UserID, channel domain.ChannelID) error {
	target := string(channel)
	return mapErr(g.rest.GuildMemberMove(string(guild), string(user), &target, discordgo.WithContext(ctx)))
}

// guildLocked must be called with the state read lock held. It reads the
// guild map directly because State.Guild takes the lock itself.
func (g *Gateway) guildLocked(guild domain.GuildID) (*discordgo.Guild, error) {
	for _, gs := range g.state.Guilds {
		if gs.ID == string(guild) {
			return gs, nil
		}
	}
	return nil, fmt.Errorf("guild %s: %w", guild, ErrGuildNotCached)
}

func toChannel(ch *discordgo.Channel) *domain.Channel {
	kind := domain.KindOther
	switch ch.Type {
	case discordgo.ChannelTypeGuildVoice:
		kind = domain.KindVoice
	case discordgo.ChannelTypeGuildCategory:
		kind = domain.KindCategory
	}
	return &domain.Channel{
		ID:       domain.ChannelID(ch.ID),
		GuildID:  domain.GuildID(ch.GuildID),
		Kind:     kind,
		ParentID: domain.ChannelID(ch.ParentID),
		Name:     ch.Name,
	}
}

// mapErr turns Discord's "unknown object" answers into core.ErrNotFound.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var rest *discordgo.RESTError
	if errors.As(err, &rest) {
		if rest.Response != nil && rest.Response.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %w", core.ErrNotFound, err)
		}
		if rest.Message != nil {
			switch rest.Message.Code {
			case discordgo.ErrCodeUnknownChannel, discordgo.ErrCodeUnknownGuild, discordgo.ErrCodeUnknownMember:
				return fmt.Errorf("%w: %w", core.ErrNotFound, err)
			}
		}
	}
	if errors.Is(err, discordgo.ErrStateNotFound) {
		return fmt.Errorf("%w: %w", core.ErrNotFound, err)
	}
	return err
}
