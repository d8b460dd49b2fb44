// Package coretest provides an in-memory core.Gateway for tests.
package coretest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/genudine/ps2-discord-room-bot/internal/core"
	"github.com/genudine/ps2-discord-room-bot/internal/domain"
)

// Gateway keeps one guild worth of channels and voice states in memory and
// records every mutating call.
type Gateway struct {
	mu       sync.Mutex
	channels map[domain.ChannelID]*domain.Channel
	voice    map[domain.UserID]domain.ChannelID
	nextID   int

	// DeleteErr and MoveErr inject failures per channel.
	DeleteErr map[domain.ChannelID]error
	MoveErr   error
	CreateErr error

	Deleted []domain.ChannelID
	Created []*domain.Channel
	Moves   []Move
	// DeleteHook, when set, runs before a delete is applied (outside the lock).
	DeleteHook func(domain.ChannelID)
}

type Move struct {
	User    domain.UserID
	Channel domain.ChannelID
}

var _ core.Gateway = (*Gateway)(nil)

func NewGateway() *Gateway {
	return &Gateway{
		channels:  make(map[domain.ChannelID]*domain.Channel),
		voice:     make(map[domain.UserID]domain.ChannelID),
		nextID:    1000,
		DeleteErr: make(map[domain.ChannelID]error),
	}
}

func (g *Gateway) AddCategory(guild domain.GuildID, id domain.ChannelID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.channels[id] = &domain.Channel{ID: id, GuildID: guild, Kind: domain.KindCategory, Name: string(id)}
}

func (g *Gateway) AddVoice(guild domain.GuildID, parent, id domain.ChannelID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.channels[id] = &domain.Channel{ID: id, GuildID: guild, Kind: domain.KindVoice, ParentID: parent, Name: string(id)}
}

func (g *Gateway) AddText(guild domain.GuildID, parent, id domain.ChannelID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.channels[id] = &domain.Channel{ID: id, GuildID: guild, Kind: domain.KindOther, ParentID: parent, Name: string(id)}
}

// Join puts user into channel; an empty channel disconnects the user.
func (g *Gateway) Join(user domain.UserID, channel domain.ChannelID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if channel == "" {
		delete(g.voice, user)
		return
	}
	g.voice[user] = channel
}

func (g *Gateway) Has(id domain.ChannelID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.channels[id]
	return ok
}

func (g *Gateway) DeletedIDs() []domain.ChannelID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]domain.ChannelID(nil), g.Deleted...)
}

func (g *Gateway) Channel(_ context.Context, id domain.ChannelID) (*domain.Channel, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.channels[id]
	if !ok {
		return nil, fmt.Errorf("channel %s: %w", id, core.ErrNotFound)
	}
	c := *ch
	return &c, nil
}

func (g *Gateway) ChannelsInCategory(_ context.Context, guild domain.GuildID, category domain.ChannelID) ([]*domain.Channel, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.channels[category]; !ok {
		return nil, fmt.Errorf("category %s: %w", category, core.ErrNotFound)
	}
	var out []*domain.Channel
	for _, ch := range g.channels {
		if ch.GuildID == guild && ch.ParentID == category {
			c := *ch
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (g *Gateway) OccupantCount(_ context.Context, _ domain.GuildID, channel domain.ChannelID) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.channels[channel]; !ok {
		return 0, fmt.Errorf("channel %s: %w", channel, core.ErrNotFound)
	}
	n := 0
	for _, ch := range g.voice {
		if ch == channel {
			n++
		}
	}
	return n, nil
}

func (g *Gateway) CurrentChannel(_ context.Context, _ domain.GuildID, user domain.UserID) (domain.ChannelID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.voice[user], nil
}

func (g *Gateway) CreateVoiceChannel(_ context.Context, guild domain.GuildID, category domain.ChannelID, name string) (domain.ChannelID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.CreateErr != nil {
		return "", g.CreateErr
	}
	g.nextID++
	id := domain.ChannelID(fmt.Sprint(g.nextID))
	ch := &domain.Channel{ID: id, GuildID: guild, Kind: domain.KindVoice, ParentID: category, Name: name}
	g.channels[id] = ch
	c := *ch
	g.Created = append(g.Created, &c)
	return id, nil
}

// DeleteChannel fails with ctx.Err() once ctx is done, like a REST call
// bound to a cancelled context.
func (g *Gateway) DeleteChannel(ctx context.Context, id domain.ChannelID) error {
	if g.DeleteHook != nil {
		g.DeleteHook(id)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.DeleteErr[id]; err != nil {
		return err
	}
	if _, ok := g.channels[id]; !ok {
		return fmt.Errorf("channel %s: %w", id, core.ErrNotFound)
	}
	delete(g.channels, id)
	g.Deleted = append(g.Deleted, id)
	return nil
}

func (g *Gateway) MoveMember(_ context.Context, _ domain.GuildID, user domain.UserID, channel domain.ChannelID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.MoveErr != nil {
		return g.MoveErr
	}
	g.voice[user] = channel
	g.Moves = append(g.Moves, Move{User: user, Channel: channel})
	return nil
}
