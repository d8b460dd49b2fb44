package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/genudine/ps2-discord-room-bot/internal/domain"
)

const Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildVoiceStates

// Submitter accepts transitions in arrival order.
type Submitter interface {
	Submit(ctx context.Context, t domain.VoiceTransition) error
}

// Starter is notified on every READY; it must tolerate repeats.
type Starter interface {
	Start(ctx context.Context) bool
}

// NewSession builds a bot session with the intents and state tracking the
// room logic depends on. Events are dispatched synchronously so the order
// of voice updates survives until they reach the event loop.
func NewSession(token string) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	s.Identify.Intents = Intents
	s.SyncEvents = true
	s.StateEnabled = true
	s.State.TrackVoice = true
	s.State.TrackChannels = true
	return s, nil
}

type Bot struct {
	Session *discordgo.Session
	Events  Submitter
	OnReady Starter
}

// Open verifies the token, registers handlers and connects. ctx bounds the
// lifetime of everything started from handlers.
func (b *Bot) Open(ctx context.Context) error {
	me, err := b.Session.User("@me", discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("discord authentication: %w", err)
	}
	log.Info().Str("module", "adapters.discord").Str("bot", me.Username).Msg("authenticated")

	b.Session.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		log.Info().Str("module", "adapters.discord").Int("guilds", len(r.Guilds)).Msg("ready")
		b.OnReady.Start(ctx)
	})
	b.Session.AddHandler(func(_ *discordgo.Session, v *discordgo.VoiceStateUpdate) {
		t := Transition(v)
		if err := b.Events.Submit(ctx, t); err != nil {
			log.Warn().Err(err).Str("module", "adapters.discord").Str("guild", string(t.GuildID)).Msg("voice update dropped")
		}
	})

	if err := b.Session.Open(); err != nil {
		return fmt.Errorf("discord open: %w", err)
	}
	return nil
}

func (b *Bot) Close() error {
	return b.Session.Close()
}

// Transition converts a gateway voice update into a domain transition.
func Transition(v *discordgo.VoiceStateUpdate) domain.VoiceTransition {
	var t domain.VoiceTransition
	if v == nil || v.VoiceState == nil {
		return t
	}
	t.GuildID = domain.GuildID(v.GuildID)
	t.UserID = domain.UserID(v.UserID)
	t.NewChannelID = domain.ChannelID(v.ChannelID)
	t.DisplayName = DisplayName(v.Member)
	if t.DisplayName == "" {
		t.DisplayName = string(t.UserID)
	}
	if v.BeforeUpdate != nil {
		t.PreviousChannelID = domain.ChannelID(v.BeforeUpdate.ChannelID)
	}
	return t
}

// DisplayName prefers the guild nickname, then the global display name,
// then the username.
func DisplayName(m *discordgo.Member) string {
	if m == nil {
		return ""
	}
	if m.Nick != "" {
		return m.Nick
	}
	if m.User == nil {
		return ""
	}
	if m.User.GlobalName != "" {
		return m.User.GlobalName
	}
	return m.User.Username
}
