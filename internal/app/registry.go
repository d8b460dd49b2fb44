package app

import (
	"errors"
	"sort"
	"strings"
	"unicode"

	"github.com/rs/zerolog/log"

	"github.com/genudine/ps2-discord-room-bot/internal/core"
	"github.com/genudine/ps2-discord-room-bot/internal/domain"
)

var (
	errMissingSeparator = errors.New(`expected "<guild_id>:<channel_id>"`)
	errEmptyID          = errors.New("empty guild or channel id")
	errSpaceInID        = errors.New("whitespace inside guild or channel id")
)

type WatchEntry struct {
	GuildID   domain.GuildID   `json:"guild_id"`
	TriggerID domain.ChannelID `json:"trigger_channel_id"`
}

// WatchRegistry maps a guild to its trigger channel. It is built once at
// startup and never mutated, so concurrent reads need no locking.
type WatchRegistry struct {
	triggers map[domain.GuildID]domain.ChannelID
}

func NewWatchRegistry(entries []string) (*WatchRegistry, error) {
	r := &WatchRegistry{triggers: make(map[domain.GuildID]domain.ChannelID, len(entries))}
	for _, raw := range entries {
		guild, channel, ok := strings.Cut(strings.TrimSpace(raw), ":")
		if !ok {
			return nil, &core.ConfigError{Value: raw, Err: errMissingSeparator}
		}
		guild, channel = strings.TrimSpace(guild), strings.TrimSpace(channel)
		if guild == "" || channel == "" {
			return nil, &core.ConfigError{Value: raw, Err: errEmptyID}
		}
		if hasSpace(guild) || hasSpace(channel) {
			return nil, &core.ConfigError{Value: raw, Err: errSpaceInID}
		}
		r.triggers[domain.GuildID(guild)] = domain.ChannelID(channel)
	}
	log.Info().Str("module", "app.registry").Int("guilds", len(r.triggers)).Msg("watch registry built")
	return r, nil
}

func (r *WatchRegistry) Lookup(guild domain.GuildID) (domain.ChannelID, bool) {
	ch, ok := r.triggers[guild]
	return ch, ok
}

func (r *WatchRegistry) Len() int { return len(r.triggers) }

// Entries returns a snapshot sorted by guild id.
func (r *WatchRegistry) Entries() []WatchEntry {
	out := make([]WatchEntry, 0, len(r.triggers))
	for g, ch := range r.triggers {
		out = append(out, WatchEntry{GuildID: g, TriggerID: ch})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GuildID < out[j].GuildID })
	return out
}

func hasSpace(s string) bool {
	return strings.IndexFunc(s, unicode.IsSpace) >= 0
}
