package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genudine/ps2-discord-room-bot/internal/core"
	"github.com/genudine/ps2-discord-room-bot/internal/domain"
)

func TestWatchRegistryLookup(t *testing.T) {
	reg, err := NewWatchRegistry([]string{"1:100", " 2 : 200 ", "1:101"})
	require.NoError(t, err)

	ch, ok := reg.Lookup("1")
	assert.True(t, ok)
	assert.Equal(t, domain.ChannelID("101"), ch, "later entry for the same guild wins")

	ch, ok = reg.Lookup("2")
	assert.True(t, ok)
	assert.Equal(t, domain.ChannelID("200"), ch)

	_, ok = reg.Lookup("9")
	assert.False(t, ok)
	assert.Equal(t, 2, reg.Len())
}

func TestWatchRegistryMalformed(t *testing.T) {
	for _, raw := range []string{"1100", ":100", "1:", "", "1:100 2:200", "1 2:100"} {
		t.Run(raw, func(t *testing.T) {
			_, err := NewWatchRegistry([]string{"1:100", raw})
			var ce *core.ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, raw, ce.Value)
		})
	}
}

func TestWatchRegistryRejectsSpaceSeparatedList(t *testing.T) {
	_, err := NewWatchRegistry([]string{"1:100 2:200"})
	assert.ErrorIs(t, err, errSpaceInID)

	reg, err := NewWatchRegistry([]string{" 1:100 ", "2 : 200"})
	require.NoError(t, err, "padding around either id is trimmed")
	ch, ok := reg.Lookup("2")
	assert.True(t, ok)
	assert.Equal(t, domain.ChannelID("200"), ch)
}

func TestWatchRegistryEntriesSorted(t *testing.T) {
	reg, err := NewWatchRegistry([]string{"3:300", "1:100", "2:200"})
	require.NoError(t, err)

	assert.Equal(t, []WatchEntry{
		{GuildID: "1", TriggerID: "100"},
		{GuildID: "2", TriggerID: "200"},
		{GuildID: "3", TriggerID: "300"},
	}, reg.Entries())
}
