// Package domain contains entities without logic, just meta-data
package domain

// Discord snowflakes are kept as strings, the form discordgo uses.
type (
	GuildID   string
	ChannelID string
	UserID    string
)
