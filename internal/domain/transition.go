package domain

// VoiceTransition is one reported change of a user's voice membership.
// An empty channel ID means "not in a channel".
type VoiceTransition struct {
	GuildID           GuildID
	UserID            UserID
	DisplayName       string
	PreviousChannelID ChannelID
	NewChannelID      ChannelID
}

// Disconnected reports whether the user left voice entirely.
func (t VoiceTransition) Disconnected() bool { return t.NewChannelID == "" }

func (t VoiceTransition) HasPrevious() bool { return t.PreviousChannelID != "" }

// Switched reports a move between two different channels.
func (t VoiceTransition) Switched() bool {
	return t.HasPrevious() && t.PreviousChannelID != t.NewChannelID
}
