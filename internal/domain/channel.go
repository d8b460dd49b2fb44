package domain

type ChannelKind int

const (
	KindOther ChannelKind = iota
	KindVoice
	KindCategory
)

func (k ChannelKind) String() string {
	switch k {
	case KindVoice:
		return "voice"
	case KindCategory:
		return "category"
	default:
		return "other"
	}
}

// Channel is a platform-owned channel as fetched on demand.
// Occupancy is not part of it; ask the gateway each time.
type Channel struct {
	ID       ChannelID   `json:"id"`
	GuildID  GuildID     `json:"guild_id"`
	Kind     ChannelKind `json:"kind"`
	ParentID ChannelID   `json:"parent_id,omitempty"`
	Name     string      `json:"name"`
}

func (c *Channel) IsVoice() bool    { return c.Kind == KindVoice }
func (c *Channel) IsCategory() bool { return c.Kind == KindCategory }
func (c *Channel) HasParent() bool  { return c.ParentID != "" }
