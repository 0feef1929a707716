package platform

// Event is a platform gateway event. The concrete types below form the
// closed set the bot dispatches on.
type Event interface {
	eventType() string
}

// ReadyEvent is emitted once the gateway session is fully established.
type ReadyEvent struct {
	BotUserID int64 `json:"bot_user_id"`
}

func (ReadyEvent) eventType() string { return "ready" }

// TypingEvent signals that a user started composing input in a guild channel.
type TypingEvent struct {
	GuildID   int64 `json:"guild_id"`
	ChannelID int64 `json:"channel_id"`
	UserID    int64 `json:"user_id"`
}

func (TypingEvent) eventType() string { return "typing" }

// MessageEvent is an inbound message. GuildID is zero for direct messages.
type MessageEvent struct {
	GuildID   int64  `json:"guild_id,omitempty"`
	ChannelID int64  `json:"channel_id"`
	UserID    int64  `json:"user_id"`
	Content   string `json:"content"`
}

func (MessageEvent) eventType() string { return "message" }

// Direct reports whether the message arrived over a direct-message channel.
func (m MessageEvent) Direct() bool {
	return m.GuildID == 0
}
