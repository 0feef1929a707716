// Package platform defines the boundary to the external chat platform.
//
// The bot never talks to the platform directly; it issues actions through a
// Session and receives events through a Gateway. Implementations normalize
// collaborator failures to the closed error kinds in errors.go so callers
// can dispatch on kind rather than on transport-specific error types.
package platform

import (
	"context"
	"time"
)

// Channel identifies a text channel within a guild.
type Channel struct {
	GuildID   int64  `json:"guild_id"`
	ChannelID int64  `json:"channel_id"`
	Name      string `json:"name"`
}

// Member is a user's membership in a guild.
type Member struct {
	GuildID     int64  `json:"guild_id"`
	UserID      int64  `json:"user_id"`
	DisplayName string `json:"display_name"`
}

// Overwrite describes the state of the per-user read-history permission
// overwrite on a channel.
type Overwrite int

const (
	// OverwriteNone means no per-user overwrite is set.
	OverwriteNone Overwrite = iota
	// OverwriteDenyHistory means exactly the deny-read-history overwrite
	// this bot applies is set.
	OverwriteDenyHistory
	// OverwriteOther means some other overwrite is set; the bot must not
	// disturb it.
	OverwriteOther
)

// String returns the string representation of the overwrite state.
func (o Overwrite) String() string {
	switch o {
	case OverwriteDenyHistory:
		return "deny-history"
	case OverwriteOther:
		return "other"
	default:
		return "none"
	}
}

// Session issues outbound actions against the chat platform. All calls are
// remote and may block on the network; every method takes a context and
// returns errors normalized to the platform error kinds.
type Session interface {
	// ReadHistoryOverwrite reports the current per-user read-history
	// overwrite on a channel.
	ReadHistoryOverwrite(ctx context.Context, guildID, channelID, userID int64) (Overwrite, error)

	// DenyReadHistory sets the deny-read-history overwrite for a user on a
	// channel. Setting an overwrite that is already present is not an error.
	DenyReadHistory(ctx context.Context, guildID, channelID, userID int64, reason string) error

	// ClearReadHistory removes the per-user read-history overwrite.
	// Clearing an absent overwrite is not an error.
	ClearReadHistory(ctx context.Context, guildID, channelID, userID int64, reason string) error

	// SendDirectMessage delivers text to a user's direct-message channel.
	SendDirectMessage(ctx context.Context, userID int64, text string) error

	// SendChannelNotice posts text to a guild channel. A non-zero
	// expireAfter asks the platform to delete the message after that long.
	SendChannelNotice(ctx context.Context, guildID, channelID int64, text string, expireAfter time.Duration) error

	// Channel resolves a channel, returning a NotFound error when it no
	// longer exists.
	Channel(ctx context.Context, guildID, channelID int64) (*Channel, error)

	// Member resolves a guild member, returning a NotFound error when the
	// user is not (or no longer) in the guild.
	Member(ctx context.Context, guildID, userID int64) (*Member, error)

	// MemberHasRole reports whether a guild member holds the named role.
	MemberHasRole(ctx context.Context, guildID, userID int64, roleName string) (bool, error)

	// MemberIsAdmin reports whether a guild member has administrator
	// permission.
	MemberIsAdmin(ctx context.Context, guildID, userID int64) (bool, error)

	// MutualGuilds lists the guilds shared by the bot and the given user.
	MutualGuilds(ctx context.Context, userID int64) ([]int64, error)

	// RoleMembers lists the user IDs of all members holding the named role.
	RoleMembers(ctx context.Context, guildID int64, roleName string) ([]int64, error)

	// BotCanManageOverwrites reports whether the bot holds sufficient
	// privilege to change permission overwrites in a channel.
	BotCanManageOverwrites(ctx context.Context, guildID, channelID int64) (bool, error)
}

// Gateway delivers the inbound platform event stream.
type Gateway interface {
	// Subscribe returns a channel of platform events. The channel is closed
	// when ctx is cancelled or the underlying transport shuts down.
	Subscribe(ctx context.Context) (<-chan Event, error)

	// Close tears down the gateway connection.
	Close() error
}
