package events

import (
	"context"
)

// Event topic constants
const (
	TopicChallengeIssued = "mindful.challenge.issued"
	TopicUserVerified    = "mindful.user.verified"
	TopicResetCompleted  = "mindful.reset.completed"
	TopicChannelAdded    = "mindful.channel.added"
	TopicChannelRemoved  = "mindful.channel.removed"
)

// Event types

type ChallengeIssued struct {
	IssuanceID string `json:"issuance_id"`
	UserID     int64  `json:"user_id"`
	GuildID    int64  `json:"guild_id"`
	ChannelID  int64  `json:"channel_id"`
	Day        string `json:"day"`
}

type UserVerified struct {
	UserID       int64  `json:"user_id"`
	Day          string `json:"day"`
	LocksCleared int    `json:"locks_cleared"`
}

type ResetCompleted struct {
	Day     string `json:"day"`
	Cleared int64  `json:"cleared"`
}

type ChannelAdded struct {
	GuildID   int64 `json:"guild_id"`
	ChannelID int64 `json:"channel_id"`
}

type ChannelRemoved struct {
	GuildID   int64 `json:"guild_id"`
	ChannelID int64 `json:"channel_id"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
