package store

import (
	"context"

	"github.com/groblegark/mindful/internal/model"
)

// Store defines the persistence interface for the check-in ritual.
type Store interface {
	// Gated channels
	AddGatedChannel(ctx context.Context, guildID, channelID int64) error // idempotent
	RemoveGatedChannel(ctx context.Context, guildID, channelID int64) (bool, error) // reports whether a row was deleted
	ListGatedChannels(ctx context.Context, guildID int64) ([]int64, error)
	ListAllGatedChannels(ctx context.Context) ([]*model.GatedChannel, error)
	// ReplaceGatedChannels atomically swaps a guild's gate list for the
	// given channel IDs. Used by the self-healing list command to prune
	// channels that no longer resolve.
	ReplaceGatedChannels(ctx context.Context, guildID int64, channelIDs []int64) error

	// User verifications
	GetVerification(ctx context.Context, userID int64) (*model.UserVerification, error) // nil, nil when no record
	SetPending(ctx context.Context, userID int64, day model.Date, affirmation string) error // unconditional upsert
	CompleteVerification(ctx context.Context, userID int64, day model.Date) error
	DeleteVerification(ctx context.Context, userID int64) error
	// ClearStale deletes every record whose date differs from today and
	// returns the count deleted.
	ClearStale(ctx context.Context, today model.Date) (int64, error)
	ListVerifications(ctx context.Context) ([]*model.UserVerification, error)

	// Transaction support
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Lifecycle
	Close() error
}
