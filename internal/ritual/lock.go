package ritual

import (
	"context"
	"log/slog"

	"github.com/groblegark/mindful/internal/platform"
)

// Overwrite reasons shown in the platform's audit log.
const (
	lockReason   = "Mindful check pending"
	unlockReason = "Mindful check complete"
)

// LockController applies and removes the per-user deny-read-history
// overwrite on gated channels. Both operations are idempotent and never
// propagate platform failures: the ritual degrades to "channel stays
// locked" rather than crashing an event handler.
type LockController struct {
	session platform.Session
	logger  *slog.Logger
}

// NewLockController returns a lock controller issuing actions through the
// given session.
func NewLockController(session platform.Session, logger *slog.Logger) *LockController {
	return &LockController{session: session, logger: logger}
}

// Apply sets the deny-read-history overwrite for a user on a channel.
// Safe to call when the overwrite is already present.
func (l *LockController) Apply(ctx context.Context, guildID, channelID, userID int64) {
	err := l.session.DenyReadHistory(ctx, guildID, channelID, userID, lockReason)
	if err == nil {
		l.logger.Debug("applied read lock", "guild", guildID, "channel", channelID, "user", userID)
		return
	}
	switch platform.KindOf(err) {
	case platform.KindPermissionDenied:
		l.logger.Warn("cannot set overwrite, insufficient privilege", "guild", guildID, "channel", channelID, "error", err)
	case platform.KindNotFound:
		l.logger.Warn("user or channel vanished while applying lock", "guild", guildID, "channel", channelID, "user", userID)
	default:
		l.logger.Warn("failed to apply read lock", "guild", guildID, "channel", channelID, "user", userID, "error", err)
	}
}

// Remove clears the overwrite only when it is currently exactly the
// deny-read-history one; overwrites set for other reasons are left alone.
// Removing an absent lock is a no-op.
func (l *LockController) Remove(ctx context.Context, guildID, channelID, userID int64) {
	current, err := l.session.ReadHistoryOverwrite(ctx, guildID, channelID, userID)
	if err != nil {
		l.logger.Warn("failed to read overwrite state", "guild", guildID, "channel", channelID, "user", userID, "error", err)
		return
	}
	if current != platform.OverwriteDenyHistory {
		return
	}

	err = l.session.ClearReadHistory(ctx, guildID, channelID, userID, unlockReason)
	if err == nil {
		l.logger.Debug("removed read lock", "guild", guildID, "channel", channelID, "user", userID)
		return
	}
	switch platform.KindOf(err) {
	case platform.KindPermissionDenied:
		l.logger.Warn("cannot clear overwrite, insufficient privilege", "guild", guildID, "channel", channelID, "error", err)
	case platform.KindNotFound:
		l.logger.Warn("user or channel vanished while removing lock", "guild", guildID, "channel", channelID, "user", userID)
	default:
		l.logger.Warn("failed to remove read lock", "guild", guildID, "channel", channelID, "user", userID, "error", err)
	}
}
