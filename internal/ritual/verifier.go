package ritual

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/groblegark/mindful/internal/events"
	"github.com/groblegark/mindful/internal/model"
	"github.com/groblegark/mindful/internal/platform"
	"github.com/groblegark/mindful/internal/store"
)

// resendDelay throttles the reply to a mismatched affirmation. Fixed, not
// a backoff; the same pending challenge stays valid for further attempts.
var resendDelay = time.Second

// Verifier matches inbound direct messages against the user's pending
// challenge and, on success, unlocks every gated channel the user can reach.
type Verifier struct {
	store     store.Store
	session   platform.Session
	locks     *LockController
	publisher events.Publisher
	loc       *time.Location
	logger    *slog.Logger

	now func() time.Time // overridable in tests
}

// NewVerifier wires a response verifier. loc is the reference timezone used
// to derive "today".
func NewVerifier(s store.Store, session platform.Session, locks *LockController, publisher events.Publisher, loc *time.Location, logger *slog.Logger) *Verifier {
	return &Verifier{
		store:     s,
		session:   session,
		locks:     locks,
		publisher: publisher,
		loc:       loc,
		logger:    logger,
		now:       time.Now,
	}
}

// Matches reports whether a reply satisfies the expected affirmation:
// surrounding whitespace is ignored and the comparison is case-folded,
// but otherwise the match is exact.
func Matches(reply, expected string) bool {
	return strings.EqualFold(strings.TrimSpace(reply), strings.TrimSpace(expected))
}

// HandleDirectMessage processes one inbound non-command direct message.
// Messages from users with no pending challenge are ignored silently.
func (v *Verifier) HandleDirectMessage(ctx context.Context, ev platform.MessageEvent) {
	today := model.DateOf(v.now().In(v.loc))

	rec, err := v.store.GetVerification(ctx, ev.UserID)
	if err != nil {
		v.logger.Warn("failed to load verification record", "user", ev.UserID, "error", err)
		return
	}

	state, expected := model.Resolve(rec, today)
	if state != model.StatePending {
		return
	}

	if !Matches(ev.Content, expected) {
		// Fixed anti-spam delay, then resend the same challenge unchanged.
		select {
		case <-ctx.Done():
			return
		case <-time.After(resendDelay):
		}
		reply := "❌ That wasn't quite right. Please reply with the exact affirmation:\n\n**" + expected + "**"
		if err := v.session.SendDirectMessage(ctx, ev.UserID, reply); err != nil {
			v.logger.Warn("failed to resend challenge", "user", ev.UserID, "error", err)
		}
		return
	}

	if err := v.store.CompleteVerification(ctx, ev.UserID, today); err != nil {
		v.logger.Warn("failed to complete verification", "user", ev.UserID, "error", err)
		msg := "⚠️ An error occurred while saving your check-in. Please try typing in the channel again later."
		if serr := v.session.SendDirectMessage(ctx, ev.UserID, msg); serr != nil {
			v.logger.Warn("failed to send save-failure notice", "user", ev.UserID, "error", serr)
		}
		return
	}

	cleared := v.unlockEverywhere(ctx, ev.UserID)

	if err := v.publisher.Publish(ctx, events.TopicUserVerified, events.UserVerified{
		UserID:       ev.UserID,
		Day:          today.String(),
		LocksCleared: cleared,
	}); err != nil {
		v.logger.Warn("failed to publish verified event", "user", ev.UserID, "error", err)
	}

	confirmation := "✅ Affirmation complete! Access granted to mindful channels for today. Remember to trade responsibly!"
	if err := v.session.SendDirectMessage(ctx, ev.UserID, confirmation); err != nil {
		v.logger.Warn("failed to send confirmation", "user", ev.UserID, "error", err)
	}

	v.logger.Info("user verified", "user", ev.UserID, "day", today.String(), "locks_cleared", cleared)
}

// unlockEverywhere removes the read lock for the user in every gated
// channel of every shared guild where the bot holds sufficient privilege.
// Channels it cannot unlock are skipped with a warning; there is no retry.
func (v *Verifier) unlockEverywhere(ctx context.Context, userID int64) int {
	guilds, err := v.session.MutualGuilds(ctx, userID)
	if err != nil {
		v.logger.Warn("failed to list mutual guilds", "user", userID, "error", err)
		return 0
	}

	cleared := 0
	for _, guildID := range guilds {
		if _, err := v.session.Member(ctx, guildID, userID); err != nil {
			if !platform.IsNotFound(err) {
				v.logger.Warn("failed to resolve member", "guild", guildID, "user", userID, "error", err)
			}
			continue
		}

		channels, err := v.store.ListGatedChannels(ctx, guildID)
		if err != nil {
			v.logger.Warn("failed to load gated channels", "guild", guildID, "error", err)
			continue
		}

		for _, channelID := range channels {
			if _, err := v.session.Channel(ctx, guildID, channelID); err != nil {
				if platform.IsNotFound(err) {
					v.logger.Warn("gated channel no longer exists", "guild", guildID, "channel", channelID)
				} else {
					v.logger.Warn("failed to resolve gated channel", "guild", guildID, "channel", channelID, "error", err)
				}
				continue
			}

			canManage, err := v.session.BotCanManageOverwrites(ctx, guildID, channelID)
			if err != nil {
				v.logger.Warn("failed to check overwrite permission", "guild", guildID, "channel", channelID, "error", err)
				continue
			}
			if !canManage {
				v.logger.Warn("insufficient privilege to remove lock, skipping", "guild", guildID, "channel", channelID)
				continue
			}

			v.locks.Remove(ctx, guildID, channelID, userID)
			cleared++
		}
	}
	return cleared
}
