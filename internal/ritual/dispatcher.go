package ritual

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/groblegark/mindful/internal/events"
	"github.com/groblegark/mindful/internal/idgen"
	"github.com/groblegark/mindful/internal/model"
	"github.com/groblegark/mindful/internal/platform"
	"github.com/groblegark/mindful/internal/store"
)

// noticeExpiry is how long the in-channel check-in notice stays visible.
const noticeExpiry = 60 * time.Second

// Dispatcher reacts to activity signals in gated channels: when a
// role-holding user with no live verification starts composing, it issues
// a challenge, locks the channel, and delivers the challenge by direct
// message.
type Dispatcher struct {
	store        store.Store
	session      platform.Session
	locks        *LockController
	affirmations *Affirmations
	publisher    events.Publisher
	roleName     string
	loc          *time.Location
	logger       *slog.Logger

	now func() time.Time // overridable in tests
}

// NewDispatcher wires a challenge dispatcher. loc is the reference timezone
// used to derive "today".
func NewDispatcher(s store.Store, session platform.Session, locks *LockController, affirmations *Affirmations, publisher events.Publisher, roleName string, loc *time.Location, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		store:        s,
		session:      session,
		locks:        locks,
		affirmations: affirmations,
		publisher:    publisher,
		roleName:     roleName,
		loc:          loc,
		logger:       logger,
		now:          time.Now,
	}
}

func (d *Dispatcher) today() model.Date {
	return model.DateOf(d.now().In(d.loc))
}

// HandleTyping processes one activity signal. Failures never propagate;
// the next signal is the retry.
func (d *Dispatcher) HandleTyping(ctx context.Context, ev platform.TypingEvent) {
	channels, err := d.store.ListGatedChannels(ctx, ev.GuildID)
	if err != nil {
		d.logger.Warn("failed to load gated channels", "guild", ev.GuildID, "error", err)
		return
	}
	if !slices.Contains(channels, ev.ChannelID) {
		return
	}

	hasRole, err := d.session.MemberHasRole(ctx, ev.GuildID, ev.UserID, d.roleName)
	if err != nil {
		d.logger.Warn("failed to check gating role", "guild", ev.GuildID, "user", ev.UserID, "error", err)
		return
	}
	if !hasRole {
		return
	}

	// "Today" is derived once so the whole signal sees one consistent day
	// even across a midnight boundary.
	today := d.today()

	rec, err := d.store.GetVerification(ctx, ev.UserID)
	if err != nil {
		d.logger.Warn("failed to load verification record", "user", ev.UserID, "error", err)
		return
	}

	switch state, _ := model.Resolve(rec, today); state {
	case model.StateVerified:
		return
	case model.StatePending:
		// The challenge is still outstanding. Re-apply the lock in case
		// the overwrite was removed out of band; do not reissue or resend.
		d.locks.Apply(ctx, ev.GuildID, ev.ChannelID, ev.UserID)
		return
	}

	d.issue(ctx, ev, today)
}

func (d *Dispatcher) issue(ctx context.Context, ev platform.TypingEvent, today model.Date) {
	phrase := d.affirmations.Pick()

	issuanceID, err := idgen.Generate()
	if err != nil {
		d.logger.Warn("failed to generate issuance id", "error", err)
		issuanceID = "mc-unknown"
	}

	if err := d.store.SetPending(ctx, ev.UserID, today, phrase); err != nil {
		d.logger.Warn("failed to persist pending challenge", "issuance", issuanceID, "user", ev.UserID, "error", err)
		return
	}

	d.locks.Apply(ctx, ev.GuildID, ev.ChannelID, ev.UserID)

	if err := d.session.SendDirectMessage(ctx, ev.UserID, d.challengeText(ctx, ev, phrase)); err != nil {
		// Fail-locked: drop the pending row so the user is not stuck in
		// pending with no way to respond, but leave the lock applied. The
		// next activity signal re-triggers issuance.
		if platform.IsPermissionDenied(err) {
			d.logger.Warn("could not deliver challenge, user may have direct messages disabled", "issuance", issuanceID, "user", ev.UserID)
		} else {
			d.logger.Warn("failed to deliver challenge", "issuance", issuanceID, "user", ev.UserID, "error", err)
		}
		if derr := d.store.DeleteVerification(ctx, ev.UserID); derr != nil {
			d.logger.Warn("failed to roll back pending challenge", "issuance", issuanceID, "user", ev.UserID, "error", derr)
		}
		return
	}

	notice := "\U0001F512 Reading and interacting in this channel requires a quick daily check-in. Please check your direct messages to complete your affirmation."
	if err := d.session.SendChannelNotice(ctx, ev.GuildID, ev.ChannelID, notice, noticeExpiry); err != nil {
		d.logger.Warn("could not post check-in notice", "guild", ev.GuildID, "channel", ev.ChannelID, "error", err)
	}

	if err := d.publisher.Publish(ctx, events.TopicChallengeIssued, events.ChallengeIssued{
		IssuanceID: issuanceID,
		UserID:     ev.UserID,
		GuildID:    ev.GuildID,
		ChannelID:  ev.ChannelID,
		Day:        today.String(),
	}); err != nil {
		d.logger.Warn("failed to publish challenge event", "issuance", issuanceID, "error", err)
	}

	d.logger.Info("challenge issued", "issuance", issuanceID, "user", ev.UserID, "guild", ev.GuildID, "channel", ev.ChannelID)
}

// challengeText builds the direct-message challenge. Member and channel
// lookups are cosmetic; failures fall back to generic wording.
func (d *Dispatcher) challengeText(ctx context.Context, ev platform.TypingEvent, phrase string) string {
	name := "there"
	if m, err := d.session.Member(ctx, ev.GuildID, ev.UserID); err == nil && m.DisplayName != "" {
		name = m.DisplayName
	}
	channelRef := "the mindful channels"
	if ch, err := d.session.Channel(ctx, ev.GuildID, ev.ChannelID); err == nil && ch.Name != "" {
		channelRef = fmt.Sprintf("mindful channels like `#%s`", ch.Name)
	}
	return fmt.Sprintf("Hi %s! To unlock reading %s for today, please reply with the following affirmation:\n\n**%s**", name, channelRef, phrase)
}
