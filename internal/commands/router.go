// Package commands implements the prefix-based admin commands for managing
// the gated channel list.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/groblegark/mindful/internal/events"
	"github.com/groblegark/mindful/internal/platform"
	"github.com/groblegark/mindful/internal/ritual"
	"github.com/groblegark/mindful/internal/store"
)

const (
	msgDatabaseError   = "❌ A database error occurred. Please try again later or contact the administrator."
	msgMissingAdmin    = "❌ You do not have permission to use this command (Administrator required)."
	msgUnexpectedError = "An unexpected error occurred while executing the command."
	msgNoChannelsNote  = "ℹ️ No channels are currently configured for the mindful check in this server."
	msgPrunedStaleNote = "*(Note: Some channels were not found and have been removed from the list.)*"
)

// Router parses guild messages that start with the command prefix and
// dispatches the admin commands. All commands require administrator
// permission in the guild.
type Router struct {
	store     store.Store
	session   platform.Session
	locks     *ritual.LockController
	publisher events.Publisher
	prefix    string
	roleName  string
	logger    *slog.Logger
}

// NewRouter wires a command router. roleName is the gating role whose
// holders get lock cleanup when a channel is removed from the list.
func NewRouter(s store.Store, session platform.Session, locks *ritual.LockController, publisher events.Publisher, prefix, roleName string, logger *slog.Logger) *Router {
	return &Router{
		store:     s,
		session:   session,
		locks:     locks,
		publisher: publisher,
		prefix:    prefix,
		roleName:  roleName,
		logger:    logger,
	}
}

// Handles reports whether content looks like a command invocation.
func (r *Router) Handles(content string) bool {
	return strings.HasPrefix(content, r.prefix)
}

// HandleMessage processes one guild message carrying the command prefix.
// Unknown command names are ignored so casual prefix usage stays quiet.
func (r *Router) HandleMessage(ctx context.Context, ev platform.MessageEvent) {
	name, arg := r.parse(ev.Content)
	if name == "" {
		return
	}

	var handler func(ctx context.Context, ev platform.MessageEvent, arg string)
	switch name {
	case "addMindfulChannel":
		handler = r.addChannel
	case "removeMindfulChannel":
		handler = r.removeChannel
	case "listMindfulChannels":
		handler = r.listChannels
	default:
		r.logger.Debug("ignoring unknown command", "name", name, "guild", ev.GuildID, "user", ev.UserID)
		return
	}

	admin, err := r.session.MemberIsAdmin(ctx, ev.GuildID, ev.UserID)
	if err != nil {
		r.logger.Warn("failed to check admin permission", "guild", ev.GuildID, "user", ev.UserID, "error", err)
		r.reply(ctx, ev, msgUnexpectedError)
		return
	}
	if !admin {
		r.reply(ctx, ev, msgMissingAdmin)
		return
	}

	handler(ctx, ev, arg)
}

// parse splits "<prefix><name> [arg]" and returns ("", "") for anything
// that is not a command invocation.
func (r *Router) parse(content string) (name, arg string) {
	if !strings.HasPrefix(content, r.prefix) {
		return "", ""
	}
	rest := strings.TrimSpace(strings.TrimPrefix(content, r.prefix))
	if rest == "" {
		return "", ""
	}
	name, arg, _ = strings.Cut(rest, " ")
	return name, strings.TrimSpace(arg)
}

func (r *Router) addChannel(ctx context.Context, ev platform.MessageEvent, arg string) {
	channelID, ok := parseChannelRef(arg)
	if !ok {
		r.reply(ctx, ev, fmt.Sprintf("❌ Missing argument. Usage: `%saddMindfulChannel #channel`", r.prefix))
		return
	}

	ch, err := r.session.Channel(ctx, ev.GuildID, channelID)
	if err != nil {
		if platform.IsNotFound(err) {
			r.reply(ctx, ev, fmt.Sprintf("❌ Channel not found: %s", arg))
		} else {
			r.logger.Warn("failed to resolve channel", "guild", ev.GuildID, "channel", channelID, "error", err)
			r.reply(ctx, ev, msgUnexpectedError)
		}
		return
	}

	if err := r.store.AddGatedChannel(ctx, ev.GuildID, channelID); err != nil {
		r.logger.Error("failed to add gated channel", "guild", ev.GuildID, "channel", channelID, "error", err)
		r.reply(ctx, ev, msgDatabaseError)
		return
	}

	if err := r.publisher.Publish(ctx, events.TopicChannelAdded, events.ChannelAdded{
		GuildID:   ev.GuildID,
		ChannelID: channelID,
	}); err != nil {
		r.logger.Warn("failed to publish channel added event", "channel", channelID, "error", err)
	}

	r.logger.Info("channel added to gate list", "guild", ev.GuildID, "channel", channelID, "admin", ev.UserID)
	r.reply(ctx, ev, fmt.Sprintf("✅ Channel #%s added to the mindful check list.", ch.Name))
}

func (r *Router) removeChannel(ctx context.Context, ev platform.MessageEvent, arg string) {
	channelID, ok := parseChannelRef(arg)
	if !ok {
		r.reply(ctx, ev, fmt.Sprintf("❌ Missing argument. Usage: `%sremoveMindfulChannel #channel`", r.prefix))
		return
	}

	ch, err := r.session.Channel(ctx, ev.GuildID, channelID)
	if err != nil {
		if platform.IsNotFound(err) {
			r.reply(ctx, ev, fmt.Sprintf("❌ Channel not found: %s", arg))
		} else {
			r.logger.Warn("failed to resolve channel", "guild", ev.GuildID, "channel", channelID, "error", err)
			r.reply(ctx, ev, msgUnexpectedError)
		}
		return
	}

	removed, err := r.store.RemoveGatedChannel(ctx, ev.GuildID, channelID)
	if err != nil {
		r.logger.Error("failed to remove gated channel", "guild", ev.GuildID, "channel", channelID, "error", err)
		r.reply(ctx, ev, msgDatabaseError)
		return
	}
	if !removed {
		r.reply(ctx, ev, fmt.Sprintf("ℹ️ Channel #%s was not found on the mindful check list.", ch.Name))
		return
	}

	if err := r.publisher.Publish(ctx, events.TopicChannelRemoved, events.ChannelRemoved{
		GuildID:   ev.GuildID,
		ChannelID: channelID,
	}); err != nil {
		r.logger.Warn("failed to publish channel removed event", "channel", channelID, "error", err)
	}

	r.logger.Info("channel removed from gate list", "guild", ev.GuildID, "channel", channelID, "admin", ev.UserID)
	r.reply(ctx, ev, fmt.Sprintf("✅ Channel #%s removed from the mindful check list.", ch.Name))

	r.cleanupLocks(ctx, ev.GuildID, channelID)
}

// cleanupLocks removes the read lock for every current role holder in a
// channel that just left the gate list. Best effort; failures are logged
// and the removal reply stands.
func (r *Router) cleanupLocks(ctx context.Context, guildID, channelID int64) {
	canManage, err := r.session.BotCanManageOverwrites(ctx, guildID, channelID)
	if err != nil {
		r.logger.Warn("failed to check overwrite permission", "guild", guildID, "channel", channelID, "error", err)
		return
	}
	if !canManage {
		r.logger.Warn("insufficient privilege to clean up locks on removal", "guild", guildID, "channel", channelID)
		return
	}

	members, err := r.session.RoleMembers(ctx, guildID, r.roleName)
	if err != nil {
		r.logger.Warn("failed to list role members for cleanup", "guild", guildID, "role", r.roleName, "error", err)
		return
	}
	for _, userID := range members {
		r.locks.Remove(ctx, guildID, channelID, userID)
	}
	r.logger.Info("cleaned up locks after removal", "guild", guildID, "channel", channelID, "members", len(members))
}

func (r *Router) listChannels(ctx context.Context, ev platform.MessageEvent, _ string) {
	channels, err := r.store.ListGatedChannels(ctx, ev.GuildID)
	if err != nil {
		r.logger.Error("failed to list gated channels", "guild", ev.GuildID, "error", err)
		r.reply(ctx, ev, msgDatabaseError)
		return
	}
	if len(channels) == 0 {
		r.reply(ctx, ev, msgNoChannelsNote)
		return
	}

	var lines []string
	var valid []int64
	for _, channelID := range channels {
		ch, err := r.session.Channel(ctx, ev.GuildID, channelID)
		switch {
		case err == nil:
			lines = append(lines, "#"+ch.Name)
			valid = append(valid, channelID)
		case platform.IsNotFound(err):
			lines = append(lines, fmt.Sprintf("*(ID: %d - not found / deleted?)*", channelID))
		default:
			// Transient resolution failure must not prune the channel.
			r.logger.Warn("failed to resolve gated channel", "guild", ev.GuildID, "channel", channelID, "error", err)
			lines = append(lines, fmt.Sprintf("*(ID: %d - unresolvable)*", channelID))
			valid = append(valid, channelID)
		}
	}

	r.reply(ctx, ev, "Channels currently requiring the daily mindful check:\n- "+strings.Join(lines, "\n- "))

	if len(valid) == len(channels) {
		return
	}
	if err := r.store.ReplaceGatedChannels(ctx, ev.GuildID, valid); err != nil {
		r.logger.Error("failed to prune deleted channels", "guild", ev.GuildID, "error", err)
		return
	}
	r.logger.Info("pruned deleted channels from gate list", "guild", ev.GuildID, "kept", len(valid), "dropped", len(channels)-len(valid))
	r.reply(ctx, ev, msgPrunedStaleNote)
}

func (r *Router) reply(ctx context.Context, ev platform.MessageEvent, text string) {
	if err := r.session.SendChannelNotice(ctx, ev.GuildID, ev.ChannelID, text, 0); err != nil {
		r.logger.Warn("failed to send command reply", "guild", ev.GuildID, "channel", ev.ChannelID, "error", err)
	}
}

// parseChannelRef accepts a channel mention of the form <#123456789> or a
// bare numeric channel ID.
func parseChannelRef(arg string) (int64, bool) {
	s := arg
	if strings.HasPrefix(s, "<#") && strings.HasSuffix(s, ">") {
		s = s[2 : len(s)-1]
	}
	s = strings.TrimPrefix(s, "#")
	if s == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
