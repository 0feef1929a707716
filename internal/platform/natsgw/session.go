package natsgw

import (
	"context"
	"time"

	"github.com/groblegark/mindful/internal/platform"
)

func (c *Client) ReadHistoryOverwrite(ctx context.Context, guildID, channelID, userID int64) (platform.Overwrite, error) {
	const op = "natsgw: read history overwrite"
	reply, err := c.call(ctx, op, "overwrite.get", rpcRequest{GuildID: guildID, ChannelID: channelID, UserID: userID})
	if err != nil {
		return platform.OverwriteNone, err
	}
	o, err := parseOverwrite(reply.Overwrite)
	if err != nil {
		return platform.OverwriteNone, platform.Unexpected(op, err)
	}
	return o, nil
}

func (c *Client) DenyReadHistory(ctx context.Context, guildID, channelID, userID int64, reason string) error {
	_, err := c.call(ctx, "natsgw: deny read history", "overwrite.deny",
		rpcRequest{GuildID: guildID, ChannelID: channelID, UserID: userID, Reason: reason})
	return err
}

func (c *Client) ClearReadHistory(ctx context.Context, guildID, channelID, userID int64, reason string) error {
	_, err := c.call(ctx, "natsgw: clear read history", "overwrite.clear",
		rpcRequest{GuildID: guildID, ChannelID: channelID, UserID: userID, Reason: reason})
	return err
}

func (c *Client) SendDirectMessage(ctx context.Context, userID int64, text string) error {
	_, err := c.call(ctx, "natsgw: send direct message", "dm.send",
		rpcRequest{UserID: userID, Text: text})
	return err
}

func (c *Client) SendChannelNotice(ctx context.Context, guildID, channelID int64, text string, expireAfter time.Duration) error {
	_, err := c.call(ctx, "natsgw: send channel notice", "notice.send",
		rpcRequest{GuildID: guildID, ChannelID: channelID, Text: text, ExpireMS: expireAfter.Milliseconds()})
	return err
}

func (c *Client) Channel(ctx context.Context, guildID, channelID int64) (*platform.Channel, error) {
	const op = "natsgw: resolve channel"
	reply, err := c.call(ctx, op, "channel.get", rpcRequest{GuildID: guildID, ChannelID: channelID})
	if err != nil {
		return nil, err
	}
	if reply.Channel == nil {
		return nil, platform.Unexpected(op, errMissingResult)
	}
	return reply.Channel, nil
}

func (c *Client) Member(ctx context.Context, guildID, userID int64) (*platform.Member, error) {
	const op = "natsgw: resolve member"
	reply, err := c.call(ctx, op, "member.get", rpcRequest{GuildID: guildID, UserID: userID})
	if err != nil {
		return nil, err
	}
	if reply.Member == nil {
		return nil, platform.Unexpected(op, errMissingResult)
	}
	return reply.Member, nil
}

func (c *Client) MemberHasRole(ctx context.Context, guildID, userID int64, roleName string) (bool, error) {
	reply, err := c.call(ctx, "natsgw: check member role", "member.has_role",
		rpcRequest{GuildID: guildID, UserID: userID, RoleName: roleName})
	if err != nil {
		return false, err
	}
	return reply.OK, nil
}

func (c *Client) MemberIsAdmin(ctx context.Context, guildID, userID int64) (bool, error) {
	reply, err := c.call(ctx, "natsgw: check admin", "member.is_admin",
		rpcRequest{GuildID: guildID, UserID: userID})
	if err != nil {
		return false, err
	}
	return reply.OK, nil
}

func (c *Client) MutualGuilds(ctx context.Context, userID int64) ([]int64, error) {
	reply, err := c.call(ctx, "natsgw: list mutual guilds", "guilds.mutual",
		rpcRequest{UserID: userID})
	if err != nil {
		return nil, err
	}
	return reply.IDs, nil
}

func (c *Client) RoleMembers(ctx context.Context, guildID int64, roleName string) ([]int64, error) {
	reply, err := c.call(ctx, "natsgw: list role members", "role.members",
		rpcRequest{GuildID: guildID, RoleName: roleName})
	if err != nil {
		return nil, err
	}
	return reply.IDs, nil
}

func (c *Client) BotCanManageOverwrites(ctx context.Context, guildID, channelID int64) (bool, error) {
	reply, err := c.call(ctx, "natsgw: check overwrite privilege", "bot.can_manage",
		rpcRequest{GuildID: guildID, ChannelID: channelID})
	if err != nil {
		return false, err
	}
	return reply.OK, nil
}
