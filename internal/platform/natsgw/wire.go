package natsgw

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/groblegark/mindful/internal/platform"
)

// eventEnvelope is the JSON body published by the adapter on
// gateway.event.<type>.
type eventEnvelope struct {
	Type      string `json:"type"`
	BotUserID int64  `json:"bot_user_id,omitempty"`
	GuildID   int64  `json:"guild_id,omitempty"`
	ChannelID int64  `json:"channel_id,omitempty"`
	UserID    int64  `json:"user_id,omitempty"`
	Content   string `json:"content,omitempty"`
}

func decodeEvent(data []byte) (platform.Event, error) {
	var env eventEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decoding event envelope: %w", err)
	}
	switch env.Type {
	case "ready":
		return platform.ReadyEvent{BotUserID: env.BotUserID}, nil
	case "typing":
		return platform.TypingEvent{GuildID: env.GuildID, ChannelID: env.ChannelID, UserID: env.UserID}, nil
	case "message":
		return platform.MessageEvent{GuildID: env.GuildID, ChannelID: env.ChannelID, UserID: env.UserID, Content: env.Content}, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", env.Type)
	}
}

// rpcRequest is the superset request body for gateway.rpc.<method>. Methods
// read only the fields they need; Token is filled in by the client.
type rpcRequest struct {
	Token     string `json:"token"`
	GuildID   int64  `json:"guild_id,omitempty"`
	ChannelID int64  `json:"channel_id,omitempty"`
	UserID    int64  `json:"user_id,omitempty"`
	RoleName  string `json:"role_name,omitempty"`
	Text      string `json:"text,omitempty"`
	Reason    string `json:"reason,omitempty"`
	ExpireMS  int64  `json:"expire_ms,omitempty"`
}

// rpcReply is the adapter's response envelope. Exactly one result field is
// populated on success, matching the method.
type rpcReply struct {
	Error *rpcError `json:"error,omitempty"`

	Overwrite string            `json:"overwrite,omitempty"`
	Channel   *platform.Channel `json:"channel,omitempty"`
	Member    *platform.Member  `json:"member,omitempty"`
	OK        bool              `json:"ok,omitempty"`
	IDs       []int64           `json:"ids,omitempty"`
}

// errMissingResult reports a success reply missing its result field.
var errMissingResult = errors.New("adapter reply missing result")

// rpcError carries a classified failure from the adapter. Kind strings
// mirror platform.Kind.String().
type rpcError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (e *rpcError) toPlatform(op string) error {
	err := errors.New(e.Message)
	switch e.Kind {
	case "permission-denied":
		return platform.PermissionDenied(op, err)
	case "not-found":
		return platform.NotFound(op, err)
	case "transient":
		return platform.Transient(op, err)
	default:
		return platform.Unexpected(op, err)
	}
}

func parseOverwrite(s string) (platform.Overwrite, error) {
	switch s {
	case "none", "":
		return platform.OverwriteNone, nil
	case "deny-history":
		return platform.OverwriteDenyHistory, nil
	case "other":
		return platform.OverwriteOther, nil
	default:
		return platform.OverwriteNone, fmt.Errorf("unknown overwrite %q", s)
	}
}
