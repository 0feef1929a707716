// Package natsgw implements the platform boundary over a NATS bridge.
//
// A separate adapter process holds the actual chat-platform connection and
// exposes it on the bus: inbound gateway events are published as JSON on
// gateway.event.<type>, and session actions are served via request/reply on
// gateway.rpc.<method>. Every request carries the bot token so the adapter
// can reject strays.
package natsgw

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/groblegark/mindful/internal/events"
	"github.com/groblegark/mindful/internal/platform"
)

const (
	subjectEventWildcard = "gateway.event.>"
	subjectRPCPrefix     = "gateway.rpc."

	defaultRPCTimeout = 10 * time.Second
)

// Client is a platform.Session and platform.Gateway speaking to the bridge
// adapter over NATS. RPCs go over conn; the inbound event stream rides an
// events.Subscriber so callback teardown is handled in one place.
type Client struct {
	conn    *nats.Conn
	stream  events.Subscriber
	token   string
	timeout time.Duration
	logger  *slog.Logger
}

// Compile-time checks.
var (
	_ platform.Session = (*Client)(nil)
	_ platform.Gateway = (*Client)(nil)
)

// Dial connects to the bus. token is the bot credential forwarded on every
// request.
func Dial(url, token string, logger *slog.Logger) (*Client, error) {
	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	stream, err := events.NewNATSSubscriber(url)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("connecting event stream: %w", err)
	}
	return &Client{
		conn:    nc,
		stream:  stream,
		token:   token,
		timeout: defaultRPCTimeout,
		logger:  logger,
	}, nil
}

// Close terminates the bus connections. Any active Subscribe stream ends.
func (c *Client) Close() error {
	_ = c.stream.Close()
	c.conn.Close()
	return nil
}

// Subscribe delivers gateway events until ctx is canceled. Unknown event
// types are logged and skipped so adapter upgrades don't break the loop.
func (c *Client) Subscribe(ctx context.Context) (<-chan platform.Event, error) {
	raw, cancelSub, err := c.stream.Subscribe(subjectEventWildcard)
	if err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", subjectEventWildcard, err)
	}

	// Only this goroutine ever sends on or closes out; the subscriber's
	// cancel func handles the callback handshake on the raw channel.
	out := make(chan platform.Event, 64)
	go func() {
		defer close(out)
		defer cancelSub()
		for {
			select {
			case <-ctx.Done():
				return
			case data, ok := <-raw:
				if !ok {
					return
				}
				ev, err := decodeEvent(data)
				if err != nil {
					c.logger.Warn("dropping malformed gateway event", "error", err)
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// call performs one request/reply RPC and normalizes failures to platform
// error kinds.
func (c *Client) call(ctx context.Context, op, method string, req rpcRequest) (*rpcReply, error) {
	req.Token = c.token
	data, err := json.Marshal(req)
	if err != nil {
		return nil, platform.Unexpected(op, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	msg, err := c.conn.RequestWithContext(ctx, subjectRPCPrefix+method, data)
	if err != nil {
		if errors.Is(err, nats.ErrNoResponders) || errors.Is(err, context.DeadlineExceeded) {
			return nil, platform.Transient(op, err)
		}
		return nil, platform.Unexpected(op, err)
	}

	var reply rpcReply
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		return nil, platform.Unexpected(op, fmt.Errorf("decoding reply: %w", err))
	}
	if reply.Error != nil {
		return nil, reply.Error.toPlatform(op)
	}
	return &reply, nil
}
