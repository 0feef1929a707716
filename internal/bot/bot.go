// Package bot runs the gateway event loop and routes events to the ritual
// and command layers.
package bot

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/groblegark/mindful/internal/commands"
	"github.com/groblegark/mindful/internal/platform"
	"github.com/groblegark/mindful/internal/ritual"
)

// Status is the bot's lifecycle state as reported on the health surface.
type Status string

const (
	StatusInitializing Status = "initializing"
	StatusLoggedIn     Status = "logged_in_not_ready"
	StatusRunning      Status = "running"
)

// Bot consumes gateway events and fans them out to the dispatcher, verifier
// and command router. Each event is handled on its own goroutine so one slow
// store call cannot stall the stream; handlers must tolerate reordering.
type Bot struct {
	gateway    platform.Gateway
	dispatcher *ritual.Dispatcher
	verifier   *ritual.Verifier
	router     *commands.Router
	logger     *slog.Logger

	mu        sync.Mutex
	status    Status
	botUserID int64

	wg sync.WaitGroup
}

// New wires the event loop. Run must be called to start consuming.
func New(gateway platform.Gateway, dispatcher *ritual.Dispatcher, verifier *ritual.Verifier, router *commands.Router, logger *slog.Logger) *Bot {
	return &Bot{
		gateway:    gateway,
		dispatcher: dispatcher,
		verifier:   verifier,
		router:     router,
		logger:     logger,
		status:     StatusInitializing,
	}
}

// Status returns the current lifecycle status string.
func (b *Bot) Status() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.status)
}

func (b *Bot) setStatus(s Status) {
	b.mu.Lock()
	b.status = s
	b.mu.Unlock()
}

// Run consumes the gateway stream until ctx is canceled or the stream
// closes. It waits for in-flight handlers before returning.
func (b *Bot) Run(ctx context.Context) error {
	events, err := b.gateway.Subscribe(ctx)
	if err != nil {
		return err
	}
	b.setStatus(StatusLoggedIn)
	b.logger.Info("gateway connected, waiting for ready")

	defer b.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				b.logger.Info("gateway stream closed")
				return nil
			}
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				defer b.recoverPanic()
				b.handle(ctx, ev)
			}()
		}
	}
}

// recoverPanic keeps one faulty handler from taking down the loop.
func (b *Bot) recoverPanic() {
	if r := recover(); r != nil {
		b.logger.Error("panic in event handler", "panic", r, "stack", string(debug.Stack()))
	}
}

func (b *Bot) handle(ctx context.Context, ev platform.Event) {
	switch e := ev.(type) {
	case platform.ReadyEvent:
		b.mu.Lock()
		b.botUserID = e.BotUserID
		b.status = StatusRunning
		b.mu.Unlock()
		b.logger.Info("bot ready", "bot_user", e.BotUserID)

	case platform.TypingEvent:
		if b.isSelf(e.UserID) {
			return
		}
		b.dispatcher.HandleTyping(ctx, e)

	case platform.MessageEvent:
		if b.isSelf(e.UserID) {
			return
		}
		if e.Direct() {
			// Command syntax is guild-only; prefixed DMs are not
			// treated as affirmation replies either.
			if !b.router.Handles(e.Content) {
				b.verifier.HandleDirectMessage(ctx, e)
			}
			return
		}
		if b.router.Handles(e.Content) {
			b.router.HandleMessage(ctx, e)
		}

	default:
		b.logger.Debug("ignoring unhandled gateway event", "type", ev)
	}
}

func (b *Bot) isSelf(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.botUserID != 0 && userID == b.botUserID
}
