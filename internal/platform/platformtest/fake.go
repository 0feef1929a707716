// Package platformtest provides an in-memory platform.Session and
// platform.Gateway for tests.
package platformtest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/groblegark/mindful/internal/platform"
)

type overwriteKey struct {
	guild, channel, user int64
}

type channelKey struct {
	guild, channel int64
}

type memberKey struct {
	guild, user int64
}

type memberInfo struct {
	displayName string
	roles       map[string]bool
	admin       bool
}

// Notice records a call to SendChannelNotice.
type Notice struct {
	GuildID     int64
	ChannelID   int64
	Text        string
	ExpireAfter time.Duration
}

// Fake is an in-memory Session and Gateway. The zero value is not usable;
// call New.
type Fake struct {
	mu         sync.Mutex
	channels   map[channelKey]string // name by (guild, channel)
	members    map[memberKey]*memberInfo
	overwrites map[overwriteKey]platform.Overwrite
	dms        map[int64][]string
	notices    []Notice
	noManage   map[channelKey]bool

	// DMFail injects a per-user SendDirectMessage failure.
	DMFail map[int64]error
	// Err, when set, fails every Session call with it.
	Err error

	events chan platform.Event
	closed bool
}

// New returns an empty fake with a buffered event stream.
func New() *Fake {
	return &Fake{
		channels:   make(map[channelKey]string),
		members:    make(map[memberKey]*memberInfo),
		overwrites: make(map[overwriteKey]platform.Overwrite),
		dms:        make(map[int64][]string),
		noManage:   make(map[channelKey]bool),
		DMFail:     make(map[int64]error),
		events:     make(chan platform.Event, 64),
	}
}

// AddChannel registers a guild channel.
func (f *Fake) AddChannel(guildID, channelID int64, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channels[channelKey{guildID, channelID}] = name
}

// RemoveChannel deletes a guild channel, as if it were deleted on the platform.
func (f *Fake) RemoveChannel(guildID, channelID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.channels, channelKey{guildID, channelID})
}

// AddMember registers a guild member with the given roles.
func (f *Fake) AddMember(guildID, userID int64, displayName string, roles ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := &memberInfo{displayName: displayName, roles: make(map[string]bool)}
	for _, r := range roles {
		m.roles[r] = true
	}
	f.members[memberKey{guildID, userID}] = m
}

// MakeAdmin grants a member administrator permission.
func (f *Fake) MakeAdmin(guildID, userID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m := f.members[memberKey{guildID, userID}]; m != nil {
		m.admin = true
	}
}

// DenyManage marks a channel as one where the bot cannot manage overwrites.
func (f *Fake) DenyManage(guildID, channelID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.noManage[channelKey{guildID, channelID}] = true
}

// SetOverwrite seeds an overwrite directly, bypassing DenyReadHistory.
func (f *Fake) SetOverwrite(guildID, channelID, userID int64, o platform.Overwrite) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o == platform.OverwriteNone {
		delete(f.overwrites, overwriteKey{guildID, channelID, userID})
		return
	}
	f.overwrites[overwriteKey{guildID, channelID, userID}] = o
}

// Overwrite reports the current overwrite for assertions.
func (f *Fake) Overwrite(guildID, channelID, userID int64) platform.Overwrite {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.overwrites[overwriteKey{guildID, channelID, userID}]
}

// DMLog returns a copy of all direct messages sent to a user.
func (f *Fake) DMLog(userID int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.dms[userID]))
	copy(out, f.dms[userID])
	return out
}

// NoticeLog returns a copy of all channel notices sent.
func (f *Fake) NoticeLog() []Notice {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Notice, len(f.notices))
	copy(out, f.notices)
	return out
}

// Emit pushes an event onto the gateway stream.
func (f *Fake) Emit(ev platform.Event) {
	f.events <- ev
}

// Session implementation.

func (f *Fake) ReadHistoryOverwrite(_ context.Context, guildID, channelID, userID int64) (platform.Overwrite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return platform.OverwriteNone, f.Err
	}
	return f.overwrites[overwriteKey{guildID, channelID, userID}], nil
}

func (f *Fake) DenyReadHistory(_ context.Context, guildID, channelID, userID int64, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	if _, ok := f.channels[channelKey{guildID, channelID}]; !ok {
		return platform.NotFound("fake: deny read history", fmt.Errorf("channel %d", channelID))
	}
	if f.noManage[channelKey{guildID, channelID}] {
		return platform.PermissionDenied("fake: deny read history", nil)
	}
	f.overwrites[overwriteKey{guildID, channelID, userID}] = platform.OverwriteDenyHistory
	return nil
}

func (f *Fake) ClearReadHistory(_ context.Context, guildID, channelID, userID int64, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	if f.noManage[channelKey{guildID, channelID}] {
		return platform.PermissionDenied("fake: clear read history", nil)
	}
	delete(f.overwrites, overwriteKey{guildID, channelID, userID})
	return nil
}

func (f *Fake) SendDirectMessage(_ context.Context, userID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	if err := f.DMFail[userID]; err != nil {
		return err
	}
	f.dms[userID] = append(f.dms[userID], text)
	return nil
}

func (f *Fake) SendChannelNotice(_ context.Context, guildID, channelID int64, text string, expireAfter time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.notices = append(f.notices, Notice{GuildID: guildID, ChannelID: channelID, Text: text, ExpireAfter: expireAfter})
	return nil
}

func (f *Fake) Channel(_ context.Context, guildID, channelID int64) (*platform.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	name, ok := f.channels[channelKey{guildID, channelID}]
	if !ok {
		return nil, platform.NotFound("fake: channel", fmt.Errorf("channel %d", channelID))
	}
	return &platform.Channel{GuildID: guildID, ChannelID: channelID, Name: name}, nil
}

func (f *Fake) Member(_ context.Context, guildID, userID int64) (*platform.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	m, ok := f.members[memberKey{guildID, userID}]
	if !ok {
		return nil, platform.NotFound("fake: member", fmt.Errorf("user %d", userID))
	}
	return &platform.Member{GuildID: guildID, UserID: userID, DisplayName: m.displayName}, nil
}

func (f *Fake) MemberHasRole(_ context.Context, guildID, userID int64, roleName string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return false, f.Err
	}
	m, ok := f.members[memberKey{guildID, userID}]
	if !ok {
		return false, nil
	}
	return m.roles[roleName], nil
}

func (f *Fake) MemberIsAdmin(_ context.Context, guildID, userID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return false, f.Err
	}
	m, ok := f.members[memberKey{guildID, userID}]
	if !ok {
		return false, nil
	}
	return m.admin, nil
}

func (f *Fake) MutualGuilds(_ context.Context, userID int64) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	var guilds []int64
	seen := make(map[int64]bool)
	for k := range f.members {
		if k.user == userID && !seen[k.guild] {
			seen[k.guild] = true
			guilds = append(guilds, k.guild)
		}
	}
	return guilds, nil
}

func (f *Fake) RoleMembers(_ context.Context, guildID int64, roleName string) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	var users []int64
	for k, m := range f.members {
		if k.guild == guildID && m.roles[roleName] {
			users = append(users, k.user)
		}
	}
	return users, nil
}

func (f *Fake) BotCanManageOverwrites(_ context.Context, guildID, channelID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return false, f.Err
	}
	return !f.noManage[channelKey{guildID, channelID}], nil
}

// Gateway implementation.

func (f *Fake) Subscribe(ctx context.Context) (<-chan platform.Event, error) {
	out := make(chan platform.Event, 64)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-f.events:
				if !ok {
					return
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

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.events)
	}
	return nil
}
