package commands

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/groblegark/mindful/internal/events"
	"github.com/groblegark/mindful/internal/platform"
	"github.com/groblegark/mindful/internal/platform/platformtest"
	"github.com/groblegark/mindful/internal/ritual"
	"github.com/groblegark/mindful/internal/store/storetest"
)

const (
	testGuild   = int64(10)
	testChannel = int64(20)
	testAdmin   = int64(5)
	testRole    = "MindfulTrader"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestRouter(t *testing.T) (*Router, *storetest.MemStore, *platformtest.Fake) {
	t.Helper()
	ms := storetest.New()
	fake := platformtest.New()
	fake.AddChannel(testGuild, testChannel, "trading-floor")
	fake.AddMember(testGuild, testAdmin, "Morgan")
	fake.MakeAdmin(testGuild, testAdmin)

	logger := testLogger()
	r := NewRouter(ms, fake, ritual.NewLockController(fake, logger), &events.NoopPublisher{}, "!", testRole, logger)
	return r, ms, fake
}

func command(content string) platform.MessageEvent {
	return platform.MessageEvent{GuildID: testGuild, ChannelID: testChannel, UserID: testAdmin, Content: content}
}

// lastNotice returns the most recent channel reply, or "".
func lastNotice(fake *platformtest.Fake) string {
	notices := fake.NoticeLog()
	if len(notices) == 0 {
		return ""
	}
	return notices[len(notices)-1].Text
}

func TestParseChannelRef(t *testing.T) {
	for _, tc := range []struct {
		arg  string
		want int64
		ok   bool
	}{
		{"<#123456>", 123456, true},
		{"123456", 123456, true},
		{"#123456", 123456, true},
		{"", 0, false},
		{"general", 0, false},
		{"<#>", 0, false},
		{"-5", 0, false},
	} {
		got, ok := parseChannelRef(tc.arg)
		if got != tc.want || ok != tc.ok {
			t.Errorf("parseChannelRef(%q) = (%d, %v), want (%d, %v)", tc.arg, got, ok, tc.want, tc.ok)
		}
	}
}

func TestHandleMessageIgnoresNonCommands(t *testing.T) {
	r, _, fake := newTestRouter(t)

	r.HandleMessage(context.Background(), command("just chatting"))
	r.HandleMessage(context.Background(), command("!"))
	r.HandleMessage(context.Background(), command("!danceParty"))

	if got := fake.NoticeLog(); len(got) != 0 {
		t.Errorf("expected silence, got %v", got)
	}
}

func TestHandleMessageRejectsNonAdmin(t *testing.T) {
	r, ms, fake := newTestRouter(t)
	fake.AddMember(testGuild, 6, "Riley")

	ev := command("!addMindfulChannel <#20>")
	ev.UserID = 6
	r.HandleMessage(context.Background(), ev)

	if got := lastNotice(fake); !strings.Contains(got, "Administrator required") {
		t.Errorf("reply = %q, want permission refusal", got)
	}
	if got, _ := ms.ListGatedChannels(context.Background(), testGuild); len(got) != 0 {
		t.Errorf("channel list modified by non-admin: %v", got)
	}
}

func TestAddChannel(t *testing.T) {
	r, ms, fake := newTestRouter(t)
	ctx := context.Background()

	r.HandleMessage(ctx, command("!addMindfulChannel <#20>"))

	if got, _ := ms.ListGatedChannels(ctx, testGuild); len(got) != 1 || got[0] != testChannel {
		t.Errorf("gated channels = %v, want [20]", got)
	}
	if got := lastNotice(fake); !strings.Contains(got, "#trading-floor added") {
		t.Errorf("reply = %q, want add confirmation", got)
	}

	// Repeating the add is idempotent and still confirms.
	r.HandleMessage(ctx, command("!addMindfulChannel 20"))
	if got, _ := ms.ListGatedChannels(ctx, testGuild); len(got) != 1 {
		t.Errorf("gated channels = %v, want single entry", got)
	}
}

func TestAddChannelUnknownChannel(t *testing.T) {
	r, ms, fake := newTestRouter(t)

	r.HandleMessage(context.Background(), command("!addMindfulChannel <#404>"))

	if got := lastNotice(fake); !strings.Contains(got, "Channel not found") {
		t.Errorf("reply = %q, want not-found message", got)
	}
	if got, _ := ms.ListGatedChannels(context.Background(), testGuild); len(got) != 0 {
		t.Errorf("unexpected gated channels %v", got)
	}
}

func TestAddChannelMissingArgument(t *testing.T) {
	r, _, fake := newTestRouter(t)

	r.HandleMessage(context.Background(), command("!addMindfulChannel"))

	if got := lastNotice(fake); !strings.Contains(got, "Missing argument") {
		t.Errorf("reply = %q, want usage message", got)
	}
}

func TestAddChannelStoreFailure(t *testing.T) {
	r, ms, fake := newTestRouter(t)
	ms.Err = context.DeadlineExceeded

	r.HandleMessage(context.Background(), command("!addMindfulChannel <#20>"))

	if got := lastNotice(fake); !strings.Contains(got, "database error") {
		t.Errorf("reply = %q, want database-error message", got)
	}
}

func TestRemoveChannel(t *testing.T) {
	r, ms, fake := newTestRouter(t)
	ctx := context.Background()
	if err := ms.AddGatedChannel(ctx, testGuild, testChannel); err != nil {
		t.Fatal(err)
	}

	// A role holder still locked out of the channel being removed.
	fake.AddMember(testGuild, 7, "Alex", testRole)
	fake.SetOverwrite(testGuild, testChannel, 7, platform.OverwriteDenyHistory)

	r.HandleMessage(ctx, command("!removeMindfulChannel <#20>"))

	if got, _ := ms.ListGatedChannels(ctx, testGuild); len(got) != 0 {
		t.Errorf("gated channels = %v, want empty", got)
	}
	if got := lastNotice(fake); !strings.Contains(got, "#trading-floor removed") {
		t.Errorf("reply = %q, want removal confirmation", got)
	}
	if got := fake.Overwrite(testGuild, testChannel, 7); got != platform.OverwriteNone {
		t.Errorf("lock not cleaned up, overwrite = %v", got)
	}
}

func TestRemoveChannelNotOnList(t *testing.T) {
	r, _, fake := newTestRouter(t)

	r.HandleMessage(context.Background(), command("!removeMindfulChannel <#20>"))

	if got := lastNotice(fake); !strings.Contains(got, "was not found on the mindful check list") {
		t.Errorf("reply = %q, want not-on-list message", got)
	}
}

func TestRemoveChannelCleanupSkippedWithoutPrivilege(t *testing.T) {
	r, ms, fake := newTestRouter(t)
	ctx := context.Background()
	if err := ms.AddGatedChannel(ctx, testGuild, testChannel); err != nil {
		t.Fatal(err)
	}
	fake.AddMember(testGuild, 7, "Alex", testRole)
	fake.SetOverwrite(testGuild, testChannel, 7, platform.OverwriteDenyHistory)
	fake.DenyManage(testGuild, testChannel)

	r.HandleMessage(ctx, command("!removeMindfulChannel <#20>"))

	// Removal still succeeds; the lock stays behind.
	if got, _ := ms.ListGatedChannels(ctx, testGuild); len(got) != 0 {
		t.Errorf("gated channels = %v, want empty", got)
	}
	if got := fake.Overwrite(testGuild, testChannel, 7); got != platform.OverwriteDenyHistory {
		t.Errorf("overwrite = %v, want deny-history retained", got)
	}
}

func TestListChannelsEmpty(t *testing.T) {
	r, _, fake := newTestRouter(t)

	r.HandleMessage(context.Background(), command("!listMindfulChannels"))

	if got := lastNotice(fake); !strings.Contains(got, "No channels are currently configured") {
		t.Errorf("reply = %q, want empty-list message", got)
	}
}

func TestListChannels(t *testing.T) {
	r, ms, fake := newTestRouter(t)
	ctx := context.Background()
	fake.AddChannel(testGuild, 21, "options-den")
	for _, cid := range []int64{testChannel, 21} {
		if err := ms.AddGatedChannel(ctx, testGuild, cid); err != nil {
			t.Fatal(err)
		}
	}

	r.HandleMessage(ctx, command("!listMindfulChannels"))

	got := lastNotice(fake)
	if !strings.Contains(got, "#trading-floor") || !strings.Contains(got, "#options-den") {
		t.Errorf("reply = %q, want both channel names", got)
	}
}

func TestListChannelsPrunesDeleted(t *testing.T) {
	r, ms, fake := newTestRouter(t)
	ctx := context.Background()
	for _, cid := range []int64{testChannel, 999} {
		if err := ms.AddGatedChannel(ctx, testGuild, cid); err != nil {
			t.Fatal(err)
		}
	}

	r.HandleMessage(ctx, command("!listMindfulChannels"))

	if got, _ := ms.ListGatedChannels(ctx, testGuild); len(got) != 1 || got[0] != testChannel {
		t.Errorf("gated channels after prune = %v, want [20]", got)
	}

	notices := fake.NoticeLog()
	if len(notices) != 2 {
		t.Fatalf("expected listing plus prune note, got %d notices", len(notices))
	}
	if !strings.Contains(notices[0].Text, "ID: 999") {
		t.Errorf("listing %q does not flag the deleted channel", notices[0].Text)
	}
	if !strings.Contains(notices[1].Text, "removed from the list") {
		t.Errorf("expected prune note, got %q", notices[1].Text)
	}
}
