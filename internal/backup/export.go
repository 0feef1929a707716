// Package backup takes periodic JSONL snapshots of the store and ships them
// to external destinations.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/groblegark/mindful/internal/store"
)

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version           string    `json:"version"`
	Type              string    `json:"type"`
	Timestamp         time.Time `json:"timestamp"`
	ChannelCount      int       `json:"channel_count"`
	VerificationCount int       `json:"verification_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ExportJSONL writes every gated channel and verification record from the
// store as JSONL to w. Channels sort by guild then channel ID, verifications
// by user ID, so consecutive snapshots diff cleanly.
func ExportJSONL(ctx context.Context, s store.Store, w io.Writer) error {
	channels, err := s.ListAllGatedChannels(ctx)
	if err != nil {
		return fmt.Errorf("list gated channels: %w", err)
	}
	sort.Slice(channels, func(i, j int) bool {
		if channels[i].GuildID != channels[j].GuildID {
			return channels[i].GuildID < channels[j].GuildID
		}
		return channels[i].ChannelID < channels[j].ChannelID
	})

	verifications, err := s.ListVerifications(ctx)
	if err != nil {
		return fmt.Errorf("list verifications: %w", err)
	}
	sort.Slice(verifications, func(i, j int) bool {
		return verifications[i].UserID < verifications[j].UserID
	})

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:           "1",
		Type:              "header",
		Timestamp:         time.Now().UTC(),
		ChannelCount:      len(channels),
		VerificationCount: len(verifications),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, ch := range channels {
		if err := enc.Encode(record{Type: "channel", Data: ch}); err != nil {
			return fmt.Errorf("encode channel %d/%d: %w", ch.GuildID, ch.ChannelID, err)
		}
	}
	for _, v := range verifications {
		if err := enc.Encode(record{Type: "verification", Data: v}); err != nil {
			return fmt.Errorf("encode verification %d: %w", v.UserID, err)
		}
	}

	return nil
}
