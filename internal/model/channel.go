package model

// GatedChannel enrolls a single channel in the daily check-in requirement
// for its guild. Created and destroyed by admin commands; the list command
// also prunes rows whose channel no longer resolves on the platform.
type GatedChannel struct {
	GuildID   int64
	ChannelID int64
}
