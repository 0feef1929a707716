package ui

import "fmt"

// ANSI256 color codes matching the Ayu palette.
const (
	colorMuted = 245 // medium gray
	colorGood  = 114 // green
	colorBad   = 203 // red
)

var noColor bool

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", colorMuted, s)
}

// RenderGood returns s in the good (green) color.
func RenderGood(s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", colorGood, s)
}

// RenderBad returns s in the bad (red) color.
func RenderBad(s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", colorBad, s)
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}
