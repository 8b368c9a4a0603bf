package cli

import "github.com/charmbracelet/lipgloss"

// Poster palette, shared by the CLI, the help printer and the TUI
var (
	PosterBlue   = lipgloss.Color("#1E88E5") // attendee frame
	PosterTeal   = lipgloss.Color("#00897B") // volunteer frame
	PosterRed    = lipgloss.Color("#E53935") // speaker frame
	PosterAmber  = lipgloss.Color("#FFB300") // sponsor frame
	PosterPurple = lipgloss.Color("#8E24AA") // organizer frame

	// Accent colours
	SlateGray = lipgloss.Color("#78909C") // subtle text
)
