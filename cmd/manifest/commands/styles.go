// SPDX-License-Identifier: MPL-2.0

package commands

import "github.com/charmbracelet/lipgloss"

// Color palette - shared hex colors for consistent theming across CLI output.
// Designed for dark terminal backgrounds with good contrast.
const (
	// ColorPrimary is purple - used for the banner and primary emphasis.
	ColorPrimary = lipgloss.Color("#7C3AED")

	// ColorMuted is gray - used for secondary text and de-emphasized content.
	ColorMuted = lipgloss.Color("#6B7280")

	// ColorHighlight is blue - used for prompts and interactive elements.
	ColorHighlight = lipgloss.Color("#3B82F6")
)

var (
	// TitleStyle is for the banner and section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// SubtitleStyle is for secondary text and hints.
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// PromptStyle is for interactive input prompts.
	PromptStyle = lipgloss.NewStyle().
			Foreground(ColorHighlight)
)

// asciiBanner is printed once at startup, before any log output.
const asciiBanner = `
    ________  ___  ________  ________  ________
    |\   ____\|\  \|\   __  \|\   ____\|\   __  \
    \ \  \___|\ \  \ \  \|\  \ \  \___|\ \  \|\  \
     \ \  \    \ \  \ \  \\\  \ \  \    \ \  \\\  \
      \ \  \____\ \  \ \  \\\  \ \  \____\ \  \\\  \
       \ \_______\ \__\ \_______\ \_______\ \_______\
        \|_______|\|__|\|_______|\|_______|\|_______|
`

// banner returns the styled startup banner.
func banner() string {
	return TitleStyle.Render(asciiBanner)
}
