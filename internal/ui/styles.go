// Package ui provides terminal styling for craftchain CLI output.
// Uses the Ayu color theme with adaptive light/dark mode support.
package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/atlasforge/craftchain/pkg/craft"
)

func init() {
	if !ShouldUseColor() {
		// disable colors when not appropriate (non-TTY, NO_COLOR, etc.)
		lipgloss.SetColorProfile(termenv.Ascii)
	} else {
		lipgloss.SetColorProfile(termenv.TrueColor)
	}
}

// Ayu theme color palette
// Dark: https://terminalcolors.com/themes/ayu/dark/
// Light: https://terminalcolors.com/themes/ayu/light/
var (
	ColorProfit = lipgloss.AdaptiveColor{
		Light: "#86b300", // ayu light bright green
		Dark:  "#c2d94c", // ayu dark bright green
	}
	ColorLoss = lipgloss.AdaptiveColor{
		Light: "#f07171", // ayu light bright red
		Dark:  "#f07178", // ayu dark bright red
	}
	ColorMuted = lipgloss.AdaptiveColor{
		Light: "#828c99", // ayu light muted
		Dark:  "#6c7680", // ayu dark muted
	}
	ColorAccent = lipgloss.AdaptiveColor{
		Light: "#399ee6", // ayu light bright blue
		Dark:  "#59c2ff", // ayu dark bright blue
	}

	// Rarity tiers. Common stays at standard text; the others step up
	// through green, blue and purple.
	ColorUncommon = lipgloss.AdaptiveColor{
		Light: "#86b300",
		Dark:  "#c2d94c",
	}
	ColorRare = lipgloss.AdaptiveColor{
		Light: "#399ee6",
		Dark:  "#59c2ff",
	}
	ColorVeryRare = lipgloss.AdaptiveColor{
		Light: "#d2a6ff",
		Dark:  "#d2a6ff",
	}
)

// Core styles - consistent across all commands
var (
	ProfitStyle = lipgloss.NewStyle().Foreground(ColorProfit)
	LossStyle   = lipgloss.NewStyle().Foreground(ColorLoss)
	MutedStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	AccentStyle = lipgloss.NewStyle().Foreground(ColorAccent)
	BoldStyle   = lipgloss.NewStyle().Bold(true)
)

// HeaderStyle for report headers - bold with accent color
var HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)

var (
	uncommonStyle = lipgloss.NewStyle().Foreground(ColorUncommon)
	rareStyle     = lipgloss.NewStyle().Foreground(ColorRare)
	veryRareStyle = lipgloss.NewStyle().Foreground(ColorVeryRare)
)

// RenderHeader renders a report header in bold accent color
func RenderHeader(s string) string {
	return HeaderStyle.Render(s)
}

// RenderMuted renders text with muted (gray) styling
func RenderMuted(s string) string {
	return MutedStyle.Render(s)
}

// RenderAccent renders text with accent (blue) styling
func RenderAccent(s string) string {
	return AccentStyle.Render(s)
}

// RenderBold renders text in bold
func RenderBold(s string) string {
	return BoldStyle.Render(s)
}

// RenderAmount colors an already formatted value by its sign:
// gains green, losses red, break-even standard text.
func RenderAmount(s string, v float64) string {
	switch {
	case v > 0:
		return ProfitStyle.Render(s)
	case v < 0:
		return LossStyle.Render(s)
	default:
		return s
	}
}

// RenderRarity renders a rarity label with its tier color.
// Common uses standard text.
func RenderRarity(r craft.Rarity) string {
	switch r {
	case craft.RarityUncommon:
		return uncommonStyle.Render(r.String())
	case craft.RarityRare:
		return rareStyle.Render(r.String())
	case craft.RarityVeryRare:
		return veryRareStyle.Render(r.String())
	default:
		return r.String()
	}
}
