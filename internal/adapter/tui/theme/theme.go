// Package theme holds the colors and lipgloss styles of the assistant
// screen. Colors adapt to light and dark backgrounds, and lipgloss drops
// them when NO_COLOR is set.
package theme

import "github.com/charmbracelet/lipgloss"

var (
	colorOK     = lipgloss.AdaptiveColor{Light: "#2e7d32", Dark: "#66bb6a"}
	colorFail   = lipgloss.AdaptiveColor{Light: "#c62828", Dark: "#ef5350"}
	colorNotice = lipgloss.AdaptiveColor{Light: "#e65100", Dark: "#ffa726"}
	colorKey    = lipgloss.AdaptiveColor{Light: "#0277bd", Dark: "#4fc3f7"}
	colorBrand  = lipgloss.AdaptiveColor{Light: "#6a1b9a", Dark: "#ce93d8"}
	colorSubtle = lipgloss.AdaptiveColor{Light: "#757575", Dark: "#9e9e9e"}
	colorFrame  = lipgloss.AdaptiveColor{Light: "#bdbdbd", Dark: "#616161"}
	colorReview = lipgloss.AdaptiveColor{Light: "#1565c0", Dark: "#42a5f5"}
	colorBarBg  = lipgloss.AdaptiveColor{Light: "#f5f5f5", Dark: "#2d2d2d"}
	colorBarFg  = lipgloss.AdaptiveColor{Light: "#9e9e9e", Dark: "#757575"}
)

// MaxContentWidth caps the width of everything the assistant draws.
const MaxContentWidth = 100

var (
	Title = lipgloss.NewStyle().Foreground(colorBrand).Bold(true).Padding(0, 0, 1, 0)
	Bold  = lipgloss.NewStyle().Bold(true)

	TextSuccess = lipgloss.NewStyle().Foreground(colorOK).Bold(true)
	TextError   = lipgloss.NewStyle().Foreground(colorFail).Bold(true)
	TextWarning = lipgloss.NewStyle().Foreground(colorNotice).Bold(true)
	TextMuted   = lipgloss.NewStyle().Foreground(colorSubtle)

	Spinner = lipgloss.NewStyle().Foreground(colorKey)
)

// Status panel frames, one per session outcome.
var (
	PanelIdle    = panel(colorFrame)
	PanelReview  = panel(colorReview) // a generated command awaits confirmation
	PanelSuccess = panel(colorOK)
	PanelFailure = panel(colorFail)
)

func panel(border lipgloss.TerminalColor) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1)
}

var (
	StatusBar = lipgloss.NewStyle().Foreground(colorBarFg).Background(colorBarBg).Padding(0, 1)
	StatusKey = lipgloss.NewStyle().Foreground(colorKey).Bold(true)

	InputPrompt      = lipgloss.NewStyle().Foreground(colorKey).Bold(true)
	InputPlaceholder = lipgloss.NewStyle().Foreground(colorBarFg)
)
