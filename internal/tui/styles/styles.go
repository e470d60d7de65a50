// Package styles holds the lipgloss palette shared by the terminal UI and
// the colored CLI output.
package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Colors - all colors meet WCAG AA contrast (4.5:1) on both black and dark surfaces
	PrimaryColor   = lipgloss.Color("#A78BFA") // Purple
	SecondaryColor = lipgloss.Color("#10B981") // Green
	WarningColor   = lipgloss.Color("#F59E0B") // Amber
	ErrorColor     = lipgloss.Color("#F87171") // Red
	MutedColor     = lipgloss.Color("#9CA3AF") // Gray
	SurfaceColor   = lipgloss.Color("#1F2937") // Dark surface
	TextColor      = lipgloss.Color("#F9FAFB") // Light text
	BorderColor    = lipgloss.Color("#6B7280") // Gray

	Primary   = lipgloss.NewStyle().Foreground(PrimaryColor)
	Secondary = lipgloss.NewStyle().Foreground(SecondaryColor)
	Warning   = lipgloss.NewStyle().Foreground(WarningColor)
	Error     = lipgloss.NewStyle().Foreground(ErrorColor)
	Muted     = lipgloss.NewStyle().Foreground(MutedColor)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(PrimaryColor)

	Subtitle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true)

	HelpBar = lipgloss.NewStyle().
		Foreground(MutedColor).
		MarginTop(1)

	HelpKey = lipgloss.NewStyle().
		Bold(true).
		Foreground(SecondaryColor)

	OutputArea = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor)

	StatusBar = lipgloss.NewStyle().
			Foreground(TextColor).
			Background(SurfaceColor).
			Padding(0, 1)

	StatusAvailable = lipgloss.NewStyle().
			Bold(true).
			Foreground(TextColor).
			Background(SecondaryColor).
			Padding(0, 1)

	StatusClaimed = lipgloss.NewStyle().
			Bold(true).
			Foreground(TextColor).
			Background(WarningColor).
			Padding(0, 1)

	ErrorMsg = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	SuccessMsg = lipgloss.NewStyle().
			Foreground(SecondaryColor).
			Bold(true)

	WarningMsg = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true)

	HeaderMsg = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor)
)

// Kind classifies a notification line for styling.
type Kind int

const (
	KindPlain Kind = iota
	KindProgress
	KindSuccess
	KindFailure
	KindInterrupted
	KindHeader
)

// Classify inspects the line's leading marker.
func Classify(line string) Kind {
	trimmed := strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(trimmed, "-> SUCCESS"):
		return KindSuccess
	case strings.HasPrefix(trimmed, "-> FAILED"):
		return KindFailure
	case strings.HasPrefix(trimmed, "==="):
		return KindHeader
	case strings.HasSuffix(trimmed, "interrupted!"),
		strings.Contains(trimmed, "Gave up"),
		strings.Contains(trimmed, "withdrawn"):
		return KindInterrupted
	case strings.HasPrefix(line, "  "):
		return KindProgress
	default:
		return KindPlain
	}
}

// RenderLine styles a notification line by its Kind.
func RenderLine(line string) string {
	switch Classify(line) {
	case KindSuccess:
		return SuccessMsg.Render(line)
	case KindFailure:
		return ErrorMsg.Render(line)
	case KindInterrupted:
		return WarningMsg.Render(line)
	case KindHeader:
		return HeaderMsg.Render(line)
	case KindProgress:
		return Muted.Render(line)
	default:
		return line
	}
}

// RenderStatus styles a status display text such as "Claimed (by PSG)".
func RenderStatus(text string) string {
	if strings.HasPrefix(text, "Claimed") {
		return StatusClaimed.Render(text)
	}
	return StatusAvailable.Render(text)
}
