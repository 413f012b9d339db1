package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/naveenspark/quill/internal/toast"
	"github.com/naveenspark/quill/pkg/domain"
)

// Shimmer animation for the QUILL logo.
type shimmerTickMsg time.Time

func shimmerTickCmd() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return shimmerTickMsg(t)
	})
}

// renderShimmerLogo renders "QUILL" as a slow wave of ink blue.
// Deep navy (#1e3a8a) -> sky (#93c5fd).
func renderShimmerLogo(frame int) string {
	const text = "QUILL"
	n := len(text)
	t := float64(frame)

	var out strings.Builder
	for i := 0; i < n; i++ {
		x := float64(i) / float64(n-1)
		phase := t*0.1 - x*3.0 + math.Sin(t*0.023)*2.0

		b := math.Pow(math.Sin(phase)*0.5+0.5, 1.3)
		b = b*0.75 + math.Sin(t*0.035)*0.12 + 0.18
		if b > 1.0 {
			b = 1.0
		} else if b < 0.05 {
			b = 0.05
		}

		r := clampByte(30 + b*(147-30))
		g := clampByte(58 + b*(197-58))
		bl := clampByte(138 + b*(253-138))

		s := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", r, g, bl)))
		out.WriteString(s.Render(string(text[i])))
		if i < n-1 {
			out.WriteString("  ")
		}
	}
	return out.String()
}

func clampByte(v float64) int {
	if v > 255 {
		return 255
	}
	if v < 0 {
		return 0
	}
	return int(v)
}

var (
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e4e4ec")).
			Bold(true)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#c0c4d0"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#505868"))

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	helpLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#505868"))

	accentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#60a5fa"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e4e4ec")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f87171"))

	inputPromptStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#60a5fa")).
				Bold(true)

	inputPlaceholderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#505868")).
				Italic(true)

	// Toasts
	toastSuccessStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#0b1f12")).
				Background(lipgloss.Color("#4ade80")).
				Padding(0, 1)

	toastErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#2a0b0b")).
			Background(lipgloss.Color("#f87171")).
			Padding(0, 1)

	toastInfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#0b1a2a")).
			Background(lipgloss.Color("#60a5fa")).
			Padding(0, 1)
)

// moodColors maps mood values to accent colors.
var moodColors = map[string]lipgloss.Color{
	"💻": lipgloss.Color("#22d3ee"),
	"🎨": lipgloss.Color("#f472b6"),
	"🤔": lipgloss.Color("#fbbf24"),
}

// MoodStyle returns a bold style colored for the given mood value.
func MoodStyle(mood string) lipgloss.Style {
	if c, ok := moodColors[mood]; ok {
		return lipgloss.NewStyle().Foreground(c).Bold(true)
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("#8890a0"))
}

// MoodBadge renders e.g. "🎨 Creative". Unknown moods render as-is.
func MoodBadge(mood string) string {
	label := domain.MoodLabel(mood)
	if label == "" {
		return MoodStyle(mood).Render(mood)
	}
	return MoodStyle(mood).Render(mood + " " + label)
}

// toastStyle picks the badge style for a severity.
func toastStyle(sev toast.Severity) lipgloss.Style {
	switch sev {
	case toast.Success:
		return toastSuccessStyle
	case toast.Error:
		return toastErrorStyle
	default:
		return toastInfoStyle
	}
}

// helpEntry renders a single "key label" pair for help bars.
func helpEntry(key, label string) string {
	return helpKeyStyle.Render(key) + " " + helpLabelStyle.Render(label)
}

// helpBar joins key/label pairs into a help line.
func helpBar(pairs ...string) string {
	var parts []string
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, helpEntry(pairs[i], pairs[i+1]))
	}
	return " " + strings.Join(parts, "  ")
}
