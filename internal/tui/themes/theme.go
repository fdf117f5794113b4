// Package themes holds the color schemes for the interactive views.
package themes

import "github.com/charmbracelet/lipgloss"

// Theme defines the visual style for the TUI.
type Theme struct {
	Title         lipgloss.Style
	Subtitle      lipgloss.Style
	Normal        lipgloss.Style
	Amount        lipgloss.Style
	RoundedBox    lipgloss.Style
	ProgressFull  lipgloss.Style
	ProgressEmpty lipgloss.Style
	StatusSuccess lipgloss.Style
	StatusWarning lipgloss.Style
	StatusError   lipgloss.Style
	Primary       lipgloss.Color
	Muted         lipgloss.Color
	Border        lipgloss.Color
}

// palette is the handful of colors a theme is derived from.
type palette struct {
	text, subtext, primary, muted, border lipgloss.Color
	success, warning, danger              lipgloss.Color
}

func newTheme(p palette) Theme {
	fg := func(c lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c)
	}
	return Theme{
		Primary: p.primary,
		Muted:   p.muted,
		Border:  p.border,

		Title:    fg(p.text).Bold(true).MarginBottom(1),
		Subtitle: fg(p.subtext),
		Normal:   fg(p.text),
		Amount:   fg(p.primary).Bold(true),

		RoundedBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.border).
			Padding(1, 2),
		ProgressFull:  fg(p.primary),
		ProgressEmpty: fg(p.border),

		StatusSuccess: fg(p.success).Bold(true),
		StatusWarning: fg(p.warning).Bold(true),
		StatusError:   fg(p.danger).Bold(true),
	}
}

// Default is the default theme.
var Default = newTheme(palette{
	text:    "#fafafa",
	subtext: "#a3a3a3",
	primary: "#7c3aed",
	muted:   "#737373",
	border:  "#404040",
	success: "#10b981",
	warning: "#f59e0b",
	danger:  "#ef4444",
})

// CatppuccinMocha is the Catppuccin Mocha theme.
var CatppuccinMocha = newTheme(palette{
	text:    "#cdd6f4",
	subtext: "#a6adc8",
	primary: "#cba6f7",
	muted:   "#6c7086",
	border:  "#45475a",
	success: "#a6e3a1",
	warning: "#f9e2af",
	danger:  "#f38ba8",
})

// GetTheme returns a theme by its tui.theme name. Unknown names get Default.
func GetTheme(name string) Theme {
	switch name {
	case "catppuccin-mocha":
		return CatppuccinMocha
	default:
		return Default
	}
}
