package report

import (
	"strings"

	"github.com/Veraticus/charge-tax-intel/internal/cli"
	"github.com/Veraticus/charge-tax-intel/internal/engine"
	"github.com/Veraticus/charge-tax-intel/internal/model"
	"github.com/charmbracelet/lipgloss"
)

// Styles contains all styling definitions for report formatting.
type Styles struct {
	// Base styles from CLI package
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	Info     lipgloss.Style
	Subtle   lipgloss.Style
	Normal   lipgloss.Style

	// Report-specific styles
	Box           lipgloss.Style
	Amount        lipgloss.Style
	High          lipgloss.Style
	Medium        lipgloss.Style
	Low           lipgloss.Style
	ProgressFill  lipgloss.Style
	ProgressEmpty lipgloss.Style
}

// NewStyles creates a new Styles instance with default styling.
func NewStyles() *Styles {
	s := &Styles{
		Title:    cli.TitleStyle,
		Subtitle: cli.SubtitleStyle,
		Success:  cli.SuccessStyle,
		Warning:  cli.WarningStyle,
		Error:    cli.ErrorStyle,
		Info:     cli.InfoStyle,
		Subtle:   cli.SubtleStyle,
		Normal:   lipgloss.NewStyle(),
	}

	s.Box = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(cli.SubtleColor).
		Padding(0, 1)

	s.Amount = lipgloss.NewStyle().
		Bold(true).
		Foreground(cli.PrimaryColor)

	s.High = lipgloss.NewStyle().
		Bold(true).
		Foreground(cli.WarningColor)

	s.Medium = lipgloss.NewStyle().
		Foreground(cli.InfoColor)

	s.Low = lipgloss.NewStyle().
		Foreground(cli.SubtleColor)

	s.ProgressFill = lipgloss.NewStyle().
		Foreground(cli.SuccessColor)

	s.ProgressEmpty = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#333333"))

	return s
}

// WithWidth returns a copy whose boxes fit a terminal of the given width.
func (s *Styles) WithWidth(width int) *Styles {
	newStyles := *s
	if width > 0 && width < 100 {
		newStyles.Box = s.Box.Width(width - 4)
	}
	return &newStyles
}

// ForPriority returns the style for a recommendation priority.
func (s *Styles) ForPriority(p model.Priority) lipgloss.Style {
	switch p {
	case model.PriorityHigh:
		return s.High
	case model.PriorityMedium:
		return s.Medium
	case model.PriorityLow:
		return s.Low
	default:
		return s.Normal
	}
}

// ForStatus returns the style for a withholding status.
func (s *Styles) ForStatus(status engine.WithholdingStatus) lipgloss.Style {
	switch status {
	case engine.WithholdingOnTrack:
		return s.Success
	case engine.WithholdingOver:
		return s.Warning
	default:
		return s.Error
	}
}

// RenderProgressBar renders progress in [0,1] as a bar of width cells.
func (s *Styles) RenderProgressBar(progress float64, width int) string {
	if width <= 0 {
		width = 30
	}
	filled := int(float64(width) * progress)
	filled = max(0, min(filled, width))

	return s.ProgressFill.Render(strings.Repeat("█", filled)) +
		s.ProgressEmpty.Render(strings.Repeat("░", width-filled))
}

// RenderBox renders content in a styled box with optional title.
func (s *Styles) RenderBox(content string, title string) string {
	if title != "" {
		// lipgloss v1.1.0 has no border titles, so the title leads the content.
		titleStyled := s.Info.Bold(true).Render(" " + title + " ")
		return s.Box.Render(titleStyled + "\n" + content)
	}
	return s.Box.Render(content)
}
