// Package tui is the interactive contribution what-if view.
package tui

import (
	"fmt"
	"strings"

	"github.com/Veraticus/charge-tax-intel/internal/common"
	"github.com/Veraticus/charge-tax-intel/internal/engine"
	"github.com/Veraticus/charge-tax-intel/internal/tui/themes"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Model re-runs the contribution optimizer as the user moves the
// contribution percent.
type Model struct {
	theme    themes.Theme
	err      error
	help     help.Model
	keymap   KeyMap
	input    engine.OptimizeInput
	baseline engine.ContributionPlan
	plan     engine.ContributionPlan
	config   Config
	width    int
	height   int
	accepted bool
	quitting bool
}

// NewModel builds a model starting from the input's current percent.
func NewModel(in engine.OptimizeInput, opts ...Option) (Model, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	baseline, err := engine.Optimize(in)
	if err != nil {
		return Model{}, err
	}

	h := help.New()
	h.Width = cfg.Width

	return Model{
		theme:    cfg.Theme,
		help:     h,
		keymap:   DefaultKeyMap(),
		input:    in,
		baseline: baseline,
		plan:     baseline,
		config:   cfg,
		width:    cfg.Width,
		height:   cfg.Height,
	}, nil
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keymap.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keymap.Accept):
			m.accepted = true
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keymap.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keymap.Increase):
			m.setPercent(m.plan.CurrentPercent.Add(m.config.Step))
		case key.Matches(msg, m.keymap.Decrease):
			m.setPercent(m.plan.CurrentPercent.Sub(m.config.Step))
		case key.Matches(msg, m.keymap.IncreaseBig):
			m.setPercent(m.plan.CurrentPercent.Add(m.config.BigStep))
		case key.Matches(msg, m.keymap.DecreaseBig):
			m.setPercent(m.plan.CurrentPercent.Sub(m.config.BigStep))
		case key.Matches(msg, m.keymap.Match):
			m.setPercent(m.plan.OptimalPercent)
		case key.Matches(msg, m.keymap.Reset):
			m.setPercent(m.baseline.CurrentPercent)
		}
	}
	return m, nil
}

// setPercent re-runs the optimizer at a new contribution percent, clamped
// to [0, 100].
func (m *Model) setPercent(pct decimal.Decimal) {
	pct = decimal.Max(decimal.Zero, decimal.Min(pct, hundred))
	in := m.input
	in.CurrentPercent = pct

	plan, err := engine.Optimize(in)
	if err != nil {
		m.err = err
		return
	}
	m.err = nil
	m.plan = plan
}

// Plan returns the plan at the currently selected percent.
func (m Model) Plan() engine.ContributionPlan {
	return m.plan
}

// Accepted reports whether the user confirmed the selected percent.
func (m Model) Accepted() bool {
	return m.accepted
}

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	p := m.plan.Rounded()
	base := m.baseline.Rounded()

	var b strings.Builder
	b.WriteString(m.theme.Title.Render("401(k) What-If"))
	b.WriteString("\n")
	b.WriteString(m.row("Contribution", m.theme.Amount.Render(common.FormatPercent(p.CurrentPercent))+
		m.theme.Subtitle.Render(" (was "+common.FormatPercent(base.CurrentPercent)+")")))
	b.WriteString(m.row("Per year", common.FormatMoney(p.CurrentAnnual)))
	b.WriteString(m.row("Employer match", common.FormatMoney(p.CurrentMatch)+" of "+common.FormatMoney(p.OptimalMatch)))
	b.WriteString(m.row("Match captured", m.progressBar()))
	b.WriteString(m.row("Federal tax saved", common.FormatMoney(p.CurrentTaxSavings)))

	delta := p.CurrentTaxSavings.Sub(base.CurrentTaxSavings).Add(p.CurrentMatch.Sub(base.CurrentMatch))
	b.WriteString(m.row("Change vs. today", m.deltaStyle(delta).Render(signedMoney(delta)+"/yr")))
	if periods := p.PeriodsPerYear; periods > 0 {
		perCheck := p.CurrentAnnual.Sub(base.CurrentAnnual).Div(decimal.NewFromInt(int64(periods))).Round(2)
		b.WriteString(m.row("Per paycheck", signedMoney(perCheck)))
	}

	b.WriteString("\n")
	switch {
	case m.err != nil:
		b.WriteString(m.theme.StatusError.Render(m.err.Error()))
	case !m.input.MatchCapPercent.IsPositive():
		b.WriteString(m.theme.StatusWarning.Render("No employer match on file. Set it with: taxintel profile set --match-rate 50 --match-cap 6"))
	case p.MissedMatch.IsPositive():
		b.WriteString(m.theme.StatusWarning.Render(fmt.Sprintf("Leaving %s of match unclaimed. Full match at %s.",
			common.FormatMoney(p.MissedMatch), common.FormatPercent(p.OptimalPercent))))
	default:
		b.WriteString(m.theme.StatusSuccess.Render("Full employer match captured."))
	}

	box := m.theme.RoundedBox
	if m.width > 4 {
		box = box.MaxWidth(m.width)
	}
	return box.Render(b.String()) + "\n" + m.help.View(m.keymap)
}

func (m Model) row(label, value string) string {
	return lipgloss.NewStyle().Width(20).Foreground(m.theme.Muted).Render(label) + value + "\n"
}

func (m Model) progressBar() string {
	const width = 20
	progress := 1.0
	if m.plan.OptimalMatch.IsPositive() {
		progress = m.plan.CurrentMatch.Div(m.plan.OptimalMatch).InexactFloat64()
	}
	filled := max(0, min(int(progress*width), width))
	return m.theme.ProgressFull.Render(strings.Repeat("█", filled)) +
		m.theme.ProgressEmpty.Render(strings.Repeat("░", width-filled))
}

func (m Model) deltaStyle(delta decimal.Decimal) lipgloss.Style {
	switch {
	case delta.IsPositive():
		return m.theme.StatusSuccess
	case delta.IsNegative():
		return m.theme.StatusError
	default:
		return m.theme.Normal
	}
}

func signedMoney(d decimal.Decimal) string {
	if d.IsPositive() {
		return "+" + common.FormatMoney(d)
	}
	return common.FormatMoney(d)
}
