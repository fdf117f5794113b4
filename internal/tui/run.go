package tui

import (
	"context"
	"fmt"

	"github.com/Veraticus/charge-tax-intel/internal/engine"
	tea "github.com/charmbracelet/bubbletea"
)

// Result is what the user settled on in the what-if view.
type Result struct {
	Plan     engine.ContributionPlan
	Accepted bool
}

// Run shows the what-if view until the user accepts or quits.
func Run(ctx context.Context, in engine.OptimizeInput, opts ...Option) (Result, error) {
	m, err := NewModel(in, opts...)
	if err != nil {
		return Result{}, err
	}

	program := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen())
	final, err := program.Run()
	if err != nil {
		return Result{}, fmt.Errorf("TUI error: %w", err)
	}

	fm, ok := final.(Model)
	if !ok {
		return Result{}, fmt.Errorf("unexpected model type %T", final)
	}
	return Result{Plan: fm.Plan(), Accepted: fm.Accepted()}, nil
}
