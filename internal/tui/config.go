package tui

import (
	"github.com/Veraticus/charge-tax-intel/internal/tui/themes"
	"github.com/shopspring/decimal"
)

// Config holds TUI configuration.
type Config struct {
	Theme   themes.Theme
	Step    decimal.Decimal
	BigStep decimal.Decimal
	Width   int
	Height  int
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Theme:   themes.Default,
		Step:    decimal.NewFromInt(1),
		BigStep: decimal.NewFromInt(5),
		Width:   80,
		Height:  24,
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithStep sets how many percentage points one key press moves the
// contribution. Non-positive steps are ignored.
func WithStep(step decimal.Decimal) Option {
	return func(c *Config) {
		if step.IsPositive() {
			c.Step = step
		}
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}
