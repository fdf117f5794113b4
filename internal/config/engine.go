package config

import (
	"fmt"

	"github.com/Veraticus/charge-tax-intel/internal/engine"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Viper keys.
const (
	KeyTaxYear              = "tax.year"
	KeyTablesPath           = "tax.tables_path"
	KeyWithholdingThreshold = "tax.withholding_threshold"
	KeyIncludeState         = "tax.include_state"
	KeyPortfolioDragRate    = "opportunity.portfolio_drag_rate"
	KeyPortfolioDragFloor   = "opportunity.portfolio_drag_floor"
	KeyAdvisorFeeRate       = "opportunity.advisor_fee_rate"
	KeyAdvisorFeeFloor      = "opportunity.advisor_fee_floor"
	KeyDatabasePath         = "database.path"
	KeyLogLevel             = "logging.level"
	KeyLogFormat            = "logging.format"
	KeyTUITheme             = "tui.theme"
	KeyTUIStep              = "tui.step"
)

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	def := engine.DefaultConfig()
	v.SetDefault(KeyTaxYear, def.Year)
	v.SetDefault(KeyWithholdingThreshold, def.WithholdingThreshold.String())
	v.SetDefault(KeyIncludeState, def.IncludeState)
	v.SetDefault(KeyPortfolioDragRate, def.PortfolioDragRate.String())
	v.SetDefault(KeyPortfolioDragFloor, def.PortfolioDragFloor.String())
	v.SetDefault(KeyAdvisorFeeRate, def.AdvisorFeeRate.String())
	v.SetDefault(KeyAdvisorFeeFloor, def.AdvisorFeeFloor.String())
	v.SetDefault(KeyDatabasePath, DefaultDatabasePath())
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
	v.SetDefault(KeyTUITheme, "default")
	v.SetDefault(KeyTUIStep, "1")
}

// LoadEngineConfig builds the engine configuration from the global viper.
func LoadEngineConfig() (engine.Config, error) {
	return EngineConfigFrom(viper.GetViper())
}

// EngineConfigFrom builds the engine configuration from v. Unset keys keep
// their engine defaults.
func EngineConfigFrom(v *viper.Viper) (engine.Config, error) {
	cfg := engine.DefaultConfig()

	if v.IsSet(KeyTaxYear) {
		cfg.Year = v.GetInt(KeyTaxYear)
	}
	if cfg.Year <= 0 {
		return cfg, fmt.Errorf("%s must be a positive year", KeyTaxYear)
	}
	cfg.IncludeState = v.GetBool(KeyIncludeState)

	amounts := []struct {
		dst *decimal.Decimal
		key string
	}{
		{&cfg.WithholdingThreshold, KeyWithholdingThreshold},
		{&cfg.PortfolioDragRate, KeyPortfolioDragRate},
		{&cfg.PortfolioDragFloor, KeyPortfolioDragFloor},
		{&cfg.AdvisorFeeRate, KeyAdvisorFeeRate},
		{&cfg.AdvisorFeeFloor, KeyAdvisorFeeFloor},
	}
	for _, a := range amounts {
		if !v.IsSet(a.key) {
			continue
		}
		// GetString renders YAML numbers as well as quoted strings.
		val, err := decimal.NewFromString(v.GetString(a.key))
		if err != nil {
			return cfg, fmt.Errorf("invalid %s: %w", a.key, err)
		}
		if val.IsNegative() {
			return cfg, fmt.Errorf("%s cannot be negative", a.key)
		}
		*a.dst = val
	}

	return cfg, nil
}
