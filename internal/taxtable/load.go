package taxtable

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/Veraticus/charge-tax-intel/internal/model"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var embeddedTables []byte

var defaultCatalog = sync.OnceValues(func() (*Catalog, error) {
	return LoadBytes(embeddedTables)
})

// Default returns the catalog compiled into the binary. It is parsed once.
func Default() (*Catalog, error) {
	return defaultCatalog()
}

// MustDefault is Default for tests and package-level setup.
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(fmt.Sprintf("embedded tax tables are invalid: %v", err))
	}
	return c
}

type fileBracket struct {
	Upper string `yaml:"upper"`
	Rate  string `yaml:"rate"`
}

type fileLimits struct {
	Elective401k  string `yaml:"elective_401k"`
	CatchUp401k   string `yaml:"catch_up_401k"`
	HSAIndividual string `yaml:"hsa_individual"`
	HSAFamily     string `yaml:"hsa_family"`
	HSACatchUp    string `yaml:"hsa_catch_up"`
	IRA           string `yaml:"ira"`
	IRACatchUp    string `yaml:"ira_catch_up"`
}

type filePayroll struct {
	AdditionalMedicareThreshold map[string]string `yaml:"additional_medicare_threshold"`
	SocialSecurityRate          string            `yaml:"social_security_rate"`
	SocialSecurityWageBase      string            `yaml:"social_security_wage_base"`
	MedicareRate                string            `yaml:"medicare_rate"`
	AdditionalMedicareRate      string            `yaml:"additional_medicare_rate"`
}

type fileYear struct {
	StandardDeduction map[string]string        `yaml:"standard_deduction"`
	Brackets          map[string][]fileBracket `yaml:"brackets"`
	Payroll           filePayroll              `yaml:"payroll"`
	Limits            fileLimits               `yaml:"limits"`
	Year              int                      `yaml:"year"`
}

type file struct {
	States            map[string]string `yaml:"states"`
	StateFallbackRate string            `yaml:"state_fallback_rate"`
	Years             []fileYear        `yaml:"years"`
}

// Load reads a catalog from a YAML file on disk.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tax tables: %w", err)
	}
	c, err := LoadBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// LoadBytes parses and validates catalog YAML.
func LoadBytes(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}

	c := &Catalog{
		years:  make(map[int]*Year, len(f.Years)),
		states: make(map[string]decimal.Decimal, len(f.States)),
	}

	if f.StateFallbackRate != "" {
		rate, err := parseAmount(f.StateFallbackRate, "state_fallback_rate")
		if err != nil {
			return nil, err
		}
		c.fallbackStateRate = rate
	}

	for code, raw := range f.States {
		rate, err := parseAmount(raw, "states."+code)
		if err != nil {
			return nil, err
		}
		c.states[strings.ToUpper(code)] = rate
	}

	for _, fy := range f.Years {
		if _, dup := c.years[fy.Year]; dup {
			return nil, fmt.Errorf("%w: tax year %d defined twice", ErrInvalidTable, fy.Year)
		}
		y, err := parseYear(fy)
		if err != nil {
			return nil, err
		}
		c.years[fy.Year] = y
	}

	return c, nil
}

func parseYear(fy fileYear) (*Year, error) {
	if fy.Year <= 0 {
		return nil, fmt.Errorf("%w: missing year", ErrInvalidTable)
	}

	y := &Year{
		Year:               fy.Year,
		Brackets:           make(map[model.FilingStatus]BracketTable, len(fy.Brackets)),
		StandardDeductions: make(map[model.FilingStatus]decimal.Decimal, len(fy.StandardDeduction)),
	}

	for rawStatus, rows := range fy.Brackets {
		status, err := parseStatus(rawStatus, fy.Year)
		if err != nil {
			return nil, err
		}
		table := BracketTable{Year: fy.Year, Status: status, Brackets: make([]Bracket, 0, len(rows))}
		for i, row := range rows {
			field := fmt.Sprintf("%d.brackets.%s[%d]", fy.Year, status, i)
			rate, err := parseAmount(row.Rate, field+".rate")
			if err != nil {
				return nil, err
			}
			b := Bracket{Rate: rate, Unbounded: row.Upper == ""}
			if !b.Unbounded {
				if b.UpperBound, err = parseAmount(row.Upper, field+".upper"); err != nil {
					return nil, err
				}
			}
			table.Brackets = append(table.Brackets, b)
		}
		if err := table.Validate(); err != nil {
			return nil, err
		}
		y.Brackets[status] = table
	}

	for rawStatus, raw := range fy.StandardDeduction {
		status, err := parseStatus(rawStatus, fy.Year)
		if err != nil {
			return nil, err
		}
		amount, err := parseAmount(raw, fmt.Sprintf("%d.standard_deduction.%s", fy.Year, status))
		if err != nil {
			return nil, err
		}
		y.StandardDeductions[status] = amount
	}

	var err error
	if y.Limits, err = parseLimits(fy.Year, fy.Limits); err != nil {
		return nil, err
	}
	if y.Payroll, err = parsePayroll(fy.Year, fy.Payroll); err != nil {
		return nil, err
	}
	return y, nil
}

func parseLimits(year int, fl fileLimits) (StatutoryLimits, error) {
	var limits StatutoryLimits
	fields := []struct {
		dst  *decimal.Decimal
		raw  string
		name string
	}{
		{&limits.Elective401k, fl.Elective401k, "elective_401k"},
		{&limits.CatchUp401k, fl.CatchUp401k, "catch_up_401k"},
		{&limits.HSAIndividual, fl.HSAIndividual, "hsa_individual"},
		{&limits.HSAFamily, fl.HSAFamily, "hsa_family"},
		{&limits.HSACatchUp, fl.HSACatchUp, "hsa_catch_up"},
		{&limits.IRA, fl.IRA, "ira"},
		{&limits.IRACatchUp, fl.IRACatchUp, "ira_catch_up"},
	}
	for _, f := range fields {
		v, err := parseAmount(f.raw, fmt.Sprintf("%d.limits.%s", year, f.name))
		if err != nil {
			return StatutoryLimits{}, err
		}
		*f.dst = v
	}
	return limits, nil
}

func parsePayroll(year int, fp filePayroll) (Payroll, error) {
	p := Payroll{AdditionalMedicareThresholds: make(map[model.FilingStatus]decimal.Decimal, len(fp.AdditionalMedicareThreshold))}
	fields := []struct {
		dst  *decimal.Decimal
		raw  string
		name string
	}{
		{&p.SocialSecurityRate, fp.SocialSecurityRate, "social_security_rate"},
		{&p.SocialSecurityWageBase, fp.SocialSecurityWageBase, "social_security_wage_base"},
		{&p.MedicareRate, fp.MedicareRate, "medicare_rate"},
		{&p.AdditionalMedicareRate, fp.AdditionalMedicareRate, "additional_medicare_rate"},
	}
	for _, f := range fields {
		v, err := parseAmount(f.raw, fmt.Sprintf("%d.payroll.%s", year, f.name))
		if err != nil {
			return Payroll{}, err
		}
		*f.dst = v
	}
	for rawStatus, raw := range fp.AdditionalMedicareThreshold {
		status, err := parseStatus(rawStatus, year)
		if err != nil {
			return Payroll{}, err
		}
		v, err := parseAmount(raw, fmt.Sprintf("%d.payroll.additional_medicare_threshold.%s", year, status))
		if err != nil {
			return Payroll{}, err
		}
		p.AdditionalMedicareThresholds[status] = v
	}
	return p, nil
}

func parseStatus(raw string, year int) (model.FilingStatus, error) {
	status := model.FilingStatus(raw)
	if !status.IsValid() {
		return "", fmt.Errorf("%w: tax year %d has unknown filing status %q", ErrInvalidTable, year, raw)
	}
	return status, nil
}

func parseAmount(raw, field string) (decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return decimal.Zero, fmt.Errorf("%w: %s is required", ErrInvalidTable, field)
	}
	v, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s: %v", ErrInvalidTable, field, err)
	}
	if v.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %s cannot be negative", ErrInvalidTable, field)
	}
	return v, nil
}
