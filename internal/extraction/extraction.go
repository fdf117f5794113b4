// Package extraction validates paystub data produced by an external
// document extractor and turns it into a typed snapshot. Anything the engine
// cannot safely project from is rejected here with a reason.
package extraction

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode"

	"github.com/Veraticus/charge-tax-intel/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Field names reported in Result.Missing.
const (
	FieldFederalWithheld        = "federalWithheld"
	FieldStateWithheld          = "stateWithheld"
	FieldSocialSecurityWithheld = "socialSecurityWithheld"
	FieldMedicareWithheld       = "medicareWithheld"
	FieldPayFrequency           = "payFrequency"
	FieldFilingStatus           = "filingStatus"
	FieldState                  = "state"
	FieldPayDate                = "payDate"
)

var payDateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"1/2/06",
	"01-02-2006",
	"1-2-2006",
	time.RFC3339,
}

// Deductions mirrors the extractor's pre-tax deduction object.
type Deductions struct {
	Retirement401k *decimal.Decimal `json:"retirement401k"`
	HSA            *decimal.Decimal `json:"hsa"`
	FSA            *decimal.Decimal `json:"fsa"`
	Other          *decimal.Decimal `json:"other"`
}

// Paystub is the extractor's JSON shape. Every field is nullable.
type Paystub struct {
	PreTaxDeductions       *Deductions      `json:"preTaxDeductions"`
	GrossPay               *decimal.Decimal `json:"grossPay"`
	NetPay                 *decimal.Decimal `json:"netPay"`
	FederalWithheld        *decimal.Decimal `json:"federalWithheld"`
	StateWithheld          *decimal.Decimal `json:"stateWithheld"`
	SocialSecurityWithheld *decimal.Decimal `json:"socialSecurityWithheld"`
	MedicareWithheld       *decimal.Decimal `json:"medicareWithheld"`
	YTDGrossPay            *decimal.Decimal `json:"ytdGrossPay"`
	YTDFederalWithheld     *decimal.Decimal `json:"ytdFederalWithheld"`
	YTDStateTaxWithheld    *decimal.Decimal `json:"ytdStateTaxWithheld"`
	EmployerName           *string          `json:"employerName"`
	PayPeriodStart         *string          `json:"payPeriodStart"`
	PayPeriodEnd           *string          `json:"payPeriodEnd"`
	PayDate                *string          `json:"payDate"`
	PayFrequency           *string          `json:"payFrequency"`
	FilingStatus           *string          `json:"filingStatus"`
	State                  *string          `json:"state"`
	TaxYear                *int             `json:"taxYear"`
}

// Result is either an accepted snapshot or a rejection with a reason.
type Result struct {
	Reason   string
	Missing  []string
	Snapshot model.PaycheckSnapshot
	Rejected bool
}

// Accepted reports whether the snapshot can be projected from.
func (r Result) Accepted() bool {
	return !r.Rejected
}

// Err returns the rejection as an error, or nil when accepted.
func (r Result) Err() error {
	if !r.Rejected {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrRejected, r.Reason)
}

// ErrRejected wraps every rejection reason.
var ErrRejected = errors.New("paystub rejected")

// ParseFile reads and parses an extractor JSON file. Read failures are
// returned as errors; invalid content is a rejected Result.
func ParseFile(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	r := Parse(data)
	r.Snapshot.Source = path
	return r, nil
}

// Parse validates extractor output. Extractors that wrap the JSON object in
// prose are tolerated; the outermost object is used.
func Parse(data []byte) Result {
	var p Paystub
	if err := decode(data, &p); err != nil {
		return reject("undecodable extractor output: %v", err)
	}
	return FromPaystub(p)
}

// FromPaystub validates an already decoded paystub.
func FromPaystub(p Paystub) Result {
	if p.GrossPay == nil {
		return reject("gross pay is missing")
	}
	if !p.GrossPay.IsPositive() {
		return reject("gross pay %s must be positive", p.GrossPay)
	}

	r := Result{Snapshot: model.PaycheckSnapshot{
		ID:       uuid.NewString(),
		GrossPay: *p.GrossPay,
	}}

	amounts := []struct {
		src   *decimal.Decimal
		dst   *decimal.Decimal
		field string
	}{
		{p.FederalWithheld, &r.Snapshot.FederalWithheld, FieldFederalWithheld},
		{p.StateWithheld, &r.Snapshot.StateWithheld, FieldStateWithheld},
		{p.SocialSecurityWithheld, &r.Snapshot.SocialSecurityWithheld, FieldSocialSecurityWithheld},
		{p.MedicareWithheld, &r.Snapshot.MedicareWithheld, FieldMedicareWithheld},
	}
	for _, a := range amounts {
		if a.src == nil {
			r.Missing = append(r.Missing, a.field)
			continue
		}
		if a.src.IsNegative() {
			return reject("%s %s is negative", a.field, a.src)
		}
		*a.dst = *a.src
	}

	if p.PreTaxDeductions != nil {
		deductions := []struct {
			src  *decimal.Decimal
			dst  *decimal.Decimal
			name string
		}{
			{p.PreTaxDeductions.Retirement401k, &r.Snapshot.PreTax.Retirement401k, "retirement401k"},
			{p.PreTaxDeductions.HSA, &r.Snapshot.PreTax.HSA, "hsa"},
			{p.PreTaxDeductions.FSA, &r.Snapshot.PreTax.FSA, "fsa"},
			{p.PreTaxDeductions.Other, &r.Snapshot.PreTax.Other, "other"},
		}
		for _, dd := range deductions {
			if dd.src == nil {
				continue
			}
			if dd.src.IsNegative() {
				return reject("pre-tax %s %s is negative", dd.name, dd.src)
			}
			*dd.dst = *dd.src
		}
	}

	if present(p.PayFrequency) {
		freq, err := model.ParsePayFrequency(*p.PayFrequency)
		if err != nil {
			return reject("%v", err)
		}
		r.Snapshot.PayFrequency = freq
	} else {
		r.Missing = append(r.Missing, FieldPayFrequency)
	}

	if present(p.FilingStatus) {
		status, err := model.ParseFilingStatus(*p.FilingStatus)
		if err != nil {
			return reject("%v", err)
		}
		r.Snapshot.FilingStatus = status
	} else {
		r.Missing = append(r.Missing, FieldFilingStatus)
	}

	if code, ok := stateCode(p.State); ok {
		r.Snapshot.StateOfResidence = code
	} else {
		r.Missing = append(r.Missing, FieldState)
	}

	if present(p.PayDate) {
		date, err := parsePayDate(*p.PayDate)
		if err != nil {
			return reject("%v", err)
		}
		r.Snapshot.PayDate = date
		r.Snapshot.TaxYear = date.Year()
	} else {
		r.Missing = append(r.Missing, FieldPayDate)
	}
	if p.TaxYear != nil && *p.TaxYear > 0 {
		r.Snapshot.TaxYear = *p.TaxYear
	}

	if present(p.EmployerName) {
		r.Snapshot.EmployerName = strings.TrimSpace(*p.EmployerName)
	}
	// Year-to-date totals only count when both halves are printed and
	// consistent with this period.
	if p.YTDGrossPay != nil && p.YTDFederalWithheld != nil &&
		!p.YTDGrossPay.LessThan(r.Snapshot.GrossPay) && !p.YTDFederalWithheld.IsNegative() {
		r.Snapshot.YTDGrossPay = *p.YTDGrossPay
		r.Snapshot.YTDFederalWithheld = *p.YTDFederalWithheld
	}

	return r
}

func decode(data []byte, p *Paystub) error {
	trimmed := bytes.TrimSpace(data)
	err := json.Unmarshal(trimmed, p)
	if err == nil {
		return nil
	}

	start := bytes.IndexByte(trimmed, '{')
	end := bytes.LastIndexByte(trimmed, '}')
	if start < 0 || end <= start {
		return err
	}
	*p = Paystub{}
	return json.Unmarshal(trimmed[start:end+1], p)
}

func parsePayDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range payDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized pay date %q", raw)
}

// stateCode accepts two-letter postal codes. Anything else is treated as
// missing so the engine falls back to its flat estimate.
func stateCode(raw *string) (string, bool) {
	if !present(raw) {
		return "", false
	}
	code := strings.ToUpper(strings.TrimSpace(*raw))
	if len(code) != 2 {
		return "", false
	}
	for _, r := range code {
		if !unicode.IsLetter(r) {
			return "", false
		}
	}
	return code, true
}

func present(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}

func reject(format string, args ...any) Result {
	return Result{Rejected: true, Reason: fmt.Sprintf(format, args...)}
}
