package report

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/Veraticus/charge-tax-intel/internal/common"
	"github.com/go-pdf/fpdf"
)

const (
	pageWidth    = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 20.0
	contentWidth = pageWidth - marginLeft - marginRight
)

type pdfReport struct {
	pdf    *fpdf.Fpdf
	tr     func(string) string
	report Report
}

// RenderPDF lays a report out as an A4 document.
func RenderPDF(r Report) ([]byte, error) {
	doc := &pdfReport{
		pdf:    fpdf.New("P", "mm", "A4", ""),
		report: r,
	}

	doc.tr = doc.pdf.UnicodeTranslatorFromDescriptor("")
	doc.pdf.SetMargins(marginLeft, marginTop, marginRight)
	doc.pdf.SetAutoPageBreak(true, marginBottom)
	doc.pdf.SetTitle(fmt.Sprintf("Tax Intel Report %d", r.Year), false)

	doc.pdf.AddPage()
	doc.addTitle()
	for _, section := range r.Sections {
		doc.addSection(section)
	}
	doc.addStrategies()
	doc.addPaycheck()
	doc.addHistory()
	doc.addWarnings()

	var buf bytes.Buffer
	if err := doc.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrExportFailed, err)
	}
	return buf.Bytes(), nil
}

// WritePDF renders a report and writes it to path.
func WritePDF(path string, r Report) error {
	data, err := RenderPDF(r)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("%w: failed to write %s: %w", common.ErrExportFailed, path, err)
	}
	return nil
}

func (d *pdfReport) addTitle() {
	d.pdf.SetFont("Arial", "B", 22)
	d.pdf.SetTextColor(0, 51, 102)
	d.pdf.CellFormat(contentWidth, 12, fmt.Sprintf("Tax Intel Report %d", d.report.Year), "", 1, "L", false, 0, "")

	d.pdf.SetFont("Arial", "I", 10)
	d.pdf.SetTextColor(80, 80, 80)
	d.pdf.CellFormat(contentWidth, 6, "Generated: "+d.report.GeneratedAt.Format("2 January 2006 15:04"), "", 1, "L", false, 0, "")
	d.pdf.Ln(6)
}

func (d *pdfReport) addSection(s Section) {
	d.drawSectionHeader(s.Title)
	widths := []float64{75, 40, contentWidth - 115}
	d.drawTableHeader([]string{"", "Amount", "Note"}, widths)
	for _, row := range s.Rows {
		value := common.FormatMoney(row.Value)
		if row.Rate {
			value = common.FormatRate(row.Value)
		}
		bold := strings.HasPrefix(row.Label, "Total")
		d.drawTableRow([]string{row.Label, value, row.Note}, widths, bold)
	}
	d.pdf.Ln(6)
}

func (d *pdfReport) addStrategies() {
	if len(d.report.Strategies) == 0 {
		return
	}
	d.drawSectionHeader("Strategies")
	for _, s := range d.report.Strategies {
		d.setPriorityColor(string(s.Priority))
		d.pdf.SetFont("Arial", "B", 11)
		title := s.Strategy
		if s.PotentialSavings.IsPositive() {
			title += " (" + common.FormatMoney(s.PotentialSavings) + ")"
		}
		d.pdf.CellFormat(contentWidth, 7, d.tr(title), "", 1, "L", false, 0, "")

		d.pdf.SetTextColor(50, 50, 50)
		d.pdf.SetFont("Arial", "", 10)
		d.pdf.MultiCell(contentWidth, 5, d.tr(s.Recommendation), "", "L", false)
		if s.HowToImplement != "" {
			d.pdf.SetFont("Arial", "I", 9)
			d.pdf.MultiCell(contentWidth, 5, d.tr(s.HowToImplement), "", "L", false)
		}
		d.pdf.Ln(3)
	}
	d.pdf.Ln(3)
}

func (d *pdfReport) addPaycheck() {
	if len(d.report.Paycheck) == 0 {
		return
	}
	d.drawSectionHeader("Paycheck Changes")
	widths := []float64{70, 25, 30, 30, contentWidth - 155}
	d.drawTableHeader([]string{"Change", "Priority", "Current", "Suggested", "Per Paycheck"}, widths)
	for _, p := range d.report.Paycheck {
		d.drawTableRow([]string{
			truncateString(p.Action, 40),
			string(p.Priority),
			common.FormatMoney(p.CurrentAmount),
			common.FormatMoney(p.SuggestedAmount),
			common.FormatMoney(p.ExtraPerPaycheck),
		}, widths, false)
	}
	d.pdf.Ln(6)
}

func (d *pdfReport) addHistory() {
	if len(d.report.History) == 0 {
		return
	}
	d.drawSectionHeader("History")
	widths := []float64{35, 15, 30, 30, 30, contentWidth - 140}
	d.drawTableHeader([]string{"Run", "Year", "Total Tax", "Differential", "Missed Match", "Per Day"}, widths)
	for _, h := range d.report.History {
		d.drawTableRow([]string{
			h.CreatedAt.Format("2006-01-02 15:04"),
			fmt.Sprint(h.Year),
			common.FormatMoney(h.TotalTax),
			common.FormatMoney(h.Differential),
			common.FormatMoney(h.MissedMatch),
			common.FormatMoney(h.DailyCost),
		}, widths, false)
	}
	d.pdf.Ln(6)
}

func (d *pdfReport) addWarnings() {
	if len(d.report.Warnings) == 0 {
		return
	}
	d.drawSectionHeader("Notes")
	d.pdf.SetFont("Arial", "", 9)
	d.pdf.SetTextColor(180, 100, 0)
	for _, w := range d.report.Warnings {
		d.pdf.MultiCell(contentWidth, 5, "- "+d.tr(w), "", "L", false)
	}
}

func (d *pdfReport) drawSectionHeader(title string) {
	d.pdf.SetFont("Arial", "B", 14)
	d.pdf.SetTextColor(0, 51, 102)
	d.pdf.CellFormat(contentWidth, 9, d.tr(title), "", 1, "L", false, 0, "")
	d.pdf.SetDrawColor(0, 51, 102)
	d.pdf.Line(marginLeft, d.pdf.GetY(), marginLeft+contentWidth, d.pdf.GetY())
	d.pdf.Ln(3)
}

func (d *pdfReport) drawTableHeader(headers []string, widths []float64) {
	d.pdf.SetFillColor(0, 51, 102)
	d.pdf.SetTextColor(255, 255, 255)
	d.pdf.SetFont("Arial", "B", 9)

	for i, header := range headers {
		align := "L"
		if i > 0 {
			align = "R"
		}
		d.pdf.CellFormat(widths[i], 6, header, "1", 0, align, true, 0, "")
	}
	d.pdf.Ln(-1)
}

func (d *pdfReport) drawTableRow(cells []string, widths []float64, bold bool) {
	d.pdf.SetFillColor(250, 250, 250)
	d.pdf.SetTextColor(50, 50, 50)

	if bold {
		d.pdf.SetFont("Arial", "B", 9)
		d.pdf.SetFillColor(240, 240, 240)
	} else {
		d.pdf.SetFont("Arial", "", 9)
	}

	for i, cell := range cells {
		align := "L"
		if i > 0 {
			align = "R"
		}
		d.pdf.CellFormat(widths[i], 5, d.tr(cell), "1", 0, align, true, 0, "")
	}
	d.pdf.Ln(-1)
}

func (d *pdfReport) setPriorityColor(priority string) {
	switch priority {
	case "high":
		d.pdf.SetTextColor(180, 0, 0)
	case "medium":
		d.pdf.SetTextColor(180, 100, 0)
	default:
		d.pdf.SetTextColor(0, 100, 50)
	}
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
