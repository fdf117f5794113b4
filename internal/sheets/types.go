package sheets

import (
	"context"

	"github.com/Veraticus/charge-tax-intel/internal/report"
)

// ReportWriter writes an analysis report somewhere durable.
type ReportWriter interface {
	Write(ctx context.Context, r report.Report) error
}
