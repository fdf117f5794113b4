package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/Veraticus/charge-tax-intel/internal/common"
	"github.com/Veraticus/charge-tax-intel/internal/report"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Writer implements ReportWriter for Google Sheets.
type Writer struct {
	service *sheets.Service
	logger  *slog.Logger
	config  Config
}

// NewWriter creates a new Google Sheets report writer.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	service, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Writer{
		config:  config,
		service: service,
		logger:  logger,
	}, nil
}

// SpreadsheetID returns the configured spreadsheet, which is empty until
// Write creates one.
func (w *Writer) SpreadsheetID() string {
	return w.config.SpreadsheetID
}

// Write replaces the sheet's contents with rep.
func (w *Writer) Write(ctx context.Context, rep report.Report) error {
	w.logger.Info("starting sheets export",
		"tax_year", rep.Year,
		"sections", len(rep.Sections),
		"strategies", len(rep.Strategies))

	spreadsheetID, err := w.getOrCreateSpreadsheet(ctx)
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet: %w", err)
	}
	w.config.SpreadsheetID = spreadsheetID

	retryOpts := common.DefaultRetryOptions()
	retryOpts.MaxAttempts = w.config.RetryAttempts
	retryOpts.InitialDelay = w.config.RetryDelay

	err = common.WithRetry(ctx, func() error {
		return classifyAPIError(w.clearSheet(ctx, spreadsheetID))
	}, retryOpts)
	if err != nil {
		return fmt.Errorf("failed to clear sheet: %w", err)
	}

	layout := prepareReportData(rep)

	err = common.WithRetry(ctx, func() error {
		return classifyAPIError(w.writeData(ctx, spreadsheetID, layout.values))
	}, retryOpts)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrExportFailed, err)
	}

	if w.config.EnableFormatting {
		err = common.WithRetry(ctx, func() error {
			return classifyAPIError(w.applyFormatting(ctx, spreadsheetID, layout))
		}, retryOpts)
		if err != nil {
			// Formatting is cosmetic; the data is already written.
			w.logger.Warn("failed to apply formatting", "error", err)
		}
	}

	w.logger.Info("sheets export completed",
		"spreadsheet_id", spreadsheetID,
		"rows_written", len(layout.values),
		"summary", summaryLine(rep))

	return nil
}

// classifyAPIError tells WithRetry which Sheets API failures are worth
// another attempt: rate limits and server errors are, client errors are not.
func classifyAPIError(err error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", common.ErrRateLimit, err)
	case apiErr.Code >= http.StatusInternalServerError:
		return common.Transient(err)
	case apiErr.Code >= http.StatusBadRequest:
		return common.Permanent(err)
	default:
		return err
	}
}

// createSheetsService creates a Google Sheets API service.
func createSheetsService(ctx context.Context, config Config) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}

		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		client := oauthConfig(config.ClientID, config.ClientSecret, "")
		token := &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		}
		if config.RefreshToken == "" {
			cached, err := LoadToken(config.TokenFile)
			if err != nil {
				return nil, fmt.Errorf("unable to load token file %s: %w", config.TokenFile, err)
			}
			token = cached
		}
		tokenSource = client.TokenSource(ctx, token)
	}

	httpClient := oauth2.NewClient(ctx, tokenSource)
	srv, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	return srv, nil
}

// getOrCreateSpreadsheet gets an existing spreadsheet or creates a new one.
func (w *Writer) getOrCreateSpreadsheet(ctx context.Context) (string, error) {
	if w.config.SpreadsheetID != "" {
		_, err := w.service.Spreadsheets.Get(w.config.SpreadsheetID).Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("unable to access spreadsheet %s: %w", w.config.SpreadsheetID, err)
		}
		return w.config.SpreadsheetID, nil
	}

	spreadsheet := &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title:    w.config.SpreadsheetName,
			TimeZone: w.config.TimeZone,
		},
		Sheets: []*sheets.Sheet{
			{
				Properties: &sheets.SheetProperties{
					Title: w.config.SheetTitle,
				},
			},
		},
	}

	created, err := w.service.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to create spreadsheet: %w", err)
	}

	w.logger.Info("created new spreadsheet",
		"id", created.SpreadsheetId,
		"url", created.SpreadsheetUrl)

	return created.SpreadsheetId, nil
}

func (w *Writer) clearSheet(ctx context.Context, spreadsheetID string) error {
	_, err := w.service.Spreadsheets.Values.Clear(spreadsheetID, w.sheetRange("A:Z"), &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

func (w *Writer) sheetRange(cells string) string {
	if w.config.SheetTitle == "" {
		return cells
	}
	return fmt.Sprintf("'%s'!%s", w.config.SheetTitle, cells)
}

// writeData writes values in batches to stay under API request limits.
func (w *Writer) writeData(ctx context.Context, spreadsheetID string, values [][]any) error {
	for i := 0; i < len(values); i += w.config.BatchSize {
		end := min(i+w.config.BatchSize, len(values))

		batch := values[i:end]
		valueRange := &sheets.ValueRange{
			Values: batch,
		}

		_, err := w.service.Spreadsheets.Values.Update(spreadsheetID, w.sheetRange(fmt.Sprintf("A%d", i+1)), valueRange).
			ValueInputOption("USER_ENTERED").
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("failed to write batch starting at row %d: %w", i+1, err)
		}

		w.logger.Debug("wrote batch", "start_row", i+1, "rows", len(batch))
	}

	return nil
}

func (w *Writer) applyFormatting(ctx context.Context, spreadsheetID string, layout reportLayout) error {
	sheetID, err := w.sheetID(ctx, spreadsheetID)
	if err != nil {
		return err
	}

	requests := []*sheets.Request{
		boldRows(sheetID, 0, 1, 16),
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					EndRowIndex:      int64(len(layout.values)),
					StartColumnIndex: 1,
					EndColumnIndex:   2,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						NumberFormat: &sheets.NumberFormat{
							Type:    "CURRENCY",
							Pattern: "$#,##0.00",
						},
					},
				},
				Fields: "userEnteredFormat.numberFormat",
			},
		},
	}
	for _, row := range layout.headerRows {
		requests = append(requests, boldRows(sheetID, int64(row), int64(row+1), 0))
	}
	for _, row := range layout.rateRows {
		requests = append(requests, &sheets.Request{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    int64(row),
					EndRowIndex:      int64(row + 1),
					StartColumnIndex: 1,
					EndColumnIndex:   2,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						NumberFormat: &sheets.NumberFormat{Type: "PERCENT", Pattern: "0.00%"},
					},
				},
				Fields: "userEnteredFormat.numberFormat",
			},
		})
	}
	requests = append(requests, &sheets.Request{
		AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
			Dimensions: &sheets.DimensionRange{
				SheetId:    sheetID,
				Dimension:  "COLUMNS",
				StartIndex: 0,
				EndIndex:   int64(layout.width),
			},
		},
	})

	batchUpdate := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}

	_, err = w.service.Spreadsheets.BatchUpdate(spreadsheetID, batchUpdate).Context(ctx).Do()
	return err
}

func (w *Writer) sheetID(ctx context.Context, spreadsheetID string) (int64, error) {
	ss, err := w.service.Spreadsheets.Get(spreadsheetID).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("unable to read spreadsheet: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == w.config.SheetTitle {
			return s.Properties.SheetId, nil
		}
	}
	return 0, nil
}

func boldRows(sheetID, start, end int64, fontSize int64) *sheets.Request {
	format := &sheets.TextFormat{Bold: true}
	if fontSize > 0 {
		format.FontSize = fontSize
	}
	return &sheets.Request{
		RepeatCell: &sheets.RepeatCellRequest{
			Range: &sheets.GridRange{
				SheetId:          sheetID,
				StartRowIndex:    start,
				EndRowIndex:      end,
				StartColumnIndex: 0,
				EndColumnIndex:   8,
			},
			Cell: &sheets.CellData{
				UserEnteredFormat: &sheets.CellFormat{TextFormat: format},
			},
			Fields: "userEnteredFormat.textFormat",
		},
	}
}
