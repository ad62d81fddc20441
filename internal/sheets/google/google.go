// Package google exports month ledgers through the Google Sheets API.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/log"
	ports "fintrack/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const defaultSheetName = "Transactions"

type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ ports.MonthExporter = (*Exporter)(nil)

// New builds an exporter over an existing spreadsheet. opts are passed to the
// Sheets client and carry credentials or, in tests, an endpoint override.
func New(ctx context.Context, spreadsheetID, sheetName string, opts ...goption.ClientOption) (*Exporter, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, fmt.Errorf("%w: missing spreadsheet id", ports.ErrNotConfigured)
	}
	if strings.TrimSpace(sheetName) == "" {
		sheetName = defaultSheetName
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Exporter{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}, nil
}

// NewFromEnv reads GOOGLE_SPREADSHEET_ID and GOOGLE_SHEET_NAME and
// authenticates with a service account from GOOGLE_SERVICE_ACCOUNT_JSON,
// GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Exporter, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, fmt.Errorf("%w: missing GOOGLE_SPREADSHEET_ID", ports.ErrNotConfigured)
	}
	creds, err := credentialsFromEnv()
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Creating Google Sheets exporter",
		log.FieldComponent, log.ComponentSheets,
		"credentials_size", len(creds),
		"scope", gsheet.SpreadsheetsScope)
	return New(ctx, spreadsheetID, os.Getenv("GOOGLE_SHEET_NAME"),
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
}

func credentialsFromEnv() ([]byte, error) {
	if inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")); inline != "" {
		return []byte(inline), nil
	}
	path := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if path == "" {
		path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if path == "" {
		return nil, fmt.Errorf("%w: missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)", ports.ErrNotConfigured)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return data, nil
}

// ExportMonth clears the sheet and writes the month's rows from A1.
func (e *Exporter) ExportMonth(ctx context.Context, month string, txs []core.Transaction, currency string) (string, error) {
	if e.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if _, err := core.ParseMonth(month); err != nil {
		return "", err
	}

	clearRange := fmt.Sprintf("%s!A:Z", e.sheetName)
	_, err := e.svc.Spreadsheets.Values.Clear(e.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("clear %s: %w", clearRange, err)
	}

	rows := ports.Rows(month, txs, currency)
	target := fmt.Sprintf("%s!A1", e.sheetName)
	resp, err := e.svc.Spreadsheets.Values.Update(e.spreadsheetID, target, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("update %s: %w", target, err)
	}

	ref := resp.UpdatedRange
	if ref == "" {
		ref = target
	}
	slog.InfoContext(ctx, "Exported month to sheet",
		log.FieldComponent, log.ComponentSheets,
		"month", month,
		"rows", len(rows)-1,
		"range", ref)
	return ref, nil
}
