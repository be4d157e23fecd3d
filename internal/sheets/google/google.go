package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"cashflow/internal/core"
	applog "cashflow/internal/log"
	ports "cashflow/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Columns written for each entry.
var entryHeader = []any{"Date", "Description", "Category", "Amount", "Balance After"}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *applog.Logger
}

// Ensure interface conformance
var _ ports.LedgerExporter = (*Client)(nil)

// Config selects the target spreadsheet and the service account used to
// reach it. CredentialsJSON wins over CredentialsFile.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheetName := strings.TrimSpace(cfg.SheetName)
	if sheetName == "" {
		sheetName = "Cash Flow"
	}

	logger := applog.ForComponent(applog.ComponentSheets)
	svc, err := newSheetsService(ctx, logger, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		logger:        logger,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Falls back to GOOGLE_APPLICATION_CREDENTIALS when neither source is configured.
func newSheetsService(ctx context.Context, logger *applog.Logger, cfg Config) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(cfg.CredentialsJSON)
	serviceAccountFile := strings.TrimSpace(cfg.CredentialsFile)

	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		data, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	logger.InfoContext(ctx, "Google Sheets service created",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)
	return service, nil
}

// ExportLedger clears the ledger sheet and rewrites it from the snapshot.
func (c *Client) ExportLedger(ctx context.Context, balance core.CashFlowBalance, entries []core.IncomeEntry) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	clearRange := sheetRange(c.sheetName, "A:E")
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to clear %s: %w", clearRange, err)
	}

	rows := ledgerRows(balance, entries)
	dataRange := sheetRange(c.sheetName, fmt.Sprintf("A1:E%d", len(rows)))
	vr := &gsheet.ValueRange{Values: rows}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, dataRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to update %s: %w", dataRange, err)
	}

	c.logger.InfoContext(ctx, "Ledger exported to Google Sheets",
		applog.FieldSheetsRange, dataRange,
		applog.FieldEntryCount, len(entries),
		applog.FieldBalance, balance.CurrentBalance.StringFixed(2))
	return nil
}

// ledgerRows lays out the sheet: a balance header, a blank row, the column
// header and one row per entry in the order given.
func ledgerRows(balance core.CashFlowBalance, entries []core.IncomeEntry) [][]any {
	updated := ""
	if balance.LastUpdated > 0 {
		updated = time.UnixMilli(balance.LastUpdated).UTC().Format("2006-01-02 15:04:05")
	}

	rows := make([][]any, 0, len(entries)+3)
	rows = append(rows,
		[]any{"Current Balance", balance.CurrentBalance.StringFixed(2), "Initial Balance", balance.InitialBalance.StringFixed(2), updated},
		[]any{},
		entryHeader,
	)
	for _, e := range entries {
		rows = append(rows, []any{
			e.Date.String(),
			e.Description,
			e.Category.String(),
			e.Amount.StringFixed(2),
			e.BalanceAfter.StringFixed(2),
		})
	}
	return rows
}

// sheetRange builds an A1 range, quoting the sheet name.
func sheetRange(sheet, cells string) string {
	return fmt.Sprintf("'%s'!%s", strings.ReplaceAll(sheet, "'", "''"), cells)
}
