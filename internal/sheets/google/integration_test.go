//go:build integration

package google

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"cashflow/internal/core"
)

// Integration tests require real Google Sheets credentials
// Run with: go test -tags=integration ./internal/sheets/google

func TestIntegration_ExportLedger(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	spreadsheetID := os.Getenv("GOOGLE_SPREADSHEET_ID")
	if spreadsheetID == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}
	cfg := Config{
		SpreadsheetID:   spreadsheetID,
		SheetName:       os.Getenv("GOOGLE_SHEET_NAME"),
		CredentialsJSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		CredentialsFile: os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"),
	}
	if cfg.CredentialsJSON == "" && cfg.CredentialsFile == "" && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
		t.Skip("service account credentials not configured, skipping integration test")
	}

	ctx := context.Background()
	client, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	balance := core.CashFlowBalance{
		InitialBalance: decimal.NewFromInt(1000),
		CurrentBalance: decimal.RequireFromString("1012.34"),
		LastUpdated:    time.Now().UnixMilli(),
	}
	entries := []core.IncomeEntry{{
		ID:           "integration",
		Amount:       decimal.RequireFromString("12.34"),
		Date:         core.NewDate(time.Now().Year(), int(time.Now().Month()), time.Now().Day()),
		Description:  "Integration Test Income",
		Category:     core.Other,
		BalanceAfter: decimal.RequireFromString("1012.34"),
	}}

	if err := client.ExportLedger(ctx, balance, entries); err != nil {
		t.Fatalf("Failed to export ledger: %v", err)
	}

	resp, err := client.svc.Spreadsheets.Values.Get(spreadsheetID, sheetRange(client.sheetName, "A4:E4")).Context(ctx).Do()
	if err != nil {
		t.Fatalf("Failed to read back export: %v", err)
	}
	if len(resp.Values) != 1 || len(resp.Values[0]) < 2 {
		t.Fatalf("unexpected exported row: %v", resp.Values)
	}
	t.Logf("Exported row: %v", resp.Values[0])
}
