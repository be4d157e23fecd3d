package google

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"cashflow/internal/core"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{})
	if err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), Config{SpreadsheetID: "test-id"})
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("expected credentials error, got %v", err)
	}
}

func TestNew_UnreadableCredentialsFile(t *testing.T) {
	_, err := New(context.Background(), Config{SpreadsheetID: "test-id", CredentialsFile: "/non/existent.json"})
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestExportLedger_NilService(t *testing.T) {
	c := &Client{spreadsheetID: "test"}
	if err := c.ExportLedger(context.Background(), core.CashFlowBalance{}, nil); err == nil {
		t.Fatal("expected error with uninitialized service")
	}
}

func TestLedgerRows(t *testing.T) {
	balance := core.CashFlowBalance{
		InitialBalance: decimal.NewFromInt(1000),
		CurrentBalance: decimal.RequireFromString("1500.5"),
		LastUpdated:    1704448800000, // 2024-01-05 10:00:00 UTC
	}
	entries := []core.IncomeEntry{{
		ID:           "e1",
		Amount:       decimal.RequireFromString("500.5"),
		Date:         core.MustParseDate("2024-01-05"),
		Description:  "Paycheck",
		Category:     core.Salary,
		BalanceAfter: decimal.RequireFromString("1500.5"),
	}}

	rows := ledgerRows(balance, entries)

	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
	if rows[0][1] != "1500.50" || rows[0][3] != "1000.00" || rows[0][4] != "2024-01-05 10:00:00" {
		t.Errorf("unexpected balance row %v", rows[0])
	}
	if len(rows[1]) != 0 {
		t.Errorf("expected blank spacer row, got %v", rows[1])
	}
	if rows[2][0] != "Date" || rows[2][4] != "Balance After" {
		t.Errorf("unexpected header row %v", rows[2])
	}
	want := []any{"2024-01-05", "Paycheck", "Salary", "500.50", "1500.50"}
	for i, v := range want {
		if rows[3][i] != v {
			t.Errorf("column %d: expected %v, got %v", i, v, rows[3][i])
		}
	}
}

func TestSheetRange(t *testing.T) {
	tests := map[string]string{
		"Cash Flow": "'Cash Flow'!A:E",
		"Bob's":     "'Bob''s'!A:E",
	}
	for sheet, want := range tests {
		if got := sheetRange(sheet, "A:E"); got != want {
			t.Errorf("sheetRange(%q) = %q, want %q", sheet, got, want)
		}
	}
}
