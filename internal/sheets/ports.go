package sheets

import (
	"context"

	"cashflow/internal/core"
)

// Ports for outbound adapters.
type (
	// LedgerExporter publishes a full ledger snapshot to an external
	// spreadsheet. Entries arrive in chronological order and every export
	// replaces the previous one.
	LedgerExporter interface {
		ExportLedger(ctx context.Context, balance core.CashFlowBalance, entries []core.IncomeEntry) error
	}
)
