package ledger

import (
	"context"

	"cashflow/internal/core"
)

// Ports for the facade's collaborators.
type (
	// Store persists the balance singleton and the entry list.
	Store interface {
		// LoadBalance reports ok=false when no balance has ever been written.
		LoadBalance(ctx context.Context) (balance core.CashFlowBalance, ok bool, err error)
		// LoadEntries returns an empty slice when nothing is stored.
		LoadEntries(ctx context.Context) ([]core.IncomeEntry, error)
		SaveBalance(ctx context.Context, balance core.CashFlowBalance) error
		// WritePair persists entries and balance together. Implementations on
		// a transactional backend make it atomic; others write entries first.
		WritePair(ctx context.Context, balance core.CashFlowBalance, entries []core.IncomeEntry) error
	}

	// Notifier is told about every committed mutation. Failures are logged
	// and never undo the mutation.
	Notifier interface {
		NotifyLedgerChange(ctx context.Context, change core.LedgerChange) error
	}
)
