package memory

import (
	"context"
	"sync"

	"cashflow/internal/core"
	ports "cashflow/internal/sheets"
)

// Export is one recorded ExportLedger call.
type Export struct {
	Balance core.CashFlowBalance
	Entries []core.IncomeEntry
}

// Store is an in-process LedgerExporter. It keeps every export so the worker
// can run without Google credentials and tests can inspect what was sent.
type Store struct {
	mu      sync.Mutex
	exports []Export
	err     error
}

var _ ports.LedgerExporter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// FailWith makes subsequent exports return err. Pass nil to recover.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *Store) ExportLedger(_ context.Context, balance core.CashFlowBalance, entries []core.IncomeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.exports = append(s.exports, Export{
		Balance: balance,
		Entries: append([]core.IncomeEntry(nil), entries...),
	})
	return nil
}

// Exports returns a copy of every successful export, oldest first.
func (s *Store) Exports() []Export {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Export(nil), s.exports...)
}

// Last returns the most recent export.
func (s *Store) Last() (Export, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.exports) == 0 {
		return Export{}, false
	}
	return s.exports[len(s.exports)-1], true
}
