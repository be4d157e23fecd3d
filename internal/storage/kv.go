package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"cashflow/internal/core"
)

// Keys under which the ledger pair is stored.
const (
	BalanceKey = "@cashflow_balance"
	EntriesKey = "@cashflow_income_entries"
)

type (
	// Backend is a flat string key-value namespace.
	Backend interface {
		// Get reports ok=false for a key that was never set.
		Get(ctx context.Context, key string) (value string, ok bool, err error)
		Set(ctx context.Context, key, value string) error
		Close() error
	}

	// Batcher is implemented by backends that can write several keys
	// atomically.
	Batcher interface {
		SetBatch(ctx context.Context, items []KV) error
	}

	KV struct {
		Key   string
		Value string
	}
)

// LedgerStore keeps the balance record and the entry list as two JSON values
// in a Backend.
type LedgerStore struct {
	backend Backend
}

func NewLedgerStore(backend Backend) *LedgerStore {
	return &LedgerStore{backend: backend}
}

func (s *LedgerStore) LoadBalance(ctx context.Context) (core.CashFlowBalance, bool, error) {
	raw, ok, err := s.backend.Get(ctx, BalanceKey)
	if err != nil {
		return core.CashFlowBalance{}, false, fmt.Errorf("read balance: %w", err)
	}
	if !ok {
		return core.CashFlowBalance{}, false, nil
	}
	var b core.CashFlowBalance
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		return core.CashFlowBalance{}, false, fmt.Errorf("decode balance: %w", err)
	}
	return b, true, nil
}

func (s *LedgerStore) LoadEntries(ctx context.Context) ([]core.IncomeEntry, error) {
	raw, ok, err := s.backend.Get(ctx, EntriesKey)
	if err != nil {
		return nil, fmt.Errorf("read entries: %w", err)
	}
	entries := []core.IncomeEntry{}
	if !ok || raw == "" {
		return entries, nil
	}
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("decode entries: %w", err)
	}
	return entries, nil
}

func (s *LedgerStore) SaveBalance(ctx context.Context, b core.CashFlowBalance) error {
	raw, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode balance: %w", err)
	}
	if err := s.backend.Set(ctx, BalanceKey, string(raw)); err != nil {
		return fmt.Errorf("write balance: %w", err)
	}
	return nil
}

// WritePair stores entries and balance. On a Batcher both land in one
// transaction; otherwise entries are written first and a failure before the
// balance write leaves a stale balance for RecalculateBalance to repair.
func (s *LedgerStore) WritePair(ctx context.Context, b core.CashFlowBalance, entries []core.IncomeEntry) error {
	if entries == nil {
		entries = []core.IncomeEntry{}
	}
	rawEntries, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode entries: %w", err)
	}
	rawBalance, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode balance: %w", err)
	}

	if batcher, ok := s.backend.(Batcher); ok {
		if err := batcher.SetBatch(ctx, []KV{
			{Key: EntriesKey, Value: string(rawEntries)},
			{Key: BalanceKey, Value: string(rawBalance)},
		}); err != nil {
			return fmt.Errorf("write ledger: %w", err)
		}
		return nil
	}

	if err := s.backend.Set(ctx, EntriesKey, string(rawEntries)); err != nil {
		return fmt.Errorf("write entries: %w", err)
	}
	if err := s.backend.Set(ctx, BalanceKey, string(rawBalance)); err != nil {
		return fmt.Errorf("write balance: %w", err)
	}
	return nil
}
