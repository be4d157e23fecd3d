package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"cashflow/internal/core"
	"cashflow/internal/ledger"
	applog "cashflow/internal/log"
)

func openBackends(t *testing.T) map[string]Backend {
	t.Helper()
	dir := t.TempDir()

	file, err := NewFileBackend(filepath.Join(dir, "files"))
	if err != nil {
		t.Fatalf("NewFileBackend: %v", err)
	}
	sqlite, err := NewSQLiteBackend(filepath.Join(dir, "db", "cashflow.db"))
	if err != nil {
		t.Fatalf("NewSQLiteBackend: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Backend{
		"memory": NewMemoryBackend(),
		"file":   file,
		"sqlite": sqlite,
	}
}

func TestBackendGetSet(t *testing.T) {
	ctx := context.Background()
	for name, b := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := b.Get(ctx, BalanceKey); err != nil || ok {
				t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
			}
			if err := b.Set(ctx, BalanceKey, `{"a":1}`); err != nil {
				t.Fatalf("Set: %v", err)
			}
			if err := b.Set(ctx, BalanceKey, `{"a":2}`); err != nil {
				t.Fatalf("Set overwrite: %v", err)
			}
			v, ok, err := b.Get(ctx, BalanceKey)
			if err != nil || !ok || v != `{"a":2}` {
				t.Fatalf("unexpected Get result %q ok=%v err=%v", v, ok, err)
			}
		})
	}
}

func TestLedgerStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, b := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			s := NewLedgerStore(b)

			if _, ok, err := s.LoadBalance(ctx); err != nil || ok {
				t.Fatalf("expected no balance, got ok=%v err=%v", ok, err)
			}
			entries, err := s.LoadEntries(ctx)
			if err != nil || entries == nil || len(entries) != 0 {
				t.Fatalf("expected empty non-nil entries, got %v err=%v", entries, err)
			}

			balance := core.CashFlowBalance{
				InitialBalance: decimal.RequireFromString("1000"),
				CurrentBalance: decimal.RequireFromString("1500.25"),
				TotalIncome:    decimal.RequireFromString("500.25"),
				LastEntryID:    "e1",
				LastUpdated:    1704456000000,
			}
			in := []core.IncomeEntry{{
				ID:           "e1",
				Amount:       decimal.RequireFromString("500.25"),
				Date:         core.MustParseDate("2024-01-05"),
				Description:  "Paycheck",
				Category:     core.Salary,
				Timestamp:    1704456000000,
				BalanceAfter: decimal.RequireFromString("1500.25"),
			}}
			if err := s.WritePair(ctx, balance, in); err != nil {
				t.Fatalf("WritePair: %v", err)
			}

			got, ok, err := s.LoadBalance(ctx)
			if err != nil || !ok {
				t.Fatalf("LoadBalance: ok=%v err=%v", ok, err)
			}
			if !got.CurrentBalance.Equal(balance.CurrentBalance) || got.LastEntryID != "e1" {
				t.Fatalf("unexpected balance %+v", got)
			}
			entries, err = s.LoadEntries(ctx)
			if err != nil || len(entries) != 1 {
				t.Fatalf("LoadEntries: %v err=%v", entries, err)
			}
			e := entries[0]
			if e.Date.String() != "2024-01-05" || !e.BalanceAfter.Equal(in[0].BalanceAfter) || e.Category != core.Salary {
				t.Fatalf("unexpected entry %+v", e)
			}
		})
	}
}

func TestLedgerStoreRejectsCorruptData(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend()
	_ = b.Set(ctx, EntriesKey, "not json")
	if _, err := NewLedgerStore(b).LoadEntries(ctx); err == nil {
		t.Fatal("expected decode error")
	}
}

// failingBackend fails every Set for the named key. It does not implement
// Batcher.
type failingBackend struct {
	mem     *MemoryBackend
	failKey string
}

func (f failingBackend) Get(ctx context.Context, key string) (string, bool, error) {
	return f.mem.Get(ctx, key)
}

func (f failingBackend) Set(ctx context.Context, key, value string) error {
	if key == f.failKey {
		return errors.New("write refused")
	}
	return f.mem.Set(ctx, key, value)
}

func (f failingBackend) Close() error { return nil }

func TestWritePairWithoutBatchWritesEntriesFirst(t *testing.T) {
	ctx := context.Background()
	b := failingBackend{mem: NewMemoryBackend(), failKey: BalanceKey}
	s := NewLedgerStore(b)

	err := s.WritePair(ctx, core.CashFlowBalance{}, []core.IncomeEntry{{ID: "x", Date: core.MustParseDate("2024-01-01")}})
	if err == nil {
		t.Fatal("expected balance write to fail")
	}
	if _, ok, _ := b.Get(ctx, EntriesKey); !ok {
		t.Fatal("expected entries to be written before the balance")
	}
}

func TestLedgerServiceOverSQLite(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "cashflow.db")
	b, err := NewSQLiteBackend(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteBackend: %v", err)
	}
	svc := ledger.NewService(NewLedgerStore(b), ledger.WithLogger(applog.Discard()))

	if _, err := svc.SetInitialBalance(ctx, decimal.NewFromInt(1000)); err != nil {
		t.Fatalf("SetInitialBalance: %v", err)
	}
	if _, err := svc.SaveIncomeEntry(ctx, core.IncomeDraft{
		Amount: decimal.NewFromInt(500), Date: "2024-01-05", Description: "Paycheck", Category: core.Salary,
	}); err != nil {
		t.Fatalf("SaveIncomeEntry: %v", err)
	}
	b.Close()

	// Reopen to prove the pair survived and migrations are idempotent.
	b, err = NewSQLiteBackend(dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer b.Close()
	balance, err := ledger.NewService(NewLedgerStore(b), ledger.WithLogger(applog.Discard())).GetBalance(ctx)
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if !balance.CurrentBalance.Equal(decimal.NewFromInt(1500)) {
		t.Fatalf("expected 1500, got %s", balance.CurrentBalance)
	}
}
