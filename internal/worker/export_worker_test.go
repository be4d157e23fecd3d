package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"cashflow/internal/amqp"
	"cashflow/internal/core"
	"cashflow/internal/ledger"
	"cashflow/internal/sheets/memory"
)

type fakeSource struct {
	snap  ledger.Snapshot
	err   error
	reads int
}

func (f *fakeSource) Ledger(context.Context) (ledger.Snapshot, error) {
	f.reads++
	return f.snap, f.err
}

func sampleSnapshot() ledger.Snapshot {
	return ledger.Snapshot{
		Balance: core.CashFlowBalance{
			InitialBalance: decimal.NewFromInt(1000),
			CurrentBalance: decimal.NewFromInt(1500),
			TotalIncome:    decimal.NewFromInt(500),
		},
		Entries: []core.IncomeEntry{{
			ID:           "e1",
			Amount:       decimal.NewFromInt(500),
			Date:         core.MustParseDate("2024-01-05"),
			Description:  "Paycheck",
			Category:     core.Salary,
			BalanceAfter: decimal.NewFromInt(1500),
		}},
	}
}

func TestExport(t *testing.T) {
	tests := []struct {
		name        string
		sourceErr   error
		exportErr   error
		wantErr     bool
		wantExports int
	}{
		{name: "exports snapshot", wantExports: 1},
		{name: "uninitialized ledger is skipped", sourceErr: core.ErrBalanceNotInitialized},
		{name: "snapshot failure", sourceErr: errors.New("disk gone"), wantErr: true},
		{name: "exporter failure", exportErr: errors.New("quota"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakeSource{snap: sampleSnapshot(), err: tt.sourceErr}
			exp := memory.New()
			exp.FailWith(tt.exportErr)
			w := NewExportWorker(src, exp, time.Minute)

			err := w.Export(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("Export() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := len(exp.Exports()); got != tt.wantExports {
				t.Fatalf("expected %d exports, got %d", tt.wantExports, got)
			}
			if tt.wantExports > 0 {
				last, _ := exp.Last()
				if !last.Balance.CurrentBalance.Equal(decimal.NewFromInt(1500)) || len(last.Entries) != 1 {
					t.Errorf("unexpected export %+v", last)
				}
			}
		})
	}
}

func TestHandleLedgerChangeSkipsCoveredMessages(t *testing.T) {
	base := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
	src := &fakeSource{snap: sampleSnapshot()}
	exp := memory.New()
	w := NewExportWorker(src, exp, time.Minute)
	w.now = func() time.Time { return base }

	ctx := context.Background()
	if err := w.HandleLedgerChange(ctx, &amqp.LedgerChangeMessage{Operation: core.OpCreate, Timestamp: base.Add(-time.Second)}); err != nil {
		t.Fatalf("first message: %v", err)
	}
	if len(exp.Exports()) != 1 {
		t.Fatalf("first message must export")
	}

	if err := w.HandleLedgerChange(ctx, &amqp.LedgerChangeMessage{Operation: core.OpUpdate, Timestamp: base}); err != nil {
		t.Fatalf("covered message: %v", err)
	}
	if len(exp.Exports()) != 1 {
		t.Fatalf("message at snapshot time must not export again")
	}

	if err := w.HandleLedgerChange(ctx, &amqp.LedgerChangeMessage{Operation: core.OpDelete, Timestamp: base.Add(time.Second)}); err != nil {
		t.Fatalf("newer message: %v", err)
	}
	if len(exp.Exports()) != 2 {
		t.Fatalf("newer message must export, got %d exports", len(exp.Exports()))
	}
}

func TestHandleLedgerChangeReturnsExportError(t *testing.T) {
	exp := memory.New()
	exp.FailWith(errors.New("sheets down"))
	w := NewExportWorker(&fakeSource{snap: sampleSnapshot()}, exp, time.Minute)

	err := w.HandleLedgerChange(context.Background(), &amqp.LedgerChangeMessage{Operation: core.OpCreate, Timestamp: time.Now()})
	if err == nil {
		t.Fatal("expected error so the message is requeued")
	}
}

type scriptedConsumer struct {
	messages []*amqp.LedgerChangeMessage
	err      error
}

func (c *scriptedConsumer) ConsumeLedgerChanges(ctx context.Context, handler func(context.Context, *amqp.LedgerChangeMessage) error) error {
	for _, m := range c.messages {
		if err := handler(ctx, m); err != nil {
			return err
		}
	}
	if c.err != nil {
		return c.err
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestRun(t *testing.T) {
	t.Run("consumer failure stops the worker", func(t *testing.T) {
		exp := memory.New()
		w := NewExportWorker(&fakeSource{snap: sampleSnapshot()}, exp, time.Hour)
		consumer := &scriptedConsumer{
			messages: []*amqp.LedgerChangeMessage{{Operation: core.OpCreate, Timestamp: time.Now().Add(time.Hour)}},
			err:      errors.New("channel closed"),
		}

		err := w.Run(context.Background(), consumer)
		if err == nil || err.Error() != "channel closed" {
			t.Fatalf("expected consumer error, got %v", err)
		}
		if len(exp.Exports()) == 0 {
			t.Fatal("expected at least one export")
		}
	})

	t.Run("cancellation is a clean stop", func(t *testing.T) {
		exp := memory.New()
		w := NewExportWorker(&fakeSource{snap: sampleSnapshot()}, exp, time.Hour)
		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan error, 1)
		go func() { done <- w.Run(ctx, &scriptedConsumer{}) }()
		cancel()

		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("expected nil on cancel, got %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("worker did not stop")
		}
	})

	t.Run("periodic export without consumer", func(t *testing.T) {
		exp := memory.New()
		w := NewExportWorker(&fakeSource{snap: sampleSnapshot()}, exp, 10*time.Millisecond)
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		if err := w.Run(ctx, nil); err != nil {
			t.Fatalf("Run: %v", err)
		}
		if len(exp.Exports()) < 2 {
			t.Fatalf("expected startup and periodic exports, got %d", len(exp.Exports()))
		}
	})
}
