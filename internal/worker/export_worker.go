package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"cashflow/internal/amqp"
	"cashflow/internal/core"
	"cashflow/internal/ledger"
	applog "cashflow/internal/log"
	"cashflow/internal/sheets"
)

// SnapshotSource is the read side of the ledger the worker exports.
type SnapshotSource interface {
	Ledger(ctx context.Context) (ledger.Snapshot, error)
}

// ChangeConsumer delivers ledger change messages until ctx is done.
type ChangeConsumer interface {
	ConsumeLedgerChanges(ctx context.Context, handler func(context.Context, *amqp.LedgerChangeMessage) error) error
}

// ExportWorker mirrors the ledger into a LedgerExporter. Every export is a
// full snapshot, so exports are idempotent and a change message only needs
// to say that something changed.
type ExportWorker struct {
	source   SnapshotSource
	exporter sheets.LedgerExporter
	interval time.Duration
	logger   *applog.Logger
	now      func() time.Time

	mu         sync.Mutex
	lastExport time.Time
}

func NewExportWorker(source SnapshotSource, exporter sheets.LedgerExporter, interval time.Duration) *ExportWorker {
	return &ExportWorker{
		source:   source,
		exporter: exporter,
		interval: interval,
		logger:   applog.ForComponent(applog.ComponentWorker),
		now:      time.Now,
	}
}

// HandleLedgerChange processes a single change message from AMQP. Messages
// describing a change older than the last snapshot are already covered and
// are acknowledged without exporting again.
func (w *ExportWorker) HandleLedgerChange(ctx context.Context, msg *amqp.LedgerChangeMessage) error {
	w.logger.InfoContext(ctx, "Processing ledger change",
		applog.FieldOperation, msg.Operation,
		applog.FieldEntryID, msg.EntryID,
		applog.FieldBalance, msg.CurrentBalance.String())

	w.mu.Lock()
	covered := !w.lastExport.IsZero() && !msg.Timestamp.After(w.lastExport)
	w.mu.Unlock()
	if covered {
		w.logger.DebugContext(ctx, "Change already exported, skipping",
			applog.FieldOperation, msg.Operation)
		return nil
	}

	if err := w.Export(ctx); err != nil {
		return fmt.Errorf("export after %s: %w", msg.Operation, err)
	}
	return nil
}

// Export reads a fresh snapshot and hands it to the exporter. An
// uninitialized ledger has nothing to export and is not an error.
func (w *ExportWorker) Export(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	readAt := w.now()
	snap, err := w.source.Ledger(ctx)
	if errors.Is(err, core.ErrBalanceNotInitialized) {
		w.logger.InfoContext(ctx, "Ledger not initialized, nothing to export")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load ledger snapshot: %w", err)
	}

	if err := w.exporter.ExportLedger(ctx, snap.Balance, snap.Entries); err != nil {
		return fmt.Errorf("export ledger: %w", err)
	}
	w.lastExport = readAt

	w.logger.InfoContext(ctx, "Ledger exported",
		applog.FieldEntryCount, len(snap.Entries),
		applog.FieldBalance, snap.Balance.CurrentBalance.String())
	return nil
}

// RunPeriodic exports once immediately and then on every tick, as a
// backstop for lost messages. It returns when ctx is done.
func (w *ExportWorker) RunPeriodic(ctx context.Context) error {
	if err := w.Export(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Startup export failed", applog.FieldError, err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := w.Export(ctx); err != nil {
				w.logger.ErrorContext(ctx, "Periodic export failed", applog.FieldError, err)
			}
		}
	}
}

// Run drives the periodic export and, when consumer is not nil, the message
// consumer. A consumer failure stops both.
func (w *ExportWorker) Run(ctx context.Context, consumer ChangeConsumer) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return w.RunPeriodic(ctx)
	})

	if consumer != nil {
		g.Go(func() error {
			err := consumer.ConsumeLedgerChanges(ctx, w.HandleLedgerChange)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		w.logger.InfoContext(ctx, "No AMQP consumer configured, relying on periodic export",
			"interval", w.interval)
	}

	return g.Wait()
}
