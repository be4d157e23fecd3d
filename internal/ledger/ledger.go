package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"cashflow/internal/cache"
	"cashflow/internal/core"
	applog "cashflow/internal/log"
)

// Snapshot is a consistent read of the whole ledger. Entries are in
// chronological order.
type Snapshot struct {
	Balance core.CashFlowBalance
	Entries []core.IncomeEntry
}

// Service is the ledger facade. Every operation runs under one mutex, so
// calls are applied in arrival order and a mutation never observes another
// one half-written.
type Service struct {
	mu        sync.Mutex
	store     Store
	notifier  Notifier
	summaries cache.Cache[core.CashFlowSummary]
	logger    *applog.Logger
	now       func() time.Time
	newID     func() string
	lastStamp int64
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the wall clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides entry id generation.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// WithNotifier registers a listener for committed mutations.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithSummaryCache enables memoization of period summaries.
func WithSummaryCache(c cache.Cache[core.CashFlowSummary]) Option {
	return func(s *Service) { s.summaries = c }
}

// WithLogger replaces the component logger.
func WithLogger(l *applog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a ledger facade over store.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: applog.ForComponent(applog.ComponentLedger),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetInitialBalance creates the balance record with current = initial and
// zeroed totals. An existing record is overwritten without merging; entries
// already stored are left as they are until the next RecalculateBalance.
func (s *Service) SetInitialBalance(ctx context.Context, amount decimal.Decimal) (core.CashFlowBalance, error) {
	if err := core.ValidateAmount(amount); err != nil {
		return core.CashFlowBalance{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists, err := s.store.LoadBalance(ctx)
	if err != nil {
		return core.CashFlowBalance{}, s.storageErr("setInitialBalance", err)
	}
	// Destructive re-initialization is only meant for first-time setup.
	if exists {
		s.logger.WarnContext(ctx, "Overwriting existing cash flow balance",
			applog.FieldOperation, "setInitialBalance",
			applog.FieldAmount, amount.String())
	}

	balance := core.CashFlowBalance{
		InitialBalance: amount,
		CurrentBalance: amount,
		LastUpdated:    s.now().UnixMilli(),
		TotalIncome:    decimal.Zero,
		TotalExpenses:  decimal.Zero,
	}
	if s.summaries != nil {
		defer s.summaries.Purge()
	}
	if err := s.store.SaveBalance(ctx, balance); err != nil {
		return core.CashFlowBalance{}, s.storageErr("setInitialBalance", err)
	}

	s.committed(ctx, core.OpInitialize, "", balance)
	s.logger.InfoContext(ctx, "Initial balance set", applog.FieldAmount, amount.String())
	return balance, nil
}

// SaveIncomeEntry validates draft, appends it with a fresh id and creation
// timestamp and recomputes the running balance over the full entry set.
func (s *Service) SaveIncomeEntry(ctx context.Context, draft core.IncomeDraft) (core.IncomeEntry, error) {
	if err := draft.Validate(); err != nil {
		return core.IncomeEntry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	balance, entries, err := s.load(ctx, "saveIncomeEntry")
	if err != nil {
		return core.IncomeEntry{}, err
	}

	entry := core.IncomeEntry{
		ID:          s.newID(),
		Amount:      draft.Amount,
		Date:        core.MustParseDate(draft.Date),
		Description: draft.Description,
		Category:    draft.Category,
		Timestamp:   s.nextStamp(entries),
		IsRecurring: draft.IsRecurring,
		RecurringID: draft.RecurringID,
	}

	rec, err := s.commit(ctx, "saveIncomeEntry", balance, append(entries, entry), entry.ID)
	if err != nil {
		return core.IncomeEntry{}, err
	}
	saved, _ := find(rec.Entries, entry.ID)

	s.committed(ctx, core.OpCreate, saved.ID, rec.balance)
	s.logger.InfoContext(ctx, "Income entry saved", applog.NewFields().
		WithOperation(core.OpCreate).
		WithEntry(saved.ID, saved.Amount.String(), saved.Category.String(), saved.Date.String()).
		ToSlice()...)
	return saved, nil
}

// GetIncomeEntries returns the entries matching f, most recently created
// first. A nil filter returns everything.
func (s *Service) GetIncomeEntries(ctx context.Context, f *core.Filter) ([]core.IncomeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.store.LoadEntries(ctx)
	if err != nil {
		return nil, s.storageErr("getIncomeEntries", err)
	}
	return Apply(entries, f), nil
}

// GetIncomeEntry returns a single entry by id.
func (s *Service) GetIncomeEntry(ctx context.Context, id string) (core.IncomeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.store.LoadEntries(ctx)
	if err != nil {
		return core.IncomeEntry{}, s.storageErr("getIncomeEntry", err)
	}
	e, ok := find(entries, id)
	if !ok {
		return core.IncomeEntry{}, &core.NotFoundError{Resource: "Income entry", ID: id}
	}
	return e, nil
}

// UpdateIncomeEntry replaces the supplied fields of entry id and recomputes
// the running balance.
func (s *Service) UpdateIncomeEntry(ctx context.Context, id string, u core.IncomeUpdate) (core.IncomeEntry, error) {
	if err := u.Validate(); err != nil {
		return core.IncomeEntry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	balance, entries, err := s.load(ctx, "updateIncomeEntry")
	if err != nil {
		return core.IncomeEntry{}, err
	}

	idx := indexOf(entries, id)
	if idx < 0 {
		return core.IncomeEntry{}, &core.NotFoundError{Resource: "Income entry", ID: id}
	}
	next := make([]core.IncomeEntry, len(entries))
	copy(next, entries)
	next[idx] = u.Apply(next[idx])

	rec, err := s.commit(ctx, "updateIncomeEntry", balance, next, balance.LastEntryID)
	if err != nil {
		return core.IncomeEntry{}, err
	}
	updated, _ := find(rec.Entries, id)

	s.committed(ctx, core.OpUpdate, id, rec.balance)
	s.logger.InfoContext(ctx, "Income entry updated", applog.NewFields().
		WithOperation(core.OpUpdate).
		WithEntry(updated.ID, updated.Amount.String(), updated.Category.String(), updated.Date.String()).
		ToSlice()...)
	return updated, nil
}

// DeleteIncomeEntry removes entry id and recomputes the running balance over
// the remaining entries.
func (s *Service) DeleteIncomeEntry(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	balance, entries, err := s.load(ctx, "deleteIncomeEntry")
	if err != nil {
		return err
	}

	idx := indexOf(entries, id)
	if idx < 0 {
		return &core.NotFoundError{Resource: "Income entry", ID: id}
	}
	remaining := make([]core.IncomeEntry, 0, len(entries)-1)
	remaining = append(remaining, entries[:idx]...)
	remaining = append(remaining, entries[idx+1:]...)

	rec, err := s.commit(ctx, "deleteIncomeEntry", balance, remaining, balance.LastEntryID)
	if err != nil {
		return err
	}

	s.committed(ctx, core.OpDelete, id, rec.balance)
	s.logger.InfoContext(ctx, "Income entry deleted", applog.FieldEntryID, id)
	return nil
}

// GetBalance returns the balance record or core.ErrBalanceNotInitialized.
func (s *Service) GetBalance(ctx context.Context) (core.CashFlowBalance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	balance, ok, err := s.store.LoadBalance(ctx)
	if err != nil {
		return core.CashFlowBalance{}, s.storageErr("getBalance", err)
	}
	if !ok {
		return core.CashFlowBalance{}, core.ErrBalanceNotInitialized
	}
	return balance, nil
}

// RecalculateBalance rebuilds the balance record and every BalanceAfter from
// the initial balance and the persisted entries. It repairs a ledger left
// inconsistent by an interrupted write.
func (s *Service) RecalculateBalance(ctx context.Context) (core.CashFlowBalance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	balance, entries, err := s.load(ctx, "recalculateBalance")
	if err != nil {
		return core.CashFlowBalance{}, err
	}

	drifted := !balance.CurrentBalance.Equal(Recompute(balance.InitialBalance, entries).CurrentBalance)
	rec, err := s.commit(ctx, "recalculateBalance", balance, entries, balance.LastEntryID)
	if err != nil {
		return core.CashFlowBalance{}, err
	}

	s.committed(ctx, core.OpReconcile, "", rec.balance)
	s.logger.InfoContext(ctx, "Balance recalculated",
		applog.FieldBalance, rec.balance.CurrentBalance.String(),
		applog.FieldEntryCount, len(rec.Entries),
		"drifted", drifted)
	return rec.balance, nil
}

// Ledger returns the balance and all entries in chronological order.
func (s *Service) Ledger(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	balance, entries, err := s.load(ctx, "ledger")
	if err != nil {
		return Snapshot{}, err
	}
	SortChronological(entries)
	return Snapshot{Balance: balance, Entries: entries}, nil
}

// GetMonthlySummary aggregates one calendar month.
func (s *Service) GetMonthlySummary(ctx context.Context, year, month int) (core.CashFlowSummary, error) {
	// A zero month would build a year period.
	if month < 1 || month > 12 {
		return core.CashFlowSummary{}, &core.ValidationError{Field: "month", Reason: "Must be between 1 and 12"}
	}
	return s.summary(ctx, core.MonthPeriod(year, month))
}

// GetYearlySummary aggregates one calendar year.
func (s *Service) GetYearlySummary(ctx context.Context, year int) (core.CashFlowSummary, error) {
	return s.summary(ctx, core.YearPeriod(year))
}

func (s *Service) summary(ctx context.Context, p core.Period) (core.CashFlowSummary, error) {
	if err := p.Validate(); err != nil {
		return core.CashFlowSummary{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := p.String()
	if s.summaries != nil {
		if cached, ok := s.summaries.Get(key); ok {
			return cloneSummary(cached), nil
		}
	}

	balance, entries, err := s.load(ctx, "getSummary")
	if err != nil {
		return core.CashFlowSummary{}, err
	}

	sum := Summarize(p, balance, entries)
	if s.summaries != nil {
		s.summaries.Set(key, cloneSummary(sum))
	}
	s.logger.DebugContext(ctx, "Summary computed",
		applog.FieldPeriod, key,
		applog.FieldEntryCount, sum.EntryCount)
	return sum, nil
}

// recomputed carries the engine output plus the balance record derived from it.
type recomputed struct {
	Recomputed
	balance core.CashFlowBalance
}

// load reads balance and entries, failing when the balance is missing.
func (s *Service) load(ctx context.Context, op string) (core.CashFlowBalance, []core.IncomeEntry, error) {
	balance, ok, err := s.store.LoadBalance(ctx)
	if err != nil {
		return core.CashFlowBalance{}, nil, s.storageErr(op, err)
	}
	if !ok {
		return core.CashFlowBalance{}, nil, core.ErrBalanceNotInitialized
	}
	entries, err := s.store.LoadEntries(ctx)
	if err != nil {
		return core.CashFlowBalance{}, nil, s.storageErr(op, err)
	}
	return balance, entries, nil
}

// commit runs the running-balance engine over entries and persists the
// resulting pair. Cached summaries are dropped whether or not the write
// succeeds, since a failed non-atomic write may have landed partially.
func (s *Service) commit(ctx context.Context, op string, prev core.CashFlowBalance, entries []core.IncomeEntry, lastEntryID string) (recomputed, error) {
	rec := Recompute(prev.InitialBalance, entries)
	balance := core.CashFlowBalance{
		InitialBalance: prev.InitialBalance,
		CurrentBalance: rec.CurrentBalance,
		LastUpdated:    s.now().UnixMilli(),
		LastEntryID:    lastEntryID,
		TotalIncome:    rec.TotalIncome,
		TotalExpenses:  decimal.Zero,
	}
	if lastEntryID != "" && indexOf(rec.Entries, lastEntryID) < 0 {
		balance.LastEntryID = ""
	}

	if s.summaries != nil {
		defer s.summaries.Purge()
	}
	if err := s.store.WritePair(ctx, balance, rec.Entries); err != nil {
		return recomputed{}, s.storageErr(op, err)
	}
	return recomputed{Recomputed: rec, balance: balance}, nil
}

// committed publishes a change notification. Failures are logged only.
func (s *Service) committed(ctx context.Context, op, entryID string, balance core.CashFlowBalance) {
	if s.notifier == nil {
		return
	}
	change := core.LedgerChange{
		Operation:      op,
		EntryID:        entryID,
		CurrentBalance: balance.CurrentBalance,
		Timestamp:      s.now().UTC(),
	}
	if err := s.notifier.NotifyLedgerChange(ctx, change); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish ledger change", append(applog.NewFields().
			WithOperation(op).
			WithError(err).
			ToSlice(), applog.FieldEntryID, entryID)...)
	}
}

// nextStamp returns a creation timestamp strictly greater than every
// timestamp issued or persisted so far, keeping same-day ordering total.
func (s *Service) nextStamp(entries []core.IncomeEntry) int64 {
	stamp := s.now().UnixMilli()
	floor := s.lastStamp
	for _, e := range entries {
		if e.Timestamp > floor {
			floor = e.Timestamp
		}
	}
	if stamp <= floor {
		stamp = floor + 1
	}
	s.lastStamp = stamp
	return stamp
}

func (s *Service) storageErr(op string, err error) error {
	if core.IsDomain(err) {
		return err
	}
	s.logger.Error("Storage operation failed", applog.FieldOperation, op, applog.FieldError, err)
	return &core.StorageError{Op: op, Err: err}
}

func indexOf(entries []core.IncomeEntry, id string) int {
	for i := range entries {
		if entries[i].ID == id {
			return i
		}
	}
	return -1
}

func find(entries []core.IncomeEntry, id string) (core.IncomeEntry, bool) {
	if i := indexOf(entries, id); i >= 0 {
		return entries[i], true
	}
	return core.IncomeEntry{}, false
}

func cloneSummary(s core.CashFlowSummary) core.CashFlowSummary {
	breakdown := make(map[core.Category]decimal.Decimal, len(s.CategoryBreakdown))
	for k, v := range s.CategoryBreakdown {
		breakdown[k] = v
	}
	s.CategoryBreakdown = breakdown
	return s
}

