package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"cashflow/internal/core"
)

// Recomputed is the output of a running-balance pass.
type Recomputed struct {
	Entries        []core.IncomeEntry // chronological, balance-annotated
	CurrentBalance decimal.Decimal
	TotalIncome    decimal.Decimal
}

// SortChronological orders entries by (date, timestamp) ascending. Same-day
// entries fall back to creation time so the order is total.
func SortChronological(entries []core.IncomeEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if c := entries[i].Date.Compare(entries[j].Date); c != 0 {
			return c < 0
		}
		return entries[i].Timestamp < entries[j].Timestamp
	})
}

// Recompute sorts a copy of entries chronologically and rewrites every
// BalanceAfter by accumulating amounts from initial. The input slice and its
// elements are left untouched. Running it on its own output is a no-op.
func Recompute(initial decimal.Decimal, entries []core.IncomeEntry) Recomputed {
	sorted := make([]core.IncomeEntry, len(entries))
	copy(sorted, entries)
	SortChronological(sorted)

	running := initial
	total := decimal.Zero
	for i := range sorted {
		running = running.Add(sorted[i].Amount)
		total = total.Add(sorted[i].Amount)
		sorted[i].BalanceAfter = running
	}

	return Recomputed{
		Entries:        sorted,
		CurrentBalance: running,
		TotalIncome:    total,
	}
}
