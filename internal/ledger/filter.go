package ledger

import (
	"sort"
	"strings"

	"cashflow/internal/core"
)

// Apply returns the entries matching f, most recently created first.
//
// The result order is for display and differs from the chronological order
// used for balance computation. A nil filter matches everything.
func Apply(entries []core.IncomeEntry, f *core.Filter) []core.IncomeEntry {
	out := make([]core.IncomeEntry, 0, len(entries))
	for _, e := range entries {
		if f == nil || matches(e, f) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp > out[j].Timestamp
	})
	return out
}

func matches(e core.IncomeEntry, f *core.Filter) bool {
	if f.DateRange != nil && !f.DateRange.Contains(e.Date) {
		return false
	}
	if len(f.Categories) > 0 && !containsCategory(f.Categories, e.Category) {
		return false
	}
	if f.MinAmount != nil && e.Amount.LessThan(*f.MinAmount) {
		return false
	}
	if f.MaxAmount != nil && e.Amount.GreaterThan(*f.MaxAmount) {
		return false
	}
	if f.SearchText != "" && !strings.Contains(strings.ToLower(e.Description), strings.ToLower(f.SearchText)) {
		return false
	}
	return true
}

func containsCategory(set []core.Category, c core.Category) bool {
	for _, v := range set {
		if v == c {
			return true
		}
	}
	return false
}
