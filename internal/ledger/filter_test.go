package ledger

import (
	"testing"

	"github.com/shopspring/decimal"

	"cashflow/internal/core"
)

func TestApply(t *testing.T) {
	entries := []core.IncomeEntry{
		{ID: "jan1", Amount: decimal.NewFromInt(100), Date: core.MustParseDate("2024-01-01"), Description: "January Paycheck", Category: core.Salary, Timestamp: 1},
		{ID: "jan15", Amount: decimal.NewFromInt(40), Date: core.MustParseDate("2024-01-15"), Description: "Logo design", Category: core.Freelance, Timestamp: 3},
		{ID: "jan31", Amount: decimal.NewFromInt(250), Date: core.MustParseDate("2024-01-31"), Description: "bonus", Category: core.Bonus, Timestamp: 2},
		{ID: "feb1", Amount: decimal.NewFromInt(100), Date: core.MustParseDate("2024-02-01"), Description: "February paycheck", Category: core.Salary, Timestamp: 4},
	}
	lo := decimal.NewFromInt(40)
	hi := decimal.NewFromInt(100)

	tests := []struct {
		name   string
		filter *core.Filter
		want   []string
	}{
		{"nil filter returns all newest first", nil, []string{"feb1", "jan15", "jan31", "jan1"}},
		{"empty filter returns all", &core.Filter{}, []string{"feb1", "jan15", "jan31", "jan1"}},
		{
			"date range is inclusive",
			&core.Filter{DateRange: &core.DateRange{Start: core.MustParseDate("2024-01-01"), End: core.MustParseDate("2024-01-31")}},
			[]string{"jan15", "jan31", "jan1"},
		},
		{"category set", &core.Filter{Categories: []core.Category{core.Salary, core.Bonus}}, []string{"feb1", "jan31", "jan1"}},
		{"amount bounds inclusive", &core.Filter{MinAmount: &lo, MaxAmount: &hi}, []string{"feb1", "jan15", "jan1"}},
		{"search is case insensitive", &core.Filter{SearchText: "PAYCHECK"}, []string{"feb1", "jan1"}},
		{
			"dimensions combine with AND",
			&core.Filter{Categories: []core.Category{core.Salary}, SearchText: "january"},
			[]string{"jan1"},
		},
		{"no match", &core.Filter{SearchText: "rent"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(entries, tt.filter)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %d entries", tt.want, len(got))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("position %d: expected %s, got %s", i, id, got[i].ID)
				}
			}
		})
	}
}
