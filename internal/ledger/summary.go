package ledger

import (
	"github.com/shopspring/decimal"

	"cashflow/internal/core"
)

// Averages and trend percentages are rounded half-up to this many places.
const summaryPlaces = 2

var hundred = decimal.NewFromInt(100)

// Summarize aggregates the period p from a full ledger snapshot.
//
// The previous period is reduced to its net cash flow only; its own trend is
// never computed, so yearly summaries do not walk back through every year.
func Summarize(p core.Period, balance core.CashFlowBalance, entries []core.IncomeEntry) core.CashFlowSummary {
	inPeriod := entriesIn(p, entries)

	totalIncome := sumAmounts(inPeriod)
	totalExpenses := decimal.Zero
	net := totalIncome.Sub(totalExpenses)

	average := decimal.Zero
	if n := len(inPeriod); n > 0 {
		average = totalIncome.DivRound(decimal.NewFromInt(int64(n)), summaryPlaces)
	}

	breakdown := make(map[core.Category]decimal.Decimal)
	for _, e := range inPeriod {
		breakdown[e.Category] = breakdown[e.Category].Add(e.Amount)
	}

	start := balance.CurrentBalance.Sub(totalIncome)
	if len(inPeriod) > 0 {
		SortChronological(inPeriod)
		first := inPeriod[0]
		start = first.BalanceAfter.Sub(first.Amount)
	}

	return core.CashFlowSummary{
		Period:            p.String(),
		PeriodType:        p.Kind(),
		TotalIncome:       totalIncome,
		TotalExpenses:     totalExpenses,
		NetCashFlow:       net,
		EntryCount:        len(inPeriod),
		AverageIncome:     average,
		StartBalance:      start,
		EndBalance:        start.Add(net),
		CategoryBreakdown: breakdown,
		Trend:             Trend(net, NetCashFlow(p.Previous(), entries)),
	}
}

// NetCashFlow is income minus expenses for p. Expenses are always zero.
func NetCashFlow(p core.Period, entries []core.IncomeEntry) decimal.Decimal {
	return sumAmounts(entriesIn(p, entries))
}

// Trend is the percentage change from previous to current. A zero previous
// value yields zero instead of a division error.
func Trend(current, previous decimal.Decimal) decimal.Decimal {
	if previous.IsZero() {
		return decimal.Zero
	}
	return current.Sub(previous).Mul(hundred).DivRound(previous, summaryPlaces)
}

func entriesIn(p core.Period, entries []core.IncomeEntry) []core.IncomeEntry {
	rng := p.Range()
	return Apply(entries, &core.Filter{DateRange: &rng})
}

func sumAmounts(entries []core.IncomeEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Amount)
	}
	return total
}
