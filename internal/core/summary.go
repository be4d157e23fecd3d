package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	PeriodMonth = "month"
	PeriodYear  = "year"
)

// Period identifies a summary bucket. Month is 1-12 for a monthly period and
// 0 for a whole year.
type Period struct {
	Year  int
	Month int
}

// CashFlowSummary is recomputed on demand and never persisted.
type CashFlowSummary struct {
	Period            string                       `json:"period"`
	PeriodType        string                       `json:"periodType"`
	TotalIncome       decimal.Decimal              `json:"totalIncome"`
	TotalExpenses     decimal.Decimal              `json:"totalExpenses"`
	NetCashFlow       decimal.Decimal              `json:"netCashFlow"`
	EntryCount        int                          `json:"entryCount"`
	AverageIncome     decimal.Decimal              `json:"averageIncome"`
	StartBalance      decimal.Decimal              `json:"startBalance"`
	EndBalance        decimal.Decimal              `json:"endBalance"`
	CategoryBreakdown map[Category]decimal.Decimal `json:"categoryBreakdown"`
	Trend             decimal.Decimal              `json:"trend"` // percent vs previous period
}

func MonthPeriod(year, month int) Period {
	return Period{Year: year, Month: month}
}

func YearPeriod(year int) Period {
	return Period{Year: year}
}

func (p Period) IsYear() bool {
	return p.Month == 0
}

func (p Period) Validate() error {
	if p.Year < 1 || p.Year > 9999 {
		return &ValidationError{Field: "year", Reason: "Must be between 1 and 9999"}
	}
	if !p.IsYear() && (p.Month < 1 || p.Month > 12) {
		return &ValidationError{Field: "month", Reason: "Must be between 1 and 12"}
	}
	return nil
}

// Range returns the first and last calendar day of the period.
func (p Period) Range() DateRange {
	if p.IsYear() {
		return DateRange{Start: NewDate(p.Year, 1, 1), End: NewDate(p.Year, 12, 31)}
	}
	// Day 0 of the next month is the last day of this one.
	return DateRange{Start: NewDate(p.Year, p.Month, 1), End: NewDate(p.Year, p.Month+1, 0)}
}

// Previous returns the immediately preceding period of the same kind.
func (p Period) Previous() Period {
	if p.IsYear() {
		return Period{Year: p.Year - 1}
	}
	if p.Month == 1 {
		return Period{Year: p.Year - 1, Month: 12}
	}
	return Period{Year: p.Year, Month: p.Month - 1}
}

// Kind returns PeriodMonth or PeriodYear.
func (p Period) Kind() string {
	if p.IsYear() {
		return PeriodYear
	}
	return PeriodMonth
}

// String renders "2024" or "2024-01".
func (p Period) String() string {
	if p.IsYear() {
		return fmt.Sprintf("%d", p.Year)
	}
	return fmt.Sprintf("%d-%02d", p.Year, p.Month)
}
