package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used for entries and filters.
const DateLayout = "2006-01-02"

const (
	Salary     Category = "Salary"
	Freelance  Category = "Freelance"
	Investment Category = "Investment"
	Business   Category = "Business"
	Rental     Category = "Rental"
	Gift       Category = "Gift"
	Refund     Category = "Refund"
	Bonus      Category = "Bonus"
	Other      Category = "Other"
)

type (
	// Category classifies an income entry.
	Category string

	Date struct {
		time.Time
	}

	// IncomeEntry is one recorded inflow of money. BalanceAfter is derived and
	// rewritten by the running-balance engine on every ledger mutation.
	IncomeEntry struct {
		ID           string          `json:"id"`
		Amount       decimal.Decimal `json:"amount"`
		Date         Date            `json:"date"`
		Description  string          `json:"description"`
		Category     Category        `json:"category"`
		Timestamp    int64           `json:"timestamp"` // creation instant, unix millis
		BalanceAfter decimal.Decimal `json:"balanceAfter"`
		IsRecurring  bool            `json:"isRecurring,omitempty"`
		RecurringID  string          `json:"recurringId,omitempty"`
	}

	// CashFlowBalance is the ledger singleton. Everything except
	// InitialBalance is a cache of values derivable from the entries.
	CashFlowBalance struct {
		InitialBalance decimal.Decimal `json:"initialBalance"`
		CurrentBalance decimal.Decimal `json:"currentBalance"`
		LastUpdated    int64           `json:"lastUpdated"`
		LastEntryID    string          `json:"lastEntryId,omitempty"`
		TotalIncome    decimal.Decimal `json:"totalIncome"`
		TotalExpenses  decimal.Decimal `json:"totalExpenses"`
	}

	// IncomeDraft carries caller-supplied fields for a new entry.
	IncomeDraft struct {
		Amount      decimal.Decimal `json:"amount"`
		Date        string          `json:"date"`
		Description string          `json:"description"`
		Category    Category        `json:"category"`
		IsRecurring bool            `json:"isRecurring,omitempty"`
		RecurringID string          `json:"recurringId,omitempty"`
	}

	// IncomeUpdate is a partial update; nil fields are left untouched.
	IncomeUpdate struct {
		Amount      *decimal.Decimal `json:"amount,omitempty"`
		Date        *string          `json:"date,omitempty"`
		Description *string          `json:"description,omitempty"`
		Category    *Category        `json:"category,omitempty"`
		IsRecurring *bool            `json:"isRecurring,omitempty"`
		RecurringID *string          `json:"recurringId,omitempty"`
	}

	// DateRange is inclusive on both ends.
	DateRange struct {
		Start Date `json:"startDate"`
		End   Date `json:"endDate"`
	}

	// Filter narrows an entry listing. Dimensions combine with AND and a
	// nil or empty dimension imposes no restriction.
	Filter struct {
		DateRange  *DateRange       `json:"dateRange,omitempty"`
		Categories []Category       `json:"categories,omitempty"`
		MinAmount  *decimal.Decimal `json:"minAmount,omitempty"`
		MaxAmount  *decimal.Decimal `json:"maxAmount,omitempty"`
		SearchText string           `json:"searchText,omitempty"`
	}
)

var categories = []Category{Salary, Freelance, Investment, Business, Rental, Gift, Refund, Bonus, Other}

// Categories returns the fixed category enumeration in display order.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

func (c Category) IsValid() bool {
	for _, v := range categories {
		if c == v {
			return true
		}
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string into a Date.
func ParseDate(s string) (Date, error) {
	if err := ValidateDate(s); err != nil {
		return Date{}, err
	}
	t, _ := time.Parse(DateLayout, s)
	return Date{Time: t}, nil
}

// MustParseDate is ParseDate for literals known to be valid.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) Validate() error {
	if d.IsZero() {
		return &ValidationError{Field: "date", Reason: "Cannot be empty"}
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// Compare orders two dates by calendar day.
func (d Date) Compare(o Date) int {
	return d.Time.Compare(o.Time)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Validate checks every field of the draft in the order amount, date,
// description, category and returns the first violation.
func (e IncomeDraft) Validate() error {
	if err := ValidateAmount(e.Amount); err != nil {
		return err
	}
	if err := ValidateDate(e.Date); err != nil {
		return err
	}
	if err := ValidateDescription(e.Description); err != nil {
		return err
	}
	return ValidateCategory(string(e.Category))
}

// Validate checks only the fields present in the update.
func (u IncomeUpdate) Validate() error {
	if u.Amount != nil {
		if err := ValidateAmount(*u.Amount); err != nil {
			return err
		}
	}
	if u.Date != nil {
		if err := ValidateDate(*u.Date); err != nil {
			return err
		}
	}
	if u.Description != nil {
		if err := ValidateDescription(*u.Description); err != nil {
			return err
		}
	}
	if u.Category != nil {
		if err := ValidateCategory(string(*u.Category)); err != nil {
			return err
		}
	}
	return nil
}

// IsEmpty reports whether the update carries no fields.
func (u IncomeUpdate) IsEmpty() bool {
	return u.Amount == nil && u.Date == nil && u.Description == nil &&
		u.Category == nil && u.IsRecurring == nil && u.RecurringID == nil
}

// Apply returns a copy of e with the update's fields replaced. The update
// must already be validated. ID, Timestamp and BalanceAfter are never touched.
func (u IncomeUpdate) Apply(e IncomeEntry) IncomeEntry {
	if u.Amount != nil {
		e.Amount = *u.Amount
	}
	if u.Date != nil {
		e.Date = MustParseDate(*u.Date)
	}
	if u.Description != nil {
		e.Description = *u.Description
	}
	if u.Category != nil {
		e.Category = *u.Category
	}
	if u.IsRecurring != nil {
		e.IsRecurring = *u.IsRecurring
	}
	if u.RecurringID != nil {
		e.RecurringID = *u.RecurringID
	}
	return e
}

// Contains reports whether d lies within the inclusive range.
func (r DateRange) Contains(d Date) bool {
	return d.Compare(r.Start) >= 0 && d.Compare(r.End) <= 0
}

// IsEmpty reports whether the filter restricts nothing.
func (f Filter) IsEmpty() bool {
	return f.DateRange == nil && len(f.Categories) == 0 &&
		f.MinAmount == nil && f.MaxAmount == nil && f.SearchText == ""
}

// Ledger operations reported to change listeners.
const (
	OpInitialize = "initialize"
	OpCreate     = "create"
	OpUpdate     = "update"
	OpDelete     = "delete"
	OpReconcile  = "reconcile"
)

// LedgerChange describes a committed ledger mutation.
type LedgerChange struct {
	Operation      string          `json:"operation"`
	EntryID        string          `json:"entryId,omitempty"`
	CurrentBalance decimal.Decimal `json:"currentBalance"`
	Timestamp      time.Time       `json:"timestamp"`
}
