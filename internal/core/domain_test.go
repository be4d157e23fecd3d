package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(NewDate(2024, 1, 5))
	if err != nil || string(b) != `"2024-01-05"` {
		t.Fatalf("unexpected marshal: %s err=%v", b, err)
	}
	var d Date
	if err := json.Unmarshal([]byte(`"2024-02-29"`), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d.Year() != 2024 || d.Month() != 2 || d.Day() != 29 {
		t.Fatalf("unexpected date: %v", d)
	}
	if err := json.Unmarshal([]byte(`"2023-02-29"`), &d); !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestIncomeDraftValidate(t *testing.T) {
	good := IncomeDraft{
		Amount:      decimal.NewFromInt(500),
		Date:        "2024-01-05",
		Description: "Paycheck",
		Category:    Salary,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		field string
		draft IncomeDraft
	}{
		{"amount", IncomeDraft{Amount: decimal.Zero, Date: "2024-01-05", Description: "a", Category: Salary}},
		{"date", IncomeDraft{Amount: decimal.NewFromInt(1), Date: "2024-01-32", Description: "a", Category: Salary}},
		{"description", IncomeDraft{Amount: decimal.NewFromInt(1), Date: "2024-01-05", Description: "", Category: Salary}},
		{"category", IncomeDraft{Amount: decimal.NewFromInt(1), Date: "2024-01-05", Description: "a", Category: "Lottery"}},
	}
	for _, tc := range bads {
		err := tc.draft.Validate()
		var ve *ValidationError
		if !errors.As(err, &ve) || ve.Field != tc.field {
			t.Fatalf("expected %s validation error, got %v", tc.field, err)
		}
	}
}

func TestIncomeUpdateValidatesOnlySuppliedFields(t *testing.T) {
	amount := decimal.NewFromInt(50)
	if err := (IncomeUpdate{Amount: &amount}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bad := "nope"
	if err := (IncomeUpdate{Amount: &amount, Date: &bad}).Validate(); !IsValidation(err) {
		t.Fatalf("expected date validation error, got %v", err)
	}
	if !(IncomeUpdate{}).IsEmpty() {
		t.Fatalf("expected empty update")
	}
}

func TestIncomeUpdateApply(t *testing.T) {
	e := IncomeEntry{
		ID:           "id-1",
		Amount:       decimal.NewFromInt(10),
		Date:         NewDate(2024, 1, 1),
		Description:  "old",
		Category:     Gift,
		Timestamp:    42,
		BalanceAfter: decimal.NewFromInt(110),
	}
	amount := decimal.NewFromInt(50)
	date := "2024-03-01"
	out := IncomeUpdate{Amount: &amount, Date: &date}.Apply(e)
	if !out.Amount.Equal(amount) || out.Date.String() != date {
		t.Fatalf("fields not applied: %+v", out)
	}
	if out.ID != e.ID || out.Timestamp != e.Timestamp || out.Description != "old" {
		t.Fatalf("immutable fields changed: %+v", out)
	}
	if !e.Amount.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("input mutated")
	}
}

func TestPeriodRangeAndPrevious(t *testing.T) {
	cases := []struct {
		p          Period
		start, end string
		prev       Period
		label      string
	}{
		{MonthPeriod(2024, 2), "2024-02-01", "2024-02-29", MonthPeriod(2024, 1), "2024-02"},
		{MonthPeriod(2024, 1), "2024-01-01", "2024-01-31", MonthPeriod(2023, 12), "2024-01"},
		{MonthPeriod(2023, 12), "2023-12-01", "2023-12-31", MonthPeriod(2023, 11), "2023-12"},
		{YearPeriod(2024), "2024-01-01", "2024-12-31", YearPeriod(2023), "2024"},
	}
	for _, tc := range cases {
		r := tc.p.Range()
		if r.Start.String() != tc.start || r.End.String() != tc.end {
			t.Fatalf("%v: unexpected range %s..%s", tc.p, r.Start, r.End)
		}
		if tc.p.Previous() != tc.prev {
			t.Fatalf("%v: unexpected previous %v", tc.p, tc.p.Previous())
		}
		if tc.p.String() != tc.label {
			t.Fatalf("unexpected label %q", tc.p.String())
		}
	}
	if err := MonthPeriod(2024, 13).Validate(); !IsValidation(err) {
		t.Fatalf("expected month validation error, got %v", err)
	}
}

func TestDateRangeContainsIsInclusive(t *testing.T) {
	r := DateRange{Start: NewDate(2024, 1, 1), End: NewDate(2024, 1, 31)}
	for _, d := range []Date{NewDate(2024, 1, 1), NewDate(2024, 1, 15), NewDate(2024, 1, 31)} {
		if !r.Contains(d) {
			t.Fatalf("expected %s inside range", d)
		}
	}
	if r.Contains(NewDate(2024, 2, 1)) || r.Contains(NewDate(2023, 12, 31)) {
		t.Fatalf("range leaked outside its bounds")
	}
}
