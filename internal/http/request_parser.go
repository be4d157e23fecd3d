// Package http provides the JSON API over the ledger.
//
// This file implements utilities for decoding request bodies and query
// parameters into ledger inputs. Free text is sanitized here so the ledger
// only ever sees plain strings.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"

	"cashflow/internal/core"
)

const maxBodyBytes = 64 << 10

var (
	strictPolicy = bluemonday.StrictPolicy()

	openStart = core.NewDate(1, 1, 1)
	openEnd   = core.NewDate(9999, 12, 31)
)

// jsonAmount accepts an amount written as a JSON number or string. The text
// is kept verbatim and parsed by core.ParseAmount, so "12,50" is accepted and
// "12.345" reaches the validator unrounded.
type jsonAmount struct {
	raw string
	set bool
}

func (a *jsonAmount) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	a.set = true
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &a.raw)
	}
	a.raw = string(data)
	return nil
}

func (a jsonAmount) parse() (decimal.Decimal, error) {
	return core.ParseAmount("amount", a.raw)
}

type initialBalanceRequest struct {
	Amount jsonAmount `json:"amount"`
}

type entryRequest struct {
	Amount      jsonAmount `json:"amount"`
	Date        string     `json:"date"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	IsRecurring bool       `json:"isRecurring"`
	RecurringID string     `json:"recurringId"`
}

type entryPatchRequest struct {
	Amount      *jsonAmount `json:"amount"`
	Date        *string     `json:"date"`
	Description *string     `json:"description"`
	Category    *string     `json:"category"`
	IsRecurring *bool       `json:"isRecurring"`
	RecurringID *string     `json:"recurringId"`
}

// DecodeJSON reads a single JSON object from the body into dst. Unknown
// fields and trailing data are rejected.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is empty")
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("malformed JSON body: %w", err)
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// SanitizeText strips markup and control characters and trims whitespace.
// Entities produced by the HTML policy are decoded again because the result
// is stored as plain text, not HTML.
func SanitizeText(s string) string {
	s = html.UnescapeString(strictPolicy.Sanitize(s))
	s = strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

func (req entryRequest) draft() (core.IncomeDraft, error) {
	if !req.Amount.set {
		return core.IncomeDraft{}, &core.ValidationError{Field: "amount", Reason: "Must be a valid number"}
	}
	amount, err := req.Amount.parse()
	if err != nil {
		return core.IncomeDraft{}, err
	}
	return core.IncomeDraft{
		Amount:      amount,
		Date:        strings.TrimSpace(req.Date),
		Description: SanitizeText(req.Description),
		Category:    core.Category(strings.TrimSpace(req.Category)),
		IsRecurring: req.IsRecurring,
		RecurringID: SanitizeText(req.RecurringID),
	}, nil
}

func (req entryPatchRequest) update() (core.IncomeUpdate, error) {
	var u core.IncomeUpdate
	if req.Amount != nil && req.Amount.set {
		amount, err := req.Amount.parse()
		if err != nil {
			return u, err
		}
		u.Amount = &amount
	}
	if req.Date != nil {
		d := strings.TrimSpace(*req.Date)
		u.Date = &d
	}
	if req.Description != nil {
		d := SanitizeText(*req.Description)
		u.Description = &d
	}
	if req.Category != nil {
		c := core.Category(strings.TrimSpace(*req.Category))
		u.Category = &c
	}
	u.IsRecurring = req.IsRecurring
	if req.RecurringID != nil {
		id := SanitizeText(*req.RecurringID)
		u.RecurringID = &id
	}
	return u, nil
}

// ParseFilter builds an entry filter from query parameters:
//
//	start, end  inclusive YYYY-MM-DD bounds; either may be omitted
//	category    repeated or comma separated category names
//	min, max    inclusive amount bounds
//	q           case-insensitive description search
//
// It returns nil when no parameter is present.
func ParseFilter(query url.Values) (*core.Filter, error) {
	var f core.Filter

	start := strings.TrimSpace(query.Get("start"))
	end := strings.TrimSpace(query.Get("end"))
	if start != "" || end != "" {
		dr := core.DateRange{Start: openStart, End: openEnd}
		if start != "" {
			d, err := core.ParseDate(start)
			if err != nil {
				return nil, fieldError(err, "start")
			}
			dr.Start = d
		}
		if end != "" {
			d, err := core.ParseDate(end)
			if err != nil {
				return nil, fieldError(err, "end")
			}
			dr.End = d
		}
		f.DateRange = &dr
	}

	for _, raw := range query["category"] {
		for _, name := range strings.Split(raw, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if err := core.ValidateCategory(name); err != nil {
				return nil, err
			}
			f.Categories = append(f.Categories, core.Category(name))
		}
	}

	for _, bound := range []struct {
		key string
		dst **decimal.Decimal
	}{{"min", &f.MinAmount}, {"max", &f.MaxAmount}} {
		v := strings.TrimSpace(query.Get(bound.key))
		if v == "" {
			continue
		}
		d, err := core.ParseAmount(bound.key, v)
		if err != nil {
			return nil, err
		}
		*bound.dst = &d
	}

	f.SearchText = SanitizeText(query.Get("q"))

	if f.IsEmpty() {
		return nil, nil
	}
	return &f, nil
}

// ParsePeriod reads the year and optional month path parameters.
func ParsePeriod(yearParam, monthParam string) (core.Period, error) {
	year, err := strconv.Atoi(yearParam)
	if err != nil {
		return core.Period{}, &core.ValidationError{Field: "year", Reason: "Must be a number"}
	}
	if monthParam == "" {
		return core.YearPeriod(year), nil
	}
	month, err := strconv.Atoi(monthParam)
	if err != nil {
		return core.Period{}, &core.ValidationError{Field: "month", Reason: "Must be a number"}
	}
	// Month 0 would otherwise be read as the whole year.
	if month < 1 || month > 12 {
		return core.Period{}, &core.ValidationError{Field: "month", Reason: "Must be between 1 and 12"}
	}
	return core.MonthPeriod(year, month), nil
}

// fieldError renames the field of a validation error raised while parsing
// a query parameter.
func fieldError(err error, field string) error {
	var ve *core.ValidationError
	if errors.As(err, &ve) {
		return &core.ValidationError{Field: field, Reason: ve.Reason}
	}
	return err
}
