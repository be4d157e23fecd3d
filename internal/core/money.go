// Package core provides money parsing and validation utilities.
//
// This file contains the field validators used before any ledger mutation
// and the parser that turns user-typed amounts into exact decimals.
package core

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	// MaxDescriptionLength is measured in characters, not bytes.
	MaxDescriptionLength = 200
	maxAmountDecimals    = 2
	// maxAmountDigits bounds the integer part of an amount.
	maxAmountDigits = 15
)

var isoDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ParseAmount converts a decimal string into an exact amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Unlike
// rounding parsers it never alters the value: "12.345" is rejected later by
// ValidateAmount rather than silently rounded.
//
// Examples:
//
//	ParseAmount("amount", "12.34") -> 12.34, nil
//	ParseAmount("amount", "12,5")  -> 12.5, nil
//	ParseAmount("amount", "abc")   -> error
func ParseAmount(field, s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, &ValidationError{Field: field, Reason: "Must be a valid number"}
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, &ValidationError{Field: field, Reason: "Must be a valid number"}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: field, Reason: "Must be a valid number"}
	}
	return d, nil
}

// ValidateAmount requires a positive value with at most two significant
// decimal digits and at most fifteen integer digits. 1.50 and 1.5 are both
// accepted while 1.005 is not. Digits are counted from the coefficient and
// exponent so huge exponents are never expanded.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return &ValidationError{Field: "amount", Reason: "Must be greater than 0"}
	}
	if integerDigits(amount) > maxAmountDigits {
		return &ValidationError{Field: "amount", Reason: fmt.Sprintf("Maximum %d integer digits allowed", maxAmountDigits)}
	}
	if decimalPlaces(amount) > maxAmountDecimals {
		return &ValidationError{Field: "amount", Reason: fmt.Sprintf("Maximum %d decimal places allowed", maxAmountDecimals)}
	}
	return nil
}

func coefficientDigits(d decimal.Decimal) string {
	return strings.TrimPrefix(d.Coefficient().String(), "-")
}

func integerDigits(d decimal.Decimal) int {
	return len(coefficientDigits(d)) + int(d.Exponent())
}

// decimalPlaces ignores trailing zeros of the coefficient.
func decimalPlaces(d decimal.Decimal) int {
	exp := int(d.Exponent())
	if exp >= 0 {
		return 0
	}
	digits := coefficientDigits(d)
	zeros := len(digits) - len(strings.TrimRight(digits, "0"))
	if places := -exp - zeros; places > 0 {
		return places
	}
	return 0
}

// ValidateDate requires YYYY-MM-DD naming a real calendar day. Future dates
// are allowed.
func ValidateDate(date string) error {
	if !isoDate.MatchString(date) {
		return &ValidationError{Field: "date", Reason: "Must be in YYYY-MM-DD format"}
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return &ValidationError{Field: "date", Reason: "Must be a valid date"}
	}
	return nil
}

func ValidateDescription(description string) error {
	if strings.TrimSpace(description) == "" {
		return &ValidationError{Field: "description", Reason: "Cannot be empty"}
	}
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return &ValidationError{Field: "description", Reason: fmt.Sprintf("Maximum %d characters allowed", MaxDescriptionLength)}
	}
	return nil
}

func ValidateCategory(category string) error {
	if !Category(category).IsValid() {
		names := make([]string, len(categories))
		for i, c := range categories {
			names[i] = string(c)
		}
		return &ValidationError{Field: "category", Reason: "Must be one of: " + strings.Join(names, ", ")}
	}
	return nil
}
