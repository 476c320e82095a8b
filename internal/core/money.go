// Package core provides the ledger domain: money and date handling,
// validation, the error taxonomy and the aggregation engine.
//
// This file contains money parsing. Amounts are exact decimals; sign is
// carried by the transaction type, never by the stored amount.
package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type (
	Money struct {
		decimal.Decimal
	}

	// Date is a calendar date in UTC with no time-of-day semantics.
	Date struct {
		time.Time
	}
)

var Zero = Money{}

// MaxAmount is the largest amount a NUMERIC(14,2) column holds.
var MaxAmount = Money{Decimal: decimal.RequireFromString("999999999999.99")}

// amountScale is the number of decimal places stored for an amount.
const amountScale = 2

func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d}
}

// MustMoney parses s and panics on error. Intended for tests and constants.
func MustMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

// ParseMoney converts a decimal string into a positive amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rejects
// empty, negative, zero and non-numeric input, amounts with more than two
// decimal places and amounts above MaxAmount.
//
// Examples:
//
//	ParseMoney("12.34") -> 12.34, nil
//	ParseMoney("12,34") -> 12.34, nil
//	ParseMoney("-1")    -> error
//	ParseMoney("0.001") -> error
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"`)
	if s == "" {
		return Zero, NewValidationError("amount", "Valid amount is required")
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, NewValidationError("amount", "Valid amount is required")
	}
	m := Money{Decimal: d}
	if err := m.Validate(); err != nil {
		return Zero, err
	}
	return m, nil
}

// ParseBalance is ParseMoney for opening balances: zero is accepted and an
// empty string means zero.
func ParseBalance(s string) (Money, error) {
	s = strings.Trim(strings.TrimSpace(s), `"`)
	if s == "" {
		return Zero, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil || d.IsNegative() {
		return Zero, NewValidationError("initialBalance", "Valid initial balance is required")
	}
	m := Money{Decimal: d}
	if err := m.checkBounds("initialBalance"); err != nil {
		return Zero, err
	}
	return m, nil
}

// Validate requires a positive amount with at most two decimal places, no
// larger than MaxAmount.
func (m Money) Validate() error {
	if !m.IsPositive() {
		return NewValidationError("amount", "Valid amount is required")
	}
	return m.checkBounds("amount")
}

func (m Money) checkBounds(field string) error {
	if m.GreaterThan(MaxAmount.Decimal) {
		return NewValidationError(field, "Amount must not exceed 999999999999.99")
	}
	if !m.Equal(m.Round(amountScale)) {
		return NewValidationError(field, "Amount must have at most 2 decimal places")
	}
	return nil
}

func (m Money) Add(o Money) Money {
	return Money{Decimal: m.Decimal.Add(o.Decimal)}
}

func (m Money) Sub(o Money) Money {
	return Money{Decimal: m.Decimal.Sub(o.Decimal)}
}

// Float returns the amount as a float64 for JSON payloads.
// Use the decimal value for arithmetic.
func (m Money) Float() float64 {
	return m.InexactFloat64()
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, NewValidationError("date", "Valid date is required")
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return DateOf(t), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return DateOf(t), nil
	}
	return Date{}, NewValidationError("date", "Valid date is required")
}

func (d Date) Validate() error {
	if d.IsZero() {
		return NewValidationError("date", "Valid date is required")
	}
	return nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(dateLayout)
}

// MonthKey returns the year-month key (YYYY-MM) used by aggregations.
func (d Date) MonthKey() string {
	return d.Format("2006-01")
}
