package core

import (
	"errors"
	"strings"
	"testing"
	"time"
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

func TestMoneyValidate(t *testing.T) {
	if err := MustMoney("0.01").Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := Zero.Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
}

func TestParseTransactionType(t *testing.T) {
	for _, in := range []string{"income", "EXPENSE", " Income "} {
		if _, err := ParseTransactionType(in); err != nil {
			t.Fatalf("%q expected ok, got %v", in, err)
		}
	}
	if _, err := ParseTransactionType("transfer"); err == nil {
		t.Fatalf("expected error for transfer")
	}
}

func TestTransactionInputValidate(t *testing.T) {
	good := TransactionInput{
		Type:     Expense,
		Category: "Food",
		Amount:   MustMoney("12.50"),
		Date:     NewDate(2025, 1, 1),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		in    TransactionInput
		field string
	}{
		{TransactionInput{Type: "other", Category: "c", Amount: MustMoney("1"), Date: NewDate(2025, 1, 1)}, "type"},
		{TransactionInput{Type: Income, Category: "  ", Amount: MustMoney("1"), Date: NewDate(2025, 1, 1)}, "category"},
		{TransactionInput{Type: Income, Category: "c", Amount: Zero, Date: NewDate(2025, 1, 1)}, "amount"},
		{TransactionInput{Type: Income, Category: "c", Amount: MustMoney("1")}, "date"},
		{TransactionInput{Type: Income, Category: "c", Amount: MustMoney("1"), Date: NewDate(2025, 1, 1), Description: strings.Repeat("x", 256)}, "description"},
	}
	for i, tc := range bads {
		err := tc.in.Validate()
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("case %d expected validation error, got %v", i, err)
		}
		if ve.Field != tc.field {
			t.Errorf("case %d expected field %s, got %s", i, tc.field, ve.Field)
		}
	}
}

func TestSessionExpired(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s := Session{ExpiresAt: now.Add(time.Minute)}
	if s.Expired(now) {
		t.Fatalf("session should be live")
	}
	if !s.Expired(now.Add(time.Minute)) {
		t.Fatalf("session should be expired at its deadline")
	}
}

func TestPersistenceErrorUnwrap(t *testing.T) {
	base := errors.New("disk full")
	err := NewPersistenceError("insert transaction", base)
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to match")
	}
}
