package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0.01", "0.01", true},
		{" 2.50 ", "2.5", true},
		{`"12"`, "12", true},
		{"-1", "", false},
		{"0", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
		{"1e400", "", false},
		{"0.001", "", false},
		{"12.345", "", false},
		{"1000000000000", "", false},
		{"999999999999.99", "999999999999.99", true},
		{"12.500", "12.5", true},
		{"1e2", "100", true},
	}
	for _, tc := range cases {
		got, err := ParseMoney(tc.in)
		if tc.ok {
			if err != nil || got.String() != tc.out {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
			if !IsValidation(err) {
				t.Fatalf("%q expected validation error, got %T", tc.in, err)
			}
		}
	}
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"2025-01-31", "2025-01-31", true},
		{"2025-03-04T22:10:00Z", "2025-03-04", true},
		{"2025-02-30", "", false},
		{"31/01/2025", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseDate(tc.in)
		if tc.ok {
			if err != nil || got.String() != tc.out {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestMonthKey(t *testing.T) {
	if got := NewDate(2024, 3, 9).MonthKey(); got != "2024-03" {
		t.Fatalf("expected 2024-03, got %s", got)
	}
}

func TestParseBalance(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "0", false},
		{"0", "0", false},
		{"0.00", "0", false},
		{"1500,25", "1500.25", false},
		{"-1", "", true},
		{"abc", "", true},
		{"1e400", "", true},
		{"0.001", "", true},
	}
	for _, tt := range tests {
		got, err := ParseBalance(tt.in)
		if tt.wantErr {
			if err == nil || !IsValidation(err) {
				t.Errorf("ParseBalance(%q) error = %v, want validation error", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseBalance(%q) unexpected error: %v", tt.in, err)
		}
		if got.String() != tt.want {
			t.Errorf("ParseBalance(%q) = %s, want %s", tt.in, got.String(), tt.want)
		}
	}
}

func TestMoneyValidateBounds(t *testing.T) {
	tests := []struct {
		name    string
		in      Money
		wantErr bool
	}{
		{"max", MaxAmount, false},
		{"cent", NewMoney(decimal.New(1, -2)), false},
		{"above max", NewMoney(MaxAmount.Add(NewMoney(decimal.New(1, -2))).Decimal), true},
		{"huge exponent", NewMoney(decimal.New(1, 400)), true},
		{"sub-cent", NewMoney(decimal.New(1, -3)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			if tt.wantErr {
				if !IsValidation(err) {
					t.Fatalf("Validate() = %v, want validation error", err)
				}
				var ve *ValidationError
				if errors.As(err, &ve) && ve.Field != "amount" {
					t.Fatalf("field = %q, want amount", ve.Field)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() unexpected error: %v", err)
			}
		})
	}
}
