package core

import (
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// InitialBalanceCategory is the income category used for the opening balance.
const InitialBalanceCategory = "Initial Balance"

type (
	TransactionType string

	User struct {
		ID                int64
		Username          string
		Email             string
		PasswordHash      string
		InitialBalanceSet bool
		CreatedAt         time.Time
	}

	Category struct {
		ID     int64
		UserID int64
		Name   string
		Type   TransactionType
	}

	// Transaction is a ledger row joined with its category name.
	Transaction struct {
		ID           int64
		UserID       int64
		Type         TransactionType
		Amount       Money
		Date         Date
		Description  string
		CategoryID   int64
		CategoryName string
		CreatedAt    time.Time
	}

	// TransactionInput carries the caller-supplied fields of create and update.
	TransactionInput struct {
		Type        TransactionType
		Category    string
		Amount      Money
		Date        Date
		Description string
	}

	Session struct {
		Token     string
		UserID    int64
		ExpiresAt time.Time
	}
)

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (t TransactionType) String() string {
	return string(t)
}

// ParseTransactionType normalizes and validates a type string.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", NewValidationError("type", "Invalid transaction type")
	}
	return t, nil
}

func (in TransactionInput) Validate() error {
	if !in.Type.Valid() {
		return NewValidationError("type", "Invalid transaction type")
	}
	if strings.TrimSpace(in.Category) == "" {
		return NewValidationError("category", "Category is required")
	}
	if len(in.Category) > 100 {
		return NewValidationError("category", "Category is too long (max 100 characters)")
	}
	if err := in.Amount.Validate(); err != nil {
		return err
	}
	if err := in.Date.Validate(); err != nil {
		return err
	}
	if len(in.Description) > 255 {
		return NewValidationError("description", "Description is too long (max 255 characters)")
	}
	return nil
}

// Normalize trims free-text fields.
func (in TransactionInput) Normalize() TransactionInput {
	in.Category = strings.TrimSpace(in.Category)
	in.Description = strings.TrimSpace(in.Description)
	return in
}

func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
