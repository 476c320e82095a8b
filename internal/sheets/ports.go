// Package sheets defines the outbound port for mirroring the ledger into a
// spreadsheet.
package sheets

import (
	"context"

	"fintrack/internal/core"
)

// Mirror keeps one row per transaction, keyed by transaction id.
type Mirror interface {
	// Upsert writes t over its existing row or appends a new one.
	Upsert(ctx context.Context, t core.Transaction) error
	// Remove clears the row of transaction id. Missing rows are not an error.
	Remove(ctx context.Context, id int64) error
}

// Header is the column layout of the mirrored tab.
var Header = []string{"ID", "User", "Date", "Type", "Category", "Amount", "Description"}
