package google

import (
	"strconv"

	"fintrack/internal/core"
	ports "fintrack/internal/sheets"
)

// findRow returns the 1-based row holding id in column A, or 0.
func findRow(ids []string, id int64) int {
	key := strconv.FormatInt(id, 10)
	for i, v := range ids {
		if i == 0 {
			continue // header
		}
		if v == key {
			return i + 1
		}
	}
	return 0
}

// placeRow picks the row for id: its existing row, else the first cleared
// row, else a new row at the end. empty means the tab has no header yet.
func placeRow(ids []string, id int64) (row int, empty bool) {
	if len(ids) == 0 {
		return 2, true
	}
	if r := findRow(ids, id); r != 0 {
		return r, false
	}
	for i := 1; i < len(ids); i++ {
		if ids[i] == "" {
			return i + 1, false
		}
	}
	return len(ids) + 1, false
}

func rowFor(t core.Transaction) []any {
	return []any{
		strconv.FormatInt(t.ID, 10),
		strconv.FormatInt(t.UserID, 10),
		t.Date.String(),
		t.Type.String(),
		t.CategoryName,
		t.Amount.StringFixed(2),
		t.Description,
	}
}

func headerRow() []any {
	out := make([]any, len(ports.Header))
	for i, h := range ports.Header {
		out[i] = h
	}
	return out
}
