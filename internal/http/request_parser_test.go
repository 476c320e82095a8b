package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func newParser(t *testing.T, contentType, body string) *RequestBodyParser {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return NewRequestBodyParser(httptest.NewRecorder(), req)
}

func TestRequestBodyParser_JSON(t *testing.T) {
	p := newParser(t, "application/json", `{"type":"expense","amount":12.30,"category":" Food\u0007 ","flag":true}`)
	require.NoError(t, p.Parse())
	require.True(t, p.IsJSON())
	require.Equal(t, "expense", p.Get("type"))
	require.Equal(t, "12.30", p.Get("amount"), "numbers keep their decimal text")
	require.Equal(t, "Food", p.Get("category"))
	require.Equal(t, "true", p.Get("flag"))
	require.Equal(t, "", p.Get("missing"))
}

func TestRequestBodyParser_FormData(t *testing.T) {
	p := newParser(t, "application/x-www-form-urlencoded", "type=income&amount=10%2C50")
	require.NoError(t, p.Parse())
	require.False(t, p.IsJSON())
	require.Equal(t, "income", p.Get("type"))
	require.Equal(t, "10,50", p.Get("amount"))
}

func TestRequestBodyParser_EmptyAndMalformed(t *testing.T) {
	p := newParser(t, "", "")
	require.NoError(t, p.Parse())
	require.Equal(t, "", p.Get("type"))

	p = newParser(t, "application/json", `{"type":`)
	require.ErrorIs(t, p.Parse(), errMalformedBody)
	require.ErrorIs(t, p.Parse(), errMalformedBody, "parse result is memoized")

	p = newParser(t, "application/json", `[1,2]`)
	require.ErrorIs(t, p.Parse(), errMalformedBody)
}

func TestParseTransactionInput(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"valid", `{"type":"Expense","category":"Food","amount":"12.5","date":"2025-03-01","description":"x"}`, ""},
		{"bad type", `{"type":"gift","category":"Food","amount":1,"date":"2025-03-01"}`, "type"},
		{"missing category", `{"type":"income","amount":1,"date":"2025-03-01"}`, "category"},
		{"negative amount", `{"type":"income","category":"x","amount":-4,"date":"2025-03-01"}`, "amount"},
		{"bad date", `{"type":"income","category":"x","amount":4,"date":"03/01/2025"}`, "date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newParser(t, "application/json", tt.body)
			require.NoError(t, p.Parse())
			in, err := ParseTransactionInput(p)
			if tt.field == "" {
				require.NoError(t, err)
				require.Equal(t, core.Expense, in.Type)
				require.Equal(t, "2025-03-01", in.Date.String())
				return
			}
			var ve *core.ValidationError
			require.ErrorAs(t, err, &ve)
			require.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestParseIDParam(t *testing.T) {
	for raw, want := range map[string]int64{"42": 42, "0": 0, "-3": 0, "abc": 0} {
		req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"id": raw})
		id, ok := ParseIDParam(req)
		require.Equal(t, want, id, raw)
		require.Equal(t, want != 0, ok, raw)
	}
}

func TestSanitizeInput(t *testing.T) {
	require.Equal(t, "a\tb", sanitizeInput("  a\x00\tb\x1f  "))
}
