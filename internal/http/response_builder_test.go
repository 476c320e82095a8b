package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJSONResponseBuilder_Write(t *testing.T) {
	rr := httptest.NewRecorder()
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("X-Custom", "1").
		Cookie(&http.Cookie{Name: "token", Value: "abc"}).
		Payload(map[string]any{"success": true}).
		Write(rr)

	require.Equal(t, http.StatusCreated, rr.Code)
	require.Equal(t, "1", rr.Header().Get("X-Custom"))
	require.Contains(t, rr.Header().Get("Set-Cookie"), "token=abc")
	require.Equal(t, "application/json; charset=utf-8", rr.Header().Get("Content-Type"))
	require.JSONEq(t, `{"success":true}`, rr.Body.String())
}

func TestJSONResponseBuilder_NoPayload(t *testing.T) {
	rr := httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusNoContent).Write(rr)
	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Empty(t, rr.Body.String())
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name    string
		builder *JSONResponseBuilder
		status  int
		message string
		field   string
	}{
		{"bad request", BadRequestError("Category is required", "category"), http.StatusBadRequest, "Category is required", "category"},
		{"unauthorized", UnauthorizedError("Unauthorized"), http.StatusUnauthorized, "Unauthorized", ""},
		{"not found", NotFoundError("Transaction not found"), http.StatusNotFound, "Transaction not found", ""},
		{"conflict", ConflictError("Initial balance already set"), http.StatusConflict, "Initial balance already set", ""},
		{"internal", InternalServerError("Failed"), http.StatusInternalServerError, "Failed", ""},
		{"method", MethodNotAllowedError(), http.StatusMethodNotAllowed, "Method not allowed", ""},
		{"rate", TooManyRequestsError(), http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			tt.builder.Write(rr)
			require.Equal(t, tt.status, rr.Code)

			var body errorBody
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			require.False(t, body.Success)
			require.Equal(t, tt.message, body.Message)
			require.Equal(t, tt.field, body.Field)
		})
	}
}
