package http

import (
	"net/http"

	"fintrack/internal/core"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.reports.Dashboard(r.Context(), mustUserID(r))
	if err != nil {
		s.fail(w, r, err, errorMessages{NotFound: "User not found", Internal: "Failed to load dashboard data"})
		return
	}
	NewJSONResponse().Payload(toDashboardJSON(d)).Write(w)
}

// handleSetInitialBalance records the opening balance once per user.
func (s *Server) handleSetInitialBalance(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}

	amount, err := core.ParseBalance(p.Get("initialBalance"))
	if err != nil {
		s.fail(w, r, err, errorMessages{})
		return
	}

	if err := s.transactions.SetInitialBalance(r.Context(), mustUserID(r), amount); err != nil {
		s.fail(w, r, err, errorMessages{
			NotFound: "User not found",
			Conflict: "Initial balance already set",
			Internal: "Failed to set initial balance",
		})
		return
	}
	NewJSONResponse().Payload(messageJSON{Success: true, Message: "Initial balance set successfully"}).Write(w)
}

// handleReports serves the reports view. timeRange is accepted but the
// windows are fixed.
func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	rep, err := s.reports.Reports(r.Context(), mustUserID(r), r.URL.Query().Get("timeRange"))
	if err != nil {
		s.fail(w, r, err, errorMessages{Internal: "Failed to fetch reports data"})
		return
	}
	NewJSONResponse().Payload(struct {
		Success bool        `json:"success"`
		Data    reportsJSON `json:"data"`
	}{Success: true, Data: toReportsJSON(rep)}).Write(w)
}
