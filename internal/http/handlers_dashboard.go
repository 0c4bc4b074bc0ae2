package http

import (
	"net/http"
)

// handleDashboardSummary serves the monthly summary of the caller's family.
func (s *Server) handleDashboardSummary(w http.ResponseWriter, r *http.Request) {
	year, month, err := parseYearMonth(r, s.now())
	if err != nil {
		s.fail(w, r, "dashboard_summary", err)
		return
	}

	sum, err := s.dashboard.Summary(r.Context(), currentUser(r), year, month)
	if err != nil {
		s.fail(w, r, "dashboard_summary", err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
