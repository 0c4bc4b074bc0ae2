package http

import (
	"net/http"

	"carteira/internal/core"
)

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.GetProfile(r.Context(), currentUser(r).ID)
	if err != nil {
		s.fail(w, r, "get_profile", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handlePutProfile replaces the caller's profile. The user ID always comes
// from the session.
func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	var p core.FinancialProfile
	if !decodeJSON(w, r, &p) {
		return
	}

	user := currentUser(r)
	p.UserID = user.ID
	if err := p.Validate(); err != nil {
		s.fail(w, r, "save_profile", core.Invalid(err))
		return
	}
	if err := s.store.SaveProfile(r.Context(), p); err != nil {
		s.fail(w, r, "save_profile", err)
		return
	}
	s.dashboard.Invalidate(user.FamilyID)
	writeJSON(w, http.StatusOK, p)
}
