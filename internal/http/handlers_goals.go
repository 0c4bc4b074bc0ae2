package http

import (
	"net/http"
	"strings"

	"carteira/internal/core"
)

type goalRequest struct {
	Name     string     `json:"name"`
	Target   core.Money `json:"target"`
	Saved    core.Money `json:"saved"`
	Deadline core.Date  `json:"deadline"`
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.store.ListFamilyGoals(r.Context(), currentUser(r).FamilyID)
	if err != nil {
		s.fail(w, r, "list_goals", err)
		return
	}
	if goals == nil {
		goals = []core.Goal{}
	}
	writeJSON(w, http.StatusOK, goals)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user := currentUser(r)
	g := core.Goal{
		UserID:   user.ID,
		Name:     strings.TrimSpace(req.Name),
		Target:   req.Target,
		Saved:    req.Saved,
		Deadline: req.Deadline,
	}
	if err := g.Validate(); err != nil {
		s.fail(w, r, "create_goal", core.Invalid(err))
		return
	}

	saved, err := s.store.CreateGoal(r.Context(), g)
	if err != nil {
		s.fail(w, r, "create_goal", err)
		return
	}
	s.dashboard.Invalidate(user.FamilyID)
	writeJSON(w, http.StatusCreated, saved)
}
