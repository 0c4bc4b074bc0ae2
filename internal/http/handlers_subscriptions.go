package http

import (
	"net/http"
	"strings"

	"carteira/internal/core"
)

type subscriptionRequest struct {
	Name        string         `json:"name"`
	Amount      core.Money     `json:"amount"`
	DueDate     core.Date      `json:"dueDate"`
	NextDueDate core.Date      `json:"nextDueDate"`
	Frequency   core.Frequency `json:"frequency"`
	Recurring   *bool          `json:"recurring,omitempty"`
}

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := s.store.ListFamilySubscriptions(r.Context(), currentUser(r).FamilyID)
	if err != nil {
		s.fail(w, r, "list_subscriptions", err)
		return
	}
	if subs == nil {
		subs = []core.Subscription{}
	}
	writeJSON(w, http.StatusOK, subs)
}

func (s *Server) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	var req subscriptionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user := currentUser(r)
	sub := core.Subscription{
		UserID:      user.ID,
		Name:        strings.TrimSpace(req.Name),
		Amount:      req.Amount,
		DueDate:     req.DueDate,
		NextDueDate: req.NextDueDate,
		Every:       req.Frequency,
		Recurring:   true,
		Active:      true,
	}
	if sub.Every == "" {
		sub.Every = core.Monthly
	}
	if req.Recurring != nil {
		sub.Recurring = *req.Recurring
	}
	if err := sub.Validate(); err != nil {
		s.fail(w, r, "create_subscription", core.Invalid(err))
		return
	}

	saved, err := s.store.CreateSubscription(r.Context(), sub)
	if err != nil {
		s.fail(w, r, "create_subscription", err)
		return
	}
	s.dashboard.Invalidate(user.FamilyID)
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleDeactivateSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.fail(w, r, "deactivate_subscription", err)
		return
	}

	user := currentUser(r)
	if err := s.store.DeactivateSubscription(r.Context(), user.FamilyID, id); err != nil {
		s.fail(w, r, "deactivate_subscription", err)
		return
	}
	s.dashboard.Invalidate(user.FamilyID)
	w.WriteHeader(http.StatusNoContent)
}
