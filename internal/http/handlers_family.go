package http

import (
	"net/http"

	"carteira/internal/core"
)

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	members, err := s.store.ListFamilyMembers(r.Context(), user.FamilyID)
	if err != nil {
		s.fail(w, r, "list_members", err)
		return
	}
	if members == nil {
		members = []core.User{}
	}
	writeJSON(w, http.StatusOK, members)
}

// handleAddMember links an existing account into the caller's family. The
// account's own credentials are required so nobody can be pulled in without
// consent.
func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	caller := currentUser(r)
	member, err := s.store.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(w, r, "add_member", err)
		return
	}

	if member.FamilyID != caller.FamilyID {
		previous := member.FamilyID
		if err := s.store.MoveToFamily(r.Context(), member.ID, caller.FamilyID); err != nil {
			s.fail(w, r, "add_member", err)
			return
		}
		member.FamilyID = caller.FamilyID
		s.dashboard.Invalidate(previous)
		s.dashboard.Invalidate(caller.FamilyID)
		s.logger.InfoContext(r.Context(), "Family member added",
			"member_id", member.ID, "family_id", caller.FamilyID, "previous_family_id", previous)
	}

	writeJSON(w, http.StatusOK, member)
}
