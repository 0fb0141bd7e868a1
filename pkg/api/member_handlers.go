package api

import (
	"net/http"

	"github.com/crewkit/crewkit/pkg/audit"
	"github.com/crewkit/crewkit/pkg/httputil"
	"github.com/crewkit/crewkit/pkg/rbac"
	"github.com/crewkit/crewkit/pkg/teams"
)

func (s *Server) listMembers(w http.ResponseWriter, r *http.Request) {
	scope, ok := requireScope(w, r)
	if !ok {
		return
	}

	members, err := s.teams.ListMembers(r.Context(), scope.TeamID())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, map[string]interface{}{"members": members})
}

func (s *Server) updateMemberRole(w http.ResponseWriter, r *http.Request) {
	scope, ok := requireScope(w, r)
	if !ok {
		return
	}
	userID, ok := httputil.ParsePathInt64OrError(w, r, "user_id")
	if !ok {
		return
	}

	var req teams.UpdateMemberRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if _, err := rbac.ParseRole(string(req.Role)); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	if err := s.teams.UpdateMemberRole(r.Context(), scope.TeamID(), userID, req.Role); err != nil {
		writeStoreError(w, r, err)
		return
	}

	s.recordAudit(r, rbac.ResourceMembers, rbac.ActionUpdateRole, scope.TeamID(), audit.StatusSuccess, "member role updated")
	httputil.WriteNoContent(w)
}

func (s *Server) removeMember(w http.ResponseWriter, r *http.Request) {
	scope, ok := requireScope(w, r)
	if !ok {
		return
	}
	userID, ok := httputil.ParsePathInt64OrError(w, r, "user_id")
	if !ok {
		return
	}

	if err := s.teams.RemoveMember(r.Context(), scope.TeamID(), userID); err != nil {
		writeStoreError(w, r, err)
		return
	}

	s.recordAudit(r, rbac.ResourceMembers, rbac.ActionRemove, scope.TeamID(), audit.StatusSuccess, "member removed")
	httputil.WriteNoContent(w)
}

// leaveTeam removes the actor's own membership. The last-owner guard in
// the store refuses to orphan the team.
func (s *Server) leaveTeam(w http.ResponseWriter, r *http.Request) {
	scope, ok := requireScope(w, r)
	if !ok {
		return
	}

	if err := s.teams.RemoveMember(r.Context(), scope.TeamID(), actorID(r)); err != nil {
		writeStoreError(w, r, err)
		return
	}

	s.recordAudit(r, rbac.ResourceMembers, rbac.ActionLeave, scope.TeamID(), audit.StatusSuccess, "member left team")
	httputil.WriteNoContent(w)
}
