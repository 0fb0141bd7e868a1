package api

import (
	"net/http"

	"github.com/crewkit/crewkit/pkg/audit"
	"github.com/crewkit/crewkit/pkg/httputil"
	"github.com/crewkit/crewkit/pkg/rbac"
	"github.com/crewkit/crewkit/pkg/teams"
)

func (s *Server) createInvitation(w http.ResponseWriter, r *http.Request) {
	scope, ok := requireScope(w, r)
	if !ok {
		return
	}

	var req teams.InviteMemberRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Email, "email") {
		return
	}
	if _, err := rbac.ParseRole(string(req.Role)); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	invitation := &teams.Invitation{
		TeamID:    scope.TeamID(),
		Email:     req.Email,
		Role:      req.Role,
		InvitedBy: actorID(r),
	}
	if err := s.teams.CreateInvitation(r.Context(), invitation); err != nil {
		writeStoreError(w, r, err)
		return
	}

	s.recordAudit(r, rbac.ResourceInvitations, rbac.ActionCreate, scope.TeamID(), audit.StatusSuccess, "invitation created")
	httputil.WriteCreated(w, invitation)
}

func (s *Server) listInvitations(w http.ResponseWriter, r *http.Request) {
	scope, ok := requireScope(w, r)
	if !ok {
		return
	}

	invitations, err := s.teams.ListInvitations(r.Context(), scope.TeamID())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, map[string]interface{}{"invitations": invitations})
}

func (s *Server) revokeInvitation(w http.ResponseWriter, r *http.Request) {
	scope, ok := requireScope(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	if err := s.teams.RevokeInvitation(r.Context(), scope.TeamID(), id); err != nil {
		writeStoreError(w, r, err)
		return
	}

	s.recordAudit(r, rbac.ResourceInvitations, rbac.ActionDelete, scope.TeamID(), audit.StatusSuccess, "invitation revoked")
	httputil.WriteNoContent(w)
}

// acceptInvitation joins the actor to the inviting team. This route is
// token-gated rather than membership-gated: the actor is not a member
// yet.
func (s *Server) acceptInvitation(w http.ResponseWriter, r *http.Request) {
	token, ok := httputil.ParsePathStringOrError(w, r, "token")
	if !ok {
		return
	}

	invitation, err := s.teams.GetInvitation(r.Context(), token)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	if err := s.teams.AcceptInvitation(r.Context(), token, actorID(r)); err != nil {
		writeStoreError(w, r, err)
		return
	}

	membership, err := s.teams.GetMember(r.Context(), invitation.TeamID, actorID(r))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	s.recordAudit(r, rbac.ResourceInvitations, rbac.ActionAccept, invitation.TeamID, audit.StatusSuccess, "invitation accepted")
	httputil.WriteSuccess(w, membership)
}
