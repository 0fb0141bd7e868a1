package api

import (
	"errors"
	"net/http"

	"github.com/crewkit/crewkit/pkg/audit"
	"github.com/crewkit/crewkit/pkg/httputil"
	"github.com/crewkit/crewkit/pkg/observability"
	"github.com/crewkit/crewkit/pkg/rbac"
	"github.com/crewkit/crewkit/pkg/scoped"
	"github.com/crewkit/crewkit/pkg/teams"
)

// writeStoreError maps store sentinels to HTTP statuses. Cross-tenant rows
// and genuinely missing rows both answer 404.
func writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, scoped.ErrNotFound),
		errors.Is(err, teams.ErrTeamNotFound),
		errors.Is(err, teams.ErrMemberNotFound),
		errors.Is(err, teams.ErrInvitationNotFound):
		httputil.WriteNotFoundError(w, "not found")
	case errors.Is(err, teams.ErrInvalidSlug):
		httputil.WriteValidationError(w, "slug must contain lowercase letters, digits or dashes and cannot be all digits")
	case errors.Is(err, teams.ErrSlugTaken):
		httputil.WriteConflict(w, "team slug already taken")
	case errors.Is(err, teams.ErrLastOwner):
		httputil.WriteConflict(w, "team must retain at least one owner")
	case errors.Is(err, teams.ErrMemberExists):
		httputil.WriteConflict(w, "member already exists")
	case errors.Is(err, teams.ErrInvitationExpired):
		httputil.WriteConflict(w, "invitation expired")
	case errors.Is(err, teams.ErrInvitationAccepted):
		httputil.WriteConflict(w, "invitation already accepted")
	default:
		observability.FromContext(r.Context()).WithError(err).Error("request failed")
		httputil.WriteInternalError(w, errors.New("internal error"))
	}
}

func (s *Server) createTeam(w http.ResponseWriter, r *http.Request) {
	var req teams.CreateTeamRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Name, "name") {
		return
	}

	team, err := s.teams.CreateTeam(r.Context(), req, actorID(r))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	s.recordAudit(r, rbac.ResourceTeamSettings, rbac.ActionCreate, team.ID, audit.StatusSuccess, "team created")
	httputil.WriteCreated(w, team)
}

func (s *Server) listTeams(w http.ResponseWriter, r *http.Request) {
	list, err := s.teams.ListTeams(r.Context(), actorID(r))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, map[string]interface{}{"teams": list})
}

func (s *Server) getTeam(w http.ResponseWriter, r *http.Request) {
	scope, ok := requireScope(w, r)
	if !ok {
		return
	}

	team, err := s.teams.GetTeam(r.Context(), scope.TeamID())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, team)
}

func (s *Server) updateTeam(w http.ResponseWriter, r *http.Request) {
	scope, ok := requireScope(w, r)
	if !ok {
		return
	}

	var req teams.UpdateTeamRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	if err := s.teams.UpdateTeam(r.Context(), scope.TeamID(), req); err != nil {
		writeStoreError(w, r, err)
		return
	}

	team, err := s.teams.GetTeam(r.Context(), scope.TeamID())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	s.recordAudit(r, rbac.ResourceTeamSettings, rbac.ActionUpdate, scope.TeamID(), audit.StatusSuccess, "team settings updated")
	httputil.WriteSuccess(w, team)
}

func (s *Server) deleteTeam(w http.ResponseWriter, r *http.Request) {
	scope, ok := requireScope(w, r)
	if !ok {
		return
	}

	if err := s.teams.DeleteTeam(r.Context(), scope.TeamID()); err != nil {
		writeStoreError(w, r, err)
		return
	}

	s.recordAudit(r, rbac.ResourceTeamSettings, rbac.ActionDelete, scope.TeamID(), audit.StatusSuccess, "team deleted")
	httputil.WriteNoContent(w)
}
