package api

import (
	"net/http"

	"github.com/crewkit/crewkit/pkg/audit"
	"github.com/crewkit/crewkit/pkg/httputil"
	"github.com/crewkit/crewkit/pkg/rbac"
)

type createAPIKeyRequest struct {
	Name string `json:"name"`
}

func (s *Server) createAPIKey(w http.ResponseWriter, r *http.Request) {
	scope, ok := requireScope(w, r)
	if !ok {
		return
	}

	var req createAPIKeyRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Name, "name") {
		return
	}

	key, secret, err := s.apiKeys.Create(r.Context(), scope, req.Name, actorID(r))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	s.recordAudit(r, rbac.ResourceAPIKeys, rbac.ActionCreate, scope.TeamID(), audit.StatusSuccess, "api key created")
	// The secret is shown exactly once at creation time.
	httputil.WriteCreated(w, map[string]interface{}{
		"key":    key,
		"secret": secret,
	})
}

func (s *Server) listAPIKeys(w http.ResponseWriter, r *http.Request) {
	scope, ok := requireScope(w, r)
	if !ok {
		return
	}

	keys, err := s.apiKeys.List(r.Context(), scope)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, map[string]interface{}{"api_keys": keys})
}

func (s *Server) deleteAPIKey(w http.ResponseWriter, r *http.Request) {
	scope, ok := requireScope(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	if err := s.apiKeys.Delete(r.Context(), scope, id); err != nil {
		writeStoreError(w, r, err)
		return
	}

	s.recordAudit(r, rbac.ResourceAPIKeys, rbac.ActionDelete, scope.TeamID(), audit.StatusSuccess, "api key deleted")
	httputil.WriteNoContent(w)
}
