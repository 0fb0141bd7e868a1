package api

import (
	"net/http"

	"github.com/crewkit/crewkit/pkg/audit"
	"github.com/crewkit/crewkit/pkg/httputil"
	"github.com/crewkit/crewkit/pkg/rbac"
	"github.com/crewkit/crewkit/pkg/webhooks"
)

func (s *Server) createWebhook(w http.ResponseWriter, r *http.Request) {
	scope, ok := requireScope(w, r)
	if !ok {
		return
	}

	var req webhooks.CreateEndpointRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.URL, "url") {
		return
	}

	endpoint, err := s.webhooks.Create(r.Context(), scope, req)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	s.recordAudit(r, rbac.ResourceWebhooks, rbac.ActionCreate, scope.TeamID(), audit.StatusSuccess, "webhook endpoint created")
	httputil.WriteCreated(w, endpoint)
}

func (s *Server) listWebhooks(w http.ResponseWriter, r *http.Request) {
	scope, ok := requireScope(w, r)
	if !ok {
		return
	}

	endpoints, err := s.webhooks.List(r.Context(), scope)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, map[string]interface{}{"webhooks": endpoints})
}

func (s *Server) getWebhook(w http.ResponseWriter, r *http.Request) {
	scope, ok := requireScope(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	endpoint, err := s.webhooks.Get(r.Context(), scope, id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, endpoint)
}

func (s *Server) updateWebhook(w http.ResponseWriter, r *http.Request) {
	scope, ok := requireScope(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req webhooks.UpdateEndpointRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	if err := s.webhooks.Update(r.Context(), scope, id, req); err != nil {
		writeStoreError(w, r, err)
		return
	}

	endpoint, err := s.webhooks.Get(r.Context(), scope, id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	s.recordAudit(r, rbac.ResourceWebhooks, rbac.ActionUpdate, scope.TeamID(), audit.StatusSuccess, "webhook endpoint updated")
	httputil.WriteSuccess(w, endpoint)
}

func (s *Server) deleteWebhook(w http.ResponseWriter, r *http.Request) {
	scope, ok := requireScope(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	if err := s.webhooks.Delete(r.Context(), scope, id); err != nil {
		writeStoreError(w, r, err)
		return
	}

	s.recordAudit(r, rbac.ResourceWebhooks, rbac.ActionDelete, scope.TeamID(), audit.StatusSuccess, "webhook endpoint deleted")
	httputil.WriteNoContent(w)
}
