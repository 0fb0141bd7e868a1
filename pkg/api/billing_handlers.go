package api

import (
	"net/http"

	"github.com/crewkit/crewkit/pkg/audit"
	"github.com/crewkit/crewkit/pkg/billing"
	"github.com/crewkit/crewkit/pkg/httputil"
	"github.com/crewkit/crewkit/pkg/rbac"
)

func (s *Server) getBillingSettings(w http.ResponseWriter, r *http.Request) {
	scope, ok := requireScope(w, r)
	if !ok {
		return
	}

	settings, err := s.billing.Get(r.Context(), scope)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, settings)
}

func (s *Server) updateBillingSettings(w http.ResponseWriter, r *http.Request) {
	scope, ok := requireScope(w, r)
	if !ok {
		return
	}

	var req billing.UpdateSettingsRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Plan != nil && !req.Plan.Valid() {
		httputil.WriteValidationError(w, "unknown plan tier")
		return
	}

	settings, err := s.billing.Update(r.Context(), scope, req)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	s.recordAudit(r, rbac.ResourceBilling, rbac.ActionUpdate, scope.TeamID(), audit.StatusSuccess, "billing settings updated")
	httputil.WriteSuccess(w, settings)
}
