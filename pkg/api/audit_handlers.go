package api

import (
	"net/http"

	"github.com/crewkit/crewkit/pkg/audit"
	"github.com/crewkit/crewkit/pkg/httputil"
	"github.com/crewkit/crewkit/pkg/rbac"
)

func (s *Server) listAuditLogs(w http.ResponseWriter, r *http.Request) {
	scope, ok := requireScope(w, r)
	if !ok {
		return
	}
	if s.auditDB == nil {
		httputil.WriteServiceUnavailable(w, "audit log storage is not configured")
		return
	}

	filter, err := auditFilterFromQuery(r)
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	events, err := s.auditDB.List(r.Context(), scope, filter)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, map[string]interface{}{"events": events})
}

func auditFilterFromQuery(r *http.Request) (audit.SearchFilter, error) {
	var filter audit.SearchFilter
	var err error

	if filter.StartTime, err = httputil.ParseQueryTime(r, "start_time"); err != nil {
		return filter, err
	}
	if filter.EndTime, err = httputil.ParseQueryTime(r, "end_time"); err != nil {
		return filter, err
	}

	if actor, err := httputil.ParseQueryInt64(r, "actor_id", 0); err != nil {
		return filter, err
	} else if actor != 0 {
		filter.ActorID = &actor
	}

	if resource := httputil.ParseQueryString(r, "resource", ""); resource != "" {
		res := rbac.Resource(resource)
		filter.Resource = &res
	}
	if status := httputil.ParseQueryString(r, "status", ""); status != "" {
		st := audit.Status(status)
		filter.Status = &st
	}

	if filter.Limit, err = httputil.ParseQueryInt(r, "limit", 0); err != nil {
		return filter, err
	}
	if filter.Offset, err = httputil.ParseQueryInt(r, "offset", 0); err != nil {
		return filter, err
	}
	return filter, nil
}
