package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/crewkit/crewkit/pkg/access"
	"github.com/crewkit/crewkit/pkg/apikeys"
	"github.com/crewkit/crewkit/pkg/audit"
	"github.com/crewkit/crewkit/pkg/auth"
	"github.com/crewkit/crewkit/pkg/billing"
	"github.com/crewkit/crewkit/pkg/contextkeys"
	"github.com/crewkit/crewkit/pkg/httputil"
	"github.com/crewkit/crewkit/pkg/middleware"
	"github.com/crewkit/crewkit/pkg/rbac"
	"github.com/crewkit/crewkit/pkg/scoped"
	"github.com/crewkit/crewkit/pkg/teams"
	"github.com/crewkit/crewkit/pkg/webhooks"
)

// Server wires the HTTP surface: every team-scoped route passes through
// RequireAccess before its handler runs, and handlers build their query
// scope from the resulting decision.
type Server struct {
	router  *mux.Router
	handler http.Handler

	teams    *teams.PostgresService
	decider  *access.Decider
	sessions *auth.SessionStore
	apiKeys  *apikeys.Store
	webhooks *webhooks.Store
	billing  *billing.Store
	auditLog audit.Logger
	auditDB  *audit.DBLogger
}

// Config collects the dependencies the server needs.
type Config struct {
	Teams    *teams.PostgresService
	Decider  *access.Decider
	Sessions *auth.SessionStore
	APIKeys  *apikeys.Store
	Webhooks *webhooks.Store
	Billing  *billing.Store

	// AuditLog receives events for every allowed mutation; AuditDB serves
	// audit_logs reads. AuditLog may be a no-op logger.
	AuditLog audit.Logger
	AuditDB  *audit.DBLogger

	// Middleware applied to every API route, outermost first.
	Middleware []func(http.Handler) http.Handler
}

// NewServer creates the API server and registers its routes.
func NewServer(cfg Config) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		teams:    cfg.Teams,
		decider:  cfg.Decider,
		sessions: cfg.Sessions,
		apiKeys:  cfg.APIKeys,
		webhooks: cfg.Webhooks,
		billing:  cfg.Billing,
		auditLog: cfg.AuditLog,
		auditDB:  cfg.AuditDB,
	}
	if s.auditLog == nil {
		s.auditLog = audit.NewNopLogger()
	}

	authMw := middleware.NewAuthMiddleware(cfg.Sessions, false)
	s.setupRoutes(authMw)

	s.handler = s.router
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		s.handler = cfg.Middleware[i](s.handler)
	}
	return s
}

// Router returns the configured handler, wrapped in the configured
// middleware chain.
func (s *Server) Router() http.Handler {
	return s.handler
}

func (s *Server) setupRoutes(authMw *middleware.AuthMiddleware) {
	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.Use(authMw.Handler)

	// Actor-scoped routes: no team context yet.
	api.HandleFunc("/teams", s.createTeam).Methods("POST")
	api.HandleFunc("/teams", s.listTeams).Methods("GET")
	api.HandleFunc("/invitations/{token}/accept", s.acceptInvitation).Methods("POST")
	api.HandleFunc("/sessions", s.revokeSession).Methods("DELETE")

	// Team-scoped routes: each one declares the (resource, action) it
	// needs and gets its decision checked before the handler runs.
	s.guarded(api, "GET", "/teams/{team}", rbac.ResourceTeamSettings, rbac.ActionRead, s.getTeam)
	s.guarded(api, "PATCH", "/teams/{team}", rbac.ResourceTeamSettings, rbac.ActionUpdate, s.updateTeam)
	s.guarded(api, "DELETE", "/teams/{team}", rbac.ResourceTeamSettings, rbac.ActionDelete, s.deleteTeam)

	s.guarded(api, "GET", "/teams/{team}/members", rbac.ResourceMembers, rbac.ActionRead, s.listMembers)
	s.guarded(api, "PUT", "/teams/{team}/members/{user_id}", rbac.ResourceMembers, rbac.ActionUpdateRole, s.updateMemberRole)
	s.guarded(api, "DELETE", "/teams/{team}/members/{user_id}", rbac.ResourceMembers, rbac.ActionRemove, s.removeMember)
	s.guarded(api, "POST", "/teams/{team}/leave", rbac.ResourceMembers, rbac.ActionLeave, s.leaveTeam)

	s.guarded(api, "POST", "/teams/{team}/invitations", rbac.ResourceInvitations, rbac.ActionCreate, s.createInvitation)
	s.guarded(api, "GET", "/teams/{team}/invitations", rbac.ResourceInvitations, rbac.ActionRead, s.listInvitations)
	s.guarded(api, "DELETE", "/teams/{team}/invitations/{id}", rbac.ResourceInvitations, rbac.ActionDelete, s.revokeInvitation)

	s.guarded(api, "POST", "/teams/{team}/apikeys", rbac.ResourceAPIKeys, rbac.ActionCreate, s.createAPIKey)
	s.guarded(api, "GET", "/teams/{team}/apikeys", rbac.ResourceAPIKeys, rbac.ActionRead, s.listAPIKeys)
	s.guarded(api, "DELETE", "/teams/{team}/apikeys/{id}", rbac.ResourceAPIKeys, rbac.ActionDelete, s.deleteAPIKey)

	s.guarded(api, "POST", "/teams/{team}/webhooks", rbac.ResourceWebhooks, rbac.ActionCreate, s.createWebhook)
	s.guarded(api, "GET", "/teams/{team}/webhooks", rbac.ResourceWebhooks, rbac.ActionRead, s.listWebhooks)
	s.guarded(api, "GET", "/teams/{team}/webhooks/{id}", rbac.ResourceWebhooks, rbac.ActionRead, s.getWebhook)
	s.guarded(api, "PATCH", "/teams/{team}/webhooks/{id}", rbac.ResourceWebhooks, rbac.ActionUpdate, s.updateWebhook)
	s.guarded(api, "DELETE", "/teams/{team}/webhooks/{id}", rbac.ResourceWebhooks, rbac.ActionDelete, s.deleteWebhook)

	s.guarded(api, "GET", "/teams/{team}/billing", rbac.ResourceBilling, rbac.ActionRead, s.getBillingSettings)
	s.guarded(api, "PATCH", "/teams/{team}/billing", rbac.ResourceBilling, rbac.ActionUpdate, s.updateBillingSettings)

	s.guarded(api, "GET", "/teams/{team}/audit-logs", rbac.ResourceAuditLogs, rbac.ActionRead, s.listAuditLogs)
}

func (s *Server) guarded(router *mux.Router, method, path string, resource rbac.Resource, action rbac.Action, handler http.HandlerFunc) {
	router.Handle(path, middleware.RequireAccess(s.decider, resource, action)(handler)).Methods(method)
}

// actorID returns the authenticated user id; RequireAccess and the auth
// middleware guarantee it is present on protected routes.
func actorID(r *http.Request) int64 {
	authCtx := middleware.GetAuthContext(r)
	if authCtx == nil {
		return 0
	}
	return authCtx.UserID
}

// requireScope converts the request's decision into a query scope. A
// missing or denied decision means the route was registered without
// RequireAccess, which is a wiring bug, not a client error.
func requireScope(w http.ResponseWriter, r *http.Request) (scoped.Scope, bool) {
	scope, err := scoped.For(middleware.GetDecision(r))
	if err != nil {
		httputil.WriteInternalError(w, errors.New("route is missing its access guard"))
		return scoped.Scope{}, false
	}
	return scope, true
}

// recordAudit emits a fire-and-forget audit event for a completed
// mutation. Emission never blocks or fails the request.
func (s *Server) recordAudit(r *http.Request, resource rbac.Resource, action rbac.Action, teamID int64, status audit.Status, message string) {
	event := audit.NewEvent(resource, action, actorID(r), teamID, status)
	event.RequestID = contextkeys.GetRequestID(r.Context())
	event.IPAddress = r.RemoteAddr
	event.Message = message
	audit.Emit(s.auditLog, event)
}
