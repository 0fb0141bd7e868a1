package middleware

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/crewkit/crewkit/pkg/access"
	"github.com/crewkit/crewkit/pkg/contextkeys"
	"github.com/crewkit/crewkit/pkg/httputil"
	"github.com/crewkit/crewkit/pkg/observability"
	"github.com/crewkit/crewkit/pkg/rbac"
)

// teamRefFromRequest reads the {team} route variable. A numeric value is
// treated as a team id, anything else as a slug. Team creation rejects
// all-numeric slugs, so the two namespaces cannot collide.
func teamRefFromRequest(r *http.Request) access.TeamRef {
	raw := mux.Vars(r)["team"]
	if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
		return access.RefByID(id)
	}
	return access.RefBySlug(raw)
}

// RequireAccess gates a team-scoped route on an authorization decision for
// the given resource and action. On allow the decision is placed in the
// request context; handlers must build their query scope from it rather
// than from any client-supplied team id.
//
// A team the actor cannot see and a team that does not exist are both
// reported as 404 so outsiders cannot probe which slugs are taken.
func RequireAccess(decider *access.Decider, resource rbac.Resource, action rbac.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx := GetAuthContext(r)
			if authCtx == nil {
				httputil.WriteUnauthorized(w, "authentication required")
				return
			}

			ref := teamRefFromRequest(r)
			decision, err := decider.Authorize(r.Context(), authCtx.UserID, ref, resource, action)
			if err != nil {
				switch {
				case errors.Is(err, access.ErrNoActor):
					httputil.WriteUnauthorized(w, "authentication required")
				case errors.Is(err, access.ErrTeamNotFound):
					httputil.WriteNotFoundError(w, "team not found")
				default:
					observability.FromContext(r.Context()).WithError(err).Error("authorization check failed")
					httputil.WriteInternalError(w, errors.New("authorization check failed"))
				}
				return
			}

			if !decision.Allowed {
				switch decision.Reason {
				case access.DenyNotAMember:
					httputil.WriteNotFoundError(w, "team not found")
				default:
					httputil.WriteForbidden(w, "insufficient permissions")
				}
				return
			}

			ctx := contextkeys.WithDecision(r.Context(), decision)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetDecision extracts the access decision placed by RequireAccess.
func GetDecision(r *http.Request) *access.Decision {
	decision, ok := r.Context().Value(contextkeys.DecisionKey).(*access.Decision)
	if !ok {
		return nil
	}
	return decision
}
