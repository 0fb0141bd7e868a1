package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/crewkit/crewkit/pkg/auth"
	"github.com/crewkit/crewkit/pkg/contextkeys"
	"github.com/crewkit/crewkit/pkg/httputil"
)

// AuthMiddleware resolves Bearer session tokens to an authenticated actor.
type AuthMiddleware struct {
	sessions *auth.SessionStore
	optional bool // If true, allow requests without auth
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(sessions *auth.SessionStore, optional bool) *AuthMiddleware {
	return &AuthMiddleware{
		sessions: sessions,
		optional: optional,
	}
}

// Handler wraps an HTTP handler with authentication
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Format: "Bearer <token>"
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			if m.optional {
				next.ServeHTTP(w, r)
				return
			}
			httputil.WriteUnauthorized(w, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			httputil.WriteUnauthorized(w, "invalid authorization header format")
			return
		}

		session, err := m.sessions.Validate(r.Context(), parts[1])
		if err != nil {
			httputil.WriteUnauthorized(w, "invalid or expired session")
			return
		}

		authCtx := &auth.AuthContext{
			UserID:  session.UserID,
			Session: session,
		}

		ctx := contextkeys.WithAuth(r.Context(), authCtx)
		ctx = contextkeys.WithUserID(ctx, strconv.FormatInt(session.UserID, 10))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetAuthContext extracts auth context from request
func GetAuthContext(r *http.Request) *auth.AuthContext {
	ctx := r.Context().Value(contextkeys.AuthKey)
	if ctx == nil {
		return nil
	}
	authCtx, ok := ctx.(*auth.AuthContext)
	if !ok {
		return nil
	}
	return authCtx
}
