package api

import (
	"net/http"
	"strings"

	"github.com/crewkit/crewkit/pkg/httputil"
)

// revokeSession logs the actor out by revoking the presented token. The
// auth middleware has already validated it.
func (s *Server) revokeSession(w http.ResponseWriter, r *http.Request) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 {
		httputil.WriteUnauthorized(w, "missing authorization header")
		return
	}

	if err := s.sessions.Revoke(r.Context(), parts[1]); err != nil {
		writeStoreError(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}
