// Package httputil provides HTTP utilities for standardized request/response handling.
//
// # Overview
//
// This package offers helper functions for JSON encoding/decoding, error responses,
// parameter parsing, validation, and common HTTP middleware patterns.
//
// # Response Helpers
//
//	httputil.WriteJSON(w, http.StatusOK, data)
//	httputil.WriteCreated(w, resource)
//	httputil.WriteNotFoundError(w, "team not found")
//	httputil.WriteForbidden(w, "insufficient role")
//
// # Request Parsing
//
//	var req CreateTeamRequest
//	if !httputil.ParseJSONOrError(w, r, &req) {
//		return // error response already written
//	}
//
//	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
//	limit, err := httputil.ParseQueryInt(r, "limit", 50)
//
// # Middleware
//
//	httputil.Chain(
//		httputil.RecoveryMiddleware,
//		httputil.RequestIDMiddleware,
//		httputil.ContentTypeMiddleware,
//		httputil.MaxBytesMiddleware(1*1024*1024),
//	)
//
// # Related Packages
//
//   - pkg/middleware: authentication and access-control middleware
package httputil
