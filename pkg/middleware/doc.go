// Package middleware provides HTTP middleware for authentication, authorization, and rate limiting.
//
// # Overview
//
// This package implements request processing middleware including session
// authentication, team-scoped authorization, and rate limiting (in-process
// and Redis-backed).
//
// # Middleware Components
//
// AuthMiddleware: Bearer session authentication
//
//	authMw := middleware.NewAuthMiddleware(sessionStore, false)
//	router.Use(authMw.Handler)
//	// Validates the session token and adds AuthContext to the request
//
// RequireAccess: team-scoped authorization
//
//	router.Handle("/api/v1/teams/{team}/webhooks",
//		middleware.RequireAccess(decider, rbac.ResourceWebhooks, rbac.ActionCreate)(handler),
//	).Methods("POST")
//	// On allow, the verified decision is available via middleware.GetDecision
//
// RateLimitMiddleware: in-memory rate limiting for single-instance deployments
//
//	router.Use(middleware.NewRateLimitMiddleware().Handler)
//
// DistributedRateLimitMiddleware: Redis-backed rate limiting
//
//	router.Use(middleware.NewDistributedRateLimitMiddleware(redisClient).Handler)
//
// # Rate Limiting
//
// Default (Anonymous): 100 req/min, 10 burst
// Per-User: 1000 req/min, 50 burst
//
// # Related Packages
//
//   - pkg/auth: Session validation
//   - pkg/access: Authorization decisions
//   - pkg/rbac: Resource and action definitions
package middleware
