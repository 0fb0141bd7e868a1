// Package auth holds the actor identity types and the session store the
// HTTP layer uses to turn a bearer token into a user id.
//
// The actual authentication flows (password, OAuth, SAML) live outside
// this service; by the time a request reaches the access layer it carries
// an already-verified actor id or it is rejected with 401.
package auth
