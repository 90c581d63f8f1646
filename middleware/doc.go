// Package middleware exposes the HTTP access guard built on
// authcore.Engine.Authenticate.
//
// # Guards
//
//   - [Protect] verifies the bearer token and calls a [HandlerFunc] with the
//     verified claims as an explicit argument.
//   - [RequireRole] narrows a HandlerFunc to one role.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself; every decision is delegated to
// Authenticate.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly.
//   - Access the ephemeral store.
//   - Stash claims in the request context. Handlers receive them as a
//     parameter.
package middleware
