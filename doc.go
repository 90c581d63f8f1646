// Package authcore provides the session lifecycle of a consumer-facing
// account system: registration with OTP verification, password login, JWT
// access tokens, rotating single-use refresh tokens with reuse detection,
// logout with access-token blacklisting, and password reset.
//
// Engine methods are safe to call from multiple goroutines after
// construction through [Builder.Build].
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Engine], [Builder], [Config],
// the request/result value types and the [Error] taxonomy. Flow
// orchestration, attempt limiting and key layout live under internal/ and
// are never exported. Durable user records belong to a
// [directory.Directory]; everything short-lived (OTP challenges, refresh
// sessions, reset tickets, the blacklist) lives in an [EphemeralStore].
//
// # What this package must NOT do
//
//   - Expose Redis clients or key layouts in its public API.
//   - Return passwords, hashes, OTP codes or reset tickets from any
//     operation, log line or audit event.
//   - Hold per-user state in process. The ephemeral store is the only
//     coordination point between replicas.
//
// # Failure model
//
// Expected outcomes (duplicate user, wrong code, spent token) are returned
// as *Error values with a [ErrorKind]. Only store or directory failures
// surface as KindDependencyUnavailable.
package authcore
