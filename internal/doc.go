// Package internal contains helper utilities that are intentionally private to authcore,
// mainly secure random generation for codes, tickets and refresh token IDs.
//
// # Sub-packages
//
//   - flows: pure-function flow orchestrators for every Engine operation
//   - rate: attempt counters over the ephemeral store
//   - appconfig: environment-driven process configuration for the binaries
//   - telemetry: OTLP trace provider setup
//
// # What this package must NOT do
//
//   - Export types that appear in the public authcore API.
//   - Be imported by any package outside the authcore module.
package internal
