// Package flows contains pure-function orchestrators for every Engine operation.
//
// Each flow function (RunRegister, RunLogin, RunRefresh, etc.) accepts a typed
// dependency struct and returns a result carrying either the success payload
// or a classified failure. The root engine maps failures onto its public
// error kinds and owns audit and metrics.
//
// # Architecture boundaries
//
// Flow functions coordinate the user directory, the ephemeral key store, the
// token codec and the attempt limiter. They do NOT own any of these
// resources; ownership stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import authcore (to avoid import cycles).
//   - Perform I/O directly. All I/O is mediated through dependency interfaces.
package flows
