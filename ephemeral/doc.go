// Package ephemeral is the Redis-backed key-value store behind every
// short-lived record the engine keeps: OTP challenges, refresh-session
// markers, reset tickets, blacklist entries and attempt counters.
//
// # Guarantees
//
//   - DeleteIfExists is a single DEL whose reply count reports removal, so two
//     callers racing on one key never both observe success.
//   - Bulk deletes walk the keyspace with a cursor-driven SCAN and never issue
//     KEYS.
//   - Network failures are retried a bounded number of times with capped
//     exponential backoff. Server replies and missing keys are not retried.
//     Anything that still fails wraps [ErrUnavailable].
//
// The go-redis client passed in should have its own retries disabled
// (MaxRetries: -1) so the two retry layers do not multiply.
package ephemeral
