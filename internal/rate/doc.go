// Package rate provides the bounded-failure attempt counters used by the
// OTP verification and login flows.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit, delegated
// to the ephemeral store. Key prefixes:
//   - attempts:otp:   failed OTP guesses per email
//   - attempts:login: failed logins per email
//
// A zero maximum disables the corresponding counter entirely.
//
// # What this package must NOT do
//
//   - Decide what happens once a limit is reached (the flows do that).
//   - Be imported outside the authcore module.
package rate
