// Package password hashes and verifies user passwords with argon2id.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// # Policy
//
// Passwords must be between [MinPasswordBytes] and [MaxPasswordBytes] bytes.
// Violations wrap [ErrPolicy]. Lookup, storage and reuse rules belong to the
// caller.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords.
//   - Import any other authcore package.
//   - Log plaintext passwords or hashes.
package password
