package rate

import "errors"

var (
	// ErrRateLimited reports that an attempt budget is exhausted.
	ErrRateLimited = errors.New("rate limited")
	// ErrStoreUnavailable wraps counter store failures.
	ErrStoreUnavailable = errors.New("attempt store unavailable")
)
