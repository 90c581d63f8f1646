package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/authcore/directory"
)

// RevokeResult reports the user's new token version and how many refresh
// sessions were removed.
type RevokeResult struct {
	Outcome
	TokenVersion int64
	Deleted      int
}

// RunRevokeAll invalidates every refresh token of userID. The version bump
// is authoritative; the session sweep that follows is cleanup and is not
// atomic with it.
func RunRevokeAll(ctx context.Context, userID string, deps RevokeDeps) RevokeResult {
	version, err := deps.Directory.IncrementTokenVersion(ctx, userID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return RevokeResult{Outcome: fail(FailureInvalidRequest, ReasonUserNotFound, err)}
		}
		return RevokeResult{Outcome: dependency(ReasonDirectory, err)}
	}

	deleted, err := deps.Store.DeleteByPattern(ctx, deps.Keys.RefreshPattern(userID))
	if err != nil {
		return RevokeResult{Outcome: dependency(ReasonStore, err), TokenVersion: version, Deleted: deleted}
	}

	return RevokeResult{TokenVersion: version, Deleted: deleted}
}
