package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/authcore/directory"
)

// RefreshResult carries either the issued token pair or failure metadata.
// Revoked is set when the failure triggered global revocation.
type RefreshResult struct {
	Outcome
	UserID  string
	TokenID string
	Pair    TokenPair
	Revoked *RevokeResult
}

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	Tokens    TokenCodec
	Directory directory.Directory
	Store     KeyStore
	Keys      Keys
	Issue     IssueDeps
	Revoke    RevokeDeps
}

// RunRefresh spends refreshToken and issues a replacement pair.
//
// A token minted before the user's last revocation, or one whose session
// marker is already gone, revokes every session of the user. Consumption is
// a single conditional delete, so two concurrent calls with the same token
// cannot both succeed.
func RunRefresh(ctx context.Context, refreshToken string, deps RefreshDeps) RefreshResult {
	if o, ok := checkToken("refreshToken", refreshToken, MaxTokenLength); !ok {
		o.Failure = FailureUnauthorized
		o.Reason = ReasonInvalidToken
		return RefreshResult{Outcome: o}
	}

	claims, err := deps.Tokens.ParseRefresh(refreshToken)
	if err != nil {
		return RefreshResult{Outcome: fail(FailureUnauthorized, ReasonInvalidToken, err)}
	}

	user, err := deps.Directory.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return RefreshResult{
				Outcome: fail(FailureUnauthorized, ReasonUserNotFound, nil),
				UserID:  claims.UserID,
				TokenID: claims.TokenID,
			}
		}
		return RefreshResult{Outcome: dependency(ReasonDirectory, err), UserID: claims.UserID, TokenID: claims.TokenID}
	}

	if user.TokenVersion != claims.TokenVersion {
		return revokeOnRefresh(ctx, user.ID, claims.TokenID, ReasonRevoked, deps)
	}

	spent, err := deps.Store.DeleteIfExists(ctx, deps.Keys.Refresh(user.ID, claims.TokenID))
	if err != nil {
		return RefreshResult{Outcome: dependency(ReasonStore, err), UserID: user.ID, TokenID: claims.TokenID}
	}
	if !spent {
		return revokeOnRefresh(ctx, user.ID, claims.TokenID, ReasonReused, deps)
	}

	if user.AccountStatus == directory.StatusDisabled {
		return RefreshResult{
			Outcome: fail(FailureUnauthorized, ReasonAccountDisabled, nil),
			UserID:  user.ID,
			TokenID: claims.TokenID,
		}
	}

	pair, o := RunIssuePair(ctx, user, deps.Issue)
	if o.Failed() {
		return RefreshResult{Outcome: o, UserID: user.ID, TokenID: claims.TokenID}
	}

	return RefreshResult{UserID: user.ID, TokenID: claims.TokenID, Pair: pair}
}

func revokeOnRefresh(ctx context.Context, userID, tokenID, reason string, deps RefreshDeps) RefreshResult {
	revoked := RunRevokeAll(ctx, userID, deps.Revoke)
	res := RefreshResult{
		Outcome: fail(FailureUnauthorized, reason, nil),
		UserID:  userID,
		TokenID: tokenID,
		Revoked: &revoked,
	}
	if revoked.Failed() {
		// Surface the dependency failure so the caller knows the sweep did
		// not complete, but keep the refresh reason for telemetry.
		res.Outcome = fail(FailureDependency, reason, revoked.Err)
	}
	return res
}
