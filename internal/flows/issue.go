package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/authcore/directory"
)

// TokenPair is a freshly issued access/refresh pair.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenID      string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
}

// RunIssuePair signs a new pair for user and records its refresh session.
// The session marker is written after signing so a signing failure leaves
// no orphan key.
func RunIssuePair(ctx context.Context, user directory.User, deps IssueDeps) (TokenPair, Outcome) {
	tokenID, err := deps.NewTokenID()
	if err != nil {
		return TokenPair{}, dependency(ReasonCrypto, err)
	}

	access, err := deps.Tokens.SignAccess(user.ID, string(user.Role))
	if err != nil {
		return TokenPair{}, dependency(ReasonCrypto, err)
	}
	refresh, err := deps.Tokens.SignRefresh(user.ID, user.TokenVersion, tokenID)
	if err != nil {
		return TokenPair{}, dependency(ReasonCrypto, err)
	}

	refreshTTL := deps.Tokens.RefreshTTL()
	if err := deps.Store.Set(ctx, deps.Keys.Refresh(user.ID, tokenID), "1", refreshTTL); err != nil {
		return TokenPair{}, dependency(ReasonStore, err)
	}

	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenID:      tokenID,
		AccessTTL:    deps.Tokens.AccessTTL(),
		RefreshTTL:   refreshTTL,
	}, Outcome{}
}
