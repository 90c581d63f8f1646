package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/authcore/jwt"
)

// GuardResult returns either verified access claims or a classified failure.
type GuardResult struct {
	Outcome
	Claims *jwt.AccessClaims
}

// GuardDeps captures access guard dependencies.
type GuardDeps struct {
	Tokens TokenCodec
	Store  KeyStore
	Keys   Keys
}

// RunValidate verifies an access token and checks the blacklist with one
// EXISTS lookup. It never writes.
func RunValidate(ctx context.Context, accessToken string, deps GuardDeps) GuardResult {
	if accessToken == "" || len(accessToken) > MaxTokenLength {
		return GuardResult{Outcome: fail(FailureUnauthorized, ReasonInvalidToken, nil)}
	}

	claims, err := deps.Tokens.ParseAccess(accessToken)
	if err != nil {
		return GuardResult{Outcome: fail(FailureUnauthorized, ReasonInvalidToken, err)}
	}

	listed, err := deps.Store.Exists(ctx, deps.Keys.Blacklist(accessToken))
	if err != nil {
		return GuardResult{Outcome: dependency(ReasonStore, err)}
	}
	if listed {
		return GuardResult{Outcome: fail(FailureUnauthorized, ReasonRevoked, nil)}
	}

	return GuardResult{Claims: claims}
}

// ExpiresAt returns the expiry embedded in claims, or the zero time.
func ExpiresAt(claims *jwt.AccessClaims) time.Time {
	if claims == nil || claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
