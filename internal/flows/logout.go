package flows

import (
	"context"
	"time"
)

// LogoutResult reports which user logged out and whether an access token
// was blacklisted.
type LogoutResult struct {
	Outcome
	UserID      string
	Blacklisted bool
}

// LogoutDeps captures logout dependencies.
type LogoutDeps struct {
	Tokens TokenCodec
	Store  KeyStore
	Keys   Keys
	Now    func() time.Time
	// FallbackTTL is the blacklist lifetime used when the access token has
	// no readable expiry.
	FallbackTTL time.Duration
}

// RunLogout spends the presented refresh token and, when given, blacklists
// the access token until its natural expiry.
func RunLogout(ctx context.Context, refreshToken, accessToken string, deps LogoutDeps) LogoutResult {
	if o, ok := checkToken("refreshToken", refreshToken, MaxTokenLength); !ok {
		o.Failure = FailureUnauthorized
		o.Reason = ReasonInvalidToken
		return LogoutResult{Outcome: o}
	}
	if len(accessToken) > MaxTokenLength {
		return LogoutResult{Outcome: invalid("accessToken", "is too long")}
	}

	claims, err := deps.Tokens.ParseRefresh(refreshToken)
	if err != nil {
		return LogoutResult{Outcome: fail(FailureUnauthorized, ReasonInvalidToken, err)}
	}

	if err := deps.Store.Delete(ctx, deps.Keys.Refresh(claims.UserID, claims.TokenID)); err != nil {
		return LogoutResult{Outcome: dependency(ReasonStore, err), UserID: claims.UserID}
	}

	if accessToken == "" {
		return LogoutResult{UserID: claims.UserID}
	}

	ttl := BlacklistTTL(accessToken, deps)
	if err := deps.Store.Set(ctx, deps.Keys.Blacklist(accessToken), "1", ttl); err != nil {
		return LogoutResult{Outcome: dependency(ReasonStore, err), UserID: claims.UserID}
	}
	return LogoutResult{UserID: claims.UserID, Blacklisted: true}
}

// BlacklistTTL returns the remaining lifetime of accessToken, at least one
// second. Tokens without a readable expiry fall back to deps.FallbackTTL.
func BlacklistTTL(accessToken string, deps LogoutDeps) time.Duration {
	claims, err := deps.Tokens.DecodeUnverified(accessToken)
	if err != nil || claims.ExpiresAt == nil {
		return max(deps.FallbackTTL, time.Second)
	}

	remaining := claims.ExpiresAt.Time.Sub(deps.Now())
	if remaining < time.Second {
		return time.Second
	}
	return remaining.Truncate(time.Second)
}
