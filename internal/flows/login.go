package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/authcore/directory"
	"github.com/MrEthical07/authcore/internal/rate"
)

// LoginResult carries the issued pair or a classified failure.
type LoginResult struct {
	Outcome
	UserID string
	Pair   TokenPair
}

// LoginDeps captures password login dependencies.
type LoginDeps struct {
	Directory directory.Directory
	Hasher    Hasher
	// VerifyDummy burns the same time as a real verification when the
	// account does not exist.
	VerifyDummy func(password string)
	// Limiter is optional.
	Limiter AttemptLimiter
	Issue   IssueDeps
	Now     func() time.Time
}

// RunLogin authenticates email/password and issues a new token pair.
// Missing account, unverified account and wrong password all fail with the
// same kind; only Reason tells them apart.
func RunLogin(ctx context.Context, email, password string, deps LoginDeps) LoginResult {
	email = NormalizeEmail(email)
	if o, ok := checkEmail(email); !ok {
		return LoginResult{Outcome: o}
	}
	if o, ok := checkPassword("password", password, 0); !ok {
		return LoginResult{Outcome: o}
	}

	if deps.Limiter != nil {
		if err := deps.Limiter.CheckLogin(ctx, email); err != nil {
			if errors.Is(err, rate.ErrRateLimited) {
				return LoginResult{Outcome: fail(FailureUnauthorized, ReasonLockedOut, err)}
			}
			return LoginResult{Outcome: dependency(ReasonStore, err)}
		}
	}

	user, err := deps.Directory.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, directory.ErrNotFound) {
			return LoginResult{Outcome: dependency(ReasonDirectory, err)}
		}
		if deps.VerifyDummy != nil {
			deps.VerifyDummy(password)
		}
		return LoginResult{Outcome: loginFailure(ctx, email, ReasonUserNotFound, deps)}
	}

	ok, err := deps.Hasher.Verify(password, user.PasswordHash)
	if err != nil || !ok {
		return LoginResult{Outcome: loginFailure(ctx, email, ReasonPasswordMismatch, deps), UserID: user.ID}
	}
	if !user.IsVerified {
		return LoginResult{Outcome: fail(FailureUnauthorized, ReasonUnverified, nil), UserID: user.ID}
	}
	if user.AccountStatus == directory.StatusDisabled {
		return LoginResult{Outcome: fail(FailureUnauthorized, ReasonAccountDisabled, nil), UserID: user.ID}
	}

	pair, o := RunIssuePair(ctx, user, deps.Issue)
	if o.Failed() {
		return LoginResult{Outcome: o, UserID: user.ID}
	}

	now := deps.Now()
	if _, err := deps.Directory.Update(ctx, user.ID, directory.Patch{LastLogin: &now}); err != nil {
		// The pair is never handed out, so its session marker must not
		// survive.
		if derr := deps.Issue.Store.Delete(ctx, deps.Issue.Keys.Refresh(user.ID, pair.TokenID)); derr != nil {
			err = errors.Join(err, derr)
		}
		return LoginResult{Outcome: dependency(ReasonDirectory, err), UserID: user.ID}
	}
	if deps.Limiter != nil {
		_ = deps.Limiter.ResetLogin(ctx, email)
	}

	return LoginResult{UserID: user.ID, Pair: pair}
}

func loginFailure(ctx context.Context, email, reason string, deps LoginDeps) Outcome {
	if deps.Limiter != nil {
		if err := deps.Limiter.RecordLoginFailure(ctx, email); err != nil && !errors.Is(err, rate.ErrRateLimited) {
			return dependency(ReasonStore, err)
		}
	}
	return fail(FailureUnauthorized, reason, nil)
}
