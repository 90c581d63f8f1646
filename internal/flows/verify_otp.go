package flows

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/MrEthical07/authcore/directory"
	"github.com/MrEthical07/authcore/internal/rate"
)

// VerifyResult carries the verified user or a classified failure.
type VerifyResult struct {
	Outcome
	UserID string
}

// VerifyDeps captures OTP verification dependencies.
type VerifyDeps struct {
	Directory directory.Directory
	Store     KeyStore
	Keys      Keys
	// Limiter is optional.
	Limiter AttemptLimiter
}

// RunVerifyOTP activates the account behind email when code matches the
// stored challenge. Every mismatch is reported the same way.
func RunVerifyOTP(ctx context.Context, email, code string, deps VerifyDeps) VerifyResult {
	email = NormalizeEmail(email)
	if o, ok := checkEmail(email); !ok {
		return VerifyResult{Outcome: o}
	}
	if o, ok := checkOTP(code); !ok {
		return VerifyResult{Outcome: o}
	}

	user, err := deps.Directory.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return VerifyResult{Outcome: fail(FailureInvalidCredential, ReasonUserNotFound, nil)}
		}
		return VerifyResult{Outcome: dependency(ReasonDirectory, err)}
	}

	key := deps.Keys.OTP(email)
	stored, ok, err := deps.Store.Get(ctx, key)
	if err != nil {
		return VerifyResult{Outcome: dependency(ReasonStore, err), UserID: user.ID}
	}
	if !ok {
		return VerifyResult{Outcome: fail(FailureInvalidCredential, ReasonOTPMissing, nil), UserID: user.ID}
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return VerifyResult{Outcome: otpMismatch(ctx, email, key, deps), UserID: user.ID}
	}

	active := directory.StatusActive
	verified := true
	if _, err := deps.Directory.Update(ctx, user.ID, directory.Patch{
		AccountStatus: &active,
		IsVerified:    &verified,
	}); err != nil {
		return VerifyResult{Outcome: dependency(ReasonDirectory, err), UserID: user.ID}
	}

	if err := deps.Store.Delete(ctx, key); err != nil {
		return VerifyResult{Outcome: dependency(ReasonStore, err), UserID: user.ID}
	}
	if deps.Limiter != nil {
		// The account is already active; a stale counter only expires later.
		_ = deps.Limiter.ResetOTP(ctx, email)
	}

	return VerifyResult{UserID: user.ID}
}

func otpMismatch(ctx context.Context, email, key string, deps VerifyDeps) Outcome {
	if deps.Limiter == nil {
		return fail(FailureInvalidCredential, ReasonOTPMismatch, nil)
	}

	err := deps.Limiter.RecordOTPFailure(ctx, email)
	switch {
	case err == nil:
		return fail(FailureInvalidCredential, ReasonOTPMismatch, nil)
	case errors.Is(err, rate.ErrRateLimited):
		if delErr := deps.Store.Delete(ctx, key); delErr != nil {
			return dependency(ReasonStore, delErr)
		}
		_ = deps.Limiter.ResetOTP(ctx, email)
		return fail(FailureInvalidCredential, ReasonOTPExhausted, err)
	default:
		return dependency(ReasonStore, err)
	}
}
