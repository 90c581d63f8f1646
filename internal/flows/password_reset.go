package flows

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/MrEthical07/authcore/directory"
)

// ForgotResult reports whether a ticket was issued. Callers must not expose
// Issued, since it reveals account existence.
type ForgotResult struct {
	Outcome
	UserID    string
	Issued    bool
	NotifyErr error
}

// ResetResult carries the reset account or a classified failure.
type ResetResult struct {
	Outcome
	UserID  string
	Revoked RevokeResult
}

// ResetDeps captures forgot/reset password dependencies.
type ResetDeps struct {
	Directory directory.Directory
	Store     KeyStore
	Keys      Keys
	Hasher    Hasher
	Notifier  Notifier
	NewTicket func() (string, error)
	TicketTTL time.Duration
	Revoke    RevokeDeps
}

// RunForgotPassword issues a reset ticket when email belongs to an account.
// An unknown email is a success with Issued=false.
func RunForgotPassword(ctx context.Context, email string, deps ResetDeps) ForgotResult {
	email = NormalizeEmail(email)
	if o, ok := checkEmail(email); !ok {
		return ForgotResult{Outcome: o}
	}

	user, err := deps.Directory.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return ForgotResult{}
		}
		return ForgotResult{Outcome: dependency(ReasonDirectory, err)}
	}

	ticket, err := deps.NewTicket()
	if err != nil {
		return ForgotResult{Outcome: dependency(ReasonCrypto, err), UserID: user.ID}
	}
	if err := deps.Store.Set(ctx, deps.Keys.Reset(user.ID), ticket, deps.TicketTTL); err != nil {
		return ForgotResult{Outcome: dependency(ReasonStore, err), UserID: user.ID}
	}

	res := ForgotResult{UserID: user.ID, Issued: true}
	if deps.Notifier != nil {
		res.NotifyErr = deps.Notifier.SendPasswordReset(ctx, user.Email, ticket)
	}
	return res
}

// RunResetPassword replaces the password when ticket matches the stored
// reset ticket, revokes every session of the user and only then consumes
// the ticket.
func RunResetPassword(ctx context.Context, email, newPassword, ticket string, deps ResetDeps) ResetResult {
	email = NormalizeEmail(email)
	if o, ok := checkEmail(email); !ok {
		return ResetResult{Outcome: o}
	}
	if o, ok := checkPassword("newPassword", newPassword, MinPasswordLength); !ok {
		return ResetResult{Outcome: o}
	}
	if o, ok := checkToken("resetToken", ticket, MaxTicketLength); !ok {
		return ResetResult{Outcome: o}
	}

	user, err := deps.Directory.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return ResetResult{Outcome: fail(FailureInvalidCredential, ReasonUserNotFound, nil)}
		}
		return ResetResult{Outcome: dependency(ReasonDirectory, err)}
	}

	key := deps.Keys.Reset(user.ID)
	stored, ok, err := deps.Store.Get(ctx, key)
	if err != nil {
		return ResetResult{Outcome: dependency(ReasonStore, err), UserID: user.ID}
	}
	if !ok {
		return ResetResult{Outcome: fail(FailureInvalidCredential, ReasonTicketMissing, nil), UserID: user.ID}
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(ticket)) != 1 {
		return ResetResult{Outcome: fail(FailureInvalidCredential, ReasonTicketMismatch, nil), UserID: user.ID}
	}

	hash, err := deps.Hasher.Hash(newPassword)
	if err != nil {
		return ResetResult{Outcome: dependency(ReasonCrypto, err), UserID: user.ID}
	}
	if _, err := deps.Directory.Update(ctx, user.ID, directory.Patch{PasswordHash: &hash}); err != nil {
		return ResetResult{Outcome: dependency(ReasonDirectory, err), UserID: user.ID}
	}

	// The ticket outlives a failed revocation so the caller can retry the
	// whole reset.
	revoked := RunRevokeAll(ctx, user.ID, deps.Revoke)
	if revoked.Failed() {
		return ResetResult{Outcome: revoked.Outcome, UserID: user.ID, Revoked: revoked}
	}
	if err := deps.Store.Delete(ctx, key); err != nil {
		return ResetResult{Outcome: dependency(ReasonStore, err), UserID: user.ID, Revoked: revoked}
	}
	return ResetResult{UserID: user.ID, Revoked: revoked}
}
