package flows

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/authcore/directory"
)

// RegisterInput is the raw registration request.
type RegisterInput struct {
	Email    string
	Username string
	Phone    string
	FullName string
	Password string
}

// RegisterResult carries the created account or a classified failure.
// NotifyErr is set when the OTP was stored but could not be delivered.
type RegisterResult struct {
	Outcome
	UserID    string
	Email     string
	NotifyErr error
}

// RegisterDeps captures registration dependencies.
type RegisterDeps struct {
	Directory directory.Directory
	Store     KeyStore
	Keys      Keys
	Hasher    Hasher
	Notifier  Notifier
	NewOTP    func() (string, error)
	OTPTTL    time.Duration
}

// RunRegister creates a pending account and issues its verification OTP.
func RunRegister(ctx context.Context, in RegisterInput, deps RegisterDeps) RegisterResult {
	in.Email = NormalizeEmail(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	in.Phone = strings.TrimSpace(in.Phone)
	in.FullName = strings.TrimSpace(in.FullName)

	if o, ok := checkRegister(in); !ok {
		return RegisterResult{Outcome: o}
	}

	_, err := deps.Directory.FindAny(ctx, directory.Lookup{
		Email:    in.Email,
		Username: in.Username,
		Phone:    in.Phone,
	})
	switch {
	case err == nil:
		return RegisterResult{Outcome: fail(FailureConflict, ReasonUserExists, nil)}
	case !errors.Is(err, directory.ErrNotFound):
		return RegisterResult{Outcome: dependency(ReasonDirectory, err)}
	}

	hash, err := deps.Hasher.Hash(in.Password)
	if err != nil {
		return RegisterResult{Outcome: dependency(ReasonCrypto, err)}
	}

	user, err := deps.Directory.Create(ctx, directory.User{
		Email:         in.Email,
		Username:      in.Username,
		Phone:         in.Phone,
		FullName:      in.FullName,
		PasswordHash:  hash,
		AccountStatus: directory.StatusPending,
		IsVerified:    false,
		Role:          directory.RoleClient,
	})
	if err != nil {
		if errors.Is(err, directory.ErrDuplicate) {
			return RegisterResult{Outcome: fail(FailureConflict, ReasonUserExists, err)}
		}
		return RegisterResult{Outcome: dependency(ReasonDirectory, err)}
	}

	code, err := deps.NewOTP()
	if err != nil {
		return RegisterResult{Outcome: dependency(ReasonCrypto, err), UserID: user.ID, Email: user.Email}
	}
	if err := deps.Store.Set(ctx, deps.Keys.OTP(user.Email), code, deps.OTPTTL); err != nil {
		// The account stays in place; verification can be retried once a
		// new code is issued.
		return RegisterResult{Outcome: dependency(ReasonStore, err), UserID: user.ID, Email: user.Email}
	}

	res := RegisterResult{UserID: user.ID, Email: user.Email}
	if deps.Notifier != nil {
		res.NotifyErr = deps.Notifier.SendOTP(ctx, user.Email, code)
	}
	return res
}
