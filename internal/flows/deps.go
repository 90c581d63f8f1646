package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/authcore/directory"
	"github.com/MrEthical07/authcore/jwt"
)

// KeyStore is the ephemeral store contract the flows rely on.
type KeyStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	DeleteIfExists(ctx context.Context, key string) (bool, error)
	DeleteByPattern(ctx context.Context, pattern string) (int, error)
}

// TokenCodec signs and verifies the access/refresh pair.
type TokenCodec interface {
	SignAccess(userID, role string) (string, error)
	SignRefresh(userID string, tokenVersion int64, tokenID string) (string, error)
	ParseAccess(token string) (*jwt.AccessClaims, error)
	ParseRefresh(token string) (*jwt.RefreshClaims, error)
	DecodeUnverified(token string) (*jwt.AccessClaims, error)
	AccessTTL() time.Duration
	RefreshTTL() time.Duration
}

// Hasher hashes and verifies passwords.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) (bool, error)
}

// AttemptLimiter counts failed OTP and login attempts.
type AttemptLimiter interface {
	CheckLogin(ctx context.Context, email string) error
	RecordLoginFailure(ctx context.Context, email string) error
	ResetLogin(ctx context.Context, email string) error
	RecordOTPFailure(ctx context.Context, email string) error
	ResetOTP(ctx context.Context, email string) error
}

// Notifier delivers OTP codes and reset tickets out of band.
type Notifier interface {
	SendOTP(ctx context.Context, email, code string) error
	SendPasswordReset(ctx context.Context, email, token string) error
}

// Deps groups flow dependency sets. Root engine builds this once and delegates
// request methods to the matching flow implementation.
type Deps struct {
	Register RegisterDeps
	Verify   VerifyDeps
	Login    LoginDeps
	Refresh  RefreshDeps
	Logout   LogoutDeps
	Reset    ResetDeps
	Guard    GuardDeps
}

// IssueDeps captures token pair issuance dependencies shared by login and
// refresh.
type IssueDeps struct {
	Tokens     TokenCodec
	Store      KeyStore
	Keys       Keys
	NewTokenID func() (string, error)
}

// RevokeDeps captures global revocation dependencies.
type RevokeDeps struct {
	Directory directory.Directory
	Store     KeyStore
	Keys      Keys
}
