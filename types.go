package authcore

import (
	"context"
	"time"
)

// EphemeralStore is the key-value contract for sessions, challenges and the
// blacklist. A missing key is (value "", found false, err nil). A non-positive
// ttl stores a key without expiry. DeleteIfExists must report removal
// atomically; it is the single point that makes refresh tokens single use.
//
//	Implementations: ephemeral.RedisStore
type EphemeralStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	ScanKeys(ctx context.Context, pattern string) ([]string, error)
	DeleteIfExists(ctx context.Context, key string) (bool, error)
	DeleteByPattern(ctx context.Context, pattern string) (int, error)
}

// CounterStore is optionally implemented by an EphemeralStore to back the
// OTP and login attempt limits.
type CounterStore interface {
	IncrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// Pinger is optionally implemented by an EphemeralStore for Engine.Health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PasswordHasher hashes new passwords and verifies presented ones.
//
//	Implementations: password.Hasher
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) (bool, error)
}

// Notifier delivers OTP codes and reset tickets. Delivery failures are
// logged and audited, never returned to the caller of the operation.
//
//	Implementations: notify.LogNotifier, notify.KafkaNotifier
type Notifier interface {
	SendOTP(ctx context.Context, email, code string) error
	SendPasswordReset(ctx context.Context, email, token string) error
}

// RegisterRequest is the input of Engine.Register. Phone and FullName are
// optional.
type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Phone    string `json:"phone,omitempty"`
	FullName string `json:"fullName,omitempty"`
	Password string `json:"password"`
}

type RegisterResult struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type VerifyOTPResult struct {
	Verified bool `json:"verified"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenPair is returned by Login and Refresh. Expiry fields are in seconds.
type TokenPair struct {
	AccessToken      string `json:"accessToken"`
	RefreshToken     string `json:"refreshToken"`
	TokenType        string `json:"tokenType"`
	AccessExpiresIn  int64  `json:"accessExpiresIn"`
	RefreshExpiresIn int64  `json:"refreshExpiresIn"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// LogoutRequest spends RefreshToken and, when set, blacklists AccessToken.
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
	AccessToken  string `json:"accessToken,omitempty"`
}

type LogoutResult struct {
	LoggedOut bool `json:"loggedOut"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPasswordResult has the same shape whether or not the email exists.
type ForgotPasswordResult struct {
	Sent bool `json:"sent"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email"`
	NewPassword string `json:"newPassword"`
	ResetToken  string `json:"resetToken"`
}

type ResetPasswordResult struct {
	Reset bool `json:"reset"`
}

// RevokeResult is returned by Engine.RevokeAllSessions.
type RevokeResult struct {
	TokenVersion    int64 `json:"tokenVersion"`
	SessionsDeleted int   `json:"sessionsDeleted"`
}

// Claims is the verified identity returned by Engine.Authenticate. It is
// passed explicitly to protected handlers.
type Claims struct {
	UserID    string    `json:"userId"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// HealthStatus is returned by Engine.Health.
type HealthStatus struct {
	Available bool          `json:"available"`
	Latency   time.Duration `json:"latency"`
}
