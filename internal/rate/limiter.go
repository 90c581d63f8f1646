package rate

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// Counter is the subset of the ephemeral store the limiter needs.
type Counter interface {
	IncrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Get(ctx context.Context, key string) (string, bool, error)
	Delete(ctx context.Context, key string) error
}

// Config holds attempt limiter tuning parameters.
type Config struct {
	// Namespace is prepended to every counter key.
	Namespace        string
	MaxOTPAttempts   int
	OTPWindow        time.Duration
	MaxLoginAttempts int
	LoginCooldown    time.Duration
}

// Limiter counts failed OTP and login attempts per email.
type Limiter struct {
	store  Counter
	config Config
}

// New creates a [Limiter] over store.
func New(store Counter, cfg Config) *Limiter {
	return &Limiter{
		store:  store,
		config: cfg,
	}
}

// OTPEnabled reports whether OTP attempts are counted.
func (l *Limiter) OTPEnabled() bool {
	return l != nil && l.config.MaxOTPAttempts > 0
}

// LoginEnabled reports whether login attempts are counted.
func (l *Limiter) LoginEnabled() bool {
	return l != nil && l.config.MaxLoginAttempts > 0
}

// CheckLogin returns ErrRateLimited once the email has used its failed
// login budget for the current window.
func (l *Limiter) CheckLogin(ctx context.Context, email string) error {
	if !l.LoginEnabled() {
		return nil
	}

	raw, ok, err := l.store.Get(ctx, l.loginKey(email))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !ok {
		return nil
	}

	count, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		// A corrupted counter is treated as empty; the next failure overwrites it.
		return nil
	}
	if count >= int64(l.config.MaxLoginAttempts) {
		return ErrRateLimited
	}
	return nil
}

// RecordLoginFailure counts one failed login. It returns ErrRateLimited when
// this failure exhausted the budget.
func (l *Limiter) RecordLoginFailure(ctx context.Context, email string) error {
	if !l.LoginEnabled() {
		return nil
	}

	count, err := l.store.IncrementWithTTL(ctx, l.loginKey(email), l.config.LoginCooldown)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if count >= int64(l.config.MaxLoginAttempts) {
		return ErrRateLimited
	}
	return nil
}

// ResetLogin clears the failed-login counter after a successful login.
func (l *Limiter) ResetLogin(ctx context.Context, email string) error {
	if !l.LoginEnabled() {
		return nil
	}
	if err := l.store.Delete(ctx, l.loginKey(email)); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// RecordOTPFailure counts one wrong OTP guess. It returns ErrRateLimited
// when the budget is exhausted and the caller must burn the code.
func (l *Limiter) RecordOTPFailure(ctx context.Context, email string) error {
	if !l.OTPEnabled() {
		return nil
	}

	count, err := l.store.IncrementWithTTL(ctx, l.otpKey(email), l.config.OTPWindow)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if count >= int64(l.config.MaxOTPAttempts) {
		return ErrRateLimited
	}
	return nil
}

// ResetOTP clears the OTP failure counter.
func (l *Limiter) ResetOTP(ctx context.Context, email string) error {
	if !l.OTPEnabled() {
		return nil
	}
	if err := l.store.Delete(ctx, l.otpKey(email)); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (l *Limiter) loginKey(email string) string {
	return l.config.Namespace + "attempts:login:" + email
}

func (l *Limiter) otpKey(email string) string {
	return l.config.Namespace + "attempts:otp:" + email
}
