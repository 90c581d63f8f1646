package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/MrEthical07/authcore"
)

// Authenticator verifies an access token. *authcore.Engine implements it.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (authcore.Claims, error)
}

// HandlerFunc is an http.HandlerFunc that also receives the caller's
// verified claims.
type HandlerFunc func(w http.ResponseWriter, r *http.Request, claims authcore.Claims)

// ErrorHandler writes the response for a rejected request. err is
// ErrMissingToken or the error returned by Authenticate.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// ErrMissingToken is passed to the ErrorHandler when the Authorization
// header carries no bearer token.
var ErrMissingToken = errors.New("missing bearer token")

// ErrForbidden is passed to the ErrorHandler by RequireRole.
var ErrForbidden = errors.New("insufficient role")

type options struct {
	onError ErrorHandler
}

// Option configures Protect.
type Option func(*options)

// WithErrorHandler replaces the plain-text default error response.
func WithErrorHandler(h ErrorHandler) Option {
	return func(o *options) {
		if h != nil {
			o.onError = h
		}
	}
}

// Protect returns a handler that authenticates the bearer token and calls
// next with the resulting claims. Requests without a valid token never
// reach next.
func Protect(auth Authenticator, next HandlerFunc, opts ...Option) http.Handler {
	o := options{onError: defaultError}
	for _, opt := range opts {
		opt(&o)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth == nil {
			o.onError(w, r, authcore.ErrEngineNotReady)
			return
		}

		token, ok := BearerToken(r.Header.Get("Authorization"))
		if !ok {
			o.onError(w, r, ErrMissingToken)
			return
		}

		claims, err := auth.Authenticate(r.Context(), token)
		if err != nil {
			o.onError(w, r, err)
			return
		}

		next(w, r, claims)
	})
}

// RequireRole wraps next so that only callers with role reach it. Others
// are passed to onError with ErrForbidden.
func RequireRole(role string, next HandlerFunc, onError ErrorHandler) HandlerFunc {
	if onError == nil {
		onError = defaultError
	}
	return func(w http.ResponseWriter, r *http.Request, claims authcore.Claims) {
		if claims.Role != role {
			onError(w, r, ErrForbidden)
			return
		}
		next(w, r, claims)
	}
}

// StatusFor maps a guard error to an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, authcore.ErrDependencyUnavailable), errors.Is(err, authcore.ErrEngineNotReady):
		return http.StatusServiceUnavailable
	default:
		return http.StatusUnauthorized
	}
}

func defaultError(w http.ResponseWriter, _ *http.Request, err error) {
	status := StatusFor(err)
	http.Error(w, strings.ToLower(http.StatusText(status)), status)
}

// BearerToken extracts the token from an Authorization header value. The
// scheme is matched case-insensitively and surrounding spaces are trimmed.
func BearerToken(value string) (string, bool) {
	const bearer = "bearer "
	if len(value) < len(bearer) || !strings.EqualFold(value[:len(bearer)], bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}
