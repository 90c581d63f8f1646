package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MrEthical07/authcore"
)

type stubAuth struct {
	claims authcore.Claims
	err    error
	got    string
}

func (s *stubAuth) Authenticate(_ context.Context, token string) (authcore.Claims, error) {
	s.got = token
	return s.claims, s.err
}

func TestProtectPassesClaims(t *testing.T) {
	auth := &stubAuth{claims: authcore.Claims{UserID: "u1", Role: "CLIENT"}}

	var seen authcore.Claims
	h := Protect(auth, func(w http.ResponseWriter, r *http.Request, claims authcore.Claims) {
		seen = claims
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer tok-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if auth.got != "tok-123" || seen.UserID != "u1" {
		t.Fatalf("unexpected token/claims %q %+v", auth.got, seen)
	}
}

func TestProtectRejects(t *testing.T) {
	tests := []struct {
		name   string
		header string
		err    error
		status int
	}{
		{"missing header", "", nil, http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", nil, http.StatusUnauthorized},
		{"empty bearer", "Bearer   ", nil, http.StatusUnauthorized},
		{"invalid token", "Bearer bad", authcore.ErrUnauthorized, http.StatusUnauthorized},
		{"store down", "Bearer tok", authcore.ErrDependencyUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			h := Protect(&stubAuth{err: tt.err}, func(http.ResponseWriter, *http.Request, authcore.Claims) {
				called = true
			})

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if called {
				t.Fatal("handler must not run on rejection")
			}
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
		})
	}
}

func TestProtectCustomErrorHandler(t *testing.T) {
	var got error
	h := Protect(&stubAuth{}, func(http.ResponseWriter, *http.Request, authcore.Claims) {},
		WithErrorHandler(func(w http.ResponseWriter, _ *http.Request, err error) {
			got = err
			w.WriteHeader(http.StatusTeapot)
		}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))

	if !errors.Is(got, ErrMissingToken) || rec.Code != http.StatusTeapot {
		t.Fatalf("unexpected %v / %d", got, rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	auth := &stubAuth{claims: authcore.Claims{UserID: "u1", Role: "CLIENT"}}
	h := Protect(auth, RequireRole("ADMIN", func(w http.ResponseWriter, _ *http.Request, _ authcore.Claims) {
		w.WriteHeader(http.StatusOK)
	}, nil))

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "bearer tok")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"BEARER   abc  ", "abc", true},
		{"Bearer ", "", false},
		{"Basic abc", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := BearerToken(tt.header)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("BearerToken(%q) = %q, %v; want %q, %v", tt.header, got, ok, tt.want, tt.ok)
		}
	}
}
