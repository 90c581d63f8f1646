package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newHSManager(t *testing.T, access, refresh time.Duration) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		AccessTTL:  access,
		RefreshTTL: refresh,
		PrivateKey: testSecret,
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func newEdKeys(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate ed25519 key: %v", err)
	}
	return pub, priv
}

func TestSignAndParseAccess(t *testing.T) {
	m := newHSManager(t, 15*time.Minute, time.Hour)

	token, err := m.SignAccess("u1", "CLIENT")
	if err != nil {
		t.Fatalf("sign access: %v", err)
	}
	claims, err := m.ParseAccess(token)
	if err != nil {
		t.Fatalf("parse access: %v", err)
	}
	if claims.UserID != "u1" || claims.Role != "CLIENT" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		t.Fatal("expected exp and iat to be set")
	}
}

func TestSignAndParseRefresh(t *testing.T) {
	m := newHSManager(t, 15*time.Minute, time.Hour)

	token, err := m.SignRefresh("u1", 4, "tid-1")
	if err != nil {
		t.Fatalf("sign refresh: %v", err)
	}
	claims, err := m.ParseRefresh(token)
	if err != nil {
		t.Fatalf("parse refresh: %v", err)
	}
	if claims.UserID != "u1" || claims.TokenVersion != 4 || claims.TokenID != "tid-1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestTokenTypesAreNotInterchangeable(t *testing.T) {
	m := newHSManager(t, 15*time.Minute, time.Hour)

	access, _ := m.SignAccess("u1", "CLIENT")
	refresh, _ := m.SignRefresh("u1", 0, "tid")

	if _, err := m.ParseRefresh(access); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected access token rejected as refresh, got %v", err)
	}
	if _, err := m.ParseAccess(refresh); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected refresh token rejected as access, got %v", err)
	}
}

func TestZeroTTLTokensAreExpired(t *testing.T) {
	m := newHSManager(t, 0, 0)

	access, err := m.SignAccess("u1", "CLIENT")
	if err != nil {
		t.Fatalf("sign access: %v", err)
	}
	if _, err := m.ParseAccess(access); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected zero-ttl access token to be expired, got %v", err)
	}

	refresh, err := m.SignRefresh("u1", 0, "tid")
	if err != nil {
		t.Fatalf("sign refresh: %v", err)
	}
	if _, err := m.ParseRefresh(refresh); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected zero-ttl refresh token to be expired, got %v", err)
	}
}

func TestParseRejectsTamperedAndForeignTokens(t *testing.T) {
	m := newHSManager(t, time.Minute, time.Hour)
	other, err := NewManager(Config{AccessTTL: time.Minute, PrivateKey: []byte("another-secret-another-secret-00")})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	foreign, _ := other.SignAccess("u1", "ADMIN")
	if _, err := m.ParseAccess(foreign); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected foreign signature rejected, got %v", err)
	}

	good, _ := m.SignAccess("u1", "CLIENT")
	tampered := good[:len(good)-2] + "xx"
	if _, err := m.ParseAccess(tampered); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected tampered token rejected, got %v", err)
	}

	if _, err := m.ParseAccess(""); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected empty token rejected, got %v", err)
	}
}

func TestParseAccessRejectsWrongAlgorithm(t *testing.T) {
	pub, _ := newEdKeys(t)
	m, err := NewManager(Config{AccessTTL: time.Minute, SigningMethod: MethodEd25519, PublicKey: pub})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	claims := AccessClaims{UserID: "u1", Type: typeAccess, RegisteredClaims: gjwt.RegisteredClaims{ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute))}}
	tok := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims)
	token, err := tok.SignedString([]byte("secret-secret-secret-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := m.ParseAccess(token); err == nil {
		t.Fatal("expected wrong algorithm to be rejected")
	}
}

func TestParseRejectsMissingExpiry(t *testing.T) {
	m := newHSManager(t, time.Minute, time.Hour)

	claims := AccessClaims{UserID: "u1", Type: typeAccess}
	token, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := m.ParseAccess(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected token without exp rejected, got %v", err)
	}
}

func TestEd25519IssuerAudience(t *testing.T) {
	pub, priv := newEdKeys(t)
	m, err := NewManager(Config{
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
		SigningMethod: MethodEd25519,
		PrivateKey:    priv,
		PublicKey:     pub,
		Issuer:        "authcore",
		Audience:      "api",
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	access, err := m.SignAccess("u", "ADMIN")
	if err != nil {
		t.Fatalf("sign access: %v", err)
	}
	if _, err := m.ParseAccess(access); err != nil {
		t.Fatalf("expected valid token to parse: %v", err)
	}

	wrongIssuer := AccessClaims{UserID: "u", Type: typeAccess, RegisteredClaims: gjwt.RegisteredClaims{
		Issuer:    "other",
		Audience:  gjwt.ClaimStrings{"api"},
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
	}}
	badIssuer, _ := gjwt.NewWithClaims(gjwt.SigningMethodEdDSA, wrongIssuer).SignedString(priv)
	if _, err := m.ParseAccess(badIssuer); err == nil {
		t.Fatal("expected wrong issuer to fail")
	}

	wrongAudience := AccessClaims{UserID: "u", Type: typeAccess, RegisteredClaims: gjwt.RegisteredClaims{
		Issuer:    "authcore",
		Audience:  gjwt.ClaimStrings{"other-api"},
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
	}}
	badAudience, _ := gjwt.NewWithClaims(gjwt.SigningMethodEdDSA, wrongAudience).SignedString(priv)
	if _, err := m.ParseAccess(badAudience); err == nil {
		t.Fatal("expected wrong audience to fail")
	}
}

func TestDecodeUnverifiedReadsExpiry(t *testing.T) {
	m := newHSManager(t, 10*time.Minute, time.Hour)

	token, _ := m.SignAccess("u1", "CLIENT")
	claims, err := m.DecodeUnverified(token)
	if err != nil {
		t.Fatalf("decode unverified: %v", err)
	}
	if claims.ExpiresAt == nil {
		t.Fatal("expected exp claim")
	}
	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining <= 9*time.Minute || remaining > 10*time.Minute {
		t.Fatalf("unexpected remaining lifetime %v", remaining)
	}

	if _, err := m.DecodeUnverified("garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected malformed token error, got %v", err)
	}
}

func TestNewManagerValidation(t *testing.T) {
	if _, err := NewManager(Config{AccessTTL: time.Minute}); err == nil {
		t.Fatal("expected missing secret to fail")
	}
	if _, err := NewManager(Config{AccessTTL: -time.Second, PrivateKey: testSecret}); err == nil {
		t.Fatal("expected negative ttl to fail")
	}
	if _, err := NewManager(Config{SigningMethod: "rs256", PrivateKey: testSecret}); err == nil {
		t.Fatal("expected unsupported method to fail")
	}
}
