package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSigningKey = []byte("test-secret-key-for-unit-tests-only")

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer(testSigningKey, 30*time.Minute)

	tokenStr, exp, err := issuer.Issue("doctor@example.com")
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}
	if d := time.Until(exp); d < 29*time.Minute || d > 31*time.Minute {
		t.Errorf("expected expiry ~30m from now, got %s", d)
	}

	claims, err := issuer.Verify(tokenStr)
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	if claims.Subject != "doctor@example.com" {
		t.Errorf("expected subject doctor@example.com, got %s", claims.Subject)
	}
}

func TestTokenIssuer_Expired(t *testing.T) {
	issuer := NewTokenIssuer(testSigningKey, 30*time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-time.Hour) }
	tokenStr, _, err := issuer.Issue("doctor@example.com")
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	issuer.now = time.Now
	if _, err := issuer.Verify(tokenStr); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestTokenIssuer_WrongKey(t *testing.T) {
	tokenStr, _, err := NewTokenIssuer([]byte("another-key-another-key"), time.Minute).Issue("a@example.com")
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	if _, err := NewTokenIssuer(testSigningKey, time.Minute).Verify(tokenStr); err == nil {
		t.Fatal("expected token signed with another key to be rejected")
	}
}

func TestTokenIssuer_RejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "a@example.com",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}}
	tokenStr, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(testSigningKey)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := NewTokenIssuer(testSigningKey, time.Minute).Verify(tokenStr); err == nil {
		t.Fatal("expected HS512 token to be rejected")
	}
}

func TestTokenIssuer_RequiresSubjectAndExpiry(t *testing.T) {
	issuer := NewTokenIssuer(testSigningKey, time.Minute)

	noSub, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}}).SignedString(testSigningKey)
	if _, err := issuer.Verify(noSub); err == nil {
		t.Error("expected token without subject to be rejected")
	}

	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject: "a@example.com",
	}}).SignedString(testSigningKey)
	if _, err := issuer.Verify(noExp); err == nil {
		t.Error("expected token without expiry to be rejected")
	}
}

func TestTokenIssuer_Garbage(t *testing.T) {
	_, err := NewTokenIssuer(testSigningKey, time.Minute).Verify("not.a.token")
	if err == nil || !strings.Contains(err.Error(), "parse token") {
		t.Fatalf("expected parse error, got %v", err)
	}
}
