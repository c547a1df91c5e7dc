package authinfra

import (
	"testing"
	"time"

	authDomain "fx-alert-bot/internal/domain/auth"
)

func TestJWTIssuer_RoundTrip(t *testing.T) {
	issuer := NewJWTIssuer("test-secret", time.Hour)
	user := authDomain.User{ID: "u-1", Role: authDomain.RoleAdmin}

	token, err := issuer.Issue(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := issuer.ParseAccessToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "u-1" || claims.Role != "admin" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestJWTIssuer_WrongSecret(t *testing.T) {
	token, err := NewJWTIssuer("secret-a", time.Hour).Issue(authDomain.User{ID: "u-1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := NewJWTIssuer("secret-b", time.Hour).ParseAccessToken(token); err == nil {
		t.Error("token signed with another secret must be rejected")
	}
}

func TestJWTIssuer_Expired(t *testing.T) {
	issuer := NewJWTIssuer("test-secret", time.Hour)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := issuer.Issue(authDomain.User{ID: "u-1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := issuer.ParseAccessToken(token); err == nil {
		t.Error("expired token must be rejected")
	}
}

func TestBcryptHasher(t *testing.T) {
	hasher := BcryptHasher{}
	hash, err := hasher.Hash("secret123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !hasher.Compare(hash, "secret123") {
		t.Error("matching password must compare true")
	}
	if hasher.Compare(hash, "wrong") {
		t.Error("wrong password must compare false")
	}
	if hasher.Compare("", "secret123") || hasher.Compare(hash, "") {
		t.Error("empty input must compare false")
	}
	if _, err := HashPassword(""); err == nil {
		t.Error("empty password must not be hashable")
	}
}
