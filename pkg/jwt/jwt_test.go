package jwt

import (
	"encoding/base64"
	"errors"
	"testing"
	"time"
)

func testSecret() string {
	return base64.StdEncoding.EncodeToString([]byte("test-secret-key-for-hmac-signing"))
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(testSecret(), 15*time.Minute, 7*24*time.Hour, "chatty")
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func TestNewManagerRejectsBadSecrets(t *testing.T) {
	if _, err := NewManager("not-valid-base64!!!", time.Minute, time.Hour, "chatty"); err == nil {
		t.Error("expected error for non-base64 secret")
	}
	if _, err := NewManager("", time.Minute, time.Hour, "chatty"); err == nil {
		t.Error("expected error for empty secret")
	}
}

func TestGenerateAndValidateAccessToken(t *testing.T) {
	m := newTestManager(t)

	token, err := m.GenerateAccessToken("alice")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.Subject != "alice" {
		t.Errorf("Subject = %q, want %q", claims.Subject, "alice")
	}
	if claims.Type != "access" {
		t.Errorf("Type = %q, want %q", claims.Type, "access")
	}
	if claims.Issuer != "chatty" {
		t.Errorf("Issuer = %q, want %q", claims.Issuer, "chatty")
	}
}

func TestRefreshTokenType(t *testing.T) {
	m := newTestManager(t)

	token, err := m.GenerateRefreshToken("bob")
	if err != nil {
		t.Fatalf("GenerateRefreshToken: %v", err)
	}
	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.Type != "refresh" {
		t.Errorf("Type = %q, want %q", claims.Type, "refresh")
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	m := newTestManager(t)

	for _, token := range []string{"", "garbage", "a.b.c"} {
		if _, err := m.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("ValidateToken(%q) = %v, want ErrInvalidToken", token, err)
		}
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	m, err := NewManager(testSecret(), -time.Minute, time.Hour, "chatty")
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	token, err := m.GenerateAccessToken("alice")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	if _, err := m.ValidateToken(token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("ValidateToken = %v, want ErrExpiredToken", err)
	}
}

func TestValidateTokenRejectsForeignSecret(t *testing.T) {
	m := newTestManager(t)

	other, err := NewManager(base64.StdEncoding.EncodeToString([]byte("a-completely-different-secret")), time.Minute, time.Hour, "chatty")
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	token, err := other.GenerateAccessToken("alice")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	if _, err := m.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ValidateToken = %v, want ErrInvalidToken", err)
	}
}

func TestExtractSubject(t *testing.T) {
	m := newTestManager(t)

	token, err := m.GenerateAccessToken("carol")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	subject, err := m.ExtractSubject(token)
	if err != nil {
		t.Fatalf("ExtractSubject: %v", err)
	}
	if subject != "carol" {
		t.Errorf("subject = %q, want %q", subject, "carol")
	}
}
