package jwt

import (
	"encoding/base64"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Claims represents JWT claims. The subject is the username.
type Claims struct {
	jwt.RegisteredClaims
	Type string `json:"type"` // "access" or "refresh"
}

// Manager handles JWT signing and verification with an HMAC secret.
type Manager struct {
	secret          []byte
	accessDuration  time.Duration
	refreshDuration time.Duration
	issuer          string
}

// NewManager creates a JWT manager from a base64-encoded HS256 secret.
func NewManager(base64Secret string, accessDuration, refreshDuration time.Duration, issuer string) (*Manager, error) {
	secret, err := base64.StdEncoding.DecodeString(base64Secret)
	if err != nil {
		return nil, errors.New("jwt secret must be base64 encoded")
	}
	if len(secret) == 0 {
		return nil, errors.New("jwt secret must not be empty")
	}

	return &Manager{
		secret:          secret,
		accessDuration:  accessDuration,
		refreshDuration: refreshDuration,
		issuer:          issuer,
	}, nil
}

// GenerateAccessToken creates a signed access token for a username.
func (m *Manager) GenerateAccessToken(username string) (string, error) {
	return m.signToken(username, "access", m.accessDuration)
}

// GenerateRefreshToken creates a signed refresh token for a username.
func (m *Manager) GenerateRefreshToken(username string) (string, error) {
	return m.signToken(username, "refresh", m.refreshDuration)
}

func (m *Manager) signToken(username, tokenType string, d time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
		},
		Type: tokenType,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ValidateToken verifies signature and expiry and returns the claims.
func (m *Manager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// ExtractSubject returns the username a valid token was issued for.
func (m *Manager) ExtractSubject(tokenString string) (string, error) {
	claims, err := m.ValidateToken(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}
