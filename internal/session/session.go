// Package session describes the authenticated principal of a run and reads
// the claims carried in its bearer token.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nhle/taskboard/internal/model"
)

// Session is a bearer token together with the user it belongs to.
type Session struct {
	Token string
	User  model.User
}

// Valid reports whether the session carries a token and a user id.
func (s Session) Valid() bool {
	return s.Token != "" && s.User.ID != ""
}

// Claims are the fields the backend puts in its tokens.
type Claims struct {
	Username   string     `json:"username"`
	Department string     `json:"department"`
	Role       model.Role `json:"role"`
	jwt.RegisteredClaims
}

// User returns the principal described by the claims.
func (c Claims) User() model.User {
	return model.User{
		ID:          c.Subject,
		Username:    c.Username,
		DisplayName: c.Username,
		Department:  c.Department,
		Role:        c.Role,
	}
}

// Expired reports whether the token's exp claim is at or before now. A
// token without exp never expires.
func (c Claims) Expired(now time.Time) bool {
	if c.ExpiresAt == nil {
		return false
	}
	return !now.Before(c.ExpiresAt.Time)
}

// ErrExpired is returned by FromToken when the token is past its exp.
var ErrExpired = errors.New("session token expired")

// ParseClaims decodes the token's claims without checking its signature.
// The backend verifies every request; the client only needs the user id
// and expiry.
func ParseClaims(token string) (Claims, error) {
	var claims Claims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return Claims{}, fmt.Errorf("parsing session token: %w", err)
	}
	if claims.Subject == "" {
		return Claims{}, errors.New("parsing session token: missing sub claim")
	}
	return claims, nil
}

// FromToken builds a session from a stored token, rejecting expired ones.
func FromToken(token string, now time.Time) (Session, error) {
	claims, err := ParseClaims(token)
	if err != nil {
		return Session{}, err
	}
	if claims.Expired(now) {
		return Session{}, ErrExpired
	}
	return Session{Token: token, User: claims.User()}, nil
}

// Sign issues an HS256 token for u that expires at exp. The reference
// backend uses it; tests use it to fabricate sessions.
func Sign(u model.User, secret []byte, issuedAt, exp time.Time) (string, error) {
	claims := Claims{
		Username:   u.Username,
		Department: u.Department,
		Role:       u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}
	return token, nil
}

// Verify checks the token's signature and expiry against secret and
// returns its claims.
func Verify(token string, secret []byte) (Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("verifying session token: %w", err)
	}
	if !parsed.Valid {
		return Claims{}, errors.New("verifying session token: invalid token")
	}
	return claims, nil
}
