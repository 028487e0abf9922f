// Package session issues and reads the anonymous visitor cookie.
//
// CodeBin has no accounts. The only "credential" a browser carries is a signed
// visitor token: it lets the server attribute snippets to the browser that
// created them without ever knowing who the person is.
//
// TOKEN FORMAT:
// A JWT (HS256) whose "sub" claim is a random visitor id (xid) and whose issuer
// is "codebin". The signature makes the id unforgeable; the server needs no
// session table to verify it.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"
)

const (
	issuer = "codebin"

	// DefaultLifetime is how long a visitor cookie stays valid.
	DefaultLifetime = 365 * 24 * time.Hour
)

// Tokens signs and verifies visitor tokens with a shared HMAC secret.
type Tokens struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

// NewTokens creates a Tokens with the given secret.
// The secret should be at least 32 bytes of random data in production.
// Example: CODEBIN_SESSION_SECRET=$(openssl rand -hex 32)
func NewTokens(secret string) (*Tokens, error) {
	if len(secret) < 16 {
		return nil, errors.New("session: secret must be at least 16 characters")
	}
	return &Tokens{
		secret:   []byte(secret),
		lifetime: DefaultLifetime,
		now:      time.Now,
	}, nil
}

// Issue mints a token for a brand-new visitor and returns it with the visitor id.
func (t *Tokens) Issue() (token, visitorID string, err error) {
	visitorID = xid.New().String()
	token, err = t.sign(visitorID, t.lifetime)
	if err != nil {
		return "", "", err
	}
	return token, visitorID, nil
}

func (t *Tokens) sign(visitorID string, d time.Duration) (string, error) {
	now := t.now()
	c := jwt.RegisteredClaims{
		Subject:   visitorID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(d)),
		Issuer:    issuer,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("session: signing token: %w", err)
	}
	return signed, nil
}

// Validate checks the signature, issuer, algorithm and expiry of tokenStr
// and returns the visitor id it carries.
//
// jwt.WithValidMethods pins HS256 so a token claiming "alg":"none" is rejected.
func (t *Tokens) Validate(tokenStr string) (string, error) {
	var c jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&c,
		func(token *jwt.Token) (any, error) {
			return t.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("session: token expired")
		}
		return "", fmt.Errorf("session: invalid token: %w", err)
	}
	if !token.Valid || c.Subject == "" {
		return "", fmt.Errorf("session: token has no subject")
	}

	return c.Subject, nil
}
