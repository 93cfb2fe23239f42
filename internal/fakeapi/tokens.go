package fakeapi

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-studio-client/internal/errors"
)

// tokenIssuer mints HS256 access tokens and opaque refresh tokens.
// Only the fake server reads token contents; clients treat both as opaque strings.
type tokenIssuer struct {
	secret    []byte
	accessTTL time.Duration
	now       func() time.Time

	lock    sync.RWMutex
	refresh map[string]storedRefreshToken // token -> metadata
}

type storedRefreshToken struct {
	UserID string
	Iat    time.Time
}

type accessClaims struct {
	Role string `json:"role"`
	jwtlib.RegisteredClaims
}

func newTokenIssuer(secret []byte, accessTTL time.Duration, now func() time.Time) *tokenIssuer {
	return &tokenIssuer{
		secret:    secret,
		accessTTL: accessTTL,
		now:       now,
		refresh:   make(map[string]storedRefreshToken),
	}
}

// CreateAccessToken signs a short lived token for the user
func (t *tokenIssuer) CreateAccessToken(userID, role string) (string, error) {
	now := t.now()
	claims := accessClaims{
		Role: role,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(t.accessTTL)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// ParseAccessToken returns the user ID of a valid, unexpired access token
func (t *tokenIssuer) ParseAccessToken(raw string) (string, error) {
	var claims accessClaims
	_, err := jwtlib.ParseWithClaims(raw, &claims, func(tok *jwtlib.Token) (any, error) {
		return t.secret, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithTimeFunc(t.now),
		jwtlib.WithExpirationRequired(),
	)
	if err != nil {
		return "", errors.Wrapf(errors.ErrUnauthorized, "%v", err)
	}
	return claims.Subject, nil
}

// CreateRefreshToken issues a random refresh token, replacing any the user already had
func (t *tokenIssuer) CreateRefreshToken(userID string) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	token := hex.EncodeToString(b)

	t.lock.Lock()
	defer t.lock.Unlock()
	for existing, rt := range t.refresh {
		if rt.UserID == userID {
			delete(t.refresh, existing)
		}
	}
	t.refresh[token] = storedRefreshToken{UserID: userID, Iat: t.now()}
	return token, nil
}

// LookupRefreshToken returns the owner of a refresh token
func (t *tokenIssuer) LookupRefreshToken(token string) (string, error) {
	t.lock.RLock()
	defer t.lock.RUnlock()
	rt, ok := t.refresh[token]
	if !ok {
		return "", errors.Wrapf(errors.ErrUnauthorized, "unknown refresh token")
	}
	return rt.UserID, nil
}

// RevokeUser drops every refresh token belonging to userID
func (t *tokenIssuer) RevokeUser(userID string) {
	t.lock.Lock()
	defer t.lock.Unlock()
	for token, rt := range t.refresh {
		if rt.UserID == userID {
			delete(t.refresh, token)
		}
	}
}
