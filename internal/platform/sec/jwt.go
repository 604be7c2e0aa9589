// Copyright (c) 2026 Corvid Labs. All rights reserved.
// Author: platform@corvidlabs.io

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing) from
// the domain logic. It acts as an Infrastructure service injected into the
// Application layer via small interfaces (e.g. [middleware.TokenVerifier]).
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims represents the payload embedded inside a JWT access token.
//
// # Why custom claims?
//
// By embedding the UserID, Role, Scopes, and TokenVersion directly inside
// the JWT, middleware can reconstruct the active user context and evaluate
// permissions without rebuilding them from the database on every request.
// Only the token-version freshness check touches persistent storage.
type AuthClaims struct {
	jwt.RegisteredClaims

	// Custom application claims are abbreviated to keep the JWT payload small.
	UserID       string   `json:"uid"`
	Role         Role     `json:"rol"`
	Scopes       []string `json:"scp"`
	TokenVersion int      `json:"tv"`
}

// minSecretBytes is the floor for the HS256 signing secret. Anything shorter
// is brute-forceable offline once a single token leaks.
const minSecretBytes = 32

// Internal verification failures. They are logged for audit and then
// collapsed into one generic denial by the HTTP layer.
var (
	ErrTokenInvalid = errors.New("sec: token signature or format invalid")
	ErrTokenExpired = errors.New("sec: token expired")
	ErrTokenKeyID   = errors.New("sec: token signed with unknown key id")
)

// TokenService issues and verifies signed session tokens using HS256.
//
// # Key Lifecycle
//
// The secret and its key id are process-wide state, loaded once at startup
// and never mutated. Every issued token carries a `kid` header so that a
// future key rotation (a new process generation with a second accepted key)
// does not break tokens issued mid-rotation.
type TokenService struct {
	secret []byte
	keyID  string
	issuer string
	ttl    time.Duration
}

// NewTokenService constructs a TokenService.
//
// The secret must be at least 32 bytes; a short secret is a configuration
// error, not something to limp along with.
func NewTokenService(secret, keyID, issuer string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < minSecretBytes {
		return nil, fmt.Errorf("sec: signing secret must be at least %d bytes", minSecretBytes)
	}
	if keyID == "" {
		return nil, fmt.Errorf("sec: signing key id must not be empty")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("sec: token TTL must be positive")
	}

	return &TokenService{
		secret: []byte(secret),
		keyID:  keyID,
		issuer: issuer,
		ttl:    ttl,
	}, nil
}

// TTL returns the configured token lifetime.
func (service *TokenService) TTL() time.Duration {
	return service.ttl
}

// Issue creates a signed access token for the given identity.
//
// Scopes are computed from the role at issuance (the Permission Grant) and
// the identity's current token version is embedded, enabling O(1) global
// revocation by bumping that counter.
func (service *TokenService) Issue(userID string, role Role, tokenVersion int) (string, *AuthClaims, error) {
	now := time.Now()
	claims := &AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(service.ttl)),
		},
		UserID:       userID,
		Role:         role,
		Scopes:       role.Scopes(),
		TokenVersion: tokenVersion,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = service.keyID

	signedToken, err := token.SignedString(service.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signedToken, claims, nil
}

// Verify checks the signature and validity window of a raw token string.
//
// # Order of Checks
//
// The signature is verified before any claim is trusted — a tampered token
// never reaches claim parsing logic (parser-confusion guard). The method is
// pinned to HS256 so an attacker cannot downgrade to `none` or swap in an
// asymmetric key. Expiry is enforced by the registered-claims validator.
//
// Token-version freshness and the disabled flag are checked by the caller
// against the identity store; they are not self-contained in the token.
func (service *TokenService) Verify(raw string) (*AuthClaims, error) {
	claims := &AuthClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		if kid, ok := token.Header["kid"].(string); ok && kid != service.keyID {
			return nil, ErrTokenKeyID
		}
		return service.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
