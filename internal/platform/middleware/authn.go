// Copyright (c) 2026 Corvid Labs. All rights reserved.
// Author: platform@corvidlabs.io

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/corvidlabs/corvid/internal/platform/apperr"
	"github.com/corvidlabs/corvid/internal/platform/authz"
	"github.com/corvidlabs/corvid/internal/platform/constants"
	"github.com/corvidlabs/corvid/internal/platform/ctxutil"
	"github.com/corvidlabs/corvid/internal/platform/respond"
	"github.com/corvidlabs/corvid/internal/platform/sec"
)

// TokenVerifier checks the cryptographic validity of a raw bearer token.
//
// # Why an interface?
//
// Defining TokenVerifier here decouples the middleware from [sec.TokenService],
// allowing us to easily inject mocks during unit testing.
type TokenVerifier interface {
	Verify(raw string) (*sec.AuthClaims, error)
}

// SessionChecker validates verified claims against durable identity state:
// the subject must still exist, must not be disabled, and the token's
// embedded version must match the stored token_version counter.
//
// This is the only database touch on the verification path. It is what makes
// revoke-all O(1): bumping the counter instantly invalidates every
// previously issued token without a blocklist.
type SessionChecker interface {
	CheckSession(ctx context.Context, claims *sec.AuthClaims) error
}

// Authenticate extracts and verifies the bearer token from the Authorization header.
//
// # Flow
//  1. Check for 'Authorization: Bearer <token>' header.
//  2. If absent, request proceeds as anonymous.
//  3. If present, verify the signature/expiry via [TokenVerifier].
//  4. Confirm freshness (token_version, disabled) via [SessionChecker].
//  5. Inject [*sec.AuthClaims] into the request context for downstream use.
//
// # No Oracle
//
// Every failure past step 2 produces the identical generic 401. The precise
// cause (tampered, expired, stale version, disabled account) is written to
// the audit log only.
func Authenticate(verifier TokenVerifier, checker SessionChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authHeader := request.Header.Get("Authorization")

			// ── 1. Anonymous Access ───────────────────────────────────────────
			if authHeader == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Format Validation ──────────────────────────────────────────
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != constants.BearerScheme {
				respond.Error(writer, request, apperr.AuthDenied(nil))
				return
			}

			// ── 3. Cryptographic Verification ─────────────────────────────────
			claims, err := verifier.Verify(parts[1])
			if err != nil {
				auditDenied(request, "token_rejected", err)
				respond.Error(writer, request, apperr.AuthDenied(err))
				return
			}

			// ── 4. Freshness Check (token_version, disabled) ──────────────────
			if err := checker.CheckSession(request.Context(), claims); err != nil {
				auditDenied(request, "session_rejected", err)
				respond.Error(writer, request, apperr.AuthDenied(err))
				return
			}

			// ── 5. Context Injection ──────────────────────────────────────────
			ctx := ctxutil.WithAuthUser(request.Context(), claims)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		claims := ctxutil.GetAuthUser(request.Context())
		if claims == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireAdmin blocks requests whose verified role does not hold the
// admin-actions class. It implies [RequireAuth].
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		claims := ctxutil.GetAuthUser(request.Context())
		if claims == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		if err := authz.Authorize(claims.Role, authz.ActionAdmin, false); err != nil {
			respond.Error(writer, request, err)
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// auditDenied records the internal cause of an authentication denial.
// This is the only place the distinct causes are observable.
func auditDenied(request *http.Request, event string, cause error) {
	logger := ctxutil.GetLogger(request.Context())
	logger.WarnContext(request.Context(), event,
		slog.String("ip", RealIP(request)),
		slog.Any("cause", cause),
	)
}
