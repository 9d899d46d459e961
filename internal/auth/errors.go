package auth

import "errors"

// Token verification failures. Handlers must collapse these into a single
// user-facing message; the distinction exists for logging only.
var (
	ErrMalformedToken   = errors.New("malformed token")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrTokenExpired     = errors.New("token expired")
	ErrInvalidPurpose   = errors.New("invalid token purpose")
)

// ErrInvalidClaims signals an encode-side claim set that cannot be issued,
// such as a missing subject or an expiry in the past.
var ErrInvalidClaims = errors.New("invalid claims")

// ErrInvalidCredentials covers both unknown identifiers and wrong passwords;
// callers must never distinguish the two outwardly.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrMissingSecret is returned by constructors when a signing secret is
// absent from configuration. Fatal at startup, never per-request.
var ErrMissingSecret = errors.New("missing signing secret")
