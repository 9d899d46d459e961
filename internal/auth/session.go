package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/storefront-auth/internal/domain"
)

// Cookie names per realm. Distinct names keep a customer browser from ever
// presenting its token to an admin endpoint and vice versa.
const (
	CustomerCookieName = "session"
	AdminCookieName    = "admin_session"
)

// SessionManager issues and resolves realm-scoped session tokens. Each realm
// signs with its own secret, so a token can never cross realms.
type SessionManager struct {
	codec   *Codec
	secrets map[domain.Realm][]byte
	ttl     time.Duration
	secure  bool
}

// NewSessionManager builds the manager. Both realm secrets are mandatory;
// an empty one is a startup failure, never a silently weakened default.
func NewSessionManager(customerSecret, adminSecret string, ttl time.Duration, secureCookies bool) (*SessionManager, error) {
	if customerSecret == "" || adminSecret == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &SessionManager{
		codec: NewCodec(),
		secrets: map[domain.Realm][]byte{
			domain.RealmCustomer: []byte(customerSecret),
			domain.RealmAdmin:    []byte(adminSecret),
		},
		ttl:    ttl,
		secure: secureCookies,
	}, nil
}

// Issue signs a session token for the subject in the given realm.
func (m *SessionManager) Issue(subjectID string, realm domain.Realm) (string, time.Time, error) {
	secret, ok := m.secrets[realm]
	if !ok {
		return "", time.Time{}, ErrMissingSecret
	}
	expiresAt := m.codec.now().Add(m.ttl)
	claims := &Claims{Realm: string(realm)}
	claims.Subject = subjectID
	token, err := m.codec.Encode(claims, expiresAt, secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Resolve maps a presented token back to a subject id. Any failure, from an
// empty value to a bad signature, expiry or wrong realm, is an anonymous
// visitor rather than an error; this path never fails outward.
func (m *SessionManager) Resolve(token string, realm domain.Realm) (string, bool) {
	if token == "" {
		return "", false
	}
	secret, ok := m.secrets[realm]
	if !ok {
		return "", false
	}
	claims, err := m.codec.Decode(token, secret)
	if err != nil {
		return "", false
	}
	if claims.Purpose != "" {
		// purpose-scoped tokens never authorize a session
		return "", false
	}
	if claims.Realm != "" && claims.Realm != string(realm) {
		return "", false
	}
	return claims.Subject, true
}

// CookieName returns the realm's session cookie name.
func (m *SessionManager) CookieName(realm domain.Realm) string {
	if realm == domain.RealmAdmin {
		return AdminCookieName
	}
	return CustomerCookieName
}

// SessionCookie builds the cookie carrying the session token. The cookie
// expiry mirrors the token expiry.
func (m *SessionManager) SessionCookie(realm domain.Realm, token string, expiresAt time.Time) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     m.CookieName(realm),
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HTTPOnly: true,
		Secure:   m.secure,
		SameSite: fiber.CookieSameSiteStrictMode,
	}
}

// ClearCookie builds an expired cookie instructing the client to drop the
// session. Idempotent; safe when no cookie is present.
func (m *SessionManager) ClearCookie(realm domain.Realm) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     m.CookieName(realm),
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   m.secure,
		SameSite: fiber.CookieSameSiteStrictMode,
	}
}
