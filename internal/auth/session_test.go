package auth

import (
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/storefront-auth/internal/domain"
)

const (
	testCustomerSecret = "customer-session-secret-32-bytes"
	testAdminSecret    = "admin-session-secret-32-bytes!!!"
	testResetSecret    = "reset-token-secret-32-bytes!!!!!"
)

func newTestSessionManager(t *testing.T) *SessionManager {
	t.Helper()
	m, err := NewSessionManager(testCustomerSecret, testAdminSecret, 7*24*time.Hour, false)
	require.NoError(t, err)
	return m
}

func TestNewSessionManager_RequiresBothSecrets(t *testing.T) {
	_, err := NewSessionManager("", testAdminSecret, time.Hour, false)
	assert.ErrorIs(t, err, ErrMissingSecret)

	_, err = NewSessionManager(testCustomerSecret, "", time.Hour, false)
	assert.ErrorIs(t, err, ErrMissingSecret)

	_, err = NewSessionManager("", "", time.Hour, false)
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestSessionManager_IssueAndResolve(t *testing.T) {
	m := newTestSessionManager(t)

	token, expiresAt, err := m.Issue("cust_42", domain.RealmCustomer)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), expiresAt, 5*time.Second)

	subjectID, ok := m.Resolve(token, domain.RealmCustomer)
	require.True(t, ok)
	assert.Equal(t, "cust_42", subjectID)
}

func TestSessionManager_RealmIsolation(t *testing.T) {
	m := newTestSessionManager(t)

	customerToken, _, err := m.Issue("cust_42", domain.RealmCustomer)
	require.NoError(t, err)
	adminToken, _, err := m.Issue("adm_7", domain.RealmAdmin)
	require.NoError(t, err)

	// a customer token must never authorize the admin realm, or vice versa
	_, ok := m.Resolve(customerToken, domain.RealmAdmin)
	assert.False(t, ok)
	_, ok = m.Resolve(adminToken, domain.RealmCustomer)
	assert.False(t, ok)

	// and each still works in its own realm
	subjectID, ok := m.Resolve(customerToken, domain.RealmCustomer)
	require.True(t, ok)
	assert.Equal(t, "cust_42", subjectID)
	subjectID, ok = m.Resolve(adminToken, domain.RealmAdmin)
	require.True(t, ok)
	assert.Equal(t, "adm_7", subjectID)
}

func TestSessionManager_ResolveEmptyTokenIsAnonymous(t *testing.T) {
	m := newTestSessionManager(t)

	for _, token := range []string{"", "garbage", "a.b.c"} {
		subjectID, ok := m.Resolve(token, domain.RealmCustomer)
		assert.False(t, ok, "token %q", token)
		assert.Empty(t, subjectID)
	}
}

func TestSessionManager_ResolveRejectsExpiredToken(t *testing.T) {
	m := newTestSessionManager(t)
	issued := time.Now().Add(-8 * 24 * time.Hour)
	m.codec = NewCodecAt(func() time.Time { return issued })

	token, _, err := m.Issue("cust_42", domain.RealmCustomer)
	require.NoError(t, err)

	m.codec = NewCodec()
	_, ok := m.Resolve(token, domain.RealmCustomer)
	assert.False(t, ok)
}

func TestSessionManager_ResolveRejectsPurposeScopedToken(t *testing.T) {
	m := newTestSessionManager(t)

	// a reset-style token signed with the session secret must still not
	// open a session
	claims := &Claims{Purpose: PurposePasswordReset}
	claims.Subject = "cust_42"
	token, err := m.codec.Encode(claims, time.Now().Add(time.Hour), m.secrets[domain.RealmCustomer])
	require.NoError(t, err)

	_, ok := m.Resolve(token, domain.RealmCustomer)
	assert.False(t, ok)
}

func TestSessionManager_SequentialIssuesBothResolve(t *testing.T) {
	m := newTestSessionManager(t)

	tokenA, _, err := m.Issue("cust_42", domain.RealmCustomer)
	require.NoError(t, err)
	tokenB, _, err := m.Issue("cust_42", domain.RealmCustomer)
	require.NoError(t, err)

	assert.NotEqual(t, tokenA, tokenB)

	subjectID, ok := m.Resolve(tokenA, domain.RealmCustomer)
	require.True(t, ok)
	assert.Equal(t, "cust_42", subjectID)
	subjectID, ok = m.Resolve(tokenB, domain.RealmCustomer)
	require.True(t, ok)
	assert.Equal(t, "cust_42", subjectID)
}

func TestSessionManager_CookieAttributes(t *testing.T) {
	m, err := NewSessionManager(testCustomerSecret, testAdminSecret, 7*24*time.Hour, true)
	require.NoError(t, err)

	expiresAt := time.Now().Add(7 * 24 * time.Hour)
	cookie := m.SessionCookie(domain.RealmCustomer, "tok", expiresAt)

	assert.Equal(t, CustomerCookieName, cookie.Name)
	assert.Equal(t, "tok", cookie.Value)
	assert.Equal(t, "/", cookie.Path)
	assert.True(t, cookie.HTTPOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, fiber.CookieSameSiteStrictMode, cookie.SameSite)
	assert.Equal(t, expiresAt, cookie.Expires)

	adminCookie := m.SessionCookie(domain.RealmAdmin, "tok", expiresAt)
	assert.Equal(t, AdminCookieName, adminCookie.Name)
}

func TestSessionManager_ClearCookieExpiresImmediately(t *testing.T) {
	m := newTestSessionManager(t)

	cookie := m.ClearCookie(domain.RealmCustomer)
	assert.Equal(t, CustomerCookieName, cookie.Name)
	assert.Empty(t, cookie.Value)
	assert.True(t, cookie.Expires.Before(time.Now()))
}
