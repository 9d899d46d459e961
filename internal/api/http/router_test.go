package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/storefront-auth/internal/api/http/handlers"
	"github.com/spec-kit/storefront-auth/internal/auth"
	"github.com/spec-kit/storefront-auth/internal/config"
	"github.com/spec-kit/storefront-auth/internal/domain"
	"github.com/spec-kit/storefront-auth/internal/events"
	"github.com/spec-kit/storefront-auth/internal/observability"
	"github.com/spec-kit/storefront-auth/internal/repository"
	"github.com/spec-kit/storefront-auth/internal/service"
)

type memCustomerRepo struct {
	customers map[string]*domain.Customer
	seq       int
}

func (r *memCustomerRepo) Create(_ context.Context, customer *domain.Customer) error {
	r.seq++
	customer.ID = fmt.Sprintf("cust_%d", r.seq)
	r.customers[customer.ID] = customer
	return nil
}

func (r *memCustomerRepo) UpdatePasswordHash(_ context.Context, id, passwordHash string) error {
	customer, ok := r.customers[id]
	if !ok {
		return pgx.ErrNoRows
	}
	customer.PasswordHash = passwordHash
	return nil
}

func (r *memCustomerRepo) GetByID(_ context.Context, id string) (*domain.Customer, error) {
	customer, ok := r.customers[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return customer, nil
}

func (r *memCustomerRepo) GetByEmail(_ context.Context, email string) (*domain.Customer, error) {
	for _, customer := range r.customers {
		if customer.Email == email {
			return customer, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type memAdminRepo struct {
	admins map[string]*domain.Admin
	seq    int
}

func (r *memAdminRepo) Create(_ context.Context, admin *domain.Admin) error {
	r.seq++
	admin.ID = fmt.Sprintf("adm_%d", r.seq)
	r.admins[admin.ID] = admin
	return nil
}

func (r *memAdminRepo) UpdatePasswordHash(_ context.Context, id, passwordHash string) error {
	admin, ok := r.admins[id]
	if !ok {
		return pgx.ErrNoRows
	}
	admin.PasswordHash = passwordHash
	return nil
}

func (r *memAdminRepo) GetByID(_ context.Context, id string) (*domain.Admin, error) {
	admin, ok := r.admins[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return admin, nil
}

func (r *memAdminRepo) GetByUsername(_ context.Context, username string) (*domain.Admin, error) {
	for _, admin := range r.admins {
		if admin.Username == username {
			return admin, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memAdminRepo) GetByEmail(_ context.Context, email string) (*domain.Admin, error) {
	for _, admin := range r.admins {
		if admin.Email == email {
			return admin, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type apiFixture struct {
	app        *fiber.App
	customers  *memCustomerRepo
	admins     *memAdminRepo
	dispatcher *recordingDispatcher
}

type recordingDispatcher struct {
	events.Dispatcher
	published []events.Event
}

func (d *recordingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.published = append(d.published, event)
	return d.Dispatcher.Publish(ctx, event)
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sessions, err := auth.NewSessionManager("customer-secret-for-tests!!!!!!!", "admin-secret-for-tests!!!!!!!!!!", 7*24*time.Hour, false)
	require.NoError(t, err)
	resets, err := auth.NewResetTokenManager("reset-secret-for-tests!!!!!!!!!!", 24*time.Hour)
	require.NoError(t, err)

	customers := &memCustomerRepo{customers: make(map[string]*domain.Customer)}
	admins := &memAdminRepo{admins: make(map[string]*domain.Admin)}
	dispatcher := &recordingDispatcher{Dispatcher: events.NewInMemoryDispatcher()}
	logger := zap.NewNop()

	authService := service.NewAuthService(config.AuthConfig{BcryptCost: bcrypt.MinCost}, service.AuthDependencies{
		CustomerRepo:     customers,
		AdminRepo:        admins,
		ConsumptionStore: repository.NewResetConsumptionStore(client),
		Sessions:         sessions,
		Resets:           resets,
		Dispatcher:       dispatcher,
		Logger:           logger,
	})

	app := fiber.New()
	RegisterMiddlewares(app, logger, observability.NewMetrics(), 0)
	RegisterRoutes(app, RouteConfig{
		Customers:      handlers.NewCustomersHandler(authService),
		Admin:          handlers.NewAdminHandler(authService),
		PasswordReset:  handlers.NewPasswordResetHandler(authService, logger),
		AuthMiddleware: auth.NewMiddleware(sessions, customers, admins),
		Health:         handlers.NewHealthHandler("test", "dev", nil, nil),
	})

	return &apiFixture{app: app, customers: customers, admins: admins, dispatcher: dispatcher}
}

func (f *apiFixture) seedCustomer(t *testing.T, email, password string) *domain.Customer {
	t.Helper()
	hash, err := auth.HashPassword(password, bcrypt.MinCost)
	require.NoError(t, err)
	customer := &domain.Customer{Name: "Ada", Email: email, PasswordHash: hash, Status: domain.CustomerStatusActive}
	require.NoError(t, f.customers.Create(context.Background(), customer))
	return customer
}

func (f *apiFixture) seedAdmin(t *testing.T, username, password string) *domain.Admin {
	t.Helper()
	hash, err := auth.HashPassword(password, bcrypt.MinCost)
	require.NoError(t, err)
	admin := &domain.Admin{Username: username, Email: username + "@example.com", PasswordHash: hash, Active: true}
	require.NoError(t, f.admins.Create(context.Background(), admin))
	return admin
}

func (f *apiFixture) do(t *testing.T, method, path string, payload any, cookies ...*nethttp.Cookie) *nethttp.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *nethttp.Response) map[string]any {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	return decoded
}

func sessionCookie(resp *nethttp.Response, name string) *nethttp.Cookie {
	for _, cookie := range resp.Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func TestLogin_SetsSessionCookie(t *testing.T) {
	f := newAPIFixture(t)
	f.seedCustomer(t, "ada@example.com", "pw-123456")

	resp := f.do(t, "POST", "/auth/login", map[string]string{"email": "ada@example.com", "password": "pw-123456"})
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, true, body["success"])

	cookie := sessionCookie(resp, auth.CustomerCookieName)
	require.NotNil(t, cookie)
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, nethttp.SameSiteStrictMode, cookie.SameSite)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), cookie.Expires, time.Minute)
}

func TestLogin_WrongPasswordUniformError(t *testing.T) {
	f := newAPIFixture(t)
	f.seedCustomer(t, "ada@example.com", "pw-123456")

	wrongPassword := f.do(t, "POST", "/auth/login", map[string]string{"email": "ada@example.com", "password": "nope"})
	unknownEmail := f.do(t, "POST", "/auth/login", map[string]string{"email": "nobody@example.com", "password": "pw-123456"})

	for _, resp := range []*nethttp.Response{wrongPassword, unknownEmail} {
		assert.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)
		assert.Nil(t, sessionCookie(resp, auth.CustomerCookieName))
	}

	body := decodeBody(t, wrongPassword)
	errs := body["errors"].(map[string]any)
	messages := errs["email"].([]any)
	assert.Equal(t, "Invalid email or password", messages[0])

	// byte-identical bodies: no oracle for which check failed
	otherBody := decodeBody(t, unknownEmail)
	assert.Equal(t, body, otherBody)
}

func TestMe_RequiresSession(t *testing.T) {
	f := newAPIFixture(t)
	f.seedCustomer(t, "ada@example.com", "pw-123456")

	// no cookie at all
	resp := f.do(t, "GET", "/auth/me", nil)
	assert.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)

	// garbage cookie
	resp = f.do(t, "GET", "/auth/me", nil, &nethttp.Cookie{Name: auth.CustomerCookieName, Value: "garbage"})
	assert.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)

	// real session
	login := f.do(t, "POST", "/auth/login", map[string]string{"email": "ada@example.com", "password": "pw-123456"})
	cookie := sessionCookie(login, auth.CustomerCookieName)
	require.NotNil(t, cookie)

	resp = f.do(t, "GET", "/auth/me", nil, &nethttp.Cookie{Name: cookie.Name, Value: cookie.Value})
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	data := body["data"].(map[string]any)
	assert.Equal(t, "ada@example.com", data["email"])
}

func TestCustomerSessionRejectedOnAdminRoute(t *testing.T) {
	f := newAPIFixture(t)
	f.seedCustomer(t, "ada@example.com", "pw-123456")

	login := f.do(t, "POST", "/auth/login", map[string]string{"email": "ada@example.com", "password": "pw-123456"})
	cookie := sessionCookie(login, auth.CustomerCookieName)
	require.NotNil(t, cookie)

	// presenting the customer token under the admin cookie name must fail
	resp := f.do(t, "GET", "/admin/auth/me", nil, &nethttp.Cookie{Name: auth.AdminCookieName, Value: cookie.Value})
	assert.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)
}

func TestAdminLoginAndMe(t *testing.T) {
	f := newAPIFixture(t)
	f.seedAdmin(t, "root", "admin-pw")

	login := f.do(t, "POST", "/admin/auth/login", map[string]string{"username": "root", "password": "admin-pw"})
	require.Equal(t, nethttp.StatusOK, login.StatusCode)

	cookie := sessionCookie(login, auth.AdminCookieName)
	require.NotNil(t, cookie)

	resp := f.do(t, "GET", "/admin/auth/me", nil, &nethttp.Cookie{Name: cookie.Name, Value: cookie.Value})
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	data := body["data"].(map[string]any)
	assert.Equal(t, "root", data["username"])
}

func TestLogout_ClearsCookie(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.do(t, "POST", "/auth/logout", map[string]string{})
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)

	cookie := sessionCookie(resp, auth.CustomerCookieName)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.True(t, cookie.Expires.Before(time.Now()))
}

func TestPasswordResetRequest_UnknownEmailStillSucceeds(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.do(t, "POST", "/auth/password-reset", map[string]string{"email": "nobody@example.com"})
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, true, body["success"])
}

func TestPasswordResetConfirm_InvalidToken(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.do(t, "POST", "/auth/password-reset/not-a-real-token", map[string]string{"password": "new-password"})
	assert.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)

	body := decodeBody(t, resp)
	errs := body["errors"].(map[string]any)
	messages := errs["token"].([]any)
	assert.Equal(t, "This link is invalid or has expired", messages[0])
}

func TestPasswordResetFlowOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	f.seedCustomer(t, "ada@example.com", "old-password")

	resp := f.do(t, "POST", "/auth/password-reset", map[string]string{"email": "ada@example.com"})
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)

	var token string
	for _, event := range f.dispatcher.published {
		if event.Type == events.EventPasswordResetRequested {
			token = event.Payload.(events.PasswordResetRequestedPayload).Token
		}
	}
	require.NotEmpty(t, token)
	require.False(t, strings.ContainsAny(token, "/?#"), "token must be URL-path safe")

	resp = f.do(t, "POST", "/auth/password-reset/"+token, map[string]string{"password": "new-password"})
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)

	// the link is single-use
	resp = f.do(t, "POST", "/auth/password-reset/"+token, map[string]string{"password": "attacker-password"})
	assert.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)

	// and the new password is live
	login := f.do(t, "POST", "/auth/login", map[string]string{"email": "ada@example.com", "password": "new-password"})
	assert.Equal(t, nethttp.StatusOK, login.StatusCode)
}

func TestChangePasswordOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	f.seedCustomer(t, "ada@example.com", "old-password")

	login := f.do(t, "POST", "/auth/login", map[string]string{"email": "ada@example.com", "password": "old-password"})
	cookie := sessionCookie(login, auth.CustomerCookieName)
	require.NotNil(t, cookie)
	session := &nethttp.Cookie{Name: cookie.Name, Value: cookie.Value}

	resp := f.do(t, "POST", "/auth/password/change",
		map[string]string{"current_password": "wrong", "new_password": "new-password"}, session)
	assert.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)

	resp = f.do(t, "POST", "/auth/password/change",
		map[string]string{"current_password": "old-password", "new_password": "new-password"}, session)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)

	login = f.do(t, "POST", "/auth/login", map[string]string{"email": "ada@example.com", "password": "new-password"})
	assert.Equal(t, nethttp.StatusOK, login.StatusCode)
}
