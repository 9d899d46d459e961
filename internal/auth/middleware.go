package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/storefront-auth/internal/domain"
	"github.com/spec-kit/storefront-auth/internal/repository"
	apperrors "github.com/spec-kit/storefront-auth/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller loaded from the session.
type Principal struct {
	Realm    domain.Realm
	Customer *domain.Customer
	Admin    *domain.Admin
}

// SubjectID returns the id of whichever record backs the principal.
func (p *Principal) SubjectID() string {
	switch {
	case p.Customer != nil:
		return p.Customer.ID
	case p.Admin != nil:
		return p.Admin.ID
	default:
		return ""
	}
}

// Middleware resolves session cookies and loads principals for protected
// routes. Each realm has its own gate; a valid customer session never
// authorizes an admin route.
type Middleware struct {
	sessions  *SessionManager
	customers repository.CustomerRepository
	admins    repository.AdminRepository
}

// NewMiddleware constructs the middleware.
func NewMiddleware(sessions *SessionManager, customers repository.CustomerRepository, admins repository.AdminRepository) *Middleware {
	return &Middleware{sessions: sessions, customers: customers, admins: admins}
}

// RequireCustomer enforces an authenticated customer session.
func (m *Middleware) RequireCustomer(c *fiber.Ctx) error {
	token := c.Cookies(m.sessions.CookieName(domain.RealmCustomer))
	subjectID, ok := m.sessions.Resolve(token, domain.RealmCustomer)
	if !ok {
		return apperrors.NewUnauthorized("please sign in again")
	}

	customer, err := m.customers.GetByID(c.Context(), subjectID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewUnauthorized("please sign in again")
		}
		return apperrors.MapError(err)
	}
	if customer.Status != domain.CustomerStatusActive {
		return apperrors.NewUnauthorized("please sign in again")
	}

	c.Locals(principalKey, &Principal{Realm: domain.RealmCustomer, Customer: customer})
	return c.Next()
}

// RequireAdmin enforces an authenticated admin session.
func (m *Middleware) RequireAdmin(c *fiber.Ctx) error {
	token := c.Cookies(m.sessions.CookieName(domain.RealmAdmin))
	subjectID, ok := m.sessions.Resolve(token, domain.RealmAdmin)
	if !ok {
		return apperrors.NewUnauthorized("please sign in again")
	}

	admin, err := m.admins.GetByID(c.Context(), subjectID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewUnauthorized("please sign in again")
		}
		return apperrors.MapError(err)
	}
	if !admin.Active {
		return apperrors.NewUnauthorized("please sign in again")
	}

	c.Locals(principalKey, &Principal{Realm: domain.RealmAdmin, Admin: admin})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
