package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/storefront-auth/internal/api/dto"
	"github.com/spec-kit/storefront-auth/internal/auth"
	"github.com/spec-kit/storefront-auth/internal/domain"
	"github.com/spec-kit/storefront-auth/internal/service"
	apperrors "github.com/spec-kit/storefront-auth/pkg/util"
)

// invalidCredentialsMessage is shared by every credential failure so the
// response never reveals whether the account exists.
const invalidCredentialsMessage = "Invalid email or password"

// CustomersHandler exposes auth endpoints for storefront customers.
type CustomersHandler struct {
	auth *service.AuthService
}

// NewCustomersHandler constructs handler.
func NewCustomersHandler(authService *service.AuthService) *CustomersHandler {
	return &CustomersHandler{auth: authService}
}

// Register handles POST /auth/register.
func (h *CustomersHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(dto.NewFieldError("body", "invalid payload"))
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return c.Status(http.StatusBadRequest).JSON(dto.NewFieldError("body", "name, email and password are required"))
	}

	_, token, exp, err := h.auth.RegisterCustomer(c.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(dto.NewFieldError("email", err.Error()))
	}

	sessions := h.auth.SessionManager()
	c.Cookie(sessions.SessionCookie(domain.RealmCustomer, token, exp))
	return c.Status(http.StatusCreated).JSON(dto.SuccessResponse{Success: true})
}

// Login handles POST /auth/login. On failure no cookie is set and the error
// never distinguishes unknown email from wrong password.
func (h *CustomersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(dto.NewFieldError("body", "invalid payload"))
	}
	if req.Email == "" || req.Password == "" {
		return c.Status(http.StatusBadRequest).JSON(dto.NewFieldError("body", "email and password are required"))
	}

	_, token, exp, err := h.auth.LoginCustomer(c.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return c.Status(http.StatusUnauthorized).JSON(dto.NewFieldError("email", invalidCredentialsMessage))
		}
		return err
	}

	sessions := h.auth.SessionManager()
	c.Cookie(sessions.SessionCookie(domain.RealmCustomer, token, exp))
	return c.JSON(dto.SuccessResponse{Success: true})
}

// Logout handles POST /auth/logout. There is no server-side session state;
// logout clears the client cookie and nothing else. Idempotent.
func (h *CustomersHandler) Logout(c *fiber.Ctx) error {
	sessions := h.auth.SessionManager()
	c.Cookie(sessions.ClearCookie(domain.RealmCustomer))
	return c.JSON(dto.SuccessResponse{Success: true})
}

// Me handles GET /auth/me for an authenticated customer.
func (h *CustomersHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Customer == nil {
		return apperrors.NewUnauthorized("please sign in again")
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"id":    principal.Customer.ID,
			"name":  principal.Customer.Name,
			"email": principal.Customer.Email,
		},
	})
}

// ChangePassword handles POST /auth/password/change.
func (h *CustomersHandler) ChangePassword(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("please sign in again")
	}

	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(dto.NewFieldError("body", "invalid payload"))
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return c.Status(http.StatusBadRequest).JSON(dto.NewFieldError("body", "current and new password are required"))
	}

	err := h.auth.ChangePassword(c.Context(), principal.Realm, principal.SubjectID(), req.CurrentPassword, req.NewPassword)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return c.Status(http.StatusUnauthorized).JSON(dto.NewFieldError("current_password", invalidCredentialsMessage))
		}
		return err
	}
	return c.JSON(dto.SuccessResponse{Success: true})
}
