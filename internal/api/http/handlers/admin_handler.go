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

// AdminHandler exposes auth endpoints for back-office operators.
type AdminHandler struct {
	auth *service.AuthService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(authService *service.AuthService) *AdminHandler {
	return &AdminHandler{auth: authService}
}

// Login handles POST /admin/auth/login.
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req dto.AdminLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(dto.NewFieldError("body", "invalid payload"))
	}
	if req.Username == "" || req.Password == "" {
		return c.Status(http.StatusBadRequest).JSON(dto.NewFieldError("body", "username and password are required"))
	}

	_, token, exp, err := h.auth.LoginAdmin(c.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return c.Status(http.StatusUnauthorized).JSON(dto.NewFieldError("username", "Invalid username or password"))
		}
		return err
	}

	sessions := h.auth.SessionManager()
	c.Cookie(sessions.SessionCookie(domain.RealmAdmin, token, exp))
	return c.JSON(dto.SuccessResponse{Success: true})
}

// Logout handles POST /admin/auth/logout. Clears the admin cookie only;
// the customer session, if any, is untouched.
func (h *AdminHandler) Logout(c *fiber.Ctx) error {
	sessions := h.auth.SessionManager()
	c.Cookie(sessions.ClearCookie(domain.RealmAdmin))
	return c.JSON(dto.SuccessResponse{Success: true})
}

// Me handles GET /admin/auth/me for an authenticated admin.
func (h *AdminHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Admin == nil {
		return apperrors.NewUnauthorized("please sign in again")
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"id":       principal.Admin.ID,
			"username": principal.Admin.Username,
			"email":    principal.Admin.Email,
		},
	})
}
