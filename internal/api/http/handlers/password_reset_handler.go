package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/storefront-auth/internal/api/dto"
	"github.com/spec-kit/storefront-auth/internal/auth"
	"github.com/spec-kit/storefront-auth/internal/service"
)

// resetFailureMessage covers every reset-token failure kind. Which one
// applied is logged internally but never told to the client.
const resetFailureMessage = "This link is invalid or has expired"

// PasswordResetHandler exposes the recovery flow.
type PasswordResetHandler struct {
	auth   *service.AuthService
	logger *zap.Logger
}

// NewPasswordResetHandler constructs handler.
func NewPasswordResetHandler(authService *service.AuthService, logger *zap.Logger) *PasswordResetHandler {
	return &PasswordResetHandler{auth: authService, logger: logger}
}

// Request handles POST /auth/password-reset. It reports success even for
// unknown emails so the endpoint cannot enumerate accounts.
func (h *PasswordResetHandler) Request(c *fiber.Ctx) error {
	var req dto.PasswordResetRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(dto.NewFieldError("body", "invalid payload"))
	}
	if req.Email == "" {
		return c.Status(http.StatusBadRequest).JSON(dto.NewFieldError("email", "email is required"))
	}

	if err := h.auth.RequestPasswordReset(c.Context(), req.Email); err != nil {
		return err
	}
	return c.JSON(dto.SuccessResponse{Success: true})
}

// Confirm handles POST /auth/password-reset/:token. The token is the sole
// identifying material in the URL.
func (h *PasswordResetHandler) Confirm(c *fiber.Ctx) error {
	token := c.Params("token")

	var req dto.PasswordResetConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(dto.NewFieldError("body", "invalid payload"))
	}
	if req.Password == "" {
		return c.Status(http.StatusBadRequest).JSON(dto.NewFieldError("password", "password is required"))
	}

	if err := h.auth.ConfirmPasswordReset(c.Context(), token, req.Password); err != nil {
		if isTokenFailure(err) {
			h.logger.Info("reset confirmation rejected", zap.String("reason", err.Error()))
			return c.Status(http.StatusUnauthorized).JSON(dto.NewFieldError("token", resetFailureMessage))
		}
		return err
	}
	return c.JSON(dto.SuccessResponse{Success: true})
}

func isTokenFailure(err error) bool {
	return errors.Is(err, auth.ErrMalformedToken) ||
		errors.Is(err, auth.ErrInvalidSignature) ||
		errors.Is(err, auth.ErrTokenExpired) ||
		errors.Is(err, auth.ErrInvalidPurpose)
}
