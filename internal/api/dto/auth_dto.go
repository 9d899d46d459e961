package dto

// RegisterRequest payload for new customer accounts.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest payload for customer login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AdminLoginRequest payload for back-office login.
type AdminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// PasswordResetRequest payload for requesting a recovery link.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest payload for completing a reset. The token
// itself travels in the URL path.
type PasswordResetConfirmRequest struct {
	Password string `json:"password"`
}

// ChangePasswordRequest payload for authenticated password changes.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// SuccessResponse is the uniform success envelope for auth endpoints.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// FieldErrors is the uniform failure envelope for auth endpoints: field
// name to messages, deliberately vague about which check failed.
type FieldErrors struct {
	Errors map[string][]string `json:"errors"`
}

// NewFieldError builds a single-field error response.
func NewFieldError(field, message string) FieldErrors {
	return FieldErrors{Errors: map[string][]string{field: {message}}}
}
