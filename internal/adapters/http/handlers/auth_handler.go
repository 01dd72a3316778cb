package handlers

import (
	"errors"
	"strings"
	"time"

	"langlearn-api/internal/adapters/http/middleware"
	"langlearn-api/internal/core/domain"
	"langlearn-api/internal/core/services"
	"langlearn-api/internal/pkg/logging"
	"langlearn-api/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterRequest represents registration request body
type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest represents login request body
type LoginRequest struct {
	EmailOrUsername string `json:"emailOrUserName"`
	Password        string `json:"password"`
}

// ForgotPasswordRequest represents forgot password request body
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest represents reset password request body
type ResetPasswordRequest struct {
	Email       string `json:"email"`
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// UserStatusResponse is returned by block and unblock
type UserStatusResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// ForgotPasswordResponse carries the token only in development
type ForgotPasswordResponse struct {
	Token string `json:"token,omitempty"`
}

// ResetPasswordResponse represents reset password outcome
type ResetPasswordResponse struct {
	Succeeded bool     `json:"succeeded"`
	Errors    []string `json:"errors,omitempty"`
}

// MeResponse describes the authenticated user
type MeResponse struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	Status   string   `json:"status"`
}

func toAuthResponse(r *services.AuthResult) AuthResponse {
	return AuthResponse{
		ID:        r.ID,
		Email:     r.Email,
		Username:  r.Username,
		Role:      r.Role,
		Token:     r.Token,
		ExpiresAt: r.ExpiresAt,
	}
}

func toUserStatusResponse(s *services.UserStatus) UserStatusResponse {
	return UserStatusResponse{ID: s.ID, Status: string(s.Status)}
}

// Register handles user registration
// @Summary Register new user
// @Description Create an account with the User role and return an access token
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body RegisterRequest true "Registration data"
// @Success 201 {object} response.Response{data=AuthResponse}
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	result, err := h.authService.Register(c.UserContext(), services.RegisterInput{
		Email:    strings.TrimSpace(req.Email),
		Username: strings.TrimSpace(req.Username),
		Password: req.Password,
	})
	if err != nil {
		return h.fail(c, err, "Failed to register user")
	}

	return response.Created(c, "User registered successfully", toAuthResponse(result))
}

// Login handles user login
// @Summary Login user
// @Description Authenticate by email or username and return an access token
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Login credentials"
// @Success 200 {object} response.Response{data=AuthResponse}
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	result, err := h.authService.Login(c.UserContext(), services.LoginInput{
		EmailOrUsername: strings.TrimSpace(req.EmailOrUsername),
		Password:        req.Password,
	})
	if err != nil {
		return h.fail(c, err, "Failed to login")
	}

	return response.Success(c, "Login successful", toAuthResponse(result))
}

// BlockUser handles blocking a user
// @Summary Block user
// @Description Lock a user out indefinitely (Admin only)
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Param userId path string true "User ID"
// @Success 200 {object} response.Response{data=UserStatusResponse}
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /auth/block-user/{userId} [post]
func (h *AuthHandler) BlockUser(c *fiber.Ctx) error {
	status, err := h.authService.BlockUser(c.UserContext(), c.Params("userId"))
	if err != nil {
		return h.fail(c, err, "Failed to block user")
	}

	return response.Success(c, "User blocked", toUserStatusResponse(status))
}

// UnblockUser handles unblocking a user
// @Summary Unblock user
// @Description Clear a user's lockout (Admin only)
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Param userId path string true "User ID"
// @Success 200 {object} response.Response{data=UserStatusResponse}
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /auth/unblock-user/{userId} [post]
func (h *AuthHandler) UnblockUser(c *fiber.Ctx) error {
	status, err := h.authService.UnblockUser(c.UserContext(), c.Params("userId"))
	if err != nil {
		return h.fail(c, err, "Failed to unblock user")
	}

	return response.Success(c, "User unblocked", toUserStatusResponse(status))
}

// ForgotPassword handles password reset requests
// @Summary Forgot password
// @Description Email a password reset link to the account owner
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body ForgotPasswordRequest true "Account email"
// @Success 200 {object} response.Response{data=ForgotPasswordResponse}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	result, err := h.authService.ForgotPassword(c.UserContext(), services.ForgotPasswordInput{
		Email: strings.TrimSpace(req.Email),
	})
	if err != nil {
		return h.fail(c, err, "Failed to process password reset request")
	}

	return response.Success(c, "Password reset link sent", ForgotPasswordResponse{Token: result.Token})
}

// ResetPassword handles setting a new password with a reset token
// @Summary Reset password
// @Description Redeem a reset token; a token is accepted once
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body ResetPasswordRequest true "Reset data"
// @Success 200 {object} response.Response{data=ResetPasswordResponse}
// @Failure 400 {object} response.Response{data=ResetPasswordResponse}
// @Failure 404 {object} response.Response
// @Router /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationFailed(c, "Invalid request body", []string{"invalid request body"})
	}

	result, err := h.authService.ResetPassword(c.UserContext(), services.ResetPasswordInput{
		Email:       strings.TrimSpace(req.Email),
		Token:       strings.TrimSpace(req.Token),
		NewPassword: req.NewPassword,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTokenExpired):
			return response.ValidationFailed(c, "Reset token has expired", []string{err.Error()})
		case errors.Is(err, domain.ErrTokenInvalid):
			return response.ValidationFailed(c, "Invalid reset token", []string{err.Error()})
		}
		return h.fail(c, err, "Failed to reset password")
	}

	return response.Success(c, "Password has been reset", ResetPasswordResponse{Succeeded: result.Succeeded})
}

// Logout handles user logout
// @Summary Logout user
// @Description Acknowledge logout; the client discards its access token
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.authService.Logout(c.UserContext(), middleware.UserID(c)); err != nil {
		return h.fail(c, err, "Failed to logout")
	}

	return response.Success(c, "Logout successful", nil)
}

// Me returns the authenticated user
// @Summary Current user
// @Description Get the user behind the access token
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=MeResponse}
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, err := h.authService.GetUserByID(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return h.fail(c, err, "Failed to get user")
	}

	return response.Success(c, "", MeResponse{
		ID:       user.ID,
		Email:    user.Email,
		Username: user.Username,
		Roles:    user.RoleNames(),
		Status:   string(h.authService.AccountStatus(user)),
	})
}

// fail maps service errors to HTTP responses
func (h *AuthHandler) fail(c *fiber.Ctx, err error, fallback string) error {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		return response.ValidationFailed(c, "Validation failed", ve.Reasons)
	case errors.Is(err, domain.ErrDuplicateIdentity):
		return response.Conflict(c, "User with this email or username already exists")
	case errors.Is(err, domain.ErrInvalidCredentials):
		return response.Unauthorized(c, "Invalid email/username or password")
	case errors.Is(err, domain.ErrAccountBlocked):
		return response.Forbidden(c, "User is blocked")
	case errors.Is(err, domain.ErrUserNotFound):
		return response.NotFound(c, "User not found")
	case errors.Is(err, domain.ErrTokenExpired):
		return response.BadRequest(c, "Token has expired")
	case errors.Is(err, domain.ErrTokenInvalid):
		return response.BadRequest(c, "Invalid token")
	default:
		logging.FromContext(c.UserContext()).Error(fallback, "error", err)
		return response.InternalServerError(c, fallback)
	}
}
