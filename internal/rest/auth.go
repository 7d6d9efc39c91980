package rest

import (
	"context"
	"net/http"
	"pharmaSupply/domain"
	"pharmaSupply/pkg/logger"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type AuthService interface {
	Register(ctx context.Context, in domain.UserInput, role domain.Role, client domain.ClientInfo) (domain.AuthResult, error)
	Login(ctx context.Context, email, password string, client domain.ClientInfo) (domain.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (domain.AuthTokens, error)
	Profile(ctx context.Context, userID string) (domain.User, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	Logout(ctx context.Context, userID string, client domain.ClientInfo) error
}

type AuthHandler struct {
	authService AuthService
	validator   *validator.Validate
	timeout     time.Duration
}

func NewAuthHandler(authService AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validator:   validator.New(),
		timeout:     defaultTimeout,
	}
}

const forgotPasswordReply = "If the email exists, a reset link has been sent."

type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

func (h *AuthHandler) register(c echo.Context, role domain.Role) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err, "Invalid request body")
	}
	if err := h.validator.Struct(&req); err != nil {
		return badRequest(c, err, "Failed to validate register request")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	result, err := h.authService.Register(ctx, domain.UserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	}, role, clientInfo(c))
	if err != nil {
		return writeError(c, err, "Failed to register user")
	}

	return c.JSON(http.StatusCreated, result)
}

// Register creates a PROVIDER account.
func (h *AuthHandler) Register(c echo.Context) error {
	return h.register(c, domain.RoleProvider)
}

func (h *AuthHandler) RegisterAdmin(c echo.Context) error {
	return h.register(c, domain.RoleAdmin)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err, "Failed to bind request")
	}
	if err := h.validator.Struct(&req); err != nil {
		return badRequest(c, err, "Failed to validate login request")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	result, err := h.authService.Login(ctx, req.Email, req.Password, clientInfo(c))
	if err != nil {
		return writeError(c, err, "Failed to login")
	}

	return c.JSON(http.StatusOK, result)
}

func (h *AuthHandler) Profile(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	userID, _ := caller(c)
	user, err := h.authService.Profile(ctx, userID)
	if err != nil {
		return writeError(c, err, "Failed to get profile")
	}

	return c.JSON(http.StatusOK, user)
}

// Refresh rotates both tokens
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req RefreshTokenRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err, "Invalid request body")
	}
	if err := h.validator.Struct(&req); err != nil {
		return badRequest(c, err, "Failed to validate refresh request")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	tokens, err := h.authService.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return writeError(c, err, "Failed to refresh token")
	}

	return c.JSON(http.StatusOK, tokens)
}

func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req ForgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err, "Invalid request body")
	}
	if err := h.validator.Struct(&req); err != nil {
		return badRequest(c, err, "Failed to validate forgot password request")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.authService.ForgotPassword(ctx, req.Email); err != nil {
		logger.Error("Failed to process forgot password", "error", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": forgotPasswordReply,
	})
}

func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err, "Invalid request body")
	}
	if err := h.validator.Struct(&req); err != nil {
		return badRequest(c, err, "Failed to validate reset password request")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.authService.ResetPassword(ctx, req.Token, req.NewPassword); err != nil {
		return writeError(c, err, "Failed to reset password")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Password has been reset successfully",
	})
}

// Logout ends every session of the caller
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	userID, _ := caller(c)
	if err := h.authService.Logout(ctx, userID, clientInfo(c)); err != nil {
		return writeError(c, err, "Failed to logout")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Logout successful",
	})
}
