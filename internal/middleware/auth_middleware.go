package middleware

import (
	"context"
	"net/http"
	"pharmaSupply/domain"
	"pharmaSupply/pkg/logger"
	"pharmaSupply/pkg/utils"
	"strings"
	"time"

	jsonres "pharmaSupply/pkg/response"

	"github.com/labstack/echo/v4"
)

const (
	ContextUserID    = "user_id"
	ContextRole      = "role"
	ContextSessionID = "session_id"
)

// TokenParser verifies a signed access token.
type TokenParser interface {
	ParseJWT(tokenString string) (*utils.Claims, error)
}

// SessionValidator confirms the session behind a token is still active.
type SessionValidator interface {
	Validate(ctx context.Context, sessionID, userID string) (bool, error)
}

func unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, jsonres.Error("UNAUTHORIZED", msg, nil))
}

func forbidden(c echo.Context, msg string) error {
	return c.JSON(http.StatusForbidden, jsonres.Error("FORBIDDEN", msg, nil))
}

// Auth accepts a Bearer access token whose session is still active and
// stores the user id, role and session id on the echo context.
func Auth(tokens TokenParser, sessions SessionValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return unauthorized(c, "Missing authorization header")
			}

			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
				return unauthorized(c, "Invalid authorization format")
			}

			claims, err := tokens.ParseJWT(tokenParts[1])
			if err != nil {
				return unauthorized(c, "Invalid token")
			}
			if claims.TokenType != utils.TokenTypeAccess {
				return unauthorized(c, "Invalid token type")
			}

			role, ok := domain.ParseRole(claims.Role)
			if !ok {
				return forbidden(c, "Invalid role in token")
			}

			if claims.SessionID == "" {
				return unauthorized(c, "Token expired or invalid")
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			active, err := sessions.Validate(ctx, claims.SessionID, claims.UserID)
			if err != nil {
				logger.Error("Failed to validate session", "session_id", claims.SessionID, "error", err)
				return c.JSON(http.StatusServiceUnavailable, jsonres.Error(
					"SERVICE_UNAVAILABLE", "Session store unavailable", nil,
				))
			}
			if !active {
				return unauthorized(c, "Token expired or invalid")
			}

			c.Set(ContextUserID, claims.UserID)
			c.Set(ContextRole, role)
			c.Set(ContextSessionID, claims.SessionID)

			return next(c)
		}
	}
}

// RequireRoles rejects callers whose role is not listed.
func RequireRoles(roles ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := RoleOf(c)
			for _, r := range roles {
				if role == r {
					return next(c)
				}
			}
			return forbidden(c, "Insufficient permissions")
		}
	}
}

// RequireCapability rejects callers whose role lacks the capability.
func RequireCapability(cap domain.Capability) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !RoleOf(c).Can(cap) {
				return forbidden(c, "Insufficient permissions")
			}
			return next(c)
		}
	}
}

func UserID(c echo.Context) string {
	id, _ := c.Get(ContextUserID).(string)
	return id
}

func RoleOf(c echo.Context) domain.Role {
	role, _ := c.Get(ContextRole).(domain.Role)
	return role
}

func SessionID(c echo.Context) string {
	id, _ := c.Get(ContextSessionID).(string)
	return id
}
