package middleware

import (
	"net/http"
	"strings"

	"tenant-service/pkg/jwtutil"
	"tenant-service/pkg/logger"
	"tenant-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthMiddleware validates the admin JWT token from the Authorization header
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		// Get the Authorization header
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Error("Missing Authorization header")
			prometheus.RecordAuthError("missing_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
		}

		// Check if it's a Bearer token
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Error("Invalid Authorization header format")
			prometheus.RecordAuthError("invalid_auth_format")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
		}

		// Extract the token
		tokenString := parts[1]

		// Validate the token
		claims, err := jwtutil.ValidateToken(tokenString)
		if err != nil {
			log.Error("Invalid JWT token", zap.Error(err))
			prometheus.RecordAuthError("invalid_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		// Store admin info in context for later use
		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("is_super", claims.IsSuper)

		return next(c)
	}
}

// RequireSuper rejects requests from non-superuser admins
func RequireSuper(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		isSuper, ok := c.Get("is_super").(bool)
		if !ok || !isSuper {
			prometheus.RecordAuthError("not_superuser")
			return c.JSON(http.StatusForbidden, echo.Map{"error": "superuser access required"})
		}
		return next(c)
	}
}
