package handler

import (
	"net/http"
	"time"

	"tenant-service/internal/model"
	"tenant-service/pkg/database"
	"tenant-service/pkg/jwtutil"
	"tenant-service/pkg/logger"
	"tenant-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Login authenticates an administrative user and issues a JWT. Tenant-facing
// authentication is handled by the interview domain services.
func Login(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Email == "" || req.Password == "" {
		prometheus.RecordAuthError("incomplete_login")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var user model.User
	if result := database.GetDB().WithContext(c.Request().Context()).First(&user, "email = ?", req.Email); result.Error != nil {
		log.Warn("Login attempt for unknown admin", zap.String("email", req.Email))
		prometheus.RecordAuthError("login_failure")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	if !user.CheckPassword(req.Password) {
		log.Warn("Login attempt with wrong password", zap.String("email", req.Email))
		prometheus.RecordAuthError("login_failure")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	token, err := jwtutil.GenerateToken(user.Email, user.ID, user.IsSuper)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token generation failed"})
	}

	log.Info("Admin logged in", zap.String("email", user.Email))
	return c.JSON(http.StatusOK, echo.Map{"token": token})
}
