package handler

import (
	"net/http"
	"time"

	"tenant-service/internal/middleware"
	"tenant-service/internal/model"
	"tenant-service/pkg/logger"
	"tenant-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// GetSettings returns the settings row from the bound tenant schema
func GetSettings(c echo.Context) error {
	log := logger.FromContext(c)

	t, ok := middleware.TenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant context required"})
	}
	db, ok := middleware.TenantDBFromContext(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant context required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var settings model.TenantSettings
	if err := db.WithContext(c.Request().Context()).First(&settings, "tenant_id = ?", t.ID).Error; err != nil {
		log.Error("Failed to load tenant settings", zap.String("tenant", t.Slug), zap.Error(err))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "settings not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{"settings": settings})
}

// UpdateSettings patches the settings row inside the bound tenant schema
func UpdateSettings(c echo.Context) error {
	log := logger.FromContext(c)

	t, ok := middleware.TenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant context required"})
	}
	db, ok := middleware.TenantDBFromContext(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant context required"})
	}

	var req struct {
		PrimaryColor             *string  `json:"primary_color,omitempty"`
		SecondaryColor           *string  `json:"secondary_color,omitempty"`
		CustomCSS                *string  `json:"custom_css,omitempty"`
		FromEmail                *string  `json:"from_email,omitempty"`
		EmailSignature           *string  `json:"email_signature,omitempty"`
		DefaultInterviewDuration *int     `json:"default_interview_duration,omitempty"`
		AllowCodeExecution       *bool    `json:"allow_code_execution,omitempty"`
		RequireWebcam            *bool    `json:"require_webcam,omitempty"`
		AutoSubmitOnTimeEnd      *bool    `json:"auto_submit_on_time_end,omitempty"`
		EnableAIGrading          *bool    `json:"enable_ai_grading,omitempty"`
		AIGradingModel           *string  `json:"ai_grading_model,omitempty"`
		ManualReviewThreshold    *float64 `json:"manual_review_threshold,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse settings update", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	updates := map[string]interface{}{}
	setIfPresent := func(column string, value interface{}, present bool) {
		if present {
			updates[column] = value
		}
	}
	setIfPresent("primary_color", deref(req.PrimaryColor), req.PrimaryColor != nil)
	setIfPresent("secondary_color", deref(req.SecondaryColor), req.SecondaryColor != nil)
	setIfPresent("custom_css", deref(req.CustomCSS), req.CustomCSS != nil)
	setIfPresent("from_email", deref(req.FromEmail), req.FromEmail != nil)
	setIfPresent("email_signature", deref(req.EmailSignature), req.EmailSignature != nil)
	if req.DefaultInterviewDuration != nil {
		updates["default_interview_duration"] = *req.DefaultInterviewDuration
	}
	if req.AllowCodeExecution != nil {
		updates["allow_code_execution"] = *req.AllowCodeExecution
	}
	if req.RequireWebcam != nil {
		updates["require_webcam"] = *req.RequireWebcam
	}
	if req.AutoSubmitOnTimeEnd != nil {
		updates["auto_submit_on_time_end"] = *req.AutoSubmitOnTimeEnd
	}
	if req.EnableAIGrading != nil {
		updates["enable_ai_grading"] = *req.EnableAIGrading
	}
	if req.AIGradingModel != nil {
		updates["ai_grading_model"] = *req.AIGradingModel
	}
	if req.ManualReviewThreshold != nil {
		updates["manual_review_threshold"] = *req.ManualReviewThreshold
	}

	if len(updates) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no settings to update"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	result := db.WithContext(c.Request().Context()).
		Model(&model.TenantSettings{}).
		Where("tenant_id = ?", t.ID).
		Updates(updates)
	if result.Error != nil {
		log.Error("Failed to update tenant settings", zap.String("tenant", t.Slug), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "settings update failed"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "settings not found"})
	}

	log.Info("Tenant settings updated", zap.String("tenant", t.Slug), zap.Int("fields", len(updates)))
	return c.JSON(http.StatusOK, echo.Map{"message": "Settings updated"})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
