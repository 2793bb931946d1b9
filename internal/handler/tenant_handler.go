package handler

import (
	"errors"
	"net/http"
	"time"

	"tenant-service/internal/model"
	schemapkg "tenant-service/internal/schema"
	"tenant-service/internal/tenant"
	"tenant-service/pkg/logger"
	"tenant-service/prometheus"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CreateTenant handles tenant creation with synchronous provisioning
func CreateTenant(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("create")

	// Parse request
	var req struct {
		Name        string  `json:"name"`
		Slug        string  `json:"slug"`
		Domain      *string `json:"domain,omitempty"`
		Description string  `json:"description"`
		Plan        string  `json:"plan,omitempty"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse tenant creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Name == "" || req.Slug == "" {
		log.Error("Invalid tenant data", zap.String("name", req.Name), zap.String("slug", req.Slug))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and slug are required"})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("insert")(time.Now())

	t, err := lifecycle.CreateTenant(c.Request().Context(), tenant.CreateRequest{
		Name:        req.Name,
		Slug:        req.Slug,
		Domain:      req.Domain,
		Description: req.Description,
		Plan:        req.Plan,
	})
	if err != nil {
		var provErr *tenant.ProvisionError
		switch {
		case errors.Is(err, tenant.ErrConflict):
			log.Warn("Tenant slug or domain conflict", zap.String("slug", req.Slug))
			return c.JSON(http.StatusConflict, echo.Map{"error": "slug or domain already in use"})
		case errors.As(err, &provErr):
			// The directory row exists but the schema does not; the caller
			// may retry provisioning or delete the tenant.
			log.Error("Tenant provisioning failed", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error":       "tenant provisioning failed",
				"step":        provErr.Step,
				"compensated": provErr.Compensated,
				"tenant":      t,
			})
		case errors.Is(err, tenant.ErrDirectoryUnavailable):
			log.Error("Directory unavailable during tenant creation", zap.Error(err))
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "tenant directory unavailable"})
		default:
			log.Error("Failed to create tenant", zap.Error(err))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
	}

	log.Info("Tenant created",
		zap.String("name", t.Name),
		zap.String("slug", t.Slug),
		zap.String("schema", t.SchemaName))

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Tenant created successfully",
		"tenant":  t,
	})
}

// ListTenants returns all tenants in the directory
func ListTenants(c echo.Context) error {
	log := logger.FromContext(c)

	defer prometheus.TrackDBOperation("query")(time.Now())

	tenants, err := directory.List(c.Request().Context())
	if err != nil {
		log.Error("Failed to list tenants", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "tenant directory unavailable"})
	}

	return c.JSON(http.StatusOK, echo.Map{"tenants": tenants})
}

// GetTenant retrieves tenant details together with a schema readiness signal
func GetTenant(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("access")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		log.Error("Invalid tenant ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tenant ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	t, err := directory.FindByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, tenant.ErrTenantNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
		}
		log.Error("Failed to fetch tenant", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "tenant directory unavailable"})
	}

	// A newly created tenant is only usable once its schema exists.
	ready, err := lifecycle.Ready(c.Request().Context(), t)
	if err != nil {
		log.Error("Failed to check schema readiness", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "schema check failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"tenant":       t,
		"schema_ready": ready,
	})
}

// SuspendTenant deactivates a tenant; the schema is retained and resolution
// strategies stop matching it
func SuspendTenant(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("suspend")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tenant ID"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	if err := directory.Deactivate(c.Request().Context(), id); err != nil {
		if errors.Is(err, tenant.ErrTenantNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
		}
		log.Error("Failed to suspend tenant", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "tenant directory unavailable"})
	}

	log.Info("Tenant suspended", zap.String("id", id.String()))
	return c.JSON(http.StatusOK, echo.Map{"message": "Tenant suspended"})
}

// RetryProvision re-runs the provisioning saga for a tenant stuck in
// provisioning_failed state. Schema creation is idempotent, so retrying is
// safe.
func RetryProvision(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("retry_provision")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tenant ID"})
	}

	t, err := directory.FindByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, tenant.ErrTenantNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
		}
		log.Error("Failed to fetch tenant", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "tenant directory unavailable"})
	}

	if t.Status != model.TenantStatusProvisioningFailed && t.Status != model.TenantStatusCreated {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":  "tenant is not awaiting provisioning",
			"status": t.Status,
		})
	}

	if err := lifecycle.Provision(c.Request().Context(), t); err != nil {
		var provErr *tenant.ProvisionError
		if errors.As(err, &provErr) {
			log.Error("Tenant provisioning retry failed", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error":       "tenant provisioning failed",
				"step":        provErr.Step,
				"compensated": provErr.Compensated,
			})
		}
		log.Error("Tenant provisioning retry failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant provisioning failed"})
	}

	log.Info("Tenant provisioned after retry", zap.String("slug", t.Slug))
	return c.JSON(http.StatusOK, echo.Map{"message": "Tenant provisioned", "tenant": t})
}

// ListTenantSchemas lists tenant schemas present in the catalog. Comparing
// this against the directory reveals schemas orphaned by failed drops.
func ListTenantSchemas(c echo.Context) error {
	log := logger.FromContext(c)

	names, err := schemas.ListSchemas(c.Request().Context(), schemapkg.SchemaPrefix)
	if err != nil {
		log.Error("Failed to list schemas", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "schema listing failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{"schemas": names})
}

// DeleteTenant drops the tenant's schema and removes the directory row.
// Irreversible.
func DeleteTenant(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tenant ID"})
	}

	t, err := directory.FindByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, tenant.ErrTenantNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
		}
		log.Error("Failed to fetch tenant", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "tenant directory unavailable"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())

	if err := lifecycle.DeleteTenant(c.Request().Context(), t); err != nil {
		log.Error("Failed to delete tenant", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant deletion failed"})
	}

	log.Info("Tenant deleted", zap.String("slug", t.Slug))
	return c.JSON(http.StatusOK, echo.Map{"message": "Tenant deleted"})
}
