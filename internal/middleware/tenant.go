package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"tenant-service/internal/model"
	"tenant-service/internal/tenant"
	"tenant-service/pkg/config"
	"tenant-service/pkg/logger"
	"tenant-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Context keys for the resolved tenant and its bound database session.
const (
	TenantKey   = "tenant"
	TenantDBKey = "tenant_db"
)

// TenantResolver is the resolution surface the middleware needs.
type TenantResolver interface {
	Resolve(ctx context.Context, host, path string, header http.Header) (*tenant.Resolution, error)
	Bypass(path string) bool
}

// TenantBinder binds a resolved tenant to a request-scoped session.
type TenantBinder interface {
	Bind(ctx context.Context, t *model.Tenant) (*tenant.Binding, error)
}

// TenantMiddleware resolves the request's tenant and binds its schema for
// the request's duration. The binding is released on every exit path,
// including panics, so no binding ever leaks into a later request.
//
// Unresolved requests on tenant-scoped API paths are rejected with 404
// unless AllowUnresolvedAPI restores the legacy warn-and-continue behavior;
// all other unresolved requests proceed against the shared schema.
func TenantMiddleware(resolver TenantResolver, binder TenantBinder, cfg *config.TenantConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)
			req := c.Request()
			path := req.URL.Path

			// Administrative and API-documentation routes always use the
			// shared schema.
			if resolver.Bypass(path) {
				return next(c)
			}

			res, err := resolver.Resolve(req.Context(), req.Host, path, req.Header)
			if err != nil {
				switch {
				case errors.Is(err, tenant.ErrUnresolved):
					return handleUnresolved(c, next, cfg, log)
				case errors.Is(err, tenant.ErrDirectoryUnavailable):
					// Defaulting to the shared schema here would risk
					// cross-tenant exposure; abort instead.
					log.Error("Tenant directory unavailable during resolution", zap.Error(err))
					prometheus.RecordResolution("none", "directory_unavailable")
					return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "tenant directory unavailable"})
				default:
					log.Error("Tenant resolution failed", zap.Error(err))
					return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant resolution failed"})
				}
			}

			binding, err := binder.Bind(req.Context(), res.Tenant)
			if err != nil {
				switch {
				case errors.Is(err, tenant.ErrSchemaMissing):
					log.Warn("Tenant schema missing",
						zap.String("tenant", res.Tenant.Slug),
						zap.String("schema", res.Tenant.SchemaName))
					prometheus.RecordResolution(string(res.Strategy), "schema_missing")
					return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant is not properly configured"})
				case errors.Is(err, tenant.ErrDirectoryUnavailable):
					log.Error("Schema check failed during bind", zap.Error(err))
					prometheus.RecordResolution(string(res.Strategy), "directory_unavailable")
					return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "tenant directory unavailable"})
				default:
					log.Error("Tenant bind failed", zap.Error(err))
					return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant bind failed"})
				}
			}
			// Unconditional release: normal completion, handler error, or
			// panic all pass through this defer before the connection can be
			// reused by another request.
			defer binding.Release(req.Context())

			prometheus.RecordResolution(string(res.Strategy), "resolved")
			log.Debug("Tenant resolved",
				zap.String("tenant", res.Tenant.Slug),
				zap.String("schema", res.Tenant.SchemaName),
				zap.String("strategy", string(res.Strategy)))

			c.Set(TenantKey, res.Tenant)
			c.Set(TenantDBKey, binding.DB)

			return next(c)
		}
	}
}

func handleUnresolved(c echo.Context, next echo.HandlerFunc, cfg *config.TenantConfig, log *zap.Logger) error {
	path := c.Request().URL.Path
	prometheus.RecordResolution("none", "unresolved")

	if isTenantAPIPath(path) {
		if !cfg.AllowUnresolvedAPI {
			log.Warn("No tenant resolved for API request",
				zap.String("host", c.Request().Host),
				zap.String("path", path))
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
		}
		log.Warn("No tenant resolved for API request, serving from shared schema",
			zap.String("host", c.Request().Host),
			zap.String("path", path))
		return next(c)
	}

	log.Debug("No tenant resolved, using shared schema", zap.String("path", path))
	return next(c)
}

func isTenantAPIPath(path string) bool {
	return strings.HasPrefix(path, "/api/")
}

// TenantFromContext returns the tenant resolved for this request, if any.
func TenantFromContext(c echo.Context) (*model.Tenant, bool) {
	t, ok := c.Get(TenantKey).(*model.Tenant)
	return t, ok
}

// TenantDBFromContext returns the request's schema-bound database session.
func TenantDBFromContext(c echo.Context) (*gorm.DB, bool) {
	db, ok := c.Get(TenantDBKey).(*gorm.DB)
	return db, ok
}
