package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tenant-service/internal/model"
	"tenant-service/internal/tenant"
	"tenant-service/pkg/config"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockResolver struct {
	resolution *tenant.Resolution
	err        error
	calls      int
}

func (m *mockResolver) Resolve(ctx context.Context, host, path string, header http.Header) (*tenant.Resolution, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.resolution, nil
}

func (m *mockResolver) Bypass(path string) bool {
	for _, prefix := range tenant.DefaultBypassPrefixes() {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

type mockBinder struct {
	err      error
	bindings []*tenant.Binding
}

func (m *mockBinder) Bind(ctx context.Context, t *model.Tenant) (*tenant.Binding, error) {
	if m.err != nil {
		return nil, m.err
	}
	b := &tenant.Binding{Tenant: t}
	m.bindings = append(m.bindings, b)
	return b, nil
}

func activeTenant(slug string) *model.Tenant {
	return &model.Tenant{
		ID:         uuid.New(),
		Name:       slug,
		Slug:       slug,
		SchemaName: "tenant_" + slug,
		Status:     model.TenantStatusActive,
		Active:     true,
	}
}

func newTestContext(host, path string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Host = host
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func strictConfig() *config.TenantConfig {
	return &config.TenantConfig{SharedSchema: "public", AllowUnresolvedAPI: false}
}

func TestTenantMiddlewareBindsAndReleases(t *testing.T) {
	tn := activeTenant("acme")
	resolver := &mockResolver{resolution: &tenant.Resolution{Tenant: tn, Strategy: tenant.StrategySubdomain}}
	binder := &mockBinder{}
	mw := TenantMiddleware(resolver, binder, strictConfig())

	c, rec := newTestContext("acme.example.com", "/api/questions")

	var sawTenant *model.Tenant
	var sawDB bool
	var releasedInsideHandler bool
	handler := mw(func(c echo.Context) error {
		sawTenant, _ = TenantFromContext(c)
		_, sawDB = TenantDBFromContext(c)
		releasedInsideHandler = binder.bindings[0].Released()
		return c.NoContent(http.StatusOK)
	})

	require.NoError(t, handler(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, tn, sawTenant)
	assert.True(t, sawDB)
	assert.False(t, releasedInsideHandler, "binding must stay live for the handler")

	require.Len(t, binder.bindings, 1)
	assert.True(t, binder.bindings[0].Released(), "binding must be released after the handler returns")
}

func TestTenantMiddlewareReleasesOnHandlerError(t *testing.T) {
	tn := activeTenant("acme")
	resolver := &mockResolver{resolution: &tenant.Resolution{Tenant: tn, Strategy: tenant.StrategyHeader}}
	binder := &mockBinder{}
	mw := TenantMiddleware(resolver, binder, strictConfig())

	c, _ := newTestContext("acme.example.com", "/api/questions")
	handler := mw(func(c echo.Context) error {
		return errors.New("handler blew up")
	})

	require.Error(t, handler(c))
	require.Len(t, binder.bindings, 1)
	assert.True(t, binder.bindings[0].Released())
}

func TestTenantMiddlewareReleasesOnPanic(t *testing.T) {
	tn := activeTenant("acme")
	resolver := &mockResolver{resolution: &tenant.Resolution{Tenant: tn, Strategy: tenant.StrategyHeader}}
	binder := &mockBinder{}
	mw := TenantMiddleware(resolver, binder, strictConfig())

	c, _ := newTestContext("acme.example.com", "/api/questions")
	handler := mw(func(c echo.Context) error {
		panic("handler panicked")
	})

	func() {
		defer func() {
			require.NotNil(t, recover())
		}()
		_ = handler(c)
	}()

	require.Len(t, binder.bindings, 1)
	assert.True(t, binder.bindings[0].Released(), "binding must be released even on panic")
}

func TestTenantMiddlewareBypassSkipsResolution(t *testing.T) {
	resolver := &mockResolver{}
	binder := &mockBinder{}
	mw := TenantMiddleware(resolver, binder, strictConfig())

	for _, path := range []string{"/health", "/metrics", "/api/tenants", "/admin/dashboard", "/auth/login"} {
		c, rec := newTestContext("acme.example.com", path)
		handler := mw(func(c echo.Context) error {
			_, ok := TenantFromContext(c)
			assert.False(t, ok, "bypassed request must not carry a tenant")
			return c.NoContent(http.StatusOK)
		})

		require.NoError(t, handler(c), path)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
	assert.Zero(t, resolver.calls, "bypassed paths must never hit the directory")
	assert.Empty(t, binder.bindings)
}

func TestTenantMiddlewareUnresolvedAPIRejected(t *testing.T) {
	resolver := &mockResolver{err: tenant.ErrUnresolved}
	binder := &mockBinder{}
	mw := TenantMiddleware(resolver, binder, strictConfig())

	c, rec := newTestContext("example.com", "/api/questions")
	handlerRan := false
	handler := mw(func(c echo.Context) error {
		handlerRan = true
		return c.NoContent(http.StatusOK)
	})

	require.NoError(t, handler(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, handlerRan)
}

func TestTenantMiddlewareUnresolvedAPILegacyMode(t *testing.T) {
	resolver := &mockResolver{err: tenant.ErrUnresolved}
	binder := &mockBinder{}
	cfg := &config.TenantConfig{SharedSchema: "public", AllowUnresolvedAPI: true}
	mw := TenantMiddleware(resolver, binder, cfg)

	c, rec := newTestContext("example.com", "/api/questions")
	handlerRan := false
	handler := mw(func(c echo.Context) error {
		handlerRan = true
		_, ok := TenantFromContext(c)
		assert.False(t, ok)
		return c.NoContent(http.StatusOK)
	})

	require.NoError(t, handler(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, handlerRan, "legacy mode serves unresolved API requests from the shared schema")
}

func TestTenantMiddlewareUnresolvedNonAPIProceeds(t *testing.T) {
	resolver := &mockResolver{err: tenant.ErrUnresolved}
	binder := &mockBinder{}
	mw := TenantMiddleware(resolver, binder, strictConfig())

	c, rec := newTestContext("example.com", "/")
	handler := mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	require.NoError(t, handler(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, binder.bindings)
}

func TestTenantMiddlewareDirectoryUnavailable(t *testing.T) {
	resolver := &mockResolver{err: tenant.ErrDirectoryUnavailable}
	binder := &mockBinder{}
	mw := TenantMiddleware(resolver, binder, strictConfig())

	c, rec := newTestContext("acme.example.com", "/api/questions")
	handler := mw(func(c echo.Context) error {
		t.Fatal("handler must not run when the directory is down")
		return nil
	})

	require.NoError(t, handler(c))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestTenantMiddlewareSchemaMissing(t *testing.T) {
	tn := activeTenant("acme")
	resolver := &mockResolver{resolution: &tenant.Resolution{Tenant: tn, Strategy: tenant.StrategySubdomain}}
	binder := &mockBinder{err: tenant.ErrSchemaMissing}
	mw := TenantMiddleware(resolver, binder, strictConfig())

	c, rec := newTestContext("acme.example.com", "/api/questions")
	handler := mw(func(c echo.Context) error {
		t.Fatal("handler must not run against a missing schema")
		return nil
	})

	require.NoError(t, handler(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not properly configured")
}

func TestTenantMiddlewareBindDirectoryUnavailable(t *testing.T) {
	tn := activeTenant("acme")
	resolver := &mockResolver{resolution: &tenant.Resolution{Tenant: tn, Strategy: tenant.StrategySubdomain}}
	binder := &mockBinder{err: tenant.ErrDirectoryUnavailable}
	mw := TenantMiddleware(resolver, binder, strictConfig())

	c, rec := newTestContext("acme.example.com", "/api/questions")
	handler := mw(func(c echo.Context) error { return nil })

	require.NoError(t, handler(c))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
