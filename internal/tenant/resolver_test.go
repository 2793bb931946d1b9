package tenant

import (
	"context"
	"net/http"
	"testing"

	"tenant-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockDirectory implements DirectoryLookup for testing without a database
type mockDirectory struct {
	bySlug      map[string]*model.Tenant
	byDomain    map[string]*model.Tenant
	err         error
	slugCalls   int
	domainCalls int
}

func (m *mockDirectory) ActiveBySlug(ctx context.Context, slug string) (*model.Tenant, error) {
	m.slugCalls++
	if m.err != nil {
		return nil, m.err
	}
	if t, ok := m.bySlug[slug]; ok {
		return t, nil
	}
	return nil, ErrTenantNotFound
}

func (m *mockDirectory) ActiveByDomain(ctx context.Context, domain string) (*model.Tenant, error) {
	m.domainCalls++
	if m.err != nil {
		return nil, m.err
	}
	if t, ok := m.byDomain[domain]; ok {
		return t, nil
	}
	return nil, ErrTenantNotFound
}

func testTenant(slug string) *model.Tenant {
	return &model.Tenant{
		Name:       slug,
		Slug:       slug,
		SchemaName: "tenant_" + slug,
		Status:     model.TenantStatusActive,
		Active:     true,
	}
}

func TestResolveCustomDomain(t *testing.T) {
	acme := testTenant("acme")
	dir := &mockDirectory{byDomain: map[string]*model.Tenant{"hire.acme.com": acme}}
	r := NewResolver(dir)

	res, err := r.Resolve(context.Background(), "hire.acme.com", "/api/questions", http.Header{})
	require.NoError(t, err)
	assert.Equal(t, "acme", res.Tenant.Slug)
	assert.Equal(t, StrategyDomain, res.Strategy)
}

func TestResolveDomainPortAndCaseNormalized(t *testing.T) {
	acme := testTenant("acme")
	dir := &mockDirectory{byDomain: map[string]*model.Tenant{"hire.acme.com": acme}}
	r := NewResolver(dir)

	res, err := r.Resolve(context.Background(), "Hire.ACME.com:8443", "/", http.Header{})
	require.NoError(t, err)
	assert.Equal(t, "acme", res.Tenant.Slug)
}

func TestResolveSubdomain(t *testing.T) {
	acme := testTenant("acme")
	dir := &mockDirectory{bySlug: map[string]*model.Tenant{"acme": acme}}
	r := NewResolver(dir)

	res, err := r.Resolve(context.Background(), "acme.example.com", "/api/questions", http.Header{})
	require.NoError(t, err)
	assert.Equal(t, "acme", res.Tenant.Slug)
	assert.Equal(t, StrategySubdomain, res.Strategy)
}

func TestResolveSubdomainSkipsWWW(t *testing.T) {
	www := testTenant("www")
	dir := &mockDirectory{bySlug: map[string]*model.Tenant{"www": www}}
	r := NewResolver(dir)

	_, err := r.Resolve(context.Background(), "www.example.com", "/", http.Header{})
	assert.ErrorIs(t, err, ErrUnresolved)
}

func TestResolvePathPrefix(t *testing.T) {
	acme := testTenant("acme")
	dir := &mockDirectory{bySlug: map[string]*model.Tenant{"acme": acme}}
	r := NewResolver(dir)

	res, err := r.Resolve(context.Background(), "example.com", "/tenant/acme/interviews", http.Header{})
	require.NoError(t, err)
	assert.Equal(t, "acme", res.Tenant.Slug)
	assert.Equal(t, StrategyPath, res.Strategy)
}

func TestResolveHeader(t *testing.T) {
	acme := testTenant("acme")
	dir := &mockDirectory{bySlug: map[string]*model.Tenant{"acme": acme}}
	r := NewResolver(dir)

	header := http.Header{}
	header.Set(HeaderTenantSlug, "acme")

	res, err := r.Resolve(context.Background(), "example.com", "/api/questions", header)
	require.NoError(t, err)
	assert.Equal(t, "acme", res.Tenant.Slug)
	assert.Equal(t, StrategyHeader, res.Strategy)
}

func TestResolvePrecedenceDomainOverHeader(t *testing.T) {
	acme := testTenant("acme")
	other := testTenant("other")
	dir := &mockDirectory{
		byDomain: map[string]*model.Tenant{"acme.example.com": acme},
		bySlug:   map[string]*model.Tenant{"other": other, "acme": acme},
	}
	r := NewResolver(dir)

	header := http.Header{}
	header.Set(HeaderTenantSlug, "other")

	res, err := r.Resolve(context.Background(), "acme.example.com", "/", header)
	require.NoError(t, err)
	assert.Equal(t, "acme", res.Tenant.Slug)
	assert.Equal(t, StrategyDomain, res.Strategy)
}

func TestResolvePrecedenceSubdomainOverHeader(t *testing.T) {
	acme := testTenant("acme")
	other := testTenant("other")
	dir := &mockDirectory{bySlug: map[string]*model.Tenant{"acme": acme, "other": other}}
	r := NewResolver(dir)

	header := http.Header{}
	header.Set(HeaderTenantSlug, "other")

	res, err := r.Resolve(context.Background(), "acme.example.com", "/", header)
	require.NoError(t, err)
	assert.Equal(t, "acme", res.Tenant.Slug)
	assert.Equal(t, StrategySubdomain, res.Strategy)
}

func TestResolveUnresolved(t *testing.T) {
	dir := &mockDirectory{}
	r := NewResolver(dir)

	_, err := r.Resolve(context.Background(), "example.com", "/", http.Header{})
	assert.ErrorIs(t, err, ErrUnresolved)
}

func TestResolveDirectoryUnavailableAborts(t *testing.T) {
	dir := &mockDirectory{err: ErrDirectoryUnavailable}
	r := NewResolver(dir)

	// An unreachable directory must never be reported as "unresolved"
	_, err := r.Resolve(context.Background(), "acme.example.com", "/", http.Header{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDirectoryUnavailable)
	assert.NotErrorIs(t, err, ErrUnresolved)
}

func TestResolveInvalidSlugLabelsNeverReachDirectory(t *testing.T) {
	dir := &mockDirectory{}
	r := NewResolver(dir)

	header := http.Header{}
	header.Set(HeaderTenantSlug, "acme;drop schema")

	_, err := r.Resolve(context.Background(), "UPPER-case.example.com", "/tenant/Bad;Slug/x", header)
	assert.ErrorIs(t, err, ErrUnresolved)
	// Domain lookup runs once; the malformed slug candidates are filtered
	// before any slug lookup
	assert.Equal(t, 0, dir.slugCalls)
}

func TestBypassPaths(t *testing.T) {
	r := NewResolver(&mockDirectory{})

	assert.True(t, r.Bypass("/admin/tenants"))
	assert.True(t, r.Bypass("/api/schema/swagger.json"))
	assert.True(t, r.Bypass("/api/tenants"))
	assert.True(t, r.Bypass("/health"))
	assert.True(t, r.Bypass("/metrics"))
	assert.True(t, r.Bypass("/auth/login"))

	assert.False(t, r.Bypass("/api/questions"))
	assert.False(t, r.Bypass("/api/settings"))
	assert.False(t, r.Bypass("/tenant/acme/interviews"))
}

func TestPathSlugExtraction(t *testing.T) {
	cases := map[string]struct {
		slug string
		ok   bool
	}{
		"/tenant/acme/interviews": {"acme", true},
		"/tenant/acme":            {"acme", true},
		"/tenant/ACME/x":          {"acme", true},
		"/tenant/":                {"", false},
		"/api/questions":          {"", false},
	}
	for path, want := range cases {
		slug, ok := pathSlug(path)
		assert.Equal(t, want.ok, ok, "path %q", path)
		if want.ok {
			assert.Equal(t, want.slug, slug, "path %q", path)
		}
	}
}
