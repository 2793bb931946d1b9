package tenant

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"tenant-service/internal/model"
	"tenant-service/internal/schema"
)

// HeaderTenantSlug is the explicit tenant selection header, the lowest
// priority resolution strategy.
const HeaderTenantSlug = "X-Tenant-Slug"

// Strategy identifies which resolution rule matched a request.
type Strategy string

const (
	StrategyDomain    Strategy = "domain"
	StrategySubdomain Strategy = "subdomain"
	StrategyPath      Strategy = "path"
	StrategyHeader    Strategy = "header"
)

// Resolution is a successful tenant match.
type Resolution struct {
	Tenant   *model.Tenant
	Strategy Strategy
}

// DirectoryLookup is the read-only directory surface the resolver needs.
type DirectoryLookup interface {
	ActiveBySlug(ctx context.Context, slug string) (*model.Tenant, error)
	ActiveByDomain(ctx context.Context, domain string) (*model.Tenant, error)
}

// Resolver maps request attributes to a tenant. Strategies run in fixed
// priority order and the first match wins:
//  1. exact custom-domain match
//  2. subdomain as slug (the reserved label "www" never matches)
//  3. path prefix /tenant/<slug>/
//  4. X-Tenant-Slug header
type Resolver struct {
	dir            DirectoryLookup
	bypassPrefixes []string
}

// DefaultBypassPrefixes are the administrative and API-documentation routes
// that always use the shared schema without any directory lookup.
func DefaultBypassPrefixes() []string {
	return []string{
		"/admin/",
		"/api/schema/",
		"/api/tenants",
		"/auth/",
		"/health",
		"/metrics",
	}
}

// NewResolver creates a resolver with the default bypass prefixes.
func NewResolver(dir DirectoryLookup) *Resolver {
	return &Resolver{dir: dir, bypassPrefixes: DefaultBypassPrefixes()}
}

// Bypass reports whether the path skips tenant resolution entirely.
func (r *Resolver) Bypass(path string) bool {
	for _, prefix := range r.bypassPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Resolve runs the strategy chain. It returns ErrUnresolved when no strategy
// matches an active tenant, and ErrDirectoryUnavailable when a lookup could
// not be answered at all; the two must never be conflated.
func (r *Resolver) Resolve(ctx context.Context, host, path string, header http.Header) (*Resolution, error) {
	host = normalizeHost(host)

	// Strategy 1: exact custom domain.
	if host != "" {
		t, err := r.dir.ActiveByDomain(ctx, host)
		if err == nil {
			return &Resolution{Tenant: t, Strategy: StrategyDomain}, nil
		}
		if !errors.Is(err, ErrTenantNotFound) {
			return nil, err
		}
	}

	// Strategy 2: leading host label as slug.
	if label, ok := subdomainLabel(host); ok {
		if t, err := r.lookupSlug(ctx, label); err == nil {
			return &Resolution{Tenant: t, Strategy: StrategySubdomain}, nil
		} else if !errors.Is(err, ErrTenantNotFound) {
			return nil, err
		}
	}

	// Strategy 3: /tenant/<slug>/ path prefix.
	if slug, ok := pathSlug(path); ok {
		if t, err := r.lookupSlug(ctx, slug); err == nil {
			return &Resolution{Tenant: t, Strategy: StrategyPath}, nil
		} else if !errors.Is(err, ErrTenantNotFound) {
			return nil, err
		}
	}

	// Strategy 4: explicit header.
	if slug := header.Get(HeaderTenantSlug); slug != "" {
		if t, err := r.lookupSlug(ctx, strings.ToLower(slug)); err == nil {
			return &Resolution{Tenant: t, Strategy: StrategyHeader}, nil
		} else if !errors.Is(err, ErrTenantNotFound) {
			return nil, err
		}
	}

	return nil, ErrUnresolved
}

// lookupSlug treats syntactically invalid slugs as non-matches rather than
// errors; arbitrary host labels and header values reach this point.
func (r *Resolver) lookupSlug(ctx context.Context, slug string) (*model.Tenant, error) {
	if err := schema.ValidateSlug(slug); err != nil {
		return nil, ErrTenantNotFound
	}
	return r.dir.ActiveBySlug(ctx, slug)
}

func normalizeHost(host string) string {
	host = strings.ToLower(host)
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	return host
}

// subdomainLabel returns the leading host label unless it is the reserved
// "www" or the host has no subdomain.
func subdomainLabel(host string) (string, bool) {
	if !strings.Contains(host, ".") {
		return "", false
	}
	label := host[:strings.IndexByte(host, '.')]
	if label == "" || label == "www" {
		return "", false
	}
	return label, true
}

// pathSlug extracts <slug> from /tenant/<slug>/... paths.
func pathSlug(path string) (string, bool) {
	const prefix = "/tenant/"
	if !strings.HasPrefix(path, prefix) {
		return "", false
	}
	rest := strings.TrimPrefix(path, prefix)
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}
	if rest == "" {
		return "", false
	}
	return strings.ToLower(rest), true
}
