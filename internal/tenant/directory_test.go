package tenant

import (
	"context"
	"testing"

	"tenant-service/internal/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Validation happens before any database access, so these run against a
// directory with no handle at all.

func TestDirectoryCreateRejectsInvalidSlug(t *testing.T) {
	d := NewDirectory(nil)

	for _, slug := range []string{
		"",
		"Acme Corp",
		"acme-corp",
		"9lives",
		"acme;drop schema public cascade",
		"acme\"",
	} {
		_, err := d.Create(context.Background(), CreateRequest{Name: "Acme", Slug: slug})
		assert.Error(t, err, "slug %q", slug)
	}
}

func TestDirectoryCreateRejectsUnknownPlan(t *testing.T) {
	d := NewDirectory(nil)
	_, err := d.Create(context.Background(), CreateRequest{Name: "Acme", Slug: "acme", Plan: "platinum"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "platinum")
}

func TestDirectoryCreateNormalizesSlugBeforeValidation(t *testing.T) {
	d := NewDirectory(nil)
	// Uppercase and surrounding whitespace are normalized away, so only the
	// lowercase form must be a valid identifier.
	_, err := d.Create(context.Background(), CreateRequest{Name: "Acme", Slug: "  ACME!  "})
	assert.Error(t, err, "normalization must not mask invalid characters")

	require.NoError(t, schema.ValidateSlug("acme"))
}

func TestNormalizeDomain(t *testing.T) {
	assert.Nil(t, normalizeDomain(nil))

	empty := "   "
	assert.Nil(t, normalizeDomain(&empty))

	mixed := "  App.Acme.COM "
	got := normalizeDomain(&mixed)
	require.NotNil(t, got)
	assert.Equal(t, "app.acme.com", *got)
}
