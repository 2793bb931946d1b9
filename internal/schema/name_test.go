package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaNameDerivation(t *testing.T) {
	assert.Equal(t, "tenant_acme", SchemaName("acme"))
	assert.Equal(t, "tenant_acme_corp", SchemaName("acme_corp"))

	// Deterministic: same slug always yields the same name
	assert.Equal(t, SchemaName("acme"), SchemaName("acme"))
}

func TestSchemaNameInjective(t *testing.T) {
	// Distinct valid slugs must never collide
	slugs := []string{"acme", "acme2", "acme_corp", "a", "globex", "initech"}
	seen := make(map[string]string)
	for _, slug := range slugs {
		require.NoError(t, ValidateSlug(slug))
		name := SchemaName(slug)
		prev, dup := seen[name]
		require.False(t, dup, "slugs %q and %q collided on %q", prev, slug, name)
		seen[name] = slug
	}
}

func TestValidateSlug(t *testing.T) {
	valid := []string{"acme", "a", "acme_corp", "tenant42", "z9"}
	for _, slug := range valid {
		assert.NoError(t, ValidateSlug(slug), "slug %q should be valid", slug)
	}

	invalid := []string{
		"",
		"Acme",             // uppercase
		"9lives",           // leading digit
		"_acme",            // leading underscore
		"acme-corp",        // hyphen
		"acme corp",        // space
		"acme;drop schema", // injection attempt
		`acme"`,            // quote
		"acmé",             // non-ascii
		strings.Repeat("a", maxSlugLen+1),
	}
	for _, slug := range invalid {
		assert.Error(t, ValidateSlug(slug), "slug %q should be rejected", slug)
	}
}

func TestValidateSlugLengthBound(t *testing.T) {
	// The longest valid slug still derives a legal identifier
	slug := "a" + strings.Repeat("b", maxSlugLen-1)
	require.NoError(t, ValidateSlug(slug))
	assert.LessOrEqual(t, len(SchemaName(slug)), maxIdentifierLen)
}

func TestValidateSchemaName(t *testing.T) {
	assert.NoError(t, ValidateSchemaName("tenant_acme"))
	assert.NoError(t, ValidateSchemaName("public"))

	assert.Error(t, ValidateSchemaName(""))
	assert.Error(t, ValidateSchemaName("tenant_acme; drop schema public"))
	assert.Error(t, ValidateSchemaName(`tenant_"acme"`))
	assert.Error(t, ValidateSchemaName("Tenant_Acme"))
	assert.Error(t, ValidateSchemaName(strings.Repeat("a", maxIdentifierLen+1)))
}
