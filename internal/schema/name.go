package schema

import (
	"fmt"
	"regexp"
)

// SchemaPrefix is prepended to every tenant slug to form the schema name.
const SchemaPrefix = "tenant_"

// maxIdentifierLen is PostgreSQL's identifier length limit.
const maxIdentifierLen = 63

// maxSlugLen keeps the derived schema name within the identifier limit.
const maxSlugLen = maxIdentifierLen - len(SchemaPrefix)

// Slugs are restricted to an identifier-safe allow-list so tenant-derived
// strings can never smuggle anything into DDL. Leading character must be a
// letter, matching PostgreSQL's unquoted identifier rules.
var slugPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

var schemaNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// ValidateSlug checks that slug is safe to derive a schema name from.
func ValidateSlug(slug string) error {
	if slug == "" {
		return fmt.Errorf("slug must not be empty")
	}
	if len(slug) > maxSlugLen {
		return fmt.Errorf("slug %q exceeds %d characters", slug, maxSlugLen)
	}
	if !slugPattern.MatchString(slug) {
		return fmt.Errorf("slug %q contains characters outside [a-z0-9_] or does not start with a letter", slug)
	}
	return nil
}

// SchemaName derives the tenant schema name from a slug. The derivation is
// deterministic and injective over valid slugs: two distinct slugs can never
// collide. It is computed once at tenant creation and never recomputed.
func SchemaName(slug string) string {
	return SchemaPrefix + slug
}

// ValidateSchemaName checks a schema name before it is used in any DDL
// statement. Names are re-validated at the store boundary even though they
// are derived from validated slugs: every identifier that reaches DDL passes
// the allow-list.
func ValidateSchemaName(name string) error {
	if name == "" {
		return fmt.Errorf("schema name must not be empty")
	}
	if len(name) > maxIdentifierLen {
		return fmt.Errorf("schema name %q exceeds %d characters", name, maxIdentifierLen)
	}
	if !schemaNamePattern.MatchString(name) {
		return fmt.Errorf("schema name %q contains characters outside [a-z0-9_] or does not start with a letter", name)
	}
	return nil
}
