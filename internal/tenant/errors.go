package tenant

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrTenantNotFound means the directory has no matching tenant row.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrConflict means the slug or domain is already taken. The existing
	// tenant is untouched.
	ErrConflict = errors.New("tenant slug or domain already in use")

	// ErrDirectoryUnavailable means the shared schema could not be queried.
	// Distinct from ErrTenantNotFound: resolution must abort rather than
	// default to the shared schema, which would risk cross-tenant exposure.
	ErrDirectoryUnavailable = errors.New("tenant directory unavailable")

	// ErrUnresolved means no resolution strategy matched an active tenant.
	ErrUnresolved = errors.New("no tenant resolved for request")

	// ErrSchemaMissing means the tenant row is active but its physical
	// schema does not exist. Always fatal for the request.
	ErrSchemaMissing = errors.New("tenant schema does not exist")
)

// ProvisionError describes a failed provisioning step and whether the
// compensating schema drop succeeded.
type ProvisionError struct {
	TenantID    uuid.UUID
	Slug        string
	Step        string
	Compensated bool
	Err         error
}

func (e *ProvisionError) Error() string {
	return fmt.Sprintf("provisioning tenant %s failed at %s (compensated=%t): %v",
		e.Slug, e.Step, e.Compensated, e.Err)
}

func (e *ProvisionError) Unwrap() error {
	return e.Err
}
