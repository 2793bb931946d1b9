package tenant

import (
	"context"

	"tenant-service/internal/model"
	"tenant-service/internal/schema"
	"tenant-service/prometheus"

	"go.uber.org/zap"
)

// SchemaManager is the DDL surface the lifecycle controller orchestrates.
type SchemaManager interface {
	CreateSchema(ctx context.Context, name string) error
	DropSchema(ctx context.Context, name string) error
	SchemaExists(ctx context.Context, name string) (bool, error)
	MigrateSchema(ctx context.Context, name string, modules []schema.Module) (*schema.MigrationResult, error)
}

// SettingsSeeder writes a tenant's default settings row inside its schema.
type SettingsSeeder interface {
	CreateDefaultSettings(ctx context.Context, t *model.Tenant) error
}

// Lifecycle orchestrates tenant provisioning and teardown as an explicit
// saga invoked synchronously by the creation and deletion operations:
//
//	created -> provisioning -> active
//	created -> provisioning -> provisioning_failed (retryable)
//	active -> suspended
//	active|suspended -> deleting -> gone
type Lifecycle struct {
	registry Registry
	schemas  SchemaManager
	seeder   SettingsSeeder
	modules  []schema.Module
	log      *zap.Logger
}

// NewLifecycle creates the lifecycle controller.
func NewLifecycle(registry Registry, schemas SchemaManager, seeder SettingsSeeder, modules []schema.Module, log *zap.Logger) *Lifecycle {
	return &Lifecycle{
		registry: registry,
		schemas:  schemas,
		seeder:   seeder,
		modules:  modules,
		log:      log,
	}
}

// CreateTenant inserts the directory row and provisions its schema. The row
// is committed before any DDL starts. On provisioning failure the row is
// kept in provisioning_failed state; callers must check readiness
// (SchemaExists) before treating the tenant as usable, and may retry or
// delete it.
func (l *Lifecycle) CreateTenant(ctx context.Context, req CreateRequest) (*model.Tenant, error) {
	t, err := l.registry.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := l.Provision(ctx, t); err != nil {
		return t, err
	}
	return t, nil
}

// Provision runs the provisioning saga: create schema, migrate the
// tenant-scoped table set, seed default settings. Any failure triggers a
// best-effort compensating schema drop and surfaces a ProvisionError. The
// shared search_path is never touched; all schema-bound work runs on
// dedicated connections.
func (l *Lifecycle) Provision(ctx context.Context, t *model.Tenant) error {
	log := l.log.With(zap.String("tenant", t.Slug), zap.String("schema", t.SchemaName))

	if err := l.registry.UpdateStatus(ctx, t.ID, model.TenantStatusProvisioning); err != nil {
		return err
	}
	t.Status = model.TenantStatusProvisioning

	if err := l.schemas.CreateSchema(ctx, t.SchemaName); err != nil {
		return l.failProvision(ctx, t, "create_schema", err)
	}

	if _, err := l.schemas.MigrateSchema(ctx, t.SchemaName, l.modules); err != nil {
		return l.failProvision(ctx, t, "migrate", err)
	}

	if err := l.seeder.CreateDefaultSettings(ctx, t); err != nil {
		return l.failProvision(ctx, t, "settings", err)
	}

	if err := l.registry.UpdateStatus(ctx, t.ID, model.TenantStatusActive); err != nil {
		return err
	}
	t.Status = model.TenantStatusActive

	prometheus.RecordProvisioning("success")
	log.Info("Tenant provisioned")
	return nil
}

// DeleteTenant drops the tenant's schema and removes the directory row. A
// failed drop is logged and counted but does not block row removal; the
// orphaned schema is left for operator reconciliation (see ListSchemas).
func (l *Lifecycle) DeleteTenant(ctx context.Context, t *model.Tenant) error {
	log := l.log.With(zap.String("tenant", t.Slug), zap.String("schema", t.SchemaName))

	if err := l.registry.UpdateStatus(ctx, t.ID, model.TenantStatusDeleting); err != nil {
		return err
	}
	t.Status = model.TenantStatusDeleting

	if err := l.schemas.DropSchema(ctx, t.SchemaName); err != nil {
		prometheus.RecordOrphanedSchema()
		log.Error("Schema drop failed during deletion, directory row removed anyway", zap.Error(err))
	}

	if err := l.registry.Remove(ctx, t.ID); err != nil {
		return err
	}

	prometheus.RecordTenantOperation("delete")
	log.Info("Tenant deleted")
	return nil
}

// Ready reports whether the tenant's schema physically exists.
func (l *Lifecycle) Ready(ctx context.Context, t *model.Tenant) (bool, error) {
	return l.schemas.SchemaExists(ctx, t.SchemaName)
}

func (l *Lifecycle) failProvision(ctx context.Context, t *model.Tenant, step string, cause error) error {
	log := l.log.With(zap.String("tenant", t.Slug), zap.String("schema", t.SchemaName))

	compensated := true
	if err := l.schemas.DropSchema(ctx, t.SchemaName); err != nil {
		compensated = false
		log.Error("Compensating schema drop failed", zap.Error(err))
	}

	if err := l.registry.UpdateStatus(ctx, t.ID, model.TenantStatusProvisioningFailed); err != nil {
		log.Error("Failed to mark tenant provisioning_failed", zap.Error(err))
	}
	t.Status = model.TenantStatusProvisioningFailed

	prometheus.RecordProvisioning("failure")
	log.Error("Tenant provisioning failed", zap.String("step", step), zap.Error(cause))

	return &ProvisionError{
		TenantID:    t.ID,
		Slug:        t.Slug,
		Step:        step,
		Compensated: compensated,
		Err:         cause,
	}
}
