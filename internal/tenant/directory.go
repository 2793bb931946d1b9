package tenant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tenant-service/internal/model"
	"tenant-service/internal/schema"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateRequest carries the caller-supplied tenant attributes.
type CreateRequest struct {
	Name        string
	Slug        string
	Domain      *string
	Description string
	Plan        string
}

// Registry is the directory surface the lifecycle controller depends on.
type Registry interface {
	Create(ctx context.Context, req CreateRequest) (*model.Tenant, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.TenantStatus) error
	Remove(ctx context.Context, id uuid.UUID) error
}

// Directory is the authoritative store of tenant metadata in the shared
// schema.
type Directory struct {
	db *gorm.DB
}

// NewDirectory creates a directory over the shared database handle.
func NewDirectory(db *gorm.DB) *Directory {
	return &Directory{db: db}
}

// Create inserts a new tenant row. The schema name is derived from the slug
// exactly once here and never recomputed. Slug and domain uniqueness is
// enforced by the database; a duplicate fails with ErrConflict and leaves
// the existing tenant untouched.
func (d *Directory) Create(ctx context.Context, req CreateRequest) (*model.Tenant, error) {
	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	if err := schema.ValidateSlug(slug); err != nil {
		return nil, err
	}
	plan := req.Plan
	if plan == "" {
		plan = model.PlanFree
	}
	if !model.ValidPlan(plan) {
		return nil, fmt.Errorf("unknown plan %q", plan)
	}

	t := &model.Tenant{
		Name:        req.Name,
		Slug:        slug,
		SchemaName:  schema.SchemaName(slug),
		Domain:      normalizeDomain(req.Domain),
		Description: req.Description,
		Plan:        plan,
		Status:      model.TenantStatusCreated,
		Active:      true,
	}

	if err := d.db.WithContext(ctx).Create(t).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: slug %q", ErrConflict, slug)
		}
		return nil, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	}
	return t, nil
}

// FindByID returns the tenant regardless of status.
func (d *Directory) FindByID(ctx context.Context, id uuid.UUID) (*model.Tenant, error) {
	var t model.Tenant
	err := d.db.WithContext(ctx).First(&t, "id = ?", id).Error
	return d.mapResult(&t, err)
}

// FindBySlug returns the tenant regardless of status.
func (d *Directory) FindBySlug(ctx context.Context, slug string) (*model.Tenant, error) {
	var t model.Tenant
	err := d.db.WithContext(ctx).First(&t, "slug = ?", slug).Error
	return d.mapResult(&t, err)
}

// ActiveBySlug returns the tenant only if resolution strategies may match
// it. Suspended and deleting tenants are not resolvable.
func (d *Directory) ActiveBySlug(ctx context.Context, slug string) (*model.Tenant, error) {
	var t model.Tenant
	err := d.db.WithContext(ctx).
		Where("slug = ? AND active = ?", slug, true).
		Where("status NOT IN ?", []model.TenantStatus{model.TenantStatusSuspended, model.TenantStatusDeleting}).
		First(&t).Error
	return d.mapResult(&t, err)
}

// ActiveByDomain returns the resolvable tenant with the given custom domain.
func (d *Directory) ActiveByDomain(ctx context.Context, domain string) (*model.Tenant, error) {
	var t model.Tenant
	err := d.db.WithContext(ctx).
		Where("domain = ? AND active = ?", domain, true).
		Where("status NOT IN ?", []model.TenantStatus{model.TenantStatusSuspended, model.TenantStatusDeleting}).
		First(&t).Error
	return d.mapResult(&t, err)
}

// List returns all non-deleted tenants ordered by creation time.
func (d *Directory) List(ctx context.Context) ([]model.Tenant, error) {
	var tenants []model.Tenant
	if err := d.db.WithContext(ctx).Order("created_at DESC").Find(&tenants).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	}
	return tenants, nil
}

// UpdateStatus moves the tenant through its lifecycle state machine.
func (d *Directory) UpdateStatus(ctx context.Context, id uuid.UUID, status model.TenantStatus) error {
	updates := map[string]interface{}{"status": status}
	if status == model.TenantStatusSuspended {
		updates["active"] = false
	}
	if status == model.TenantStatusActive {
		updates["active"] = true
	}
	result := d.db.WithContext(ctx).Model(&model.Tenant{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("%w: %v", ErrDirectoryUnavailable, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTenantNotFound
	}
	return nil
}

// Deactivate suspends the tenant. The schema is retained; resolution
// strategies skip suspended tenants.
func (d *Directory) Deactivate(ctx context.Context, id uuid.UUID) error {
	return d.UpdateStatus(ctx, id, model.TenantStatusSuspended)
}

// SoftDelete marks the directory row deleted without touching the schema.
// The row disappears from listings and resolution but the tenant's data is
// retained for later restoration or audit.
func (d *Directory) SoftDelete(ctx context.Context, id uuid.UUID) error {
	result := d.db.WithContext(ctx).Delete(&model.Tenant{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("%w: %v", ErrDirectoryUnavailable, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTenantNotFound
	}
	return nil
}

// Remove hard-deletes the directory row. The tenant's schema is handled by
// the lifecycle controller before this is called.
func (d *Directory) Remove(ctx context.Context, id uuid.UUID) error {
	result := d.db.WithContext(ctx).Unscoped().Delete(&model.Tenant{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("%w: %v", ErrDirectoryUnavailable, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTenantNotFound
	}
	return nil
}

func (d *Directory) mapResult(t *model.Tenant, err error) (*model.Tenant, error) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	}
	return t, nil
}

func normalizeDomain(domain *string) *string {
	if domain == nil {
		return nil
	}
	d := strings.ToLower(strings.TrimSpace(*domain))
	if d == "" {
		return nil
	}
	return &d
}
