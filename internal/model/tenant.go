package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TenantStatus tracks a tenant through its provisioning lifecycle
type TenantStatus string

const (
	TenantStatusCreated            TenantStatus = "created"
	TenantStatusProvisioning       TenantStatus = "provisioning"
	TenantStatusActive             TenantStatus = "active"
	TenantStatusProvisioningFailed TenantStatus = "provisioning_failed"
	TenantStatusSuspended          TenantStatus = "suspended"
	TenantStatusDeleting           TenantStatus = "deleting"
)

// Plan tiers
const (
	PlanFree       = "free"
	PlanBasic      = "basic"
	PlanPremium    = "premium"
	PlanEnterprise = "enterprise"
)

// ValidPlan reports whether plan is a known subscription tier
func ValidPlan(plan string) bool {
	switch plan {
	case PlanFree, PlanBasic, PlanPremium, PlanEnterprise:
		return true
	}
	return false
}

// Tenant represents a company/organization in the shared schema. Each tenant
// owns a private PostgreSQL schema named SchemaName holding its full set of
// tenant-scoped tables.
type Tenant struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string    `json:"name" gorm:"type:varchar(255);not null"`
	Slug        string    `json:"slug" gorm:"type:varchar(50);uniqueIndex;not null"`
	SchemaName  string    `json:"schema_name" gorm:"type:varchar(63);uniqueIndex;not null"`
	Domain      *string   `json:"domain,omitempty" gorm:"type:varchar(255);uniqueIndex"`
	Description string    `json:"description" gorm:"type:text"`

	// Subscription details
	Plan   string       `json:"plan" gorm:"type:varchar(20);default:'free'"`
	Status TenantStatus `json:"status" gorm:"type:varchar(30);default:'created';index"`
	Active bool         `json:"active" gorm:"default:true"`

	// Usage quotas
	AllowPublicSignup bool `json:"allow_public_signup" gorm:"default:false"`
	MaxInterviews     int  `json:"max_interviews" gorm:"default:10"`
	MaxQuestions      int  `json:"max_questions" gorm:"default:50"`
	MaxCandidates     int  `json:"max_candidates" gorm:"default:100"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName keeps the directory table in the shared schema regardless of the
// session search_path.
func (Tenant) TableName() string {
	return "public.tenants"
}

// BeforeCreate assigns the tenant ID
func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Resolvable reports whether resolution strategies may match this tenant
func (t *Tenant) Resolvable() bool {
	return t.Active && t.Status != TenantStatusSuspended && t.Status != TenantStatusDeleting
}
