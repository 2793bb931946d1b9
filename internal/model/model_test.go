package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvable(t *testing.T) {
	tests := []struct {
		name   string
		tenant Tenant
		want   bool
	}{
		{"active", Tenant{Active: true, Status: TenantStatusActive}, true},
		{"created but not provisioned", Tenant{Active: true, Status: TenantStatusCreated}, true},
		{"suspended", Tenant{Active: false, Status: TenantStatusSuspended}, false},
		{"suspended with stale active flag", Tenant{Active: true, Status: TenantStatusSuspended}, false},
		{"deleting", Tenant{Active: true, Status: TenantStatusDeleting}, false},
		{"deactivated", Tenant{Active: false, Status: TenantStatusActive}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.tenant.Resolvable())
		})
	}
}

func TestValidPlan(t *testing.T) {
	for _, plan := range []string{PlanFree, PlanBasic, PlanPremium, PlanEnterprise} {
		assert.True(t, ValidPlan(plan), plan)
	}
	assert.False(t, ValidPlan(""))
	assert.False(t, ValidPlan("platinum"))
}

func TestUserPassword(t *testing.T) {
	u := &User{Email: "ops@example.com"}
	require.NoError(t, u.SetPassword("swordfish"))

	assert.NotEqual(t, "swordfish", u.PasswordHash)
	assert.True(t, u.CheckPassword("swordfish"))
	assert.False(t, u.CheckPassword("Swordfish"))
	assert.False(t, u.CheckPassword(""))
}
