package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTenantScopingPolicyDeniesCrossTenantAccess(t *testing.T) {
	p := NewTenantScopingPolicy()
	ctx := AuthorizationContext{Principal: Principal{ID: "u1", TenantID: "tenant-a"}}
	resource := Resource{Type: "document", ID: "doc-1", TenantID: "tenant-b"}

	d := p.Evaluate(ctx, resource)
	assert.True(t, d.Denied)
	assert.NotEmpty(t, d.Reason)
}

func TestTenantScopingPolicyAllowsAdminOverride(t *testing.T) {
	p := NewTenantScopingPolicy()
	ctx := AuthorizationContext{Principal: Principal{ID: "u1", TenantID: "tenant-a", IsAdmin: true}}
	resource := Resource{Type: "document", ID: "doc-1", TenantID: "tenant-b"}

	assert.True(t, p.Evaluate(ctx, resource).Allowed())
}

func TestTenantScopingPolicyAllowsWhenResourceHasNoTenant(t *testing.T) {
	p := NewTenantScopingPolicy()
	ctx := AuthorizationContext{Principal: Principal{ID: "u1", TenantID: "tenant-a"}}
	resource := Resource{Type: "document", ID: "doc-1"}

	assert.True(t, p.Evaluate(ctx, resource).Allowed())
}

func TestRbacPolicyDeniesMissingRole(t *testing.T) {
	p := NewRbacPolicy(map[string][]string{"document": {"editor", "owner"}})
	ctx := AuthorizationContext{Principal: Principal{ID: "u1", Roles: []string{"viewer"}}}
	resource := Resource{Type: "document", ID: "doc-1"}

	d := p.Evaluate(ctx, resource)
	assert.True(t, d.Denied)
}

func TestRbacPolicyAllowsMatchingRole(t *testing.T) {
	p := NewRbacPolicy(map[string][]string{"document": {"editor", "owner"}})
	ctx := AuthorizationContext{Principal: Principal{ID: "u1", Roles: []string{"editor"}}}
	resource := Resource{Type: "document", ID: "doc-1"}

	assert.True(t, p.Evaluate(ctx, resource).Allowed())
}

func TestRbacPolicyDefaultsToAllowForUndefinedResourceType(t *testing.T) {
	p := NewRbacPolicy(map[string][]string{"document": {"editor"}})
	ctx := AuthorizationContext{Principal: Principal{ID: "u1"}}
	resource := Resource{Type: "snapshot", ID: "s1"}

	assert.True(t, p.Evaluate(ctx, resource).Allowed())
}

func TestResourceOwnershipPolicyDeniesNonOwner(t *testing.T) {
	p := NewResourceOwnershipPolicy(map[string]string{"doc-1": "u1"})
	ctx := AuthorizationContext{Principal: Principal{ID: "u2"}}
	resource := Resource{Type: "document", ID: "doc-1"}

	d := p.Evaluate(ctx, resource)
	assert.True(t, d.Denied)
}

func TestResourceOwnershipPolicyAllowsOwner(t *testing.T) {
	p := NewResourceOwnershipPolicy(map[string]string{"doc-1": "u1"})
	ctx := AuthorizationContext{Principal: Principal{ID: "u1"}}
	resource := Resource{Type: "document", ID: "doc-1"}

	assert.True(t, p.Evaluate(ctx, resource).Allowed())
}

func TestResourceOwnershipPolicyAllowsAdminOverride(t *testing.T) {
	p := NewResourceOwnershipPolicy(map[string]string{"doc-1": "u1"})
	ctx := AuthorizationContext{Principal: Principal{ID: "u2", IsAdmin: true}}
	resource := Resource{Type: "document", ID: "doc-1"}

	assert.True(t, p.Evaluate(ctx, resource).Allowed())
}

func TestChainShortCircuitsOnFirstDenial(t *testing.T) {
	chain := NewChain(
		NewTenantScopingPolicy(),
		NewRbacPolicy(map[string][]string{"document": {"editor"}}),
		NewResourceOwnershipPolicy(map[string]string{"doc-1": "u1"}),
	)
	ctx := AuthorizationContext{Principal: Principal{ID: "u2", TenantID: "tenant-b", Roles: []string{"viewer"}}}
	resource := Resource{Type: "document", ID: "doc-1", TenantID: "tenant-a"}

	d := chain.Evaluate(ctx, resource)
	assert.True(t, d.Denied)
	assert.Contains(t, d.Reason, "tenant")
}

func TestChainAllowsWhenEveryPolicyPasses(t *testing.T) {
	chain := NewChain(
		NewTenantScopingPolicy(),
		NewRbacPolicy(map[string][]string{"document": {"editor"}}),
		NewResourceOwnershipPolicy(map[string]string{"doc-1": "u1"}),
	)
	ctx := AuthorizationContext{Principal: Principal{ID: "u1", TenantID: "tenant-a", Roles: []string{"editor"}}}
	resource := Resource{Type: "document", ID: "doc-1", TenantID: "tenant-a"}

	assert.True(t, chain.Evaluate(ctx, resource).Allowed())
}
