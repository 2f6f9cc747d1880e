package authz

// TenantScopingPolicy denies access when the resource carries a tenant id
// that does not match the principal's, unless the principal is an admin.
type TenantScopingPolicy struct{}

func NewTenantScopingPolicy() *TenantScopingPolicy {
	return &TenantScopingPolicy{}
}

func (p *TenantScopingPolicy) Evaluate(ctx AuthorizationContext, resource Resource) Decision {
	if resource.TenantID == "" {
		return Ok()
	}
	if ctx.Principal.IsAdmin {
		return Ok()
	}
	if resource.TenantID != ctx.Principal.TenantID {
		return PermissionDenied("resource belongs to a different tenant")
	}
	return Ok()
}

// RbacPolicy looks up the allowed roles for a resource type; the principal
// needs any one of them. Resource types absent from the table default to
// allow, matching the "undefined resource-types default to allow" rule.
type RbacPolicy struct {
	allowedRoles map[string][]string
}

func NewRbacPolicy(allowedRoles map[string][]string) *RbacPolicy {
	return &RbacPolicy{allowedRoles: allowedRoles}
}

func (p *RbacPolicy) Evaluate(ctx AuthorizationContext, resource Resource) Decision {
	roles, ok := p.allowedRoles[resource.Type]
	if !ok {
		return Ok()
	}
	for _, role := range roles {
		if ctx.Principal.HasRole(role) {
			return Ok()
		}
	}
	return PermissionDenied("principal lacks a role permitted for resource type " + resource.Type)
}

// ResourceOwnershipPolicy denies non-owners, unless the principal is an
// admin. A registry maps resource id to owner id; a resource absent from
// the registry falls back to its OwnerID, and one with neither (or whose
// owner is empty) has nothing to scope on and defers.
type ResourceOwnershipPolicy struct {
	owners map[string]string
}

func NewResourceOwnershipPolicy(owners map[string]string) *ResourceOwnershipPolicy {
	return &ResourceOwnershipPolicy{owners: owners}
}

func (p *ResourceOwnershipPolicy) Evaluate(ctx AuthorizationContext, resource Resource) Decision {
	owner, ok := p.owners[resource.ID]
	if !ok && resource.OwnerID == "" {
		return Ok()
	}
	if !ok {
		owner = resource.OwnerID
	}
	if owner == "" {
		return Ok()
	}
	if ctx.Principal.IsAdmin {
		return Ok()
	}
	if owner != ctx.Principal.ID {
		return PermissionDenied("principal does not own resource " + resource.ID)
	}
	return Ok()
}
