package authz

// Chain evaluates policies in order; the first denial short-circuits the
// remaining policies.
type Chain struct {
	policies []Policy
}

func NewChain(policies ...Policy) *Chain {
	return &Chain{policies: policies}
}

func (c *Chain) Evaluate(ctx AuthorizationContext, resource Resource) Decision {
	for _, p := range c.policies {
		if d := p.Evaluate(ctx, resource); d.Denied {
			return d
		}
	}
	return Ok()
}
