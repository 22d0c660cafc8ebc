// Package gate is a small Gate/Policy authorization registry.
//
// A Gate maps resource types ("quote", "quote_item", "catalog") to policies.
// It knows nothing about the store; policies decide using whatever the host
// application gives them. The subject type is generic so the same gate works
// with a user id, an email or a full session value.
package gate

import "context"

// Gate is the central authorization checkpoint.
type Gate[U comparable] struct {
	policies map[string]Policy[U]
	fallback Policy[U]
}

// NewGate creates an empty Gate ready to register policies.
func NewGate[U comparable]() *Gate[U] {
	return &Gate[U]{policies: make(map[string]Policy[U])}
}

// Register adds a policy for a given resource type, replacing any previous one.
func (g *Gate[U]) Register(resourceType string, p Policy[U]) {
	g.policies[resourceType] = p
}

// Fallback sets the policy used for resource types without a registered policy.
func (g *Gate[U]) Fallback(p Policy[U]) {
	g.fallback = p
}

// Authorize returns ErrUnauthorized for a zero-value user or a denied action,
// and ErrNoPolicyDefined when neither a policy nor a fallback covers resourceType.
func (g *Gate[U]) Authorize(ctx context.Context, user U, action Action, resourceType string, resource any) error {
	var zero U
	if user == zero {
		return ErrUnauthorized
	}
	p, ok := g.policies[resourceType]
	if !ok {
		if g.fallback == nil {
			return ErrNoPolicyDefined
		}
		p = g.fallback
	}
	if !p.Can(ctx, user, action, resource) {
		return ErrUnauthorized
	}
	return nil
}

// Can is a convenience wrapper returning bool instead of error.
func (g *Gate[U]) Can(ctx context.Context, user U, action Action, resourceType string, resource any) bool {
	return g.Authorize(ctx, user, action, resourceType, resource) == nil
}
