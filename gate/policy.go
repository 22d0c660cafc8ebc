package gate

import "context"

// Policy defines authorization rules for a resource type.
// For list/create the resource may be nil.
type Policy[U any] interface {
	Can(ctx context.Context, user U, action Action, resource any) bool
}

// PolicyFunc adapts a plain function to Policy.
type PolicyFunc[U any] func(ctx context.Context, user U, action Action, resource any) bool

// Can calls f.
func (f PolicyFunc[U]) Can(ctx context.Context, user U, action Action, resource any) bool {
	return f(ctx, user, action, resource)
}

// ReadOnly wraps a policy and denies every action that mutates the resource.
func ReadOnly[U any](inner Policy[U]) Policy[U] {
	return PolicyFunc[U](func(ctx context.Context, user U, action Action, resource any) bool {
		if action != ActionView && action != ActionList {
			return false
		}
		return inner.Can(ctx, user, action, resource)
	})
}
