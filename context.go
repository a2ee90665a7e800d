package inject

import "context"

type resolverKey struct{}

// NewContext returns a copy of ctx carrying r.
func NewContext(ctx context.Context, r Resolver) context.Context {
	return context.WithValue(ctx, resolverKey{}, r)
}

// FromContext returns the resolver carried by ctx.
func FromContext(ctx context.Context) (Resolver, bool) {
	if ctx == nil {
		return nil, false
	}
	r, ok := ctx.Value(resolverKey{}).(Resolver)
	return r, ok
}
