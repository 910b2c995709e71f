package store

import "context"

type contextKey struct{}

// NewContext returns a copy of ctx carrying s. Use it to hand a request's
// store to everything that renders that request.
func NewContext(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the store carried by ctx.
func FromContext(ctx context.Context) (*Store, bool) {
	s, ok := ctx.Value(contextKey{}).(*Store)
	return s, ok && s != nil
}

// MustFromContext is like FromContext but panics when ctx carries no store.
func MustFromContext(ctx context.Context) *Store {
	s, ok := FromContext(ctx)
	if !ok {
		panic("store: no store in context")
	}
	return s
}
