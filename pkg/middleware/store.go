package middleware

import (
	"net/http"

	"github.com/vango-dev/dumbstore/pkg/store"
)

// Store creates a fresh store for every request and makes it available
// through store.FromContext. opts are applied to each new store.
func Store(opts ...store.Option) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := store.New(opts...)
			next.ServeHTTP(w, r.WithContext(store.NewContext(r.Context(), s)))
		})
	}
}
