// Package middleware wires dumbstore into a net/http rendering pipeline.
//
// This package includes:
//   - Store: gives every request its own store.Store
//   - Hydrate: embeds the request's store into HTML responses
//   - Prometheus metrics for hydration
//   - OpenTelemetry request tracing
//
// The handlers are plain func(http.Handler) http.Handler values and plug into
// chi or any other router:
//
//	metrics := middleware.NewMetrics()
//
//	r := chi.NewRouter()
//	r.Use(middleware.OpenTelemetry())
//	r.Use(middleware.Store())
//	r.Use(middleware.Hydrate(middleware.WithRecorder(metrics)))
//
//	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
//	    s := store.MustFromContext(r.Context())
//	    s.Set(store.State{"user": currentUser(r)})
//	    render(w, s)
//	})
//
// A store is never shared between requests. Hydrate serializes it once the
// handler has returned, so the embedded state is whatever the handler left in
// it, and the store is reset afterwards.
//
// # Prometheus Metrics
//
//   - dumbstore_hydrations_total: hydrations by status ("ok" or "error")
//   - dumbstore_hydration_payload_bytes: size of the emitted script element
//   - dumbstore_hydration_keys: number of top-level keys serialized
//
// Expose them with promhttp:
//
//	r.Handle("/metrics", promhttp.Handler())
package middleware
