// Package store provides the key/value state shared between a server render
// and the client that boots from it.
//
// A Store holds a flat State (string keys, JSON-serializable values) and a
// single observer that is called after every change. The same type is used on
// both sides of a page:
//
//   - On the server a Store has no Window. Its state lives in the instance and
//     must be scoped to one request; construct a new Store per request and pass
//     it down with NewContext.
//   - On the client a Store is bound to a Window. The Window's global slot is
//     authoritative: Get and All re-read it on every call and Set writes the
//     merged state back to it, so every Store on the same Window sees the same
//     data.
//
// Usage:
//
//	// Server
//	s := store.New()
//	s.Set(store.State{"user": map[string]any{"id": 1, "name": "a"}})
//	fragment, err := hydrate.Serialize(s) // snapshots, then resets s
//
//	// Client
//	w := store.NewWindow()
//	_ = hydrate.Execute(string(fragment), w)
//	s := store.New(store.WithWindow(w))
//	s.Observe(rerender)
//	user := s.Get("user")
//
// A Store is not safe for concurrent use.
package store
