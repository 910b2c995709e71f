// Package hydrate moves store state from a server render into the page and
// back out again on the client.
//
// Serialize snapshots a store, encodes it as JSON and returns a script element
// of the form
//
//	<script>window["__DUMB__"] = {"user":{"id":1}}</script>
//
// then resets the store so the next render that reuses it starts clean. The
// JSON is HTML-escaped, so a value containing "</script>" cannot end the
// element early. Inject places the fragment just before </body>.
//
// Execute is the client half: it finds the hydration script in a fragment or a
// whole document and assigns the slot on a store.Window, after which
// store.New(store.WithWindow(w)) sees the server's state.
package hydrate
