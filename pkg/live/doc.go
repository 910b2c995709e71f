// Package live keeps a client view in sync with a store over a WebSocket.
//
// Each connection is treated as one page: it gets its own store.Window and an
// interactive store bound to it. The store's observer pushes the full state to
// the client after every change, and the client changes state by sending
//
//	{"set": {"count": 2}}
//
// which is applied with Store.Set. The server answers every change with
//
//	{"state": {"count": 2, ...}}
//
// Connections never share a window.
package live
