package store

import "sync"

// Window is the root object of an interactive environment. Named globals set
// on it are visible to every Store bound to the same Window.
type Window struct {
	mu      sync.RWMutex
	globals map[string]any
}

// NewWindow creates an empty Window.
func NewWindow() *Window {
	return &Window{globals: make(map[string]any)}
}

// Global returns the global with the given name.
func (w *Window) Global(name string) (any, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	v, ok := w.globals[name]
	return v, ok
}

// SetGlobal assigns the global with the given name.
func (w *Window) SetGlobal(name string, value any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.globals == nil {
		w.globals = make(map[string]any)
	}
	w.globals[name] = value
}

// DeleteGlobal removes the global with the given name.
func (w *Window) DeleteGlobal(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.globals, name)
}
