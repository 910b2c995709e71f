package store

import (
	"log/slog"
	"maps"
)

// DefaultSlot is the name of the global that carries the state from the
// server-rendered page to the client.
const DefaultSlot = "__DUMB__"

// State is the store's flat mapping of keys to JSON-serializable values.
type State map[string]any

// Store holds a State and notifies a single observer on change.
type Store struct {
	state    State
	window   *Window
	slot     string
	observer func()
	logger   *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithWindow binds the store to an interactive environment. The window's
// global slot becomes the source of truth for reads and is written on Set.
func WithWindow(w *Window) Option {
	return func(s *Store) {
		s.window = w
	}
}

// WithSlot overrides the global slot name. Serializer and client must agree.
func WithSlot(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.slot = name
		}
	}
}

// WithInitialState seeds a server-side store. The map is copied. It is
// ignored for stores bound to a Window, which read their slot instead.
func WithInitialState(initial State) Option {
	return func(s *Store) {
		s.state = maps.Clone(initial)
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a Store. Without WithWindow the store is server-side and starts
// empty; with it the store reads the window's slot once, starting empty if the
// slot is absent or does not hold a mapping.
func New(opts ...Option) *Store {
	s := &Store{slot: DefaultSlot}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	if s.window != nil {
		s.state = s.readSlot()
	} else if s.state == nil {
		s.state = State{}
	}
	return s
}

// Interactive reports whether the store is bound to a Window.
func (s *Store) Interactive() bool {
	return s.window != nil
}

// Slot returns the global slot name used by the store.
func (s *Store) Slot() string {
	return s.slot
}

// All returns the whole mapping. On the client this is the live slot value,
// not a copy; on the server it is the instance's own map.
func (s *Store) All() State {
	if s.window != nil {
		return s.readSlot()
	}
	return s.state
}

// Get returns the value stored under key, or nil if there is none.
func (s *Store) Get(key string) any {
	return s.All()[key]
}

// Lookup returns the value stored under key and whether it was present.
func (s *Store) Lookup(key string) (any, bool) {
	v, ok := s.All()[key]
	return v, ok
}

// Set shallow-merges partial into the current state. Keys in partial replace
// existing keys wholesale; other keys are kept. On the client the merged state
// is written to the window slot. The observer, if any, is then called on the
// calling goroutine; a panic in it reaches the caller with the state already
// updated.
func (s *Store) Set(partial State) {
	current := s.All()
	next := make(State, len(current)+len(partial))
	maps.Copy(next, current)
	maps.Copy(next, partial)

	s.state = next
	if s.window != nil {
		s.window.SetGlobal(s.slot, next)
	}
	s.logger.Debug("store set", "slot", s.slot, "keys", len(partial))

	if s.observer != nil {
		s.observer()
	}
}

// Observe registers fn to be called after every Set, replacing any previous
// observer. A nil fn removes it.
func (s *Store) Observe(fn func()) {
	s.observer = fn
}

// Reset empties the instance's state. It does not touch the window slot: it
// is meant for the server after the state has been serialized. On the client,
// All keeps returning the slot's contents.
func (s *Store) Reset() {
	s.state = State{}
}

// readSlot returns the slot's mapping, or an empty State when the slot is
// unset or holds something else.
func (s *Store) readSlot() State {
	v, ok := s.window.Global(s.slot)
	if !ok {
		return State{}
	}
	switch m := v.(type) {
	case State:
		if m == nil {
			return State{}
		}
		return m
	case map[string]any:
		if m == nil {
			return State{}
		}
		return State(m)
	default:
		return State{}
	}
}
