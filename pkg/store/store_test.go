package store

import (
	"context"
	"reflect"
	"testing"
)

func TestNewServerStartsEmpty(t *testing.T) {
	s := New()
	if s.Interactive() {
		t.Error("store without window should not be interactive")
	}
	if got := s.All(); len(got) != 0 {
		t.Errorf("All() = %v, want empty", got)
	}
	if s.Slot() != DefaultSlot {
		t.Errorf("Slot() = %q, want %q", s.Slot(), DefaultSlot)
	}
}

func TestSetMergesShallow(t *testing.T) {
	tests := []struct {
		name string
		m1   State
		m2   State
		want State
	}{
		{
			name: "disjoint keys",
			m1:   State{"a": 1},
			m2:   State{"b": 2},
			want: State{"a": 1, "b": 2},
		},
		{
			name: "second wins",
			m1:   State{"a": 1, "b": "x"},
			m2:   State{"b": "y"},
			want: State{"a": 1, "b": "y"},
		},
		{
			name: "nested replaced not merged",
			m1:   State{"user": map[string]any{"id": 1, "name": "a"}},
			m2:   State{"user": map[string]any{"id": 2}},
			want: State{"user": map[string]any{"id": 2}},
		},
		{
			name: "empty second",
			m1:   State{"a": 1},
			m2:   State{},
			want: State{"a": 1},
		},
		{
			name: "nil value kept as key",
			m1:   State{"a": 1},
			m2:   State{"a": nil},
			want: State{"a": nil},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name+"/server", func(t *testing.T) {
			s := New()
			s.Set(tt.m1)
			s.Set(tt.m2)
			if got := s.All(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("All() = %v, want %v", got, tt.want)
			}
		})
		t.Run(tt.name+"/client", func(t *testing.T) {
			s := New(WithWindow(NewWindow()))
			s.Set(tt.m1)
			s.Set(tt.m2)
			if got := s.All(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("All() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSetDoesNotMutatePartial(t *testing.T) {
	s := New()
	s.Set(State{"a": 1})
	partial := State{"b": 2}
	s.Set(partial)
	if len(partial) != 1 {
		t.Errorf("partial mutated: %v", partial)
	}
}

func TestSetEmptyIsIdempotent(t *testing.T) {
	s := New()
	s.Set(State{"a": 1, "b": []any{1, 2}})
	before := s.All()
	s.Set(State{})
	s.Set(nil)
	if got := s.All(); !reflect.DeepEqual(got, before) {
		t.Errorf("All() = %v, want %v", got, before)
	}
}

func TestGet(t *testing.T) {
	s := New()
	nested := map[string]any{"id": 1}
	s.Set(State{"n": 3, "s": "x", "nested": nested})

	if got := s.Get("n"); got != 3 {
		t.Errorf("Get(n) = %v", got)
	}
	if got := s.Get("s"); got != "x" {
		t.Errorf("Get(s) = %v", got)
	}
	if got := s.Get("nested"); !reflect.DeepEqual(got, nested) {
		t.Errorf("Get(nested) = %v", got)
	}
	if got := s.Get("missing"); got != nil {
		t.Errorf("Get(missing) = %v, want nil", got)
	}
	if _, ok := s.Lookup("missing"); ok {
		t.Error("Lookup(missing) reported present")
	}
	if v, ok := s.Lookup("n"); !ok || v != 3 {
		t.Errorf("Lookup(n) = %v, %v", v, ok)
	}
}

func TestObserver(t *testing.T) {
	s := New()
	calls := 0
	var seen State
	s.Observe(func() {
		calls++
		seen = s.All()
	})

	s.Set(State{"a": 1})
	if calls != 1 {
		t.Fatalf("observer called %d times, want 1", calls)
	}
	if seen["a"] != 1 {
		t.Error("observer ran before state was updated")
	}

	s.Set(State{})
	if calls != 2 {
		t.Errorf("observer called %d times, want 2", calls)
	}
}

func TestObserverLastRegistrationWins(t *testing.T) {
	s := New()
	first, second := 0, 0
	s.Observe(func() { first++ })
	s.Observe(func() { second++ })
	s.Set(State{"a": 1})
	if first != 0 || second != 1 {
		t.Errorf("first=%d second=%d, want 0 and 1", first, second)
	}

	s.Observe(nil)
	s.Set(State{"a": 2})
	if second != 1 {
		t.Error("cleared observer still called")
	}
}

func TestSetWithoutObserver(t *testing.T) {
	s := New()
	s.Set(State{"a": 1})
	if s.Get("a") != 1 {
		t.Error("Set without observer did not store value")
	}
}

func TestObserverPanicPropagates(t *testing.T) {
	w := NewWindow()
	s := New(WithWindow(w))
	s.Observe(func() { panic("render failed") })

	func() {
		defer func() {
			if r := recover(); r != "render failed" {
				t.Errorf("recover() = %v, want observer panic", r)
			}
		}()
		s.Set(State{"a": 1})
	}()

	if s.Get("a") != 1 {
		t.Error("state not updated before observer panicked")
	}
	if v, _ := w.Global(DefaultSlot); v.(State)["a"] != 1 {
		t.Error("slot not written before observer panicked")
	}
}

func TestResetServer(t *testing.T) {
	s := New()
	s.Set(State{"a": 1})
	s.Reset()
	if got := s.All(); len(got) != 0 {
		t.Errorf("All() after Reset = %v, want empty", got)
	}
	s.Set(State{"b": 2})
	if got := s.All(); !reflect.DeepEqual(got, State{"b": 2}) {
		t.Errorf("All() = %v", got)
	}
}

func TestResetLeavesSlot(t *testing.T) {
	w := NewWindow()
	s := New(WithWindow(w))
	s.Set(State{"a": 1})
	s.Reset()

	if s.Get("a") != 1 {
		t.Error("Reset on client should not clear the slot")
	}
	if _, ok := w.Global(DefaultSlot); !ok {
		t.Error("slot removed by Reset")
	}
}

func TestClientReadsSlotOnConstruction(t *testing.T) {
	w := NewWindow()
	w.SetGlobal(DefaultSlot, map[string]any{"user": "a"})

	s := New(WithWindow(w))
	if !s.Interactive() {
		t.Error("store with window should be interactive")
	}
	if s.Get("user") != "a" {
		t.Errorf("Get(user) = %v", s.Get("user"))
	}
}

func TestClientSlotAbsentOrInvalid(t *testing.T) {
	tests := []struct {
		name  string
		setup func(w *Window)
	}{
		{"absent", func(w *Window) {}},
		{"not a map", func(w *Window) { w.SetGlobal(DefaultSlot, "oops") }},
		{"nil map", func(w *Window) { w.SetGlobal(DefaultSlot, map[string]any(nil)) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWindow()
			tt.setup(w)
			s := New(WithWindow(w))
			if got := s.All(); got == nil || len(got) != 0 {
				t.Errorf("All() = %#v, want empty non-nil", got)
			}
			s.Set(State{"a": 1})
			if s.Get("a") != 1 {
				t.Error("Set after invalid slot failed")
			}
		})
	}
}

func TestClientSeesExternalSlotWrites(t *testing.T) {
	w := NewWindow()
	s := New(WithWindow(w))
	w.SetGlobal(DefaultSlot, map[string]any{"external": true})
	if s.Get("external") != true {
		t.Error("Get should re-read the live slot")
	}
}

func TestStoresShareWindow(t *testing.T) {
	w := NewWindow()
	a := New(WithWindow(w))
	b := New(WithWindow(w))

	a.Set(State{"from": "a"})
	if b.Get("from") != "a" {
		t.Error("second store did not observe first store's write")
	}
	b.Set(State{"other": 1})
	if got := a.All(); !reflect.DeepEqual(got, State{"from": "a", "other": 1}) {
		t.Errorf("a.All() = %v", got)
	}
}

func TestServerStoresAreIsolated(t *testing.T) {
	a := New()
	b := New()
	a.Set(State{"user": "a"})
	if _, ok := b.Lookup("user"); ok {
		t.Error("server stores leaked state between instances")
	}
}

func TestWithSlot(t *testing.T) {
	w := NewWindow()
	s := New(WithWindow(w), WithSlot("__APP__"))
	s.Set(State{"a": 1})
	if _, ok := w.Global(DefaultSlot); ok {
		t.Error("default slot written despite WithSlot")
	}
	if _, ok := w.Global("__APP__"); !ok {
		t.Error("custom slot not written")
	}

	if New(WithSlot("")).Slot() != DefaultSlot {
		t.Error("empty slot name should keep the default")
	}
}

func TestWithInitialState(t *testing.T) {
	initial := State{"a": 1}
	s := New(WithInitialState(initial))
	s.Set(State{"b": 2})
	if len(initial) != 1 {
		t.Error("initial state mutated")
	}
	if got := s.All(); !reflect.DeepEqual(got, State{"a": 1, "b": 2}) {
		t.Errorf("All() = %v", got)
	}

	w := NewWindow()
	c := New(WithWindow(w), WithInitialState(initial))
	if len(c.All()) != 0 {
		t.Error("client store should ignore initial state")
	}
}

func TestWindowDeleteGlobal(t *testing.T) {
	w := NewWindow()
	w.SetGlobal("x", 1)
	w.DeleteGlobal("x")
	if _, ok := w.Global("x"); ok {
		t.Error("global not deleted")
	}

	var zero Window
	zero.SetGlobal("y", 2)
	if v, _ := zero.Global("y"); v != 2 {
		t.Error("zero Window should be usable")
	}
}

func TestContext(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Error("FromContext on empty context reported a store")
	}

	s := New()
	ctx := NewContext(context.Background(), s)
	got, ok := FromContext(ctx)
	if !ok || got != s {
		t.Error("FromContext did not return the provided store")
	}
	if MustFromContext(ctx) != s {
		t.Error("MustFromContext returned a different store")
	}

	defer func() {
		if recover() == nil {
			t.Error("MustFromContext should panic without a store")
		}
	}()
	MustFromContext(context.Background())
}
