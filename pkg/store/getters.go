package store

import (
	"sort"

	"github.com/vango-dev/vstore/internal/errors"
)

// Getters is a store's namespace of derived values. Every Get evaluates the
// getter against the current state; nothing is cached, so nothing needs
// invalidating.
type Getters struct {
	store *Store
	defs  map[string]Getter
	names []string
}

func newGetters(s *Store, defs map[string]Getter) *Getters {
	g := &Getters{
		store: s,
		defs:  make(map[string]Getter, len(defs)),
		names: make([]string, 0, len(defs)),
	}
	for name, fn := range defs {
		g.defs[name] = fn
		g.names = append(g.names, name)
	}
	sort.Strings(g.names)
	return g
}

// Get evaluates the named getter.
func (g *Getters) Get(name string) (any, error) {
	fn, ok := g.defs[name]
	if !ok {
		return nil, errors.New("E205").
			WithDetailf("%q in store %q", name, g.store.name).
			WithSuggestion("Declare the getter in Options.Getters")
	}

	g.store.mu.Lock()
	defer g.store.mu.Unlock()
	return fn(g.store.state, g), nil
}

// Has reports whether a getter is declared.
func (g *Getters) Has(name string) bool {
	_, ok := g.defs[name]
	return ok
}

// Names returns the declared getter names, sorted.
func (g *Getters) Names() []string {
	return append([]string(nil), g.names...)
}

// All evaluates every getter. Getters that reference each other see the
// same state.
func (g *Getters) All() map[string]any {
	g.store.mu.Lock()
	defer g.store.mu.Unlock()

	out := make(map[string]any, len(g.names))
	for _, name := range g.names {
		out[name] = g.defs[name](g.store.state, g)
	}
	return out
}
