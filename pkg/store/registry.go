package store

import (
	"slices"
	"sync"

	"github.com/google/uuid"
)

// Registry tracks live stores. A store joins the registry given in its
// Options and leaves it on Close. A Registry is owned by whoever creates
// it; there is no process-wide instance.
type Registry struct {
	mu     sync.RWMutex
	stores map[uuid.UUID]*Store
	order  []uuid.UUID
	hooks  []func(*Store)
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{stores: make(map[uuid.UUID]*Store)}
}

func (r *Registry) add(s *Store) {
	r.mu.Lock()
	r.stores[s.id] = s
	r.order = append(r.order, s.id)
	hooks := slices.Clone(r.hooks)
	r.mu.Unlock()

	for _, fn := range hooks {
		fn(s)
	}
}

func (r *Registry) remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.stores[id]; !ok {
		return
	}
	delete(r.stores, id)
	for i, other := range r.order {
		if other == id {
			r.order = append(r.order[:i:i], r.order[i+1:]...)
			break
		}
	}
}

// OnRegister calls fn for every store already registered and for every
// store registered later. Each store is seen exactly once.
func (r *Registry) OnRegister(fn func(*Store)) {
	r.mu.Lock()
	r.hooks = append(r.hooks, fn)
	existing := r.listLocked()
	r.mu.Unlock()

	for _, s := range existing {
		fn(s)
	}
}

// Get returns the store with the given ID.
func (r *Registry) Get(id uuid.UUID) (*Store, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.stores[id]
	return s, ok
}

// Lookup finds a store by ID string or, failing that, by name. When
// several stores share a name the earliest registered wins.
func (r *Registry) Lookup(idOrName string) (*Store, bool) {
	if id, err := uuid.Parse(idOrName); err == nil {
		if s, ok := r.Get(id); ok {
			return s, true
		}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		if s := r.stores[id]; s.name == idOrName {
			return s, true
		}
	}
	return nil, false
}

// List returns the registered stores in registration order.
func (r *Registry) List() []*Store {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.listLocked()
}

// Len returns the number of registered stores.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.stores)
}

func (r *Registry) listLocked() []*Store {
	out := make([]*Store, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.stores[id])
	}
	return out
}
