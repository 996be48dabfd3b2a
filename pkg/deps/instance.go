package deps

import (
	"github.com/vango-dev/vstore/internal/errors"
	"github.com/vango-dev/vstore/pkg/reactive"
)

// Getter derives a computed value from store state. self gives access to
// the consumer's own data (props) so derivations may branch on it.
type Getter func(state *reactive.View, self *Instance) any

// Setter receives a value assigned to a computed property.
type Setter func(self *Instance, value any) error

// Computed declares one derived property of a consumer archetype.
type Computed struct {
	Name string
	Get  Getter
	Set  Setter
}

// Instance is one consumer of a store: the host component's own reactive
// data surface plus its computed property declarations. Instances of the
// same archetype share one dependency edge map per store.
type Instance struct {
	archetype string
	data      *reactive.View
	computed  []Computed
	byName    map[string]int

	interceptors reactive.InterceptorSet
	onPush       func(name string, value any)

	graph    *Graph
	source   Source
	attached bool
}

// NewInstance creates a consumer of the given archetype over data.
// Computed properties are evaluated in declaration order.
func NewInstance(archetype string, data map[string]any, computed ...Computed) *Instance {
	inst := &Instance{
		archetype: archetype,
		computed:  computed,
		byName:    make(map[string]int, len(computed)),
	}
	for i, c := range computed {
		inst.byName[c.Name] = i
	}
	inst.data = reactive.Wrap(data, reactive.Hooks{
		Notify: func(string, any) {},
		OnGet:  inst.interceptors.OnGet,
		OnSet:  inst.interceptors.OnSet,
	})
	return inst
}

// Archetype returns the consumer archetype identifier.
func (i *Instance) Archetype() string { return i.archetype }

// Data returns the consumer's reactive data surface.
func (i *Instance) Data() *reactive.View { return i.data }

// Attached reports whether the instance is receiving pushes.
func (i *Instance) Attached() bool { return i.attached }

// OnPush registers a function called after every computed value is pushed
// into the data surface. Host adapters use it to forward the flat update.
func (i *Instance) OnPush(fn func(name string, value any)) {
	i.onPush = fn
}

// Intercept registers an interceptor on the instance's data surface.
func (i *Instance) Intercept(ic reactive.Interceptor) reactive.InterceptHandle {
	return i.interceptors.Add(ic)
}

// CancelIntercept removes an interceptor from the data surface.
func (i *Instance) CancelIntercept(h reactive.InterceptHandle) {
	i.interceptors.Remove(h)
}

// IsComputed reports whether name is a declared computed property.
func (i *Instance) IsComputed(name string) bool {
	_, ok := i.byName[name]
	return ok
}

// Get reads a property from the data surface. Computed properties read
// their last pushed value.
func (i *Instance) Get(name string) (any, error) {
	return i.data.Value(name)
}

// Set assigns a property. Plain data is written to the surface; a computed
// property routes the value through its setter and then re-derives, so a
// read reflects the getter rather than the assigned value. Assigning a
// computed property without a setter fails with E203.
func (i *Instance) Set(name string, value any) error {
	idx, ok := i.byName[name]
	if !ok {
		return i.data.Set(name, value)
	}

	c := i.computed[idx]
	if c.Set == nil {
		return errors.New("E203").
			WithDetailf("%s.%s", i.archetype, name).
			WithSuggestion("Declare a Set function on the computed property or stop assigning to it")
	}
	if err := c.Set(i, value); err != nil {
		return err
	}
	if i.source != nil {
		return i.refresh(c)
	}
	return nil
}

// Detach stops the instance from receiving pushes. Recorded edges for its
// archetype are kept.
func (i *Instance) Detach() {
	if i.graph != nil {
		i.graph.detach(i)
	}
	i.attached = false
}

// evaluate runs a computed getter against the attached store.
func (i *Instance) evaluate(c Computed) any {
	if c.Get == nil {
		return nil
	}
	return c.Get(i.source.State(), i)
}

// refresh re-derives a computed property and pushes it.
func (i *Instance) refresh(c Computed) error {
	return i.push(c.Name, i.evaluate(c))
}

// push writes a derived value into the data surface.
func (i *Instance) push(name string, value any) error {
	if err := i.data.Set(name, value); err != nil {
		return err
	}
	if i.onPush != nil {
		i.onPush(name, value)
	}
	return nil
}
