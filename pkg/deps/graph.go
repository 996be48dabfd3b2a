package deps

import (
	stderrors "errors"
	"log/slog"

	"github.com/vango-dev/vstore/pkg/reactive"
)

// Source is the store side of dependency recording: a reactive state root
// that accepts interceptors.
type Source interface {
	State() *reactive.View
	Intercept(ic reactive.Interceptor) reactive.InterceptHandle
	CancelIntercept(h reactive.InterceptHandle)
}

// edgeMap maps a source root key to the computed properties depending on
// it. Both levels keep insertion order.
type edgeMap struct {
	roots []string
	names map[string][]string
}

func newEdgeMap() *edgeMap {
	return &edgeMap{names: make(map[string][]string)}
}

func (m *edgeMap) add(root, name string) {
	list, ok := m.names[root]
	if !ok {
		m.roots = append(m.roots, root)
	}
	for _, n := range list {
		if n == name {
			return
		}
	}
	m.names[root] = append(list, name)
}

// archetype groups the recorded edges and live instances of one consumer
// archetype.
type archetype struct {
	name      string
	edges     *edgeMap // nil until the first instance has been recorded
	instances []*Instance
}

// Graph is the dependency registry of one store: for every consumer
// archetype, which root state keys feed which computed properties.
//
// Edges are recorded from the first instance of an archetype to attach and
// are never rebuilt; later instances reuse them even if their getters
// would branch differently.
//
// Graph is not safe for concurrent use; the owning store serializes access.
type Graph struct {
	logger     *slog.Logger
	archetypes []*archetype
	byName     map[string]*archetype

	// OnRecompute, when set, is called after each propagated recompute.
	OnRecompute func(archetype, property string)
}

// NewGraph creates an empty dependency graph.
func NewGraph(logger *slog.Logger) *Graph {
	if logger == nil {
		logger = slog.Default()
	}
	return &Graph{
		logger: logger,
		byName: make(map[string]*archetype),
	}
}

func (g *Graph) archetype(name string) *archetype {
	a, ok := g.byName[name]
	if !ok {
		a = &archetype{name: name}
		g.byName[name] = a
		g.archetypes = append(g.archetypes, a)
	}
	return a
}

// Attach connects inst to src and pushes every computed property.
//
// For the first instance of an archetype, reads of top-level state keys
// are collected while each getter runs, and attributed to the computed
// property whose value is written back next. The resulting edge map is
// then frozen for the archetype and the interceptors are removed; later
// instances evaluate without interception.
func (g *Graph) Attach(src Source, inst *Instance) error {
	if inst.attached && inst.graph == g {
		return nil
	}
	if inst.graph != nil && inst.graph != g {
		inst.Detach()
	}

	a := g.archetype(inst.archetype)
	inst.graph, inst.source = g, src

	if a.edges != nil {
		for _, c := range inst.computed {
			if err := inst.refresh(c); err != nil {
				return err
			}
		}
	} else {
		edges, err := g.record(src, inst)
		if err != nil {
			return err
		}
		a.edges = edges
		g.logger.Debug("dependencies recorded",
			"archetype", inst.archetype,
			"roots", len(edges.roots))
	}

	a.instances = append(a.instances, inst)
	inst.attached = true
	return nil
}

// record evaluates every computed property of inst with interceptors on
// both sides and returns the observed edges.
func (g *Graph) record(src Source, inst *Instance) (*edgeMap, error) {
	edges := newEdgeMap()
	var pending []string
	seen := make(map[string]bool)

	readHandle := src.Intercept(reactive.Interceptor{
		OnGet: func(path string, _ any, level int) {
			if level != 0 || seen[path] {
				return
			}
			seen[path] = true
			pending = append(pending, path)
		},
	})
	writeHandle := inst.Intercept(reactive.Interceptor{
		OnSet: func(path string, _ any, level int) {
			if level != 0 || !inst.IsComputed(path) {
				return
			}
			for _, p := range pending {
				edges.add(reactive.RootSegment(p), path)
			}
			pending = pending[:0]
			clear(seen)
		},
	})
	defer src.CancelIntercept(readHandle)
	defer inst.CancelIntercept(writeHandle)

	for _, c := range inst.computed {
		if err := inst.refresh(c); err != nil {
			return nil, err
		}
	}
	return edges, nil
}

// Propagate re-derives and pushes every computed property that depends on
// the root key of path, for every attached instance. Archetypes, instances
// and properties are visited in registration order.
func (g *Graph) Propagate(path string) error {
	root := reactive.RootSegment(path)
	var errs []error

	for _, a := range append([]*archetype(nil), g.archetypes...) {
		if a.edges == nil {
			continue
		}
		names := a.edges.names[root]
		if len(names) == 0 {
			continue
		}
		for _, inst := range append([]*Instance(nil), a.instances...) {
			for _, name := range names {
				idx, ok := inst.byName[name]
				if !ok {
					continue
				}
				if err := inst.refresh(inst.computed[idx]); err != nil {
					errs = append(errs, err)
					continue
				}
				if g.OnRecompute != nil {
					g.OnRecompute(a.name, name)
				}
			}
		}
	}
	return stderrors.Join(errs...)
}

// Edges returns a copy of the recorded edges of an archetype. The second
// result is false until the archetype has been recorded.
func (g *Graph) Edges(archetype string) (map[string][]string, bool) {
	a, ok := g.byName[archetype]
	if !ok || a.edges == nil {
		return nil, false
	}
	out := make(map[string][]string, len(a.edges.names))
	for root, names := range a.edges.names {
		out[root] = append([]string(nil), names...)
	}
	return out, true
}

// Archetypes returns the known archetype names in registration order.
func (g *Graph) Archetypes() []string {
	out := make([]string, len(g.archetypes))
	for i, a := range g.archetypes {
		out[i] = a.name
	}
	return out
}

// Instances returns the number of attached instances of an archetype.
func (g *Graph) Instances(archetype string) int {
	if a, ok := g.byName[archetype]; ok {
		return len(a.instances)
	}
	return 0
}

func (g *Graph) detach(inst *Instance) {
	a, ok := g.byName[inst.archetype]
	if !ok {
		return
	}
	for i, other := range a.instances {
		if other == inst {
			a.instances = append(a.instances[:i:i], a.instances[i+1:]...)
			return
		}
	}
}
