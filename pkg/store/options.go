package store

import (
	"log/slog"

	"github.com/vango-dev/vstore/pkg/observe"
	"github.com/vango-dev/vstore/pkg/reactive"
	"github.com/vango-dev/vstore/pkg/watch"
)

// Mutation changes state synchronously. It receives the root view and
// writes through it directly; the view reports every write.
type Mutation func(state *reactive.View, payload any) error

// Action runs arbitrary (possibly blocking) work and commits mutations
// through its context.
type Action func(ac ActionContext, payload any) error

// Getter derives a value from state. Getters are re-evaluated on every
// access; nothing is cached.
type Getter func(state *reactive.View, getters *Getters) any

// Plugin is called once with the constructed store.
type Plugin func(s *Store)

// WatchOptions configure Store.Watch.
type WatchOptions = watch.Options

// Options configure a Store.
type Options struct {
	// Name labels the store in logs, metrics and devtools (default: "default").
	Name string

	// State is the initial root object: a map[string]any (or any map with
	// string keys), or a func() map[string]any so each store gets its own
	// copy.
	State any

	Getters   map[string]Getter
	Mutations map[string]Mutation
	Actions   map[string]Action

	// Modules is accepted for compatibility but module registration is not
	// implemented; a warning is logged and the modules are ignored.
	Modules map[string]Options

	// Plugins run after construction, in order.
	Plugins []Plugin

	// Logger is used for store logging. If nil, slog.Default() is used.
	Logger *slog.Logger

	// Metrics records store metrics. Nil disables metrics.
	Metrics *observe.Metrics

	// Tracer wraps commits and dispatches in spans. Nil disables tracing.
	Tracer *observe.Tracer

	// Registry, when set, tracks the store until Close.
	Registry *Registry
}
