// Package watch implements watchers: subscriptions that decide whether a
// watched path or accessor has produced a reportable change.
package watch

import (
	"sync/atomic"

	"github.com/vango-dev/vstore/pkg/reactive"
)

// Callback receives the new value and the previously observed one.
type Callback func(newValue, oldValue any)

// Accessor derives the watched value from the current state.
type Accessor func(state *reactive.View) any

// Options configure a watcher.
type Options struct {
	// Immediate fires the callback once at priming with (initial, nil).
	Immediate bool

	// Deep compares values structurally instead of by identity and keeps
	// an independent copy of the last value.
	Deep bool
}

var idCounter atomic.Uint64

// Watcher is one subscription to a path or an accessor.
//
// A watcher is primed exactly once (Once), then reports every subsequent
// distinct value through Call. Deep watchers compare with structural
// equality and store cloned snapshots, since state containers are
// mutated in place; shallow watchers compare by identity.
type Watcher struct {
	id       uint64
	path     string
	accessor Accessor
	callback Callback
	opts     Options

	last    any
	primed  bool
	stopped bool
}

// NewPath creates a watcher on a state path. The path is validated here,
// not at first evaluation.
func NewPath(path string, cb Callback, opts Options) (*Watcher, error) {
	if err := reactive.ValidatePath(path); err != nil {
		return nil, err
	}
	return &Watcher{
		id:       idCounter.Add(1),
		path:     path,
		callback: cb,
		opts:     opts,
	}, nil
}

// NewFunc creates a watcher on an accessor.
func NewFunc(fn Accessor, cb Callback, opts Options) *Watcher {
	return &Watcher{
		id:       idCounter.Add(1),
		accessor: fn,
		callback: cb,
		opts:     opts,
	}
}

// ID returns the watcher's unique identifier.
func (w *Watcher) ID() uint64 { return w.id }

// Path returns the watched path, or "" for accessor watchers.
func (w *Watcher) Path() string { return w.path }

// IsAccessor reports whether the watcher derives its value from a function.
func (w *Watcher) IsAccessor() bool { return w.accessor != nil }

// Deep reports whether the watcher compares structurally.
func (w *Watcher) Deep() bool { return w.opts.Deep }

// Immediate reports whether priming fires the callback.
func (w *Watcher) Immediate() bool { return w.opts.Immediate }

// Primed reports whether Once has run.
func (w *Watcher) Primed() bool { return w.primed }

// Last returns the last observed value.
func (w *Watcher) Last() any { return w.last }

// Once primes the watcher with its initial value. Only the first call has
// any effect. If the watcher is immediate the callback runs with
// (value, nil); priming never counts as a change.
func (w *Watcher) Once(value any) {
	if w.primed || w.stopped {
		return
	}
	w.primed = true
	prev := w.last
	w.last = w.keep(value)
	if w.opts.Immediate && w.callback != nil {
		w.callback(value, prev)
	}
}

// Call reports value as the watcher's new value. The callback runs with
// (value, last) when the value differs under the comparison policy; last
// is then updated. Call reports whether the callback ran.
func (w *Watcher) Call(value any) bool {
	if w.stopped {
		return false
	}
	if !w.primed {
		w.Once(value)
		return false
	}
	if w.same(w.last, value) {
		return false
	}
	old := w.last
	w.last = w.keep(value)
	if w.callback != nil {
		w.callback(value, old)
	}
	return true
}

// Update re-evaluates an accessor watcher against state and re-enters
// Call. Path watchers resolve their path silently.
func (w *Watcher) Update(state *reactive.View) bool {
	return w.Call(w.Evaluate(state))
}

// Evaluate computes the watcher's current value without comparing.
func (w *Watcher) Evaluate(state *reactive.View) any {
	if w.accessor != nil {
		return w.accessor(state)
	}
	got, _, _ := reactive.Lookup(state, w.path)
	return got
}

// Snapshot records an independent copy of the pre-mutation value for
// deep watchers. Shallow watchers ignore it.
func (w *Watcher) Snapshot(old any) {
	if !w.opts.Deep || !w.primed || w.stopped {
		return
	}
	w.last = reactive.Clone(old)
}

// Affects reports whether a write at changed can alter the watched value:
// the watched path itself, an ancestor, or a descendant. Accessor watchers
// are always affected.
func (w *Watcher) Affects(changed string) bool {
	if w.accessor != nil {
		return true
	}
	return reactive.IsWithin(changed, w.path) || reactive.IsWithin(w.path, changed)
}

// Stop detaches the watcher; later calls are ignored.
func (w *Watcher) Stop() { w.stopped = true }

// Stopped reports whether Stop was called.
func (w *Watcher) Stopped() bool { return w.stopped }

func (w *Watcher) keep(v any) any {
	if w.opts.Deep {
		return reactive.Clone(v)
	}
	return v
}

func (w *Watcher) same(a, b any) bool {
	if w.opts.Deep {
		return reactive.Equal(a, b)
	}
	return reactive.Identical(a, b)
}
