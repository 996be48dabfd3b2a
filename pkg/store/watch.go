package store

import (
	"github.com/vango-dev/vstore/internal/errors"
	"github.com/vango-dev/vstore/pkg/reactive"
	"github.com/vango-dev/vstore/pkg/watch"
)

// Watch registers cb on a state path (string) or an accessor
// (func(*reactive.View) any). The watcher is primed synchronously with the
// current value; with Immediate set, cb runs once right away with
// (value, nil). Later, cb runs with (new, old) whenever the value changes:
// by identity, or structurally with Deep.
//
// A malformed path is rejected here, as is any watch on a closed store.
// The returned function removes the watcher.
func (s *Store) Watch(source any, cb watch.Callback, opts ...WatchOptions) (func(), error) {
	var o WatchOptions
	if len(opts) > 0 {
		o = opts[0]
	}

	var w *watch.Watcher
	switch src := source.(type) {
	case string:
		var err error
		if w, err = watch.NewPath(src, cb, o); err != nil {
			s.metrics.RecordError(s.name, "watch", err)
			return nil, err
		}
	case watch.Accessor:
		w = watch.NewFunc(src, cb, o)
	case func(*reactive.View) any:
		w = watch.NewFunc(src, cb, o)
	default:
		return nil, errors.Newf(errors.CategoryStore, "watch source must be a path or an accessor, got %T", source)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.Newf(errors.CategoryStore, "store %q is closed", s.name).
			WithSuggestion("Watch before calling Close")
	}
	s.watchers = append(s.watchers, w)
	s.metrics.SetWatchers(s.name, len(s.watchers))
	w.Once(w.Evaluate(s.state))

	s.logger.Debug("watch", "id", w.ID(), "path", w.Path(), "deep", o.Deep, "immediate", o.Immediate)
	return func() { s.unwatch(w) }, nil
}

func (s *Store) unwatch(w *watch.Watcher) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w.Stop()
	for i, other := range s.watchers {
		if other == w {
			s.watchers = append(s.watchers[:i:i], s.watchers[i+1:]...)
			break
		}
	}
	s.metrics.SetWatchers(s.name, len(s.watchers))
}

// Watchers returns the number of active watchers.
func (s *Store) Watchers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.watchers)
}
