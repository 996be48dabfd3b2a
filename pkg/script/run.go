package script

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sort"

	"github.com/vango-dev/vstore/pkg/observe"
	"github.com/vango-dev/vstore/pkg/reactive"
	"github.com/vango-dev/vstore/pkg/store"
)

// EventKind classifies a replay event.
type EventKind string

const (
	EventWatch  EventKind = "watch"
	EventCommit EventKind = "commit"
)

// Event is one observable step of a replay: a watcher firing or a commit
// completing.
type Event struct {
	Kind EventKind `json:"kind"`

	// Step is the index of the commit being applied, or -1 while
	// watchers are registered.
	Step int `json:"step"`

	Type string `json:"type,omitempty"`
	Path string `json:"path,omitempty"`
	New  any    `json:"new,omitempty"`
	Old  any    `json:"old,omitempty"`
	Err  string `json:"error,omitempty"`
}

// Result is the outcome of a replay.
type Result struct {
	Events []Event        `json:"events"`
	State  map[string]any `json:"state"`
	Failed []Expectation  `json:"failed,omitempty"`
	Errors []string       `json:"errors,omitempty"`
}

// OK reports whether every commit succeeded and every expectation held.
func (r *Result) OK() bool {
	return len(r.Failed) == 0 && len(r.Errors) == 0
}

// Expectation is a final-state check that did not hold.
type Expectation struct {
	Path string `json:"path"`
	Want any    `json:"want"`
	Got  any    `json:"got"`
}

// RunOptions configure Run.
type RunOptions struct {
	Logger   *slog.Logger
	Metrics  *observe.Metrics
	Tracer   *observe.Tracer
	Registry *store.Registry

	// Mutations are added to (and override) the builtins.
	Mutations map[string]store.Mutation

	// OnEvent, when set, sees every event as it happens.
	OnEvent func(Event)
}

// Run replays sc against a fresh store. A failed commit stops the replay
// unless the script sets ContinueOnError; the error is recorded in the
// result either way. Run returns an error only for setup failures and
// context cancellation.
func Run(ctx context.Context, sc *Script, opts RunOptions) (*Result, error) {
	mutations := Builtins()
	for name, m := range opts.Mutations {
		mutations[name] = m
	}

	state := map[string]any{}
	if sc.State != nil {
		state = reactive.Clone(sc.State).(map[string]any)
	}

	s, err := store.New(store.Options{
		Name:      sc.Name,
		State:     state,
		Mutations: mutations,
		Logger:    opts.Logger,
		Metrics:   opts.Metrics,
		Tracer:    opts.Tracer,
		Registry:  opts.Registry,
	})
	if err != nil {
		return nil, err
	}
	defer s.Close()

	res := &Result{}
	step := -1
	emit := func(ev Event) {
		res.Events = append(res.Events, ev)
		if opts.OnEvent != nil {
			opts.OnEvent(ev)
		}
	}

	for _, w := range sc.Watch {
		path := w.Path
		_, err := s.Watch(path, func(n, o any) {
			emit(Event{Kind: EventWatch, Step: step, Path: path, New: reactive.Clone(n), Old: reactive.Clone(o)})
		}, store.WatchOptions{Deep: w.Deep, Immediate: w.Immediate})
		if err != nil {
			return nil, err
		}
	}

	for i, c := range sc.Commits {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		step = i

		ev := Event{Kind: EventCommit, Step: i, Type: c.Type}
		if err := s.CommitContext(ctx, c.Type, c.Payload); err != nil {
			ev.Err = err.Error()
			res.Errors = append(res.Errors, fmt.Sprintf("commits[%d] %s: %v", i, c.Type, err))
			emit(ev)
			if !sc.ContinueOnError {
				break
			}
			continue
		}
		emit(ev)
	}

	res.State = s.Snapshot()
	res.Failed = check(res.State, sc.Expect)
	return res, nil
}

// check compares expected paths against the final state. Numbers compare
// by value regardless of the decoder's numeric type.
func check(state map[string]any, expect map[string]any) []Expectation {
	paths := make([]string, 0, len(expect))
	for p := range expect {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var failed []Expectation
	for _, p := range paths {
		got, _, err := reactive.Lookup(state, p)
		if err != nil || !reflect.DeepEqual(canonical(got), canonical(expect[p])) {
			failed = append(failed, Expectation{Path: p, Want: expect[p], Got: got})
		}
	}
	return failed
}

// canonical converts every number to float64 so values decoded from
// different formats compare equal.
func canonical(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = canonical(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = canonical(e)
		}
		return out
	}
	if f, ok := toFloat(v); ok {
		return f
	}
	return v
}
