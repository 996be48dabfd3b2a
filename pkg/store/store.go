package store

import (
	stderrors "errors"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/vango-dev/vstore/internal/errors"
	"github.com/vango-dev/vstore/pkg/deps"
	"github.com/vango-dev/vstore/pkg/observe"
	"github.com/vango-dev/vstore/pkg/reactive"
	"github.com/vango-dev/vstore/pkg/watch"
)

// MutationRecord describes one completed commit, as delivered to
// subscribers.
type MutationRecord struct {
	Type     string               `json:"type"`
	Payload  any                  `json:"payload,omitempty"`
	Changes  []reactive.PathEvent `json:"changes"`
	Duration time.Duration        `json:"duration"`
}

// Subscriber is called after every successful commit.
type Subscriber func(m MutationRecord, state *reactive.View)

type subscription struct {
	id uint64
	fn Subscriber
}

type listener struct {
	id uint64
	fn func(reactive.PathEvent)
}

// commitFrame collects what happens during one (possibly nested) commit.
type commitFrame struct {
	changes []reactive.PathEvent
	errs    []error
}

// Store is a centralized state container. State changes are requested
// with Commit; watchers and attached consumer instances are updated
// synchronously before Commit returns.
//
// All entry points are serialized by a goroutine-reentrant lock: callbacks
// running inside a commit may commit again, while other goroutines wait.
type Store struct {
	id      uuid.UUID
	name    string
	logger  *slog.Logger
	metrics *observe.Metrics
	tracer  *observe.Tracer

	mu           reentrantMutex
	state        *reactive.View
	interceptors reactive.InterceptorSet
	watchers     []*watch.Watcher
	mutations    map[string]Mutation
	actions      map[string]Action
	getters      *Getters
	graph        *deps.Graph
	subscribers  []subscription
	listeners    []listener
	nextSubID    uint64
	frames       []*commitFrame

	registry *Registry
	closed   bool
}

// New creates a store from opts.
func New(opts Options) (*Store, error) {
	data, err := initialState(opts.State)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	name := opts.Name
	if name == "" {
		name = "default"
	}

	s := &Store{
		id:        uuid.New(),
		name:      name,
		logger:    logger.With("store", name),
		metrics:   opts.Metrics,
		tracer:    opts.Tracer,
		mutations: make(map[string]Mutation, len(opts.Mutations)),
		actions:   make(map[string]Action, len(opts.Actions)),
	}
	for k, m := range opts.Mutations {
		s.mutations[k] = m
	}
	for k, a := range opts.Actions {
		s.actions[k] = a
	}
	s.getters = newGetters(s, opts.Getters)
	s.graph = deps.NewGraph(s.logger)
	s.graph.OnRecompute = func(archetype, _ string) {
		s.metrics.RecordRecompute(s.name, archetype)
	}
	s.state = reactive.Wrap(data, reactive.Hooks{
		Notify:       s.notify,
		OnGet:        s.interceptors.OnGet,
		OnSet:        s.interceptors.OnSet,
		OnDelete:     s.deleted,
		BeforeMethod: s.beforeMethod,
		Lock:         s.mu.Lock,
		Unlock:       s.mu.Unlock,
	})

	if len(opts.Modules) > 0 {
		names := make([]string, 0, len(opts.Modules))
		for k := range opts.Modules {
			names = append(names, k)
		}
		sort.Strings(names)
		s.logger.Warn("store modules are not supported yet; ignoring", "modules", names)
	}

	s.metrics.StoreOpened()
	if opts.Registry != nil {
		s.registry = opts.Registry
		opts.Registry.add(s)
	}
	for _, p := range opts.Plugins {
		p(s)
	}

	s.logger.Debug("store created", "id", s.id, "keys", len(data))
	return s, nil
}

// initialState resolves Options.State.
func initialState(v any) (map[string]any, error) {
	switch st := v.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return st, nil
	case func() map[string]any:
		return st(), nil
	}
	if m, ok := reactive.Normalize(v).(map[string]any); ok {
		return m, nil
	}
	return nil, errors.New("E202").
		WithDetailf("state must be a map or a func() map[string]any, got %T", v)
}

// ID returns the store's unique identifier.
func (s *Store) ID() uuid.UUID { return s.id }

// Name returns the store's name.
func (s *Store) Name() string { return s.name }

// State returns the root state view. Every read and write through it
// takes the store lock, so it is safe to use alongside Commit; writes are
// reported like writes inside a mutation but are not part of any commit.
// Containers returned by Raw, Object and Array are live and must not be
// used outside the lock.
func (s *Store) State() *reactive.View { return s.state }

// Getters returns the getter namespace.
func (s *Store) Getters() *Getters { return s.getters }

// Deps returns the store's dependency graph.
func (s *Store) Deps() *deps.Graph { return s.graph }

// Dependencies returns a copy of the recorded dependency edges of every
// attached consumer archetype.
func (s *Store) Dependencies() map[string]map[string][]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]map[string][]string)
	for _, a := range s.graph.Archetypes() {
		if edges, ok := s.graph.Edges(a); ok {
			out[a] = edges
		}
	}
	return out
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return reactive.Clone(s.state.Raw()).(map[string]any)
}

// ReplaceState swaps the whole root object and reports every top-level
// key of the old and new state as changed.
func (s *Store) ReplaceState(data map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if data == nil {
		data = map[string]any{}
	}
	keys := make(map[string]bool)
	for k := range s.state.Object() {
		keys[k] = true
	}
	for k := range data {
		keys[k] = true
	}
	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	s.state.Reset(data)
	s.logger.Info("state replaced", "keys", len(data))

	frame := s.pushFrame()
	for _, k := range sorted {
		v, ok := data[k]
		if ok {
			s.changed(reactive.PathEvent{Path: k, Value: v, Op: reactive.OpSet})
		} else {
			s.changed(reactive.PathEvent{Path: k, Op: reactive.OpDelete})
		}
	}
	s.popFrame()
	return stderrors.Join(frame.errs...)
}

// Intercept registers an interceptor on the state view. Used by consumer
// adapters to observe reads while evaluating derived values.
func (s *Store) Intercept(ic reactive.Interceptor) reactive.InterceptHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interceptors.Add(ic)
}

// CancelIntercept removes an interceptor.
func (s *Store) CancelIntercept(h reactive.InterceptHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interceptors.Remove(h)
}

// Attach connects a consumer instance: its computed properties are
// evaluated, their dependencies recorded (first instance of the archetype
// only) and from then on re-derived whenever a dependency changes.
func (s *Store) Attach(inst *deps.Instance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.graph.Attach(s, inst); err != nil {
		s.metrics.RecordError(s.name, "attach", err)
		return err
	}
	return nil
}

// Detach stops a consumer instance from receiving updates.
func (s *Store) Detach(inst *deps.Instance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst.Detach()
}

// Subscribe registers fn to run after every successful commit. The
// returned function unsubscribes.
func (s *Store) Subscribe(fn Subscriber) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSubID++
	id := s.nextSubID
	s.subscribers = append(s.subscribers, subscription{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subscribers {
			if sub.id == id {
				s.subscribers = append(s.subscribers[:i:i], s.subscribers[i+1:]...)
				return
			}
		}
	}
}

// OnChange registers fn to run for every individual state change, after
// watchers and dependency propagation. The returned function removes it.
func (s *Store) OnChange(fn func(reactive.PathEvent)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSubID++
	id := s.nextSubID
	s.listeners = append(s.listeners, listener{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, l := range s.listeners {
			if l.id == id {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// Close stops every watcher and removes the store from its registry.
// Close is idempotent.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for _, w := range s.watchers {
		w.Stop()
	}
	s.watchers = nil
	s.subscribers = nil
	s.listeners = nil
	reg := s.registry
	s.mu.Unlock()

	s.metrics.StoreClosed(s.name)
	if reg != nil {
		reg.remove(s.id)
	}
	s.logger.Debug("store closed", "id", s.id)
}

// notify is the view's change hook for writes and array mutators.
func (s *Store) notify(path string, value any) {
	s.changed(reactive.PathEvent{Path: path, Value: value, Level: levelOf(path), Op: reactive.OpSet})
}

// deleted is the view's hook for object key deletion.
func (s *Store) deleted(path string, level int) {
	s.changed(reactive.PathEvent{Path: path, Level: level, Op: reactive.OpDelete})
}

// beforeMethod lets deep watchers snapshot the pre-mutation value of an
// array they cover before it is changed in place.
func (s *Store) beforeMethod(path, _ string, _ []any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.watchers {
		if !w.Deep() || w.IsAccessor() || !w.Affects(path) {
			continue
		}
		old, _, _ := reactive.Lookup(s.state, w.Path())
		w.Snapshot(old)
	}
}

// changed runs the change pipeline for one path event: watchers in
// registration order, dependency propagation, then change listeners.
// Everything runs before the write that triggered it returns.
func (s *Store) changed(ev reactive.PathEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Debug("state changed", "path", ev.Path, "op", ev.Op.String())
	s.metrics.RecordChange(s.name, reactive.RootSegment(ev.Path), ev.Op.String())
	frame := s.currentFrame()
	if frame != nil {
		frame.changes = append(frame.changes, ev)
	}

	for _, w := range append([]*watch.Watcher(nil), s.watchers...) {
		if w.Stopped() || !w.Affects(ev.Path) {
			continue
		}
		if w.Update(s.state) {
			s.metrics.RecordWatcherFire(s.name)
		}
	}

	if err := s.graph.Propagate(ev.Path); err != nil {
		s.metrics.RecordError(s.name, "propagate", err)
		if frame != nil {
			frame.errs = append(frame.errs, err)
		} else {
			s.logger.Error("recompute failed", "path", ev.Path, "error", err)
		}
	}

	for _, l := range append([]listener(nil), s.listeners...) {
		l.fn(ev)
	}
}

func (s *Store) pushFrame() *commitFrame {
	f := &commitFrame{}
	s.frames = append(s.frames, f)
	return f
}

func (s *Store) popFrame() {
	s.frames = s.frames[:len(s.frames)-1]
}

func (s *Store) currentFrame() *commitFrame {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

func (s *Store) publish(rec MutationRecord) {
	for _, sub := range append([]subscription(nil), s.subscribers...) {
		sub.fn(rec, s.state)
	}
}

// levelOf returns the depth of a path's parent container.
func levelOf(path string) int {
	segs, err := reactive.ParsePath(path)
	if err != nil || len(segs) == 0 {
		return 0
	}
	return len(segs) - 1
}
