package store

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/vango-dev/vstore/internal/errors"
)

// Typed is implemented by payload objects that carry their own mutation
// or action name, so they can be committed directly:
//
//	type Increment struct{ By int }
//	func (Increment) MutationType() string { return "increment" }
//
//	store.Commit(Increment{By: 2})
type Typed interface {
	MutationType() string
}

// Commit applies the named mutation synchronously. typ is either the
// mutation name, followed by an optional payload, or an object naming
// itself (a map with a "type" key, or a Typed value), which is then passed
// as the payload.
//
// Watchers and dependent computed properties are updated before Commit
// returns. Recompute failures are returned after the mutation has been
// applied.
func (s *Store) Commit(typ any, payload ...any) error {
	return s.CommitContext(context.Background(), typ, payload...)
}

// CommitContext is Commit with a context for tracing.
func (s *Store) CommitContext(ctx context.Context, typ any, payload ...any) error {
	name, p, err := resolveType(typ, payload)
	if err != nil {
		s.metrics.RecordError(s.name, "commit", err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.mutations[name]
	if !ok {
		err := errors.New("E201").
			WithDetailf("%q in store %q", name, s.name).
			WithSuggestion("Declare the mutation in Options.Mutations")
		s.metrics.RecordError(s.name, "commit", err)
		return err
	}

	_, span := s.tracer.Start(ctx, "commit", s.name, name)
	start := time.Now()

	frame := s.pushFrame()
	err = m(s.state, p)
	s.popFrame()
	if err == nil {
		err = stderrors.Join(frame.errs...)
	}

	d := time.Since(start)
	s.tracer.AddChanges(span, len(frame.changes))
	s.tracer.End(span, err)
	s.metrics.ObserveCommit(s.name, name, d, err)

	if err != nil {
		s.logger.Debug("commit failed", "mutation", name, "error", err)
		return err
	}

	s.logger.Debug("commit", "mutation", name, "changes", len(frame.changes), "duration", d)
	s.publish(MutationRecord{
		Type:     name,
		Payload:  p,
		Changes:  frame.changes,
		Duration: d,
	})
	return nil
}

// resolveType splits the commit or dispatch arguments into a name and a
// payload.
func resolveType(typ any, payload []any) (string, any, error) {
	var name string
	var p any
	object := false

	switch t := typ.(type) {
	case string:
		name = t
		if len(payload) > 0 {
			p = payload[0]
		}
	case Typed:
		name, p, object = t.MutationType(), t, true
	case map[string]any:
		n, ok := t["type"].(string)
		if !ok {
			return "", nil, errors.New("E202").WithDetail(`object form needs a string "type" field`)
		}
		name, p, object = n, t, true
	default:
		return "", nil, errors.New("E202").WithDetailf("got %T", typ)
	}

	if name == "" {
		return "", nil, errors.New("E202").WithDetail("empty type")
	}
	if object && len(payload) > 0 {
		return "", nil, errors.New("E202").WithDetail("object form takes no separate payload")
	}
	if len(payload) > 1 {
		return "", nil, errors.New("E202").WithDetailf("expected at most one payload, got %d", len(payload))
	}
	return name, p, nil
}
