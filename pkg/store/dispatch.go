package store

import (
	"context"
	"time"

	"github.com/vango-dev/vstore/internal/errors"
	"github.com/vango-dev/vstore/pkg/reactive"
)

// ActionContext is handed to actions. It carries the dispatch context and
// exposes the store operations an action may use.
type ActionContext struct {
	context.Context
	store *Store
}

// Commit commits a mutation on the action's store.
func (ac ActionContext) Commit(typ any, payload ...any) error {
	return ac.store.CommitContext(ac.Context, typ, payload...)
}

// Dispatch dispatches another action on the same store.
func (ac ActionContext) Dispatch(typ any, payload ...any) error {
	return ac.store.Dispatch(ac.Context, typ, payload...)
}

// State returns the store's root view. Reads through it are serialized
// with commits; actions should change state through Commit.
func (ac ActionContext) State() *reactive.View { return ac.store.state }

// Getters returns the store's getters.
func (ac ActionContext) Getters() *Getters { return ac.store.getters }

// Dispatch runs the named action. The argument forms are the same as for
// Commit. Unlike mutations, actions run without holding the store lock and
// may block; ctx is checked before the action starts and is passed on to
// it.
func (s *Store) Dispatch(ctx context.Context, typ any, payload ...any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	name, p, err := resolveType(typ, payload)
	if err != nil {
		s.metrics.RecordError(s.name, "dispatch", err)
		return err
	}

	s.mu.Lock()
	a, ok := s.actions[name]
	s.mu.Unlock()
	if !ok {
		err := errors.New("E206").
			WithDetailf("%q in store %q", name, s.name).
			WithSuggestion("Declare the action in Options.Actions")
		s.metrics.RecordError(s.name, "dispatch", err)
		return err
	}

	ctx, span := s.tracer.Start(ctx, "dispatch", s.name, name)
	start := time.Now()

	err = a(ActionContext{Context: ctx, store: s}, p)

	d := time.Since(start)
	s.tracer.End(span, err)
	s.metrics.ObserveDispatch(s.name, name, d, err)
	if err != nil {
		s.logger.Debug("dispatch failed", "action", name, "error", err)
		return err
	}
	s.logger.Debug("dispatch", "action", name, "duration", d)
	return nil
}
