// Package store provides Store, a centralized reactive state container.
//
// State is a tree of maps and slices behind a reactive.View. Mutations are
// named functions that write through the view; every write is reported as
// a path event and runs, before the write returns:
//
//  1. watchers registered with Watch, in registration order
//  2. recomputation of consumer computed properties attached with Attach
//  3. change listeners registered with OnChange
//
// Subscribers registered with Subscribe see one MutationRecord per
// successful Commit.
//
// # Example
//
//	s, err := store.New(store.Options{
//	    State: func() map[string]any { return map[string]any{"count": 0} },
//	    Mutations: map[string]store.Mutation{
//	        "increment": func(state *reactive.View, _ any) error {
//	            n, _ := state.Value("count")
//	            return state.Set("count", n.(int)+1)
//	        },
//	    },
//	})
//	if err != nil {
//	    return err
//	}
//
//	unwatch, _ := s.Watch("count", func(n, o any) {
//	    fmt.Println(o, "->", n)
//	})
//	defer unwatch()
//
//	s.Commit("increment") // prints 0 -> 1
//
// # Concurrency
//
// Store operations are serialized by a lock that the holding goroutine may
// re-acquire, so mutations and watcher callbacks can commit recursively.
// Actions run unlocked and may block.
package store
