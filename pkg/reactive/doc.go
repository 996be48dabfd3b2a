// Package reactive wraps plain nested data (map[string]any, []any and
// leaves) in path-aware views that report every read, write and deletion.
//
// Go has no transparent property trapping, so a View is an explicit
// handle: callers use Get, Set, Delete and the array mutators instead of
// native indexing. Every operation composes a root-relative path such as
// "a.b[2].c" and reports it to the Hooks the root was wrapped with:
//
//	state := reactive.Wrap(map[string]any{"count": 0}, reactive.Hooks{
//	    Notify: func(path string, value any) {
//	        fmt.Println("changed", path, value)
//	    },
//	})
//	state.Set("count", 1) // changed count 1
//
// Array mutators (Push, Pop, Shift, Unshift, Splice, Sort, Reverse) are
// reported as one change carrying the whole array at the array's path,
// never as per-index writes.
package reactive
