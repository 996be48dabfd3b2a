// Package errors provides structured, coded errors for vstore.
//
// Every failure the engine can surface has a registered code (e.g. "E201")
// that maps to a category, a short message and a longer explanation. The
// engine never recovers locally: errors are returned to the caller, which
// decides whether to log, abort initialization or ignore them.
//
// # Error Categories
//
//   - store: commit, dispatch and getter failures
//   - path: malformed or unresolvable state paths
//   - computed: derived property failures
//   - config: vstore.json problems
//   - cli: command-line usage errors
//
// # Usage
//
//	err := errors.New("E201").
//	    WithDetail(`mutation "increment" is not declared`).
//	    WithSuggestion("Add it to Options.Mutations")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E201: Unknown mutation
//	//
//	//   mutation "increment" is not declared
//	//
//	//   Hint: Add it to Options.Mutations
//
// Codes compare with errors.Is, so a fresh New("E201") matches any
// returned E201 error regardless of detail.
package errors
