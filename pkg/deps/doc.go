// Package deps discovers which state a computed property reads, without
// the property declaring its dependencies.
//
// When the first Instance of an archetype attaches to a store, Graph.Attach
// installs a read interceptor on the store's state and a write interceptor
// on the instance's own data surface. Every top-level key read while a
// getter runs is attributed to the computed property whose value is written
// back next. The resulting edge map (state root key -> computed names) is
// frozen for the archetype and reused by every later instance.
//
// After that, Graph.Propagate is called with the path of every state write;
// the computed properties depending on the path's root key are re-derived
// and pushed into each attached instance synchronously.
package deps
