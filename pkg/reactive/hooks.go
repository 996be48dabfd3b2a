package reactive

import "sync/atomic"

// Op is the kind of access a PathEvent reports.
type Op uint8

const (
	OpGet Op = iota
	OpSet
	OpDelete
)

// String returns the operation name.
func (o Op) String() string {
	switch o {
	case OpGet:
		return "get"
	case OpSet:
		return "set"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// MarshalText lets events serialize the operation by name.
func (o Op) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// PathEvent is one read, write or deletion observed through a View.
// Path is root-relative; Level is the depth of the parent container
// (0 for top-level keys).
type PathEvent struct {
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
	Level int    `json:"level"`
	Op    Op     `json:"op"`
}

// Hooks are the callbacks a View reports to. Only Notify is required.
type Hooks struct {
	// Notify is called once per logical write with the written path and
	// the stored (plain) value. Array mutators report the whole array.
	Notify func(path string, value any)

	// OnGet is called for every segment read.
	OnGet func(path string, value any, level int)

	// OnSet is called for every direct property write, before Notify.
	OnSet func(path string, value any, level int)

	// OnDelete is called when an object key is deleted.
	OnDelete func(path string, level int)

	// BeforeMethod receives the array as it was before a mutator ran.
	// Sort and Reverse work in place, so receivers that keep the value
	// must copy it.
	BeforeMethod func(path, method string, arr []any)

	// AfterMethod receives the mutated array.
	AfterMethod func(path, method string, arr []any)

	// Lock and Unlock, when both set, bracket every read and write made
	// through a view. Hooks run while the lock is held and may read or
	// write again, so the lock must be re-entrant for its holder.
	Lock   func()
	Unlock func()
}

// Interceptor observes reads and writes on a view while registered.
type Interceptor struct {
	OnGet func(path string, value any, level int)
	OnSet func(path string, value any, level int)
}

// InterceptHandle identifies a registered interceptor.
type InterceptHandle uint64

var interceptSeq atomic.Uint64

type interceptEntry struct {
	handle InterceptHandle
	ic     Interceptor
}

// InterceptorSet is an ordered list of interceptors. Its OnGet and OnSet
// methods fan out to every registered interceptor in registration order
// and can be plugged straight into Hooks.
//
// InterceptorSet is not safe for concurrent use; owners serialize access.
type InterceptorSet struct {
	entries []interceptEntry
}

// Add registers an interceptor and returns its handle.
func (s *InterceptorSet) Add(ic Interceptor) InterceptHandle {
	h := InterceptHandle(interceptSeq.Add(1))
	s.entries = append(s.entries, interceptEntry{handle: h, ic: ic})
	return h
}

// Remove unregisters an interceptor. It reports whether it was present.
func (s *InterceptorSet) Remove(h InterceptHandle) bool {
	for i, e := range s.entries {
		if e.handle == h {
			s.entries = append(s.entries[:i:i], s.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of registered interceptors.
func (s *InterceptorSet) Len() int {
	return len(s.entries)
}

// OnGet forwards a read to every interceptor.
func (s *InterceptorSet) OnGet(path string, value any, level int) {
	for _, e := range s.snapshot() {
		if e.ic.OnGet != nil {
			e.ic.OnGet(path, value, level)
		}
	}
}

// OnSet forwards a write to every interceptor.
func (s *InterceptorSet) OnSet(path string, value any, level int) {
	for _, e := range s.snapshot() {
		if e.ic.OnSet != nil {
			e.ic.OnSet(path, value, level)
		}
	}
}

// snapshot lets interceptors unregister themselves mid-dispatch.
func (s *InterceptorSet) snapshot() []interceptEntry {
	if len(s.entries) == 0 {
		return nil
	}
	out := make([]interceptEntry, len(s.entries))
	copy(out, s.entries)
	return out
}
