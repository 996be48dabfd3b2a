package reactive

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/vango-dev/vstore/internal/errors"
)

// document holds the root object shared by every view derived from it.
type document struct {
	data  map[string]any
	hooks Hooks
}

// View is a path-aware handle onto a location in a plain data tree.
//
// Reads through Get report OnGet for each segment; writes through Set,
// Delete and the array mutators report to the document's hooks. Views are
// cheap and never cached: every Get that lands on a container returns a
// fresh View whose path extends the parent's.
//
// A View resolves its target from the root on every call, so it stays
// valid after sibling writes or array reallocation. It is not safe for
// concurrent use.
type View struct {
	doc   *document
	keys  []any // string for object keys, int for array indices
	path  string
	level int
}

// Wrap returns the root view over data. A nil map is replaced by an
// empty one. Nested values are normalized in place.
func Wrap(data map[string]any, hooks Hooks) *View {
	if data == nil {
		data = map[string]any{}
	}
	Normalize(data)
	return &View{doc: &document{data: data, hooks: hooks}}
}

// Path returns the root-relative path of the view ("" for the root).
func (v *View) Path() string { return v.path }

// Level returns the nesting depth of the view (0 for the root).
func (v *View) Level() int { return v.level }

// Raw returns the backing value without reporting a read.
func (v *View) Raw() any {
	defer v.guard()()
	val, _ := v.resolve()
	return val
}

// Object returns the backing map, or nil if the view is not an object.
func (v *View) Object() map[string]any {
	m, _ := v.Raw().(map[string]any)
	return m
}

// Array returns the backing slice, or nil if the view is not an array.
func (v *View) Array() []any {
	a, _ := v.Raw().([]any)
	return a
}

// IsArray reports whether the view addresses an array.
func (v *View) IsArray() bool {
	_, ok := v.Raw().([]any)
	return ok
}

// Len returns the number of keys or elements.
func (v *View) Len() int {
	defer v.guard()()
	switch t := v.Raw().(type) {
	case map[string]any:
		return len(t)
	case []any:
		return len(t)
	}
	return 0
}

// Keys returns the object keys in sorted order. Arrays yield their
// indices as strings.
func (v *View) Keys() []string {
	defer v.guard()()
	switch t := v.Raw().(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return keys
	case []any:
		keys := make([]string, len(t))
		for i := range t {
			keys[i] = strconv.Itoa(i)
		}
		return keys
	}
	return nil
}

// Root returns the root view of the document.
func (v *View) Root() *View {
	return &View{doc: v.doc}
}

// Reset swaps the whole backing object. Existing views keep resolving
// against the new data. No events are reported.
func (v *View) Reset(data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	defer v.guard()()
	Normalize(data)
	v.doc.data = data
}

// Get reads path relative to the view. Containers come back as *View,
// leaves as their value. Missing locations read as nil.
func (v *View) Get(path string) (any, error) {
	defer v.guard()()
	segs, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	if len(segs) == 0 {
		return v, nil
	}

	cur := v
	for i, seg := range segs {
		child, ok := cur.read(seg)
		if !ok || i == len(segs)-1 {
			return child, nil
		}
		next, isView := child.(*View)
		if !isView {
			return nil, nil
		}
		cur = next
	}
	return nil, nil
}

// Value reads path like Get but returns the plain backing value for
// containers instead of a view.
func (v *View) Value(path string) (any, error) {
	defer v.guard()()
	got, err := v.Get(path)
	if vw, ok := got.(*View); ok {
		return vw.Raw(), err
	}
	return got, err
}

// read resolves one segment against the view's target and reports it.
func (v *View) read(seg Segment) (any, bool) {
	target, ok := v.resolve()
	if !ok {
		return nil, false
	}

	var (
		child   any
		found   bool
		key     any
		inArray bool
	)
	switch t := target.(type) {
	case map[string]any:
		child, found = t[seg.Key]
		key = seg.Key
	case []any:
		inArray = true
		if idx, isIdx := seg.index(); isIdx {
			key = idx
			if idx < len(t) {
				child, found = t[idx], true
			}
		} else if seg.Key == "length" {
			child, found = len(t), true
		}
	default:
		return nil, false
	}

	childPath := JoinPath(v.path, seg.Key, inArray)
	if h := v.doc.hooks.OnGet; h != nil {
		h(childPath, child, v.level)
	}
	if !found {
		return nil, false
	}
	if IsContainer(child) && key != nil {
		return v.child(key, childPath), true
	}
	return child, true
}

// guard takes the document lock, if any, and returns its release.
func (v *View) guard() func() {
	h := v.doc.hooks
	if h.Lock == nil || h.Unlock == nil {
		return func() {}
	}
	h.Lock()
	return h.Unlock
}

func (v *View) child(key any, path string) *View {
	keys := make([]any, len(v.keys)+1)
	copy(keys, v.keys)
	keys[len(v.keys)] = key
	return &View{doc: v.doc, keys: keys, path: path, level: v.level + 1}
}

// Set writes value at path relative to the view. Intermediate segments
// are read (and reported) like Get; they must resolve to containers.
// Containers and views are stored as plain data. An array index may name
// an existing element or the slot just past the end.
func (v *View) Set(path string, value any) error {
	defer v.guard()()
	parent, last, err := v.parentOf(path)
	if err != nil {
		return err
	}
	return parent.assign(last, value)
}

// Delete removes the location at path. Object keys report OnDelete;
// array elements are removed with a one-element Splice.
func (v *View) Delete(path string) error {
	defer v.guard()()
	parent, last, err := v.parentOf(path)
	if err != nil {
		return err
	}

	switch t := parent.Raw().(type) {
	case map[string]any:
		if _, ok := t[last.Key]; !ok {
			return nil
		}
		delete(t, last.Key)
		if h := parent.doc.hooks.OnDelete; h != nil {
			h(JoinPath(parent.path, last.Key, false), parent.level)
		}
		return nil
	case []any:
		idx, ok := last.index()
		if !ok {
			return pathNotFound(JoinPath(parent.path, last.Key, true), "array index expected")
		}
		if idx >= len(t) {
			return nil
		}
		_, err := parent.Splice(idx, 1)
		return err
	}
	return pathNotFound(parent.path, "not a container")
}

// parentOf walks to the container holding the last segment of path.
func (v *View) parentOf(path string) (*View, Segment, error) {
	segs, err := ParsePath(path)
	if err != nil {
		return nil, Segment{}, err
	}
	if len(segs) == 0 {
		return nil, Segment{}, errors.New("E204").WithDetail("cannot assign to the view itself")
	}

	parent := v
	for _, seg := range segs[:len(segs)-1] {
		child, ok := parent.read(seg)
		next, isView := child.(*View)
		if !ok || !isView {
			return nil, Segment{}, pathNotFound(path, "intermediate segment "+seg.String()+" is not a container")
		}
		parent = next
	}
	if !IsContainer(parent.Raw()) {
		return nil, Segment{}, pathNotFound(path, "parent is not a container")
	}
	return parent, segs[len(segs)-1], nil
}

// assign stores value under seg in the view's container.
func (v *View) assign(seg Segment, value any) error {
	stored := flatten(value)

	switch t := v.Raw().(type) {
	case map[string]any:
		t[seg.Key] = stored
		v.written(JoinPath(v.path, seg.Key, false), stored)
		return nil
	case []any:
		if seg.Key == "length" && !seg.Bracket {
			n, ok := toLength(value)
			if !ok {
				return errors.New("E204").WithDetailf("%q: length must be a non-negative integer", v.path)
			}
			v.store(resize(t, n))
			return nil
		}
		idx, ok := seg.index()
		if !ok {
			return pathNotFound(JoinPath(v.path, seg.Key, true), "array index expected")
		}
		switch {
		case idx > len(t):
			return pathNotFound(JoinPath(v.path, seg.Key, true),
				fmt.Sprintf("index %d is past the end of an array of length %d", idx, len(t)))
		case idx == len(t):
			t = append(t, stored)
		default:
			t[idx] = stored
		}
		v.store(t)
		v.written(JoinPath(v.path, seg.Key, true), stored)
		return nil
	}
	return pathNotFound(v.path, "not a container")
}

func (v *View) written(path string, value any) {
	hooks := v.doc.hooks
	if hooks.OnSet != nil {
		hooks.OnSet(path, value, v.level)
	}
	if hooks.Notify != nil {
		hooks.Notify(path, value)
	}
}

// resolve walks the document to the view's current target.
func (v *View) resolve() (any, bool) {
	var cur any = v.doc.data
	for _, k := range v.keys {
		switch t := cur.(type) {
		case map[string]any:
			var ok bool
			if cur, ok = t[k.(string)]; !ok {
				return nil, false
			}
		case []any:
			idx := k.(int)
			if idx >= len(t) {
				return nil, false
			}
			cur = t[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

// store replaces the view's own target in its parent container without
// reporting anything. Used after slice operations that may reallocate.
func (v *View) store(value any) {
	if len(v.keys) == 0 {
		if m, ok := value.(map[string]any); ok {
			v.doc.data = m
		}
		return
	}
	parent := &View{doc: v.doc, keys: v.keys[:len(v.keys)-1]}
	switch t := parent.Raw().(type) {
	case map[string]any:
		t[v.keys[len(v.keys)-1].(string)] = value
	case []any:
		idx := v.keys[len(v.keys)-1].(int)
		if idx < len(t) {
			t[idx] = value
		}
	}
}

// flatten turns views and foreign containers into plain data. Views are
// copied so the store never aliases a live location.
func flatten(value any) any {
	if vw, ok := value.(*View); ok {
		return Clone(vw.Raw())
	}
	return Normalize(value)
}

func resize(arr []any, n int) []any {
	if n <= len(arr) {
		return arr[:n]
	}
	return append(arr, make([]any, n-len(arr))...)
}

func toLength(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, n >= 0
	case int64:
		return int(n), n >= 0
	case float64:
		return int(n), n >= 0 && n == float64(int(n))
	}
	return 0, false
}

func pathNotFound(path, reason string) error {
	return errors.New("E207").WithDetailf("%q: %s", path, reason)
}
