package reactive

import (
	stderrors "errors"
	"testing"

	"github.com/vango-dev/vstore/internal/errors"
)

// recorder captures every hook invocation as a PathEvent.
type recorder struct {
	events  []PathEvent
	notes   []PathEvent
	before  []string
	after   []string
	deletes []string
}

func (r *recorder) hooks() Hooks {
	return Hooks{
		Notify: func(path string, value any) {
			r.notes = append(r.notes, PathEvent{Path: path, Value: value, Op: OpSet})
		},
		OnGet: func(path string, value any, level int) {
			r.events = append(r.events, PathEvent{Path: path, Value: value, Level: level, Op: OpGet})
		},
		OnSet: func(path string, value any, level int) {
			r.events = append(r.events, PathEvent{Path: path, Value: value, Level: level, Op: OpSet})
		},
		OnDelete: func(path string, level int) {
			r.deletes = append(r.deletes, path)
		},
		BeforeMethod: func(path, method string, arr []any) {
			r.before = append(r.before, method+"@"+path)
		},
		AfterMethod: func(path, method string, arr []any) {
			r.after = append(r.after, method+"@"+path)
		},
	}
}

func newFixture() (*View, *recorder) {
	rec := &recorder{}
	v := Wrap(map[string]any{
		"count": 0,
		"user": map[string]any{
			"name": "ada",
			"tags": []any{"a", "b"},
		},
		"items": []any{
			map[string]any{"id": 1},
			map[string]any{"id": 2},
		},
	}, rec.hooks())
	return v, rec
}

func TestGetComposesPathsAndLevels(t *testing.T) {
	v, rec := newFixture()

	got, err := v.Get("items[1].id")
	if err != nil {
		t.Fatal(err)
	}
	if got != 2 {
		t.Errorf("Get = %v, want 2", got)
	}

	want := []struct {
		path  string
		level int
	}{
		{"items", 0},
		{"items[1]", 1},
		{"items[1].id", 2},
	}
	if len(rec.events) != len(want) {
		t.Fatalf("events = %+v", rec.events)
	}
	for i, w := range want {
		e := rec.events[i]
		if e.Path != w.path || e.Level != w.level || e.Op != OpGet {
			t.Errorf("event %d = %+v, want %s@%d", i, e, w.path, w.level)
		}
	}
}

func TestGetReturnsFreshViews(t *testing.T) {
	v, _ := newFixture()

	a, _ := v.Get("user")
	b, _ := v.Get("user")
	va, ok := a.(*View)
	if !ok {
		t.Fatalf("Get(user) = %T, want *View", a)
	}
	if va == b.(*View) {
		t.Error("views should not be cached across reads")
	}
	if va.Path() != "user" || va.Level() != 1 {
		t.Errorf("view path/level = %q/%d", va.Path(), va.Level())
	}

	name, _ := va.Get("name")
	if name != "ada" {
		t.Errorf("nested Get = %v", name)
	}
}

func TestGetMissingReadsNil(t *testing.T) {
	v, rec := newFixture()

	got, err := v.Get("nope.deeper")
	if err != nil || got != nil {
		t.Errorf("Get(missing) = %v, %v", got, err)
	}
	if len(rec.events) != 1 || rec.events[0].Path != "nope" {
		t.Errorf("events = %+v", rec.events)
	}

	got, _ = v.Get("count.deeper")
	if got != nil {
		t.Errorf("Get through leaf = %v", got)
	}
}

func TestSetRoundTrip(t *testing.T) {
	tests := []struct {
		path  string
		value any
	}{
		{"count", 7},
		{"user.name", "grace"},
		{"user.tags[1]", "z"},
		{"items[0].id", 10},
		{"fresh", map[string]any{"k": "v"}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			v, _ := newFixture()
			if err := v.Set(tt.path, tt.value); err != nil {
				t.Fatal(err)
			}
			got, err := v.Value(tt.path)
			if err != nil {
				t.Fatal(err)
			}
			if !Equal(got, tt.value) {
				t.Errorf("read back %#v, want %#v", got, tt.value)
			}
		})
	}
}

func TestSetNotifiesWithComposedPath(t *testing.T) {
	v, rec := newFixture()

	if err := v.Set("user.tags[0]", "x"); err != nil {
		t.Fatal(err)
	}
	if len(rec.notes) != 1 || rec.notes[0].Path != "user.tags[0]" || rec.notes[0].Value != "x" {
		t.Fatalf("notes = %+v", rec.notes)
	}

	last := rec.events[len(rec.events)-1]
	if last.Op != OpSet || last.Path != "user.tags[0]" || last.Level != 2 {
		t.Errorf("set event = %+v", last)
	}
}

func TestSetLengthIsSilent(t *testing.T) {
	v, rec := newFixture()

	if err := v.Set("user.tags.length", 1); err != nil {
		t.Fatal(err)
	}
	if len(rec.notes) != 0 {
		t.Errorf("length write notified: %+v", rec.notes)
	}
	tags, _ := v.Value("user.tags")
	if len(tags.([]any)) != 1 {
		t.Errorf("tags = %v", tags)
	}
	n, _ := v.Get("user.tags.length")
	if n != 1 {
		t.Errorf("length = %v", n)
	}
}

func TestSetFlattensViews(t *testing.T) {
	v, _ := newFixture()

	user, _ := v.Get("user")
	if err := v.Set("copy", user); err != nil {
		t.Fatal(err)
	}

	stored := v.Object()["copy"]
	if _, isView := stored.(*View); isView {
		t.Fatal("a view leaked into the backing store")
	}
	stored.(map[string]any)["name"] = "changed"
	if name, _ := v.Peek("user.name"); name != "ada" {
		t.Error("stored copy aliases the source")
	}
}

func TestSetThroughMissingParent(t *testing.T) {
	v, _ := newFixture()

	err := v.Set("missing.child", 1)
	if !stderrors.Is(err, errors.New("E207")) {
		t.Errorf("Set(missing.child) = %v, want E207", err)
	}
	if err := v.Set("", 1); !stderrors.Is(err, errors.New("E204")) {
		t.Errorf("Set(\"\") = %v, want E204", err)
	}
	if err := v.Set("a b", 1); !stderrors.Is(err, errors.New("E204")) {
		t.Errorf("Set(malformed) = %v, want E204", err)
	}
}

func TestDeleteObjectKey(t *testing.T) {
	v, rec := newFixture()

	if err := v.Delete("user.name"); err != nil {
		t.Fatal(err)
	}
	if len(rec.deletes) != 1 || rec.deletes[0] != "user.name" {
		t.Errorf("deletes = %v", rec.deletes)
	}
	if _, ok, _ := Lookup(v, "user.name"); ok {
		t.Error("key still present")
	}
}

func TestDeleteArrayIndexSplices(t *testing.T) {
	v, rec := newFixture()

	if err := v.Delete("user.tags[0]"); err != nil {
		t.Fatal(err)
	}
	tags, _ := v.Value("user.tags")
	if got := tags.([]any); len(got) != 1 || got[0] != "b" {
		t.Errorf("tags = %v, want [b]", got)
	}
	if len(rec.deletes) != 0 {
		t.Errorf("array delete should not report OnDelete: %v", rec.deletes)
	}
	if len(rec.notes) != 1 || rec.notes[0].Path != "user.tags" {
		t.Errorf("notes = %+v", rec.notes)
	}
}

func TestResetSwapsData(t *testing.T) {
	v, rec := newFixture()
	user, _ := v.Get("user")

	v.Reset(map[string]any{"user": map[string]any{"name": "new"}})
	if name, _ := user.(*View).Get("name"); name != "new" {
		t.Errorf("stale view read %v", name)
	}
	if len(rec.notes) != 0 {
		t.Error("Reset should not notify")
	}
}

func TestKeysAndLen(t *testing.T) {
	v, _ := newFixture()

	keys := v.Keys()
	if len(keys) != 3 || keys[0] != "count" || keys[2] != "user" {
		t.Errorf("Keys() = %v", keys)
	}
	items, _ := v.ArrayAt("items")
	if items.Len() != 2 || items.Keys()[1] != "1" {
		t.Errorf("items Len/Keys = %d/%v", items.Len(), items.Keys())
	}
	if _, err := v.ArrayAt("user"); !stderrors.Is(err, errors.New("E208")) {
		t.Errorf("ArrayAt(object) = %v", err)
	}
}

func TestLookupIsSilent(t *testing.T) {
	v, rec := newFixture()

	got, ok, err := Lookup(v, "items[1].id")
	if err != nil || !ok || got != 2 {
		t.Errorf("Lookup = %v, %v, %v", got, ok, err)
	}
	if _, ok, _ := Lookup(v.Raw(), "items[5]"); ok {
		t.Error("out of range index should not be found")
	}
	if len(rec.events) != 0 {
		t.Errorf("Lookup reported events: %+v", rec.events)
	}
}

func TestSetArrayIndexBounds(t *testing.T) {
	v, rec := newFixture()

	if err := v.Set("user.tags[2]", "c"); err != nil {
		t.Fatalf("append at end: %v", err)
	}
	tags, _ := v.Value("user.tags")
	if got := tags.([]any); len(got) != 3 || got[2] != "c" {
		t.Errorf("tags = %v", got)
	}

	rec.notes = nil
	err := v.Set("user.tags[1000000000]", "x")
	if !stderrors.Is(err, ErrPathNotFound) {
		t.Errorf("write past the end = %v, want E207", err)
	}
	if tags, _ := v.Value("user.tags"); len(tags.([]any)) != 3 {
		t.Errorf("tags grew to %d", len(tags.([]any)))
	}
	if len(rec.notes) != 0 {
		t.Errorf("rejected write notified: %+v", rec.notes)
	}
}

// reentrantCounter counts lock depth the way a re-entrant owner lock does.
type reentrantCounter struct {
	depth, max, locks int
}

func (c *reentrantCounter) lock() {
	c.depth++
	c.locks++
	c.max = max(c.max, c.depth)
}

func (c *reentrantCounter) unlock() { c.depth-- }

func TestHooksLockBracketsAccess(t *testing.T) {
	c := &reentrantCounter{}
	var heldDuringNotify bool
	v := Wrap(map[string]any{"items": []any{1}}, Hooks{
		Notify: func(string, any) { heldDuringNotify = c.depth > 0 },
		Lock:   c.lock,
		Unlock: c.unlock,
	})

	calls := []struct {
		name string
		fn   func() error
	}{
		{"Get", func() error { _, err := v.Get("items[0]"); return err }},
		{"Value", func() error { _, err := v.Value("items"); return err }},
		{"Peek", func() error { _, err := v.Peek("items"); return err }},
		{"Set", func() error { return v.Set("n", 1) }},
		{"Delete", func() error { return v.Delete("n") }},
		{"Push", func() error {
			items, err := v.ArrayAt("items")
			if err != nil {
				return err
			}
			_, err = items.Push(2)
			return err
		}},
		{"Lookup", func() error { _, _, err := Lookup(v, "items[0]"); return err }},
	}
	for _, tt := range calls {
		t.Run(tt.name, func(t *testing.T) {
			before := c.locks
			if err := tt.fn(); err != nil {
				t.Fatal(err)
			}
			if c.locks == before {
				t.Errorf("%s did not take the lock", tt.name)
			}
			if c.depth != 0 {
				t.Errorf("%s left the lock held (depth %d)", tt.name, c.depth)
			}
		})
	}
	if !heldDuringNotify {
		t.Error("Notify ran without the lock")
	}
}
