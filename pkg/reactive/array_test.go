package reactive

import (
	"reflect"
	"testing"
)

func TestSpliceNotifiesOnceWithWholeArray(t *testing.T) {
	rec := &recorder{}
	v := Wrap(map[string]any{"items": []any{"a", "b", "c"}}, rec.hooks())

	items, err := v.ArrayAt("items")
	if err != nil {
		t.Fatal(err)
	}
	removed, err := items.Splice(0, 1, "x")
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(removed, []any{"a"}) {
		t.Errorf("removed = %v", removed)
	}
	if len(rec.notes) != 1 {
		t.Fatalf("notifications = %d, want 1: %+v", len(rec.notes), rec.notes)
	}
	n := rec.notes[0]
	if n.Path != "items" || !reflect.DeepEqual(n.Value, []any{"x", "b", "c"}) {
		t.Errorf("notification = %+v", n)
	}
	if !reflect.DeepEqual(rec.before, []string{"splice@items"}) || !reflect.DeepEqual(rec.after, []string{"splice@items"}) {
		t.Errorf("before/after = %v/%v", rec.before, rec.after)
	}
}

func TestBeforeMethodSeesPreCallArray(t *testing.T) {
	var snapshot []any
	v := Wrap(map[string]any{"items": []any{1, 2}}, Hooks{
		Notify: func(string, any) {},
		BeforeMethod: func(_, _ string, arr []any) {
			snapshot = Clone(arr).([]any)
		},
	})

	items, _ := v.ArrayAt("items")
	if _, err := items.Push(3); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(snapshot, []any{1, 2}) {
		t.Errorf("snapshot = %v", snapshot)
	}
}

func TestArrayMutators(t *testing.T) {
	tests := []struct {
		name string
		op   func(v *View) (any, error)
		want []any
		ret  any
	}{
		{
			name: "push",
			op:   func(v *View) (any, error) { return v.Push(4, 5) },
			want: []any{3, 1, 2, 4, 5},
			ret:  5,
		},
		{
			name: "pop",
			op:   func(v *View) (any, error) { return v.Pop() },
			want: []any{3, 1},
			ret:  2,
		},
		{
			name: "shift",
			op:   func(v *View) (any, error) { return v.Shift() },
			want: []any{1, 2},
			ret:  3,
		},
		{
			name: "unshift",
			op:   func(v *View) (any, error) { return v.Unshift(0) },
			want: []any{0, 3, 1, 2},
			ret:  4,
		},
		{
			name: "splice negative start",
			op:   func(v *View) (any, error) { return v.Splice(-1, 5) },
			want: []any{3, 1},
			ret:  []any{2},
		},
		{
			name: "sort",
			op: func(v *View) (any, error) {
				return nil, v.Sort(func(a, b any) bool { return a.(int) < b.(int) })
			},
			want: []any{1, 2, 3},
		},
		{
			name: "reverse",
			op:   func(v *View) (any, error) { return nil, v.Reverse() },
			want: []any{2, 1, 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			root := Wrap(map[string]any{"nums": []any{3, 1, 2}}, rec.hooks())
			nums, _ := root.ArrayAt("nums")

			ret, err := tt.op(nums)
			if err != nil {
				t.Fatal(err)
			}
			if tt.ret != nil && !reflect.DeepEqual(ret, tt.ret) {
				t.Errorf("returned %v, want %v", ret, tt.ret)
			}
			got, _ := root.Value("nums")
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("nums = %v, want %v", got, tt.want)
			}
			if len(rec.notes) != 1 || rec.notes[0].Path != "nums" {
				t.Errorf("notes = %+v", rec.notes)
			}
		})
	}
}

func TestMutatorOnNonArray(t *testing.T) {
	v := Wrap(map[string]any{"obj": map[string]any{}}, Hooks{})
	obj, _ := v.Get("obj")
	if _, err := obj.(*View).Push(1); err == nil {
		t.Error("Push on object should fail")
	}
}

func TestNestedArrayWriteBack(t *testing.T) {
	v := Wrap(map[string]any{"grid": []any{[]any{1}, []any{2}}}, Hooks{})

	row, err := v.ArrayAt("grid[1]")
	if err != nil {
		t.Fatal(err)
	}
	if row.Path() != "grid[1]" {
		t.Errorf("path = %q", row.Path())
	}
	for i := 0; i < 10; i++ {
		if _, err := row.Push(i); err != nil {
			t.Fatal(err)
		}
	}
	got, _ := v.Value("grid[1]")
	if len(got.([]any)) != 11 {
		t.Errorf("grid[1] = %v", got)
	}
}

func TestShiftLastElementLeavesEmptyArray(t *testing.T) {
	v := Wrap(map[string]any{"items": []any{"a"}}, Hooks{})
	items, err := v.ArrayAt("items")
	if err != nil {
		t.Fatal(err)
	}

	out, err := items.Shift()
	if err != nil || out != "a" {
		t.Fatalf("Shift() = %v, %v", out, err)
	}
	got, _ := v.Value("items")
	arr, ok := got.([]any)
	if !ok || arr == nil || len(arr) != 0 {
		t.Errorf("items = %#v, want an empty non-nil array", got)
	}
}
