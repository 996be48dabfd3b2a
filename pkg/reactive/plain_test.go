package reactive

import "testing"

func TestNormalize(t *testing.T) {
	in := map[string]any{
		"ints":   []int{1, 2},
		"scores": map[string]int{"a": 1},
		"nested": []any{map[string]string{"k": "v"}},
		"leaf":   3,
	}
	out := Normalize(in).(map[string]any)

	ints, ok := out["ints"].([]any)
	if !ok || len(ints) != 2 || ints[0] != 1 {
		t.Errorf("ints = %#v", out["ints"])
	}
	scores, ok := out["scores"].(map[string]any)
	if !ok || scores["a"] != 1 {
		t.Errorf("scores = %#v", out["scores"])
	}
	nested := out["nested"].([]any)
	if m, ok := nested[0].(map[string]any); !ok || m["k"] != "v" {
		t.Errorf("nested = %#v", nested)
	}
}

func TestNormalizeKeepsStructsOpaque(t *testing.T) {
	type point struct{ X, Y int }
	p := point{1, 2}
	if got := Normalize(p); got != p {
		t.Errorf("Normalize(struct) = %#v", got)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	orig := map[string]any{"list": []any{1, map[string]any{"x": 1}}}
	c := Clone(orig).(map[string]any)

	c["list"].([]any)[1].(map[string]any)["x"] = 2
	if orig["list"].([]any)[1].(map[string]any)["x"] != 1 {
		t.Error("clone aliases the original")
	}
	if !Equal(Clone(orig), orig) {
		t.Error("fresh clone should be structurally equal")
	}
}

func TestEqualAndIdentical(t *testing.T) {
	a := map[string]any{"x": 1}
	b := map[string]any{"x": 1}

	if !Equal(a, b) {
		t.Error("Equal should compare contents")
	}
	if Identical(a, b) {
		t.Error("Identical should compare references")
	}
	if !Identical(a, a) {
		t.Error("a map is identical to itself")
	}

	s := []any{1, 2}
	if !Identical(s, s) {
		t.Error("a slice is identical to itself")
	}
	if Identical(s, s[:1]) {
		t.Error("a shorter reslice is not identical")
	}
	if !Identical(1, 1) || Identical(1, 2) || Identical(1, int64(1)) {
		t.Error("leaf identity should use == with matching types")
	}
	if !Identical(nil, nil) || Identical(nil, 0) {
		t.Error("nil handling")
	}
}
