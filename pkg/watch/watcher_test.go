package watch

import (
	stderrors "errors"
	"testing"

	"github.com/vango-dev/vstore/internal/errors"
	"github.com/vango-dev/vstore/pkg/reactive"
)

type call struct{ newV, oldV any }

func collect(calls *[]call) Callback {
	return func(n, o any) { *calls = append(*calls, call{n, o}) }
}

func TestNewPathRejectsMalformedPathsEagerly(t *testing.T) {
	_, err := NewPath("a-b", nil, Options{})
	if !stderrors.Is(err, errors.New("E204")) {
		t.Fatalf("NewPath(malformed) = %v, want E204", err)
	}
}

func TestOnceImmediate(t *testing.T) {
	var calls []call
	w, err := NewPath("a", collect(&calls), Options{Immediate: true})
	if err != nil {
		t.Fatal(err)
	}

	w.Once(5)
	w.Once(6)

	if len(calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(calls))
	}
	if calls[0].newV != 5 || calls[0].oldV != nil {
		t.Errorf("call = %+v, want (5, nil)", calls[0])
	}
	if w.Last() != 5 {
		t.Errorf("Last() = %v, want 5", w.Last())
	}
}

func TestOnceWithoutImmediateIsSilent(t *testing.T) {
	var calls []call
	w, _ := NewPath("a", collect(&calls), Options{})

	w.Once(1)
	if len(calls) != 0 {
		t.Errorf("priming fired callback: %+v", calls)
	}
	if !w.Primed() {
		t.Error("watcher not primed")
	}
}

func TestCallShallow(t *testing.T) {
	var calls []call
	w, _ := NewPath("count", collect(&calls), Options{})
	w.Once(0)

	if !w.Call(1) {
		t.Error("Call(1) should fire")
	}
	if w.Call(1) {
		t.Error("Call(1) again should not fire")
	}
	if len(calls) != 1 || calls[0] != (call{1, 0}) {
		t.Errorf("calls = %+v, want [(1, 0)]", calls)
	}
}

func TestCallShallowUsesIdentity(t *testing.T) {
	var calls []call
	obj := map[string]any{"x": 1}
	w, _ := NewPath("obj", collect(&calls), Options{})
	w.Once(obj)

	obj["x"] = 2
	if w.Call(obj) {
		t.Error("same reference should not fire a shallow watcher")
	}
	if !w.Call(map[string]any{"x": 2}) {
		t.Error("a new reference should fire a shallow watcher")
	}
}

func TestCallDeepIgnoresStructuralClone(t *testing.T) {
	var calls []call
	obj := map[string]any{"x": 1, "list": []any{1, 2}}
	w, _ := NewPath("obj", collect(&calls), Options{Deep: true})
	w.Once(obj)

	if w.Call(reactive.Clone(obj)) {
		t.Error("structurally equal clone should not fire a deep watcher")
	}
	if len(calls) != 0 {
		t.Errorf("calls = %+v", calls)
	}
}

func TestCallDeepDetectsInPlaceMutation(t *testing.T) {
	var calls []call
	obj := map[string]any{"list": []any{1}}
	w, _ := NewPath("obj", collect(&calls), Options{Deep: true})
	w.Once(obj)

	obj["list"] = append(obj["list"].([]any), 2)
	if !w.Call(obj) {
		t.Fatal("in-place mutation should fire a deep watcher")
	}

	old := calls[0].oldV.(map[string]any)
	if len(old["list"].([]any)) != 1 {
		t.Errorf("old snapshot aliases the live value: %v", old)
	}
}

func TestSnapshot(t *testing.T) {
	arr := []any{1, 2}
	deep, _ := NewPath("items", nil, Options{Deep: true})
	deep.Once(arr)
	deep.Snapshot(arr)
	arr[0] = 9
	if deep.Last().([]any)[0] != 1 {
		t.Error("snapshot should be independent of the live array")
	}

	shallow, _ := NewPath("items", nil, Options{})
	shallow.Once(arr)
	shallow.Snapshot([]any{"ignored"})
	if shallow.Last().([]any)[0] != 9 {
		t.Error("shallow watchers should ignore snapshots")
	}
}

func TestUpdateAccessor(t *testing.T) {
	state := reactive.Wrap(map[string]any{"a": 1, "b": 2}, reactive.Hooks{})
	var calls []call
	w := NewFunc(func(s *reactive.View) any {
		a, _ := s.Get("a")
		b, _ := s.Get("b")
		return a.(int) + b.(int)
	}, collect(&calls), Options{})

	w.Once(w.Evaluate(state))
	if err := state.Set("a", 5); err != nil {
		t.Fatal(err)
	}
	if !w.Update(state) {
		t.Fatal("Update should fire after a change")
	}
	if calls[0] != (call{7, 3}) {
		t.Errorf("call = %+v, want (7, 3)", calls[0])
	}
	if w.Update(state) {
		t.Error("Update without change should not fire")
	}
}

func TestAffects(t *testing.T) {
	w, _ := NewPath("a.b", nil, Options{})
	tests := map[string]bool{
		"a.b":    true,
		"a":      true,
		"a.b.c":  true,
		"a.b[1]": true,
		"a.bc":   false,
		"x":      false,
	}
	for changed, want := range tests {
		if got := w.Affects(changed); got != want {
			t.Errorf("Affects(%q) = %v, want %v", changed, got, want)
		}
	}

	fn := NewFunc(func(*reactive.View) any { return nil }, nil, Options{})
	if !fn.Affects("anything") {
		t.Error("accessor watchers are affected by every change")
	}
}

func TestStop(t *testing.T) {
	var calls []call
	w, _ := NewPath("a", collect(&calls), Options{})
	w.Once(1)
	w.Stop()

	if w.Call(2) {
		t.Error("stopped watcher fired")
	}
	if !w.Stopped() {
		t.Error("Stopped() = false")
	}
}

func TestCallBeforeOncePrimes(t *testing.T) {
	var calls []call
	w, _ := NewPath("a", collect(&calls), Options{})
	if w.Call(1) {
		t.Error("first Call on an unprimed watcher should only prime")
	}
	if !w.Call(2) || calls[0] != (call{2, 1}) {
		t.Errorf("calls = %+v", calls)
	}
}
