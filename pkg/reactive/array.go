package reactive

import (
	"fmt"
	"sort"

	"github.com/vango-dev/vstore/internal/errors"
)

// Array mutator names as reported to BeforeMethod and AfterMethod.
const (
	MethodPush    = "push"
	MethodPop     = "pop"
	MethodShift   = "shift"
	MethodUnshift = "unshift"
	MethodSplice  = "splice"
	MethodSort    = "sort"
	MethodReverse = "reverse"
)

// mutate runs op as one logical change: BeforeMethod sees the pre-call
// array, the result is stored back, then AfterMethod and a single Notify
// report the whole array at the view's own path.
func (v *View) mutate(method string, op func([]any) []any) error {
	defer v.guard()()
	arr, ok := v.Raw().([]any)
	if !ok {
		return errors.New("E208").WithDetailf("%s on %q", method, v.path)
	}

	hooks := v.doc.hooks
	if hooks.BeforeMethod != nil {
		hooks.BeforeMethod(v.path, method, arr)
	}

	arr = op(arr)
	v.store(arr)

	if hooks.AfterMethod != nil {
		hooks.AfterMethod(v.path, method, arr)
	}
	if hooks.Notify != nil {
		hooks.Notify(v.path, arr)
	}
	return nil
}

// Push appends items and returns the new length.
func (v *View) Push(items ...any) (int, error) {
	var n int
	err := v.mutate(MethodPush, func(arr []any) []any {
		for _, it := range items {
			arr = append(arr, flatten(it))
		}
		n = len(arr)
		return arr
	})
	return n, err
}

// Pop removes and returns the last element.
func (v *View) Pop() (any, error) {
	var out any
	err := v.mutate(MethodPop, func(arr []any) []any {
		if len(arr) == 0 {
			return arr
		}
		out = arr[len(arr)-1]
		return arr[:len(arr)-1]
	})
	return out, err
}

// Shift removes and returns the first element.
func (v *View) Shift() (any, error) {
	var out any
	err := v.mutate(MethodShift, func(arr []any) []any {
		if len(arr) == 0 {
			return arr
		}
		out = arr[0]
		return append(make([]any, 0, len(arr)-1), arr[1:]...)
	})
	return out, err
}

// Unshift prepends items and returns the new length.
func (v *View) Unshift(items ...any) (int, error) {
	var n int
	err := v.mutate(MethodUnshift, func(arr []any) []any {
		next := make([]any, 0, len(arr)+len(items))
		for _, it := range items {
			next = append(next, flatten(it))
		}
		next = append(next, arr...)
		n = len(next)
		return next
	})
	return n, err
}

// Splice removes deleteCount elements at start, inserts items in their
// place and returns the removed elements. A negative start counts from
// the end; out-of-range arguments are clamped.
func (v *View) Splice(start, deleteCount int, items ...any) ([]any, error) {
	var removed []any
	err := v.mutate(MethodSplice, func(arr []any) []any {
		n := len(arr)
		if start < 0 {
			start = max(n+start, 0)
		}
		start = min(start, n)
		deleteCount = min(max(deleteCount, 0), n-start)

		removed = append([]any(nil), arr[start:start+deleteCount]...)

		next := make([]any, 0, n-deleteCount+len(items))
		next = append(next, arr[:start]...)
		for _, it := range items {
			next = append(next, flatten(it))
		}
		next = append(next, arr[start+deleteCount:]...)
		return next
	})
	return removed, err
}

// Sort orders the array in place. A nil less compares the elements'
// string forms.
func (v *View) Sort(less func(a, b any) bool) error {
	if less == nil {
		less = func(a, b any) bool { return fmt.Sprint(a) < fmt.Sprint(b) }
	}
	return v.mutate(MethodSort, func(arr []any) []any {
		sort.SliceStable(arr, func(i, j int) bool { return less(arr[i], arr[j]) })
		return arr
	})
}

// Reverse reverses the array in place.
func (v *View) Reverse() error {
	return v.mutate(MethodReverse, func(arr []any) []any {
		for i, j := 0, len(arr)-1; i < j; i, j = i+1, j-1 {
			arr[i], arr[j] = arr[j], arr[i]
		}
		return arr
	})
}

// ArrayAt returns the array view at path, or an error if path does not
// resolve to an array.
func (v *View) ArrayAt(path string) (*View, error) {
	got, err := v.Get(path)
	if err != nil {
		return nil, err
	}
	vw, ok := got.(*View)
	if !ok || !vw.IsArray() {
		return nil, errors.New("E208").WithDetailf("%q", JoinPath(v.path, path, false))
	}
	return vw, nil
}
