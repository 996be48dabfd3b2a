package script

import (
	"github.com/vango-dev/vstore/internal/errors"
	"github.com/vango-dev/vstore/pkg/reactive"
	"github.com/vango-dev/vstore/pkg/store"
)

// Builtins returns generic mutations for stores without Go-defined ones.
// Every payload is an object naming a state path:
//
//	set        {path, value}
//	delete     {path}
//	increment  {path, by}           by defaults to 1
//	push       {path, value}        or {path, values: [...]}
//	pop        {path}
//	splice     {path, start, deleteCount, items}
func Builtins() map[string]store.Mutation {
	return map[string]store.Mutation{
		"set":       mutateSet,
		"delete":    mutateDelete,
		"increment": mutateIncrement,
		"push":      mutatePush,
		"pop":       mutatePop,
		"splice":    mutateSplice,
	}
}

func mutateSet(state *reactive.View, payload any) error {
	p, path, err := args(payload)
	if err != nil {
		return err
	}
	return state.Set(path, p["value"])
}

func mutateDelete(state *reactive.View, payload any) error {
	_, path, err := args(payload)
	if err != nil {
		return err
	}
	return state.Delete(path)
}

func mutateIncrement(state *reactive.View, payload any) error {
	p, path, err := args(payload)
	if err != nil {
		return err
	}
	by := any(1)
	if v, ok := p["by"]; ok {
		by = v
	}
	cur, err := state.Value(path)
	if err != nil {
		return err
	}
	if cur == nil {
		cur = 0
	}
	sum, ok := add(cur, by)
	if !ok {
		return errors.New("E202").WithDetailf("increment %q: %T + %T is not numeric", path, cur, by)
	}
	return state.Set(path, sum)
}

func mutatePush(state *reactive.View, payload any) error {
	p, path, err := args(payload)
	if err != nil {
		return err
	}
	arr, err := state.ArrayAt(path)
	if err != nil {
		return err
	}
	if values, ok := p["values"].([]any); ok {
		_, err = arr.Push(values...)
		return err
	}
	_, err = arr.Push(p["value"])
	return err
}

func mutatePop(state *reactive.View, payload any) error {
	_, path, err := args(payload)
	if err != nil {
		return err
	}
	arr, err := state.ArrayAt(path)
	if err != nil {
		return err
	}
	_, err = arr.Pop()
	return err
}

func mutateSplice(state *reactive.View, payload any) error {
	p, path, err := args(payload)
	if err != nil {
		return err
	}
	arr, err := state.ArrayAt(path)
	if err != nil {
		return err
	}
	start, _ := toInt(p["start"])
	deleteCount, ok := toInt(p["deleteCount"])
	if !ok {
		deleteCount = arr.Len()
	}
	items, _ := p["items"].([]any)
	_, err = arr.Splice(start, deleteCount, items...)
	return err
}

// args checks the common payload shape and returns its path.
func args(payload any) (map[string]any, string, error) {
	p, ok := payload.(map[string]any)
	if !ok {
		return nil, "", errors.New("E202").WithDetailf("payload must be an object with a path, got %T", payload)
	}
	path, ok := p["path"].(string)
	if !ok || path == "" {
		return nil, "", errors.New("E202").WithDetail(`payload needs a string "path"`)
	}
	return p, path, nil
}

// add sums two numbers decoded from any supported format. The sum is an
// integer unless either operand is a float.
func add(a, b any) (any, bool) {
	_, aFloat := a.(float64)
	_, bFloat := b.(float64)
	if !aFloat && !bFloat {
		ai, aok := toInt64(a)
		bi, bok := toInt64(b)
		if aok && bok {
			if _, ok := a.(int); ok {
				return int(ai + bi), true
			}
			return ai + bi, true
		}
	}
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if !aok || !bok {
		return nil, false
	}
	return af + bf, true
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case uint64:
		return int64(n), true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
	}
	return 0, false
}

func toInt(v any) (int, bool) {
	n, ok := toInt64(v)
	return int(n), ok
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	if i, ok := toInt64(v); ok {
		return float64(i), true
	}
	return 0, false
}
