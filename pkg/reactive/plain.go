package reactive

import (
	"reflect"
)

// Normalize converts a value into the plain shape the engine works with:
// maps with string keys become map[string]any, slices and arrays become
// []any, recursively. Views are flattened to an independent copy of their
// backing data. Everything else (including structs) is returned unchanged.
//
// Values already in plain shape keep their identity.
func Normalize(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case *View:
		return Clone(t.Raw())
	case map[string]any:
		for k, child := range t {
			t[k] = Normalize(child)
		}
		return t
	case []any:
		for i, child := range t {
			t[i] = Normalize(child)
		}
		return t
	case []byte:
		return t
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = Normalize(iter.Value().Interface())
		}
		return out
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return []any(nil)
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = Normalize(rv.Index(i).Interface())
		}
		return out
	}
	return v
}

// Clone returns a deep copy of plain containers. Leaves are shared.
func Clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if t == nil {
			return t
		}
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[k] = Clone(child)
		}
		return out
	case []any:
		if t == nil {
			return t
		}
		out := make([]any, len(t))
		for i, child := range t {
			out[i] = Clone(child)
		}
		return out
	case *View:
		return Clone(t.Raw())
	}
	return v
}

// Equal reports structural equality: containers compare by contents,
// leaves by value.
func Equal(a, b any) bool {
	return reflect.DeepEqual(unview(a), unview(b))
}

// Identical reports whether a and b are the same value: containers compare
// by reference, comparable leaves with ==.
func Identical(a, b any) bool {
	a, b = unview(a), unview(b)
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if ra.Type() != rb.Type() {
		return false
	}
	switch ra.Kind() {
	case reflect.Map, reflect.Pointer, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return ra.Pointer() == rb.Pointer()
	case reflect.Slice:
		return ra.Pointer() == rb.Pointer() && ra.Len() == rb.Len()
	}
	if ra.Type().Comparable() {
		return a == b
	}
	return false
}

// IsContainer reports whether v is a plain object or array.
func IsContainer(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return true
	}
	return false
}

func unview(v any) any {
	if vw, ok := v.(*View); ok {
		return vw.Raw()
	}
	return v
}
