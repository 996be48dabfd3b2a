package reactive

// Lookup resolves path against plain data without reporting anything.
// The second result is false when some segment is missing.
func Lookup(data any, path string) (any, bool, error) {
	segs, err := ParsePath(path)
	if err != nil {
		return nil, false, err
	}
	if vw, ok := data.(*View); ok {
		defer vw.guard()()
		data = vw.Raw()
	}
	cur := data
	for _, seg := range segs {
		switch t := cur.(type) {
		case map[string]any:
			var ok bool
			if cur, ok = t[seg.Key]; !ok {
				return nil, false, nil
			}
		case []any:
			idx, ok := seg.index()
			if !ok {
				if seg.Key == "length" {
					cur = len(t)
					continue
				}
				return nil, false, nil
			}
			if idx >= len(t) {
				return nil, false, nil
			}
			cur = t[idx]
		default:
			return nil, false, nil
		}
	}
	return cur, true, nil
}

// Peek reads path relative to the view without reporting anything and
// returns plain data.
func (v *View) Peek(path string) (any, error) {
	defer v.guard()()
	got, _, err := Lookup(v.Raw(), path)
	return got, err
}
