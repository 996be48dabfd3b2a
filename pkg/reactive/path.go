package reactive

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/vango-dev/vstore/internal/errors"
)

// validPath matches the characters a path may contain.
var validPath = regexp.MustCompile(`^[\w.\[\]]*$`)

// Segment is one step of a parsed path.
// Index is set (and Bracket is true) for bracketed segments like [2].
type Segment struct {
	Key     string
	Index   int
	Bracket bool
}

// String renders the segment the way it appeared in the path.
func (s Segment) String() string {
	if s.Bracket {
		return "[" + s.Key + "]"
	}
	return s.Key
}

// index returns the segment as an array index.
// Dotted numeric keys ("items.0") are accepted as indices too.
func (s Segment) index() (int, bool) {
	if s.Bracket {
		return s.Index, true
	}
	n, err := strconv.Atoi(s.Key)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// ParsePath splits a path like "a.b[2].c" into segments.
// The empty path parses to no segments and addresses the view itself.
func ParsePath(path string) ([]Segment, error) {
	if path == "" {
		return nil, nil
	}
	if !validPath.MatchString(path) {
		return nil, malformed(path, "contains characters outside [\\w.[\\]]")
	}

	var segs []Segment
	i := 0
	expectKey := true
	for i < len(path) {
		switch c := path[i]; c {
		case '.':
			if expectKey || i == len(path)-1 {
				return nil, malformed(path, "empty key")
			}
			expectKey = true
			i++
		case '[':
			end := strings.IndexByte(path[i:], ']')
			if end < 0 {
				return nil, malformed(path, "unclosed bracket")
			}
			raw := path[i+1 : i+end]
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				return nil, malformed(path, "bracket index must be a non-negative integer")
			}
			segs = append(segs, Segment{Key: raw, Index: n, Bracket: true})
			expectKey = false
			i += end + 1
			if i < len(path) && path[i] != '.' && path[i] != '[' {
				return nil, malformed(path, "unexpected character after bracket")
			}
		case ']':
			return nil, malformed(path, "unbalanced bracket")
		default:
			if !expectKey && len(segs) > 0 {
				return nil, malformed(path, "missing separator")
			}
			j := i
			for j < len(path) && path[j] != '.' && path[j] != '[' && path[j] != ']' {
				j++
			}
			segs = append(segs, Segment{Key: path[i:j]})
			expectKey = false
			i = j
		}
	}
	return segs, nil
}

// ValidatePath reports whether path is well formed.
func ValidatePath(path string) error {
	_, err := ParsePath(path)
	return err
}

// JoinPath composes a child path. Array children use bracket notation,
// object children use a dot (or nothing at the root).
func JoinPath(base, key string, inArray bool) string {
	if inArray {
		return base + "[" + key + "]"
	}
	if base == "" {
		return key
	}
	return base + "." + key
}

// RootSegment returns the first segment of a path: "a" for "a.b[2].c".
func RootSegment(path string) string {
	if i := strings.IndexAny(path, ".["); i >= 0 {
		return path[:i]
	}
	return path
}

// IsWithin reports whether path equals prefix or addresses a location
// beneath it ("a.b" and "a.b[0]" are within "a.b"; "a.bc" is not).
func IsWithin(path, prefix string) bool {
	if prefix == "" {
		return true
	}
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	if len(path) == len(prefix) {
		return true
	}
	c := path[len(prefix)]
	return c == '.' || c == '['
}

func malformed(path, reason string) error {
	return errors.New("E204").WithDetailf("%q: %s", path, reason)
}
