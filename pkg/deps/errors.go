package deps

import "github.com/vango-dev/vstore/internal/errors"

// ErrMissingSetter matches assignments to computed properties that declare
// no setter.
var ErrMissingSetter = errors.New("E203")
