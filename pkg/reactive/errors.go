package reactive

import "github.com/vango-dev/vstore/internal/errors"

// Sentinels for errors.Is. Returned errors carry the offending path in
// their detail and match these by code.
var (
	ErrMalformedPath = errors.New("E204")
	ErrPathNotFound  = errors.New("E207")
	ErrNotAnArray    = errors.New("E208")
)
