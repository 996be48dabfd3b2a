package store

import (
	"github.com/vango-dev/vstore/internal/errors"
	"github.com/vango-dev/vstore/pkg/deps"
	"github.com/vango-dev/vstore/pkg/reactive"
)

// Sentinels for errors.Is. Every error the store returns is a structured
// error whose code matches one of these.
var (
	ErrUnknownMutation    = errors.New("E201")
	ErrInvalidCommitShape = errors.New("E202")
	ErrMissingSetter      = deps.ErrMissingSetter
	ErrMalformedPath      = reactive.ErrMalformedPath
	ErrUnknownGetter      = errors.New("E205")
	ErrUnknownAction      = errors.New("E206")
	ErrPathNotFound       = reactive.ErrPathNotFound
	ErrNotAnArray         = reactive.ErrNotAnArray
)
