package reconcile

import "errors"

var (
	ErrUnknown    = errors.New("server state unknown")
	ErrReadOnly   = errors.New("comment is read-only")
	ErrURLUnknown = errors.New("comment has no server url")
)
