package graph

import "errors"

// The three error kinds of the resolver/graph boundary. NotFound and
// BadParameter receive identical handling by callers (the resolver logs and
// drops the event); Duplicate is returned to the caller and never silently
// swallowed.
var (
	ErrNotFound     = errors.New("graph: not found")
	ErrBadParameter = errors.New("graph: bad parameter")
	ErrDuplicate    = errors.New("graph: duplicate")
)
