package source

import "errors"

// Sentinel errors for shift sources.
var (
	ErrMissingColumn = errors.New("missing column")
	ErrParseRow      = errors.New("cannot parse row")
	ErrDateRange     = errors.New("invalid date range")
)
