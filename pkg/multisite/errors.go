package multisite

import "errors"

var (
	// ErrConfiguration marks failures that retrying cannot fix: the default
	// site id is unknown or a site record cannot be constructed.
	ErrConfiguration = errors.New("multisite configuration error")

	ErrUnknownKind = errors.New("unknown site tree node kind")

	// ErrCycle is returned when a node turns up twice while walking a subtree.
	ErrCycle = errors.New("site tree contains a cycle")
)
