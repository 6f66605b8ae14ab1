package history

import "errors"

// ErrOutOfResources is returned by AddChange when a configured limit would
// be violated by the insertion (spec.md §4.2).
var ErrOutOfResources = errors.New("history: out of resources")

// ErrInconsistentLimits is returned at construction when ResourceLimits
// cannot be jointly satisfied (spec.md §4.2: "consistency check on limits
// performed at construction").
var ErrInconsistentLimits = errors.New("history: inconsistent resource limits")
