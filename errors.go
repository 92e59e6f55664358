package mtree

import "errors"

// ErrInvalidConfiguration is returned by New when the capacity
// parameters in Options violate their constraints.
var ErrInvalidConfiguration = errors.New("mtree: invalid configuration")

// ErrNotFound is returned by Remove when the data object isn't indexed.
var ErrNotFound = errors.New("mtree: data not found")

// ErrDistanceContract identifies a distance function breaking its
// contract: returning a negative distance, or disagreeing with itself
// about the distance between two fixed objects. No code in this package
// returns or logs it; Validate checks only the tree's structure and
// does not test the distance function.
var ErrDistanceContract = errors.New("mtree: distance function violated its contract")

// ErrInvariantViolation is wrapped by Validate when a structural
// invariant of the tree (capacity, radius, or distance-to-parent
// bookkeeping) doesn't hold.
var ErrInvariantViolation = errors.New("mtree: structural invariant violated")
