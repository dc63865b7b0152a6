package tiling

import "errors"

var (
	// ErrInvalidTopology reports an attach whose vertices are not adjacent
	// open boundary vertices. It is a programming error; the graph is left
	// untouched.
	ErrInvalidTopology = errors.New("tiling: invalid topology")

	// ErrGrowthHalted is returned by Grow when no open vertex can take
	// another triangle. It is a terminal state, not a failure.
	ErrGrowthHalted = errors.New("tiling: growth halted")

	// ErrInvalidConfig reports a seed configuration that cannot produce a
	// triangle.
	ErrInvalidConfig = errors.New("tiling: invalid configuration")
)
