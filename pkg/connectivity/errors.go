package connectivity

import (
	"errors"
	"fmt"
)

var (
	// ErrStaleGraph is returned by queries on a graph that is not RESOLVED.
	ErrStaleGraph = errors.New("connectivity graph is not resolved")
	// ErrItemNotFound means the item was not part of the last rebuild.
	ErrItemNotFound = errors.New("item not found")
	ErrNetNotFound  = errors.New("net not found")
	ErrBusNotFound  = errors.New("bus not found")
	// ErrSubgraphNotFound is returned for ids not issued by the current
	// generation.
	ErrSubgraphNotFound = errors.New("subgraph not found")
	// ErrStaleHandle is returned when resolving a handle minted by an
	// older rebuild.
	ErrStaleHandle = errors.New("stale item handle")
	// ErrRebuildCancelled wraps the context error of an abandoned rebuild.
	ErrRebuildCancelled = errors.New("rebuild cancelled")
)

// StaleGraphError carries the state a query was rejected in.
type StaleGraphError struct {
	State State
}

func (e *StaleGraphError) Error() string {
	return fmt.Sprintf("connectivity: %v (state %s)", ErrStaleGraph, e.State)
}

func (e *StaleGraphError) Unwrap() error { return ErrStaleGraph }
