package sandbox

import (
	"context"
	"fmt"
)

// Module is the sandboxed compute unit loaded into a Worker. It exposes
// functions taking a two-dimensional array of string pairs and returning
// the same; the Worker lowers job data with ToPairs before Invoke, and the
// owning pool lifts the result with FromPairs.
type Module interface {
	// Invoke calls fn with args and returns its result pairs.
	Invoke(ctx context.Context, fn string, args []Pair) ([]Pair, error)
	// Close releases any resources held by the module.
	Close() error
}

// Loader constructs a Module for a given ModelSpec.File and WorkerData.
// A pool's workers each hold their own Module instance; Loader must be
// safe to call concurrently from multiple worker goroutines.
type Loader func(file string, workerData map[string]any) (Module, error)

// FatalError is returned from Invoke when the module itself has entered an
// unrecoverable state (a crashed child process, a corrupted runtime) rather
// than the invoked function merely failing. A Worker that sees a FatalError
// stops its run loop and closes its reply channel instead of reporting a
// normal job failure, which the owning pool observes as the Thread dying.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string { return fmt.Sprintf("sandbox: fatal: %v", e.Err) }
func (e *FatalError) Unwrap() error { return e.Err }
