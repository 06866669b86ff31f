package sandbox

import "context"

// EchoModule is an in-memory reference Module used by tests. Registered
// functions are plain Go closures operating on already-lowered pairs, so
// tests can exercise the Worker/Pool machinery without a real compute
// runtime.
type EchoModule struct {
	Funcs map[string]func([]Pair) ([]Pair, error)
}

// NewEchoLoader returns a Loader producing an EchoModule with funcs
// installed; file and workerData are ignored.
func NewEchoLoader(funcs map[string]func([]Pair) ([]Pair, error)) Loader {
	return func(_ string, _ map[string]any) (Module, error) {
		return &EchoModule{Funcs: funcs}, nil
	}
}

func (m *EchoModule) Invoke(ctx context.Context, fn string, args []Pair) ([]Pair, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, ok := m.Funcs[fn]
	if !ok {
		return args, nil
	}
	return f(args)
}

func (m *EchoModule) Close() error { return nil }
