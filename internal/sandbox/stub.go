package sandbox

import "context"

// stubModule satisfies Module without loading any real compute unit. It is
// the default Loader used when no concrete sandbox runtime is configured:
// refuse to run rather than fake a result in production builds.
type stubModule struct{ file string }

// NewStubLoader returns a Loader that produces a stubModule; every Invoke
// fails with ErrNotBuilt.
func NewStubLoader() Loader {
	return func(file string, _ map[string]any) (Module, error) {
		return &stubModule{file: file}, nil
	}
}

// ErrNotBuilt is returned by stubModule.Invoke.
type ErrNotBuilt struct{ File string }

func (e ErrNotBuilt) Error() string {
	return "sandbox: no compute runtime built for " + e.File
}

func (s *stubModule) Invoke(ctx context.Context, fn string, args []Pair) ([]Pair, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	return nil, ErrNotBuilt{File: s.file}
}

func (s *stubModule) Close() error { return nil }
