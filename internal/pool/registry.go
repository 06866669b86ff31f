// Registry is the process-wide directory of Pools (C3): create, lookup,
// reload, and destroy, keyed by upper-cased model name.
package pool

import (
	"strings"
	"sync"
	"time"

	"modeld/internal/poolmetrics"
	"modeld/pkg/types"
)

// Registry maps upper(modelName) -> lazyPool. It is created once at
// process start and destroyed at process exit.
type Registry struct {
	mu    sync.RWMutex
	pools map[string]*lazyPool
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{pools: make(map[string]*lazyPool)}
}

func key(name string) string { return strings.ToUpper(name) }

// GetThreadPool returns the Pool for name, creating it if absent, and
// promotes it to a live Pool (starting Min Threads) before returning. The
// preload argument is not consulted: every call promotes, and no lazy
// facade is returned. Register is the call that installs a facade without
// promoting it.
func (r *Registry) GetThreadPool(name string, cfg Config, preload bool) *Pool {
	k := key(name)
	r.mu.Lock()
	lp, ok := r.pools[k]
	if !ok {
		cfg.Name = name
		lp = newLazyPool(cfg)
		r.pools[k] = lp
	}
	r.mu.Unlock()

	// cmd/poold calls this only for preload models and uses Register for
	// the rest, so those stay unpromoted until their first Submit.
	return lp.Pool()
}

// Register installs name's facade without promoting it to a live Pool,
// for non-preload models: the first Submit or GetThreadPool call against
// name does the actual promotion. A no-op if name is already registered.
func (r *Registry) Register(name string, cfg Config) {
	k := key(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pools[k]; ok {
		return
	}
	cfg.Name = name
	r.pools[k] = newLazyPool(cfg)
}

// Lookup returns the Pool for name if it has already been created
// (lazily or eagerly), without creating it.
func (r *Registry) Lookup(name string) (*Pool, bool) {
	r.mu.RLock()
	lp, ok := r.pools[key(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	live := lp.peek()
	if live == nil {
		return nil, false
	}
	return live, true
}

// Submit resolves name's Pool (creating it on first use) and submits.
func (r *Registry) Submit(name string, job string, data map[string]any) (Result, error) {
	r.mu.RLock()
	lp, ok := r.pools[key(name)]
	r.mu.RUnlock()
	if !ok {
		return Result{}, ErrModelNotFound(name)
	}
	return lp.Submit(job, data)
}

// StatusOne reports name's pool status, or false if it has not been
// created yet.
func (r *Registry) StatusOne(name string) (types.PoolStatus, bool) {
	p, ok := r.Lookup(name)
	if !ok {
		return types.PoolStatus{}, false
	}
	return p.Status(), true
}

// ClosePool closes name's pool. A no-op-returning-error if name is
// unknown, matching Submit's modelNotFoundError behavior.
func (r *Registry) ClosePool(name string) error {
	p, ok := r.Lookup(name)
	if !ok {
		return ErrModelNotFound(name)
	}
	p.Close()
	return nil
}

// OpenPool re-opens name's pool for admission.
func (r *Registry) OpenPool(name string) error {
	p, ok := r.Lookup(name)
	if !ok {
		return ErrModelNotFound(name)
	}
	return p.Open()
}

// DrainPool waits for name's pool to reach noJobsRunning.
func (r *Registry) DrainPool(name string) error {
	p, ok := r.Lookup(name)
	if !ok {
		return ErrModelNotFound(name)
	}
	start := time.Now()
	err := p.Drain()
	poolmetrics.DrainDurationSeconds.WithLabelValues(name).Observe(time.Since(start).Seconds())
	return err
}

// ReloadPool reloads a single named pool, as opposed to ReloadAll's
// every-pool sweep.
func (r *Registry) ReloadPool(name string) error {
	p, ok := r.Lookup(name)
	if !ok {
		return ErrModelNotFound(name)
	}
	return p.Reload()
}

// Ready reports whether the registry can serve requests. The registry
// itself has no startup phase of its own; it is ready as soon as it
// exists, so this always returns true. It satisfies httpapi.Service's
// readiness check and gives callers a place to add process-wide
// preconditions (mesh connectivity, for instance) later.
func (r *Registry) Ready() bool { return true }

// Names returns every registered model name (insertion order irrelevant).
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.pools))
	for k := range r.pools {
		out = append(out, k)
	}
	return out
}

// Status reports every created pool's status.
func (r *Registry) Status() types.RegistryStatus {
	r.mu.RLock()
	lps := make([]*lazyPool, 0, len(r.pools))
	for _, lp := range r.pools {
		lps = append(lps, lp)
	}
	r.mu.RUnlock()

	out := types.RegistryStatus{Pools: make([]types.PoolStatus, 0, len(lps))}
	for _, lp := range lps {
		live := lp.peek()
		if live == nil {
			continue
		}
		out.Pools = append(out.Pools, live.Status())
	}
	return out
}

// ObserveMetrics pushes every created pool's status onto the poolmetrics
// gauges. Meant to be called periodically (e.g. on SweepInterval) from a
// background goroutine; Status() itself does not touch Prometheus so tests
// calling it stay free of global registry side effects.
func (r *Registry) ObserveMetrics() {
	for _, st := range r.Status().Pools {
		poolmetrics.ObserveStatus(st.Name, st.TotalThreads, st.FreeThreads, st.QueueRate)
		poolmetrics.SetPoolState(st.Name, st.State)
	}
}

// ReloadAll reloads every created pool in parallel, then removes any pool
// whose model name is no longer present in known.
func (r *Registry) ReloadAll(known map[string]struct{}) {
	r.mu.RLock()
	lps := make([]*lazyPool, 0, len(r.pools))
	for _, lp := range r.pools {
		lps = append(lps, lp)
	}
	r.mu.RUnlock()

	var wg sync.WaitGroup
	for _, lp := range lps {
		live := lp.peek()
		if live == nil {
			continue
		}
		wg.Add(1)
		go func(p *Pool) {
			defer wg.Done()
			_ = p.Reload()
		}(live)
	}
	wg.Wait()

	r.removeUndeployedPools(known)
}

// removeUndeployedPools destroys any pool whose model is no longer known.
func (r *Registry) removeUndeployedPools(known map[string]struct{}) {
	r.mu.Lock()
	var stale []*lazyPool
	for k, lp := range r.pools {
		if _, ok := known[k]; !ok {
			stale = append(stale, lp)
			delete(r.pools, k)
		}
	}
	r.mu.Unlock()

	for _, lp := range stale {
		if live := lp.peek(); live != nil {
			live.Destroy()
		}
	}
}

// Destroy closes, drains, and stops name's Pool, then removes it from the
// registry. A no-op if name is unknown.
func (r *Registry) Destroy(name string) {
	r.mu.Lock()
	lp, ok := r.pools[key(name)]
	if ok {
		delete(r.pools, key(name))
	}
	r.mu.Unlock()
	if ok {
		if live := lp.peek(); live != nil {
			live.Destroy()
		}
	}
}

// Listen attaches cb to pattern's pool(s): a single pool matched
// case-insensitively, or every pool when pattern is "*".
func (r *Registry) Listen(pattern, eventName string, cb func(Event)) {
	if pattern == "*" {
		r.mu.RLock()
		lps := make([]*lazyPool, 0, len(r.pools))
		for _, lp := range r.pools {
			lps = append(lps, lp)
		}
		r.mu.RUnlock()
		for _, lp := range lps {
			attachListener(lp.Pool(), eventName, cb)
		}
		return
	}
	r.mu.RLock()
	lp, ok := r.pools[key(pattern)]
	r.mu.RUnlock()
	if !ok {
		return
	}
	attachListener(lp.Pool(), eventName, cb)
}

func attachListener(p *Pool, eventName string, cb func(Event)) {
	p.mu.Lock()
	prev := p.publisher
	p.publisher = fanoutPublisher{prev: prev, eventName: eventName, cb: cb}
	p.mu.Unlock()
}

// fanoutPublisher forwards to prev always, and additionally to cb when
// the event name matches.
type fanoutPublisher struct {
	prev      EventPublisher
	eventName string
	cb        func(Event)
}

func (f fanoutPublisher) Publish(e Event) {
	f.prev.Publish(e)
	if e.Name == f.eventName {
		f.cb(e)
	}
}
