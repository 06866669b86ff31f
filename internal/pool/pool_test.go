package pool

import (
	"testing"
	"time"

	"modeld/internal/sandbox"
)

func echoAddLoader() sandbox.Loader {
	return sandbox.NewEchoLoader(map[string]func([]sandbox.Pair) ([]sandbox.Pair, error){
		"add": func(args []sandbox.Pair) ([]sandbox.Pair, error) {
			return append(args, sandbox.Pair{"handled", "true"}), nil
		},
	})
}

func newTestPool(t *testing.T, cfg Config) *Pool {
	t.Helper()
	if cfg.Loader == nil {
		cfg.Loader = echoAddLoader()
	}
	if cfg.Name == "" {
		cfg.Name = "test-model"
	}
	cfg.SweepInterval = 20 * time.Millisecond
	cfg.DrainTimeout = 500 * time.Millisecond
	cfg.StartTimeout = time.Second
	cfg.StopDelay = time.Millisecond
	p := New(cfg)
	t.Cleanup(func() { p.Destroy() })
	return p
}

func TestSubmitDispatchesToFreeThread(t *testing.T) {
	p := newTestPool(t, Config{Min: 1, Max: 1})
	if err := p.StartThreads(); err != nil {
		t.Fatalf("StartThreads: %v", err)
	}

	res, err := p.Submit("add", map[string]any{"x": 1})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.HasError {
		t.Fatalf("unexpected error result: %s", res.Message)
	}
}

func TestElasticGrowthAboveQueueTolerance(t *testing.T) {
	p := newTestPool(t, Config{Min: 1, Max: 3, QueueTolerance: 25})

	// Block the single thread with a slow job so further submits queue and
	// push queueRate above tolerance, forcing growth.
	slow := sandbox.NewEchoLoader(map[string]func([]sandbox.Pair) ([]sandbox.Pair, error){
		"slow": func(args []sandbox.Pair) ([]sandbox.Pair, error) {
			time.Sleep(200 * time.Millisecond)
			return args, nil
		},
	})
	p.mu.Lock()
	p.loader = slow
	p.mu.Unlock()
	if err := p.StartThreads(); err != nil {
		t.Fatalf("StartThreads: %v", err)
	}

	done := make(chan struct{})
	go func() {
		p.Submit("slow", nil)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond) // let the slow job occupy the only thread

	res, err := p.Submit("add", nil)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.HasError {
		t.Fatalf("unexpected error: %s", res.Message)
	}

	p.mu.Lock()
	grew := p.totalThreads > 1
	p.mu.Unlock()
	if !grew {
		t.Fatalf("expected pool to grow past 1 thread, got %d", p.totalThreads)
	}
	<-done
}

func TestCloseDrainStopOrdering(t *testing.T) {
	p := newTestPool(t, Config{Min: 2, Max: 2})
	if err := p.StartThreads(); err != nil {
		t.Fatalf("StartThreads: %v", err)
	}

	if err := p.StopThreads(); !IsStopBeforeDrain(err) {
		t.Fatalf("expected stop-before-drain error, got %v", err)
	}

	p.Close()
	if err := p.Drain(); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if err := p.StopThreads(); err != nil {
		t.Fatalf("StopThreads: %v", err)
	}

	p.mu.Lock()
	total := p.totalThreads
	state := p.state
	p.mu.Unlock()
	if total != 0 {
		t.Fatalf("expected 0 threads after stop, got %d", total)
	}
	if state != StateStopped {
		t.Fatalf("expected stopped state, got %v", state)
	}
}

func TestDrainBeforeCloseRejected(t *testing.T) {
	p := newTestPool(t, Config{Min: 1, Max: 1})
	if err := p.StartThreads(); err != nil {
		t.Fatalf("StartThreads: %v", err)
	}
	if err := p.Drain(); !IsDrainingNotClosed(err) {
		t.Fatalf("expected draining-not-closed error, got %v", err)
	}
}

func TestReloadBumpsCount(t *testing.T) {
	p := newTestPool(t, Config{Min: 1, Max: 1})
	if err := p.StartThreads(); err != nil {
		t.Fatalf("StartThreads: %v", err)
	}
	if err := p.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := p.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	st := p.Status()
	if st.Reloads != 1 {
		t.Fatalf("expected 1 reload, got %d", st.Reloads)
	}
	if st.State != string(StateOpen) {
		t.Fatalf("expected open state after reload, got %s", st.State)
	}

	res, err := p.Submit("add", nil)
	if err != nil || res.HasError {
		t.Fatalf("pool unusable after reload: err=%v res=%+v", err, res)
	}
}

func TestSubmitQueuesWhileClosed(t *testing.T) {
	p := newTestPool(t, Config{Min: 1, Max: 1})
	if err := p.StartThreads(); err != nil {
		t.Fatalf("StartThreads: %v", err)
	}
	p.Close()

	resultCh := make(chan Result, 1)
	go func() {
		r, _ := p.Submit("add", nil)
		resultCh <- r
	}()

	time.Sleep(20 * time.Millisecond)
	st := p.Status()
	if st.WaitingJobs != 1 {
		t.Fatalf("expected job to queue while closed, got waiting=%d", st.WaitingJobs)
	}

	if err := p.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}

	select {
	case r := <-resultCh:
		if r.HasError {
			t.Fatalf("unexpected error: %s", r.Message)
		}
	case <-time.After(time.Second):
		t.Fatalf("queued job never resolved after reopen")
	}
}

func TestSubmitRejectedWhenClosedAndRejectPolicySet(t *testing.T) {
	p := newTestPool(t, Config{Min: 1, Max: 1, RejectWhenClosed: true})
	if err := p.StartThreads(); err != nil {
		t.Fatalf("StartThreads: %v", err)
	}
	p.Close()

	_, err := p.Submit("add", nil)
	if !IsPoolClosed(err) {
		t.Fatalf("expected pool-closed error, got %v", err)
	}
}

func TestDestroyIsIdempotentAndRejectsSubmit(t *testing.T) {
	p := newTestPool(t, Config{Min: 1, Max: 1})
	if err := p.StartThreads(); err != nil {
		t.Fatalf("StartThreads: %v", err)
	}
	p.Destroy()
	p.Destroy() // idempotent

	_, err := p.Submit("add", nil)
	if !IsPoolDestroyed(err) {
		t.Fatalf("expected pool-destroyed error, got %v", err)
	}
}

func TestQueueRateLocked(t *testing.T) {
	p := newTestPool(t, Config{Min: 0, Max: 1})
	p.mu.Lock()
	p.jobsRequested = 4
	p.jobsQueued = 1
	rate := p.queueRateLocked()
	p.mu.Unlock()
	if rate != 25 {
		t.Fatalf("expected queueRate 25, got %d", rate)
	}
}
