package pool

import (
	"time"

	"modeld/internal/worker"
)

// Close stops new-Job admission (subject to the registry's admission
// policy); already-queued Jobs still drain. Idempotent.
func (p *Pool) Close() {
	p.mu.Lock()
	transitioned := p.state == StateOpen
	if transitioned {
		p.state = StateClosed
	}
	p.mu.Unlock()
	if transitioned {
		p.logf("close").Msg("pool closed")
		p.publish(EventPoolClose, nil)
	}
}

// Open brings a pool with live Threads back to the open state. Idempotent.
func (p *Pool) Open() error {
	p.mu.Lock()
	if p.state == StateOpen {
		p.mu.Unlock()
		return nil
	}
	if p.totalThreads == 0 {
		p.mu.Unlock()
		return openNoThreadsError{pool: p.name}
	}
	p.state = StateOpen
	p.mu.Unlock()
	p.logf("open").Msg("pool opened")
	p.publish(EventPoolOpen, nil)
	return nil
}

// Drain blocks until noJobsRunning or the drain timeout elapses. It
// requires the pool to already be closed.
func (p *Pool) Drain() error {
	p.mu.Lock()
	switch p.state {
	case StateClosed:
		// proceed below
	case StateDrained:
		p.mu.Unlock()
		return nil
	default:
		p.mu.Unlock()
		return drainingNotClosedError{pool: p.name}
	}
	p.mu.Unlock()

	deadline := time.Now().Add(p.drainTimeout)
	for {
		p.mu.Lock()
		noJobs := p.totalThreads == len(p.freeThreads)
		p.mu.Unlock()
		if noJobs {
			p.mu.Lock()
			p.state = StateDrained
			p.mu.Unlock()
			p.publish(EventPoolDrain, nil)
			return nil
		}
		if time.Now().After(deadline) {
			p.mu.Lock()
			p.state = StateDrained
			p.mu.Unlock()
			p.logf("drain_timeout").Msg("drain timed out; survivors are leaked")
			p.publish(EventPoolDrain, map[string]any{"timeout": true})
			return drainTimeoutError{pool: p.name}
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// StopThreads terminates every live Thread. It must be called after a
// successful Drain. A short delay separates removing Threads from the
// free stack and sending their shutdown signal.
func (p *Pool) StopThreads() error {
	p.mu.Lock()
	if p.state != StateDrained {
		p.mu.Unlock()
		return stopBeforeDrainError{pool: p.name}
	}
	snapshot := make([]*thread, 0, len(p.threads))
	for _, t := range p.threads {
		snapshot = append(snapshot, t)
	}
	p.freeThreads = nil
	for _, t := range snapshot {
		t.state = ThreadDraining
	}
	p.mu.Unlock()

	time.Sleep(p.stopDelay)

	for _, t := range snapshot {
		p.terminate(t)
	}

	p.mu.Lock()
	for _, t := range snapshot {
		delete(p.threads, t.id)
	}
	p.totalThreads = 0
	p.state = StateStopped
	p.mu.Unlock()
	return nil
}

// terminate sends the shutdown message and waits up to the shutdown grace
// period for it to be accepted. It does no bookkeeping: readLoop simply
// returns on the Exit ack, and callers such as StopThreads and Destroy
// remove the Thread from threads and reset totalThreads themselves.
func (p *Pool) terminate(t *thread) {
	sent := make(chan struct{})
	go func() {
		t.w.Send(worker.Msg{Name: worker.ShutdownJob})
		close(sent)
	}()
	select {
	case <-sent:
	case <-time.After(p.shutdownGrace):
	}
}

// StartThreads brings the pool up to Min live Threads. It rejects if any
// Thread from a previous generation is still alive.
func (p *Pool) StartThreads() error {
	p.mu.Lock()
	if p.totalThreads > 0 {
		p.mu.Unlock()
		return startWithExistingThreadsError{pool: p.name}
	}
	target := p.min
	p.mu.Unlock()

	spawned := make([]*thread, 0, target)
	for i := 0; i < target; i++ {
		t, err := p.spawnThread()
		if err != nil {
			for _, s := range spawned {
				p.terminate(s)
			}
			return err
		}
		spawned = append(spawned, t)
	}

	p.mu.Lock()
	for _, t := range spawned {
		p.threads[t.id] = t
		p.freeThreads = append(p.freeThreads, t)
	}
	p.totalThreads = len(spawned)
	if p.state == StateStopped {
		p.state = StateDrained
	}
	p.mu.Unlock()
	return nil
}

// Reload is the composite close; drain; stopThreads; startThreads; open;
// bumpDeployCount, executed atomically with respect to new submissions:
// submissions arriving mid-reload simply queue (Submit's
// queue-while-closed path), exactly as a Close would have made them.
func (p *Pool) Reload() error {
	p.Close()
	if err := p.Drain(); err != nil && !IsDrainTimeout(err) {
		return err
	}
	if err := p.StopThreads(); err != nil {
		return err
	}
	if err := p.StartThreads(); err != nil {
		return err
	}
	if err := p.Open(); err != nil {
		return err
	}
	p.mu.Lock()
	p.reloads++
	p.mu.Unlock()
	return nil
}

// Destroy closes, drains (best-effort), stops every Thread, and marks the
// pool unusable: subsequent Submit calls (including ones already racing
// this call) observe pool-destroyed. Idempotent.
func (p *Pool) Destroy() {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return
	}
	p.state = StateClosed
	p.mu.Unlock()
	p.publish(EventPoolClose, nil)

	deadline := time.Now().Add(p.drainTimeout)
	for {
		p.mu.Lock()
		noJobs := p.totalThreads == len(p.freeThreads)
		p.mu.Unlock()
		if noJobs || time.Now().After(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	p.mu.Lock()
	p.state = StateDrained
	snapshot := make([]*thread, 0, len(p.threads))
	for _, t := range p.threads {
		snapshot = append(snapshot, t)
	}
	p.freeThreads = nil
	p.mu.Unlock()

	time.Sleep(p.stopDelay)
	for _, t := range snapshot {
		p.terminate(t)
	}

	p.mu.Lock()
	for _, t := range snapshot {
		delete(p.threads, t.id)
	}
	p.totalThreads = 0
	p.state = StateStopped
	p.destroyed = true
	p.mu.Unlock()

	close(p.sweepStop)
	<-p.sweepDone
}
