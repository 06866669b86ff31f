package pool

import "time"

// startSweep launches the background dequeue sweep: a periodic task that
// hands free Threads to waiting Jobs, recovering from a lost wakeup
// between a Worker replying and the pool registering that completion. It
// is idempotent by construction: sweepOnce never consumes more than
// min(|freeThreads|, |waitingJobs|) pairs. It does nothing while the pool
// is not open, so jobs queued while closed wait for Open.
func (p *Pool) startSweep() {
	p.sweepStop = make(chan struct{})
	p.sweepDone = make(chan struct{})
	go func() {
		defer close(p.sweepDone)
		ticker := time.NewTicker(p.sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.sweepOnce()
			case <-p.sweepStop:
				return
			}
		}
	}()
}

func (p *Pool) sweepOnce() {
	var pairs []dispatchSend
	p.mu.Lock()
	if p.state != StateOpen {
		p.mu.Unlock()
		return
	}
	n := len(p.freeThreads)
	if len(p.waitingJobs) < n {
		n = len(p.waitingJobs)
	}
	for i := 0; i < n; i++ {
		t := p.popFree()
		j := p.waitingJobs[0]
		p.waitingJobs = p.waitingJobs[1:]
		pairs = append(pairs, p.dispatchLocked(t, j))
	}
	p.mu.Unlock()
	for _, ds := range pairs {
		p.send(ds)
	}
}
