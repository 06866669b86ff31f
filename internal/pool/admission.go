package pool

import (
	"math"

	"modeld/internal/poolmetrics"
	"modeld/internal/worker"
)

// dispatchSend is dispatch-then-send pair applied outside the pool lock.
type dispatchSend struct {
	t *thread
	j *job
}

// Submit enqueues a job for name/data and blocks until it resolves, per
// the dispatch algorithm: pop a free Thread, grow elastically when the
// pool is saturated and queueRate exceeds tolerance, or queue a
// continuation for the next Thread to become free.
func (p *Pool) Submit(name string, data map[string]any) (Result, error) {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return Result{}, poolDestroyedError{pool: p.name}
	}
	p.jobsRequested++
	poolmetrics.JobsRequestedTotal.WithLabelValues(p.name).Inc()
	closed := p.state != StateOpen
	if closed && p.rejectClosed {
		p.mu.Unlock()
		return Result{}, poolClosedError{pool: p.name}
	}

	j := &job{name: name, data: data, result: make(chan Result, 1)}

	if closed {
		p.waitingJobs = append(p.waitingJobs, j)
		p.jobsQueued++
		poolmetrics.JobsQueuedTotal.WithLabelValues(p.name).Inc()
		p.mu.Unlock()
		return <-j.result, nil
	}

	if t := p.popFree(); t != nil {
		ds := p.dispatchLocked(t, j)
		p.mu.Unlock()
		p.send(ds)
		return <-j.result, nil
	}

	// The rate is taken as if this job had queued, so the first submission
	// that would have to wait is the one that grows the pool.
	rate := int(math.Round(100 * float64(p.jobsQueued+1) / float64(p.jobsRequested)))
	grow := p.totalThreads < p.max && (p.totalThreads == 0 || rate > p.queueTolerance)
	p.mu.Unlock()

	if grow {
		t, err := p.spawnThread()
		if err == nil {
			p.mu.Lock()
			if p.destroyed {
				p.mu.Unlock()
				p.terminate(t)
				return Result{}, poolDestroyedError{pool: p.name}
			}
			p.totalThreads++
			p.threads[t.id] = t
			ds := p.dispatchLocked(t, j)
			p.mu.Unlock()
			p.send(ds)
			return <-j.result, nil
		}
		// Growth failed (e.g. start-timeout): fall back to queueing
		// rather than failing the caller outright.
	}

	p.mu.Lock()
	p.waitingJobs = append(p.waitingJobs, j)
	p.jobsQueued++
	poolmetrics.JobsQueuedTotal.WithLabelValues(p.name).Inc()
	p.mu.Unlock()
	return <-j.result, nil
}

// queueRateLocked returns round(100*jobsQueued/jobsRequested). Caller
// must hold mu.
func (p *Pool) queueRateLocked() int {
	if p.jobsRequested == 0 {
		return 0
	}
	rate := math.Round(100 * float64(p.jobsQueued) / float64(p.jobsRequested))
	if rate > 100 {
		rate = 100
	}
	return int(rate)
}

func (p *Pool) popFree() *thread {
	n := len(p.freeThreads)
	if n == 0 {
		return nil
	}
	t := p.freeThreads[n-1]
	p.freeThreads = p.freeThreads[:n-1]
	return t
}

// dispatchLocked marks t busy and records j as its pending job. Caller
// must hold mu; the actual send to the Worker happens after unlocking via
// send, so the lock is never held across a channel operation.
func (p *Pool) dispatchLocked(t *thread, j *job) dispatchSend {
	t.state = ThreadBusy
	p.pending[t.id] = j
	return dispatchSend{t: t, j: j}
}

func (p *Pool) send(ds dispatchSend) {
	ds.t.w.Send(toWorkerMsg(ds.j))
}

// onJobDone is invoked from a Thread's readLoop goroutine when its Worker
// replies. It resolves the completed job's future and, per the dispatch
// algorithm, either hands the same Thread the next waiting job or
// returns it to the free stack.
func (p *Pool) onJobDone(t *thread, wr worker.Result) {
	p.mu.Lock()
	j := p.pending[t.id]
	delete(p.pending, t.id)

	var next *job
	if len(p.waitingJobs) > 0 {
		next = p.waitingJobs[0]
		p.waitingJobs = p.waitingJobs[1:]
		p.pending[t.id] = next
		t.state = ThreadBusy
	} else {
		t.state = ThreadIdle
		p.freeThreads = append(p.freeThreads, t)
	}
	noJobsRunning := p.totalThreads == len(p.freeThreads)
	p.mu.Unlock()

	if j != nil {
		res := toResult(wr)
		j.result <- res
		if !res.HasError {
			if name, fields, ok := domainEvent(res.Value); ok {
				p.publish(name, fields)
			}
		}
	}
	if next != nil {
		t.w.Send(toWorkerMsg(next))
	}
	if noJobsRunning {
		p.publish(EventNoJobsRunning, nil)
	}
}
