package pool

import (
	"time"

	"modeld/internal/sandbox"
	"modeld/internal/worker"
)

// spawnThread loads a fresh sandbox.Module, starts a Worker around it, and
// waits for the Worker's ready handshake. The caller must hold mu only
// around bookkeeping, not around this call: module loading and the
// handshake wait may take a while and must not block other Pool state
// changes.
func (p *Pool) spawnThread() (*thread, error) {
	mod, err := p.loader(p.file, p.workerData)
	if err != nil {
		return nil, err
	}
	id := p.nextThreadID()
	w := worker.New(id, mod)

	select {
	case r := <-w.Replies():
		if !r.Ready {
			return nil, startTimeoutError{pool: p.name}
		}
	case <-time.After(p.startTimeout):
		return nil, startTimeoutError{pool: p.name}
	}

	t := &thread{id: id, createdAt: time.Now(), state: ThreadIdle, w: w}
	go p.readLoop(t)
	return t, nil
}

// readLoop is the sole reader of t.w.Replies(). It runs for the Thread's
// entire lifetime and routes completions back into the Pool, or observes
// the Thread dying (the Replies channel closing without an Exit ack).
func (p *Pool) readLoop(t *thread) {
	for {
		r, ok := <-t.w.Replies()
		if !ok {
			p.onThreadDied(t)
			return
		}
		if r.Exit {
			return
		}
		p.onJobDone(t, r.Result)
	}
}

// onThreadDied handles catastrophic Worker failure: the owning Thread is
// removed from the pool, totalThreads is decremented, and any in-flight
// job on that Thread fails with worker-exited.
func (p *Pool) onThreadDied(t *thread) {
	p.mu.Lock()
	delete(p.threads, t.id)
	p.removeFromFree(t.id)
	t.state = ThreadTerminated
	if p.totalThreads > 0 {
		p.totalThreads--
	}
	j := p.pending[t.id]
	delete(p.pending, t.id)
	noJobsRunning := p.totalThreads == len(p.freeThreads)
	p.mu.Unlock()

	if j != nil {
		j.result <- Result{HasError: true, Message: workerExitedError{pool: p.name}.Error()}
	}
	if noJobsRunning {
		p.publish(EventNoJobsRunning, nil)
	}
}

func (p *Pool) removeFromFree(id string) {
	for i, ft := range p.freeThreads {
		if ft.id == id {
			p.freeThreads = append(p.freeThreads[:i], p.freeThreads[i+1:]...)
			return
		}
	}
}

func toWorkerMsg(j *job) worker.Msg {
	return worker.Msg{Name: j.name, Data: j.data}
}

func toResult(r worker.Result) Result {
	return Result{Value: sandbox.FromPairs(r.Value), HasError: r.HasError, Message: r.Message}
}
